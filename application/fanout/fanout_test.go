package fanout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"chirper-backend/domain/timeline"
	"chirper-backend/domain/tweet"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFollowerStore serves followers in fixed-size pages so tests can
// exercise cursor exhaustion.
type mockFollowerStore struct {
	followers map[string][]string
	pageSize  int
	err       error
	pages     int
}

func (m *mockFollowerStore) GetFollowers(ctx context.Context, userID string, cursor string) ([]string, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	m.pages++

	all := m.followers[userID]
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	size := m.pageSize
	if size == 0 {
		size = len(all)
	}

	end := start + size
	if end >= len(all) {
		return all[start:], "", nil
	}
	return all[start:end], fmt.Sprintf("%d", end), nil
}

type mockTweetStore struct {
	byCreator map[string][]tweet.Tweet
	pageSize  int
	err       error
}

func (m *mockTweetStore) GetByCreator(ctx context.Context, userID string, cursor string) ([]tweet.Tweet, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}

	all := m.byCreator[userID]
	start := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "%d", &start)
	}
	size := m.pageSize
	if size == 0 {
		size = len(all)
	}

	end := start + size
	if end >= len(all) {
		return all[start:], "", nil
	}
	return all[start:end], fmt.Sprintf("%d", end), nil
}

func (m *mockTweetStore) GetByID(ctx context.Context, id string) (*tweet.Tweet, error) {
	return nil, nil
}

func (m *mockTweetStore) GetByIDs(ctx context.Context, ids []string) (map[string]tweet.Tweet, error) {
	return nil, nil
}

func (m *mockTweetStore) GetRetweetByCreator(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error) {
	return nil, nil
}

func (m *mockTweetStore) CreateTweet(ctx context.Context, t tweet.Tweet) error { return nil }

func (m *mockTweetStore) CreateRetweet(ctx context.Context, t, original tweet.Tweet) error {
	return nil
}

func (m *mockTweetStore) DeleteRetweet(ctx context.Context, rt, original tweet.Tweet) error {
	return nil
}

func (m *mockTweetStore) CreateReply(ctx context.Context, t, original tweet.Tweet) error {
	return nil
}

// mockTimelineStore records every write keyed by (user, tweet), the
// same uniqueness the real table enforces.
type mockTimelineStore struct {
	entries map[timeline.Key]timeline.Entry
	putErr  error
	delErr  error
	puts    int
	deletes int
}

func newMockTimelineStore() *mockTimelineStore {
	return &mockTimelineStore{entries: make(map[timeline.Key]timeline.Entry)}
}

func (m *mockTimelineStore) BatchPut(ctx context.Context, entries []timeline.Entry) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	for _, e := range entries {
		m.entries[e.Key()] = e
	}
	return nil
}

func (m *mockTimelineStore) BatchDelete(ctx context.Context, keys []timeline.Key) error {
	if m.delErr != nil {
		return m.delErr
	}
	m.deletes++
	for _, k := range keys {
		delete(m.entries, k)
	}
	return nil
}

func (m *mockTimelineStore) GetPage(ctx context.Context, userID string, limit int32, cursor string) ([]timeline.Entry, string, error) {
	var out []timeline.Entry
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, "", nil
}

func newTestTweet(creator string) tweet.Tweet {
	return tweet.Tweet{
		ID:        tweet.NewID(),
		Kind:      tweet.KindTweet,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
		Text:      "hello",
	}
}

func TestTweetDistributor_CreateDistributesToAllFollowers(t *testing.T) {
	followers := &mockFollowerStore{
		followers: map[string][]string{"alice": {"bob", "carol", "dave"}},
	}
	timelines := newMockTimelineStore()
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	tw := newTestTweet("alice")
	err := d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: tw}})
	require.NoError(t, err)

	require.Len(t, timelines.entries, 3)
	for _, followerID := range []string{"bob", "carol", "dave"} {
		entry, ok := timelines.entries[timeline.Key{UserID: followerID, TweetID: tw.ID}]
		require.True(t, ok, "missing entry for %s", followerID)
		assert.Equal(t, "alice", entry.DistributedFrom)
		assert.Equal(t, tw.CreatedAt, entry.Timestamp)
	}
}

func TestTweetDistributor_CreateSpansFollowerPages(t *testing.T) {
	var all []string
	for i := 0; i < 57; i++ {
		all = append(all, fmt.Sprintf("user-%03d", i))
	}
	followers := &mockFollowerStore{
		followers: map[string][]string{"alice": all},
		pageSize:  10,
	}
	timelines := newMockTimelineStore()
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	tw := newTestTweet("alice")
	err := d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: tw}})
	require.NoError(t, err)

	assert.Equal(t, 57, len(timelines.entries))
	assert.Equal(t, 6, followers.pages, "expected the follower index to be paged to exhaustion")
}

func TestTweetDistributor_DeleteRemovesDistributedEntries(t *testing.T) {
	followers := &mockFollowerStore{
		followers: map[string][]string{"alice": {"bob", "carol"}},
	}
	timelines := newMockTimelineStore()
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	tw := newTestTweet("alice")
	require.NoError(t, d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: tw}}))
	require.Len(t, timelines.entries, 2)

	require.NoError(t, d.Process(context.Background(), []TweetChange{{Op: TweetDeleted, Tweet: tw}}))
	assert.Empty(t, timelines.entries)
}

func TestTweetDistributor_RedeliveryIsIdempotent(t *testing.T) {
	followers := &mockFollowerStore{
		followers: map[string][]string{"alice": {"bob"}},
	}
	timelines := newMockTimelineStore()
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	tw := newTestTweet("alice")
	batch := []TweetChange{{Op: TweetCreated, Tweet: tw}}
	require.NoError(t, d.Process(context.Background(), batch))
	require.NoError(t, d.Process(context.Background(), batch))

	assert.Len(t, timelines.entries, 1)
}

func TestTweetDistributor_NoFollowersIsNoop(t *testing.T) {
	followers := &mockFollowerStore{followers: map[string][]string{}}
	timelines := newMockTimelineStore()
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	err := d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: newTestTweet("alice")}})
	require.NoError(t, err)
	assert.Zero(t, timelines.puts)
}

func TestTweetDistributor_FollowerLookupFailureFailsBatch(t *testing.T) {
	followers := &mockFollowerStore{err: errors.New("throttled")}
	d := NewTweetDistributor(followers, newMockTimelineStore(), nil, zap.NewNop())

	err := d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: newTestTweet("alice")}})
	require.Error(t, err)
}

func TestTweetDistributor_WriteFailureFailsBatch(t *testing.T) {
	followers := &mockFollowerStore{
		followers: map[string][]string{"alice": {"bob"}},
	}
	timelines := newMockTimelineStore()
	timelines.putErr = errors.New("capacity exceeded")
	d := NewTweetDistributor(followers, timelines, nil, zap.NewNop())

	err := d.Process(context.Background(), []TweetChange{{Op: TweetCreated, Tweet: newTestTweet("alice")}})
	require.Error(t, err)
}

func TestFollowDistributor_FollowCopiesTweetHistory(t *testing.T) {
	t1 := newTestTweet("alice")
	t2 := newTestTweet("alice")
	tweets := &mockTweetStore{
		byCreator: map[string][]tweet.Tweet{"alice": {t2, t1}},
	}
	timelines := newMockTimelineStore()
	d := NewFollowDistributor(tweets, timelines, nil, zap.NewNop())

	err := d.Process(context.Background(), []FollowChange{{Op: Followed, FollowerID: "bob", FolloweeID: "alice"}})
	require.NoError(t, err)

	require.Len(t, timelines.entries, 2)
	for _, tw := range []tweet.Tweet{t1, t2} {
		entry, ok := timelines.entries[timeline.Key{UserID: "bob", TweetID: tw.ID}]
		require.True(t, ok)
		assert.Equal(t, "alice", entry.DistributedFrom)
	}
}

func TestFollowDistributor_FollowSpansTweetPages(t *testing.T) {
	var history []tweet.Tweet
	for i := 0; i < 43; i++ {
		history = append(history, newTestTweet("alice"))
	}
	tweets := &mockTweetStore{
		byCreator: map[string][]tweet.Tweet{"alice": history},
		pageSize:  10,
	}
	timelines := newMockTimelineStore()
	d := NewFollowDistributor(tweets, timelines, nil, zap.NewNop())

	err := d.Process(context.Background(), []FollowChange{{Op: Followed, FollowerID: "bob", FolloweeID: "alice"}})
	require.NoError(t, err)
	assert.Len(t, timelines.entries, 43)
}

func TestFollowDistributor_UnfollowRemovesTweetHistory(t *testing.T) {
	t1 := newTestTweet("alice")
	t2 := newTestTweet("alice")
	tweets := &mockTweetStore{
		byCreator: map[string][]tweet.Tweet{"alice": {t2, t1}},
	}
	timelines := newMockTimelineStore()
	d := NewFollowDistributor(tweets, timelines, nil, zap.NewNop())

	follow := []FollowChange{{Op: Followed, FollowerID: "bob", FolloweeID: "alice"}}
	require.NoError(t, d.Process(context.Background(), follow))
	require.Len(t, timelines.entries, 2)

	unfollow := []FollowChange{{Op: Unfollowed, FollowerID: "bob", FolloweeID: "alice"}}
	require.NoError(t, d.Process(context.Background(), unfollow))
	assert.Empty(t, timelines.entries)
}

func TestFollowDistributor_UnfollowLeavesOtherFollowersAlone(t *testing.T) {
	t1 := newTestTweet("alice")
	tweets := &mockTweetStore{
		byCreator: map[string][]tweet.Tweet{"alice": {t1}},
	}
	timelines := newMockTimelineStore()
	d := NewFollowDistributor(tweets, timelines, nil, zap.NewNop())

	require.NoError(t, d.Process(context.Background(), []FollowChange{
		{Op: Followed, FollowerID: "bob", FolloweeID: "alice"},
		{Op: Followed, FollowerID: "carol", FolloweeID: "alice"},
	}))
	require.Len(t, timelines.entries, 2)

	require.NoError(t, d.Process(context.Background(), []FollowChange{
		{Op: Unfollowed, FollowerID: "bob", FolloweeID: "alice"},
	}))

	_, bobHas := timelines.entries[timeline.Key{UserID: "bob", TweetID: t1.ID}]
	_, carolHas := timelines.entries[timeline.Key{UserID: "carol", TweetID: t1.ID}]
	assert.False(t, bobHas)
	assert.True(t, carolHas)
}

func TestFollowDistributor_FolloweeWithNoTweetsIsNoop(t *testing.T) {
	tweets := &mockTweetStore{byCreator: map[string][]tweet.Tweet{}}
	timelines := newMockTimelineStore()
	d := NewFollowDistributor(tweets, timelines, nil, zap.NewNop())

	err := d.Process(context.Background(), []FollowChange{{Op: Followed, FollowerID: "bob", FolloweeID: "alice"}})
	require.NoError(t, err)
	assert.Zero(t, timelines.puts)
}

func TestFollowDistributor_TweetLookupFailureFailsBatch(t *testing.T) {
	tweets := &mockTweetStore{err: errors.New("throttled")}
	d := NewFollowDistributor(tweets, newMockTimelineStore(), nil, zap.NewNop())

	err := d.Process(context.Background(), []FollowChange{{Op: Followed, FollowerID: "bob", FolloweeID: "alice"}})
	require.Error(t, err)
}
