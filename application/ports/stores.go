package ports

import (
	"context"

	"chirper-backend/domain/timeline"
	"chirper-backend/domain/tweet"
)

// FollowerStore resolves the follower side of the social graph. It is
// the read path the tweet fan-out depends on.
type FollowerStore interface {
	// GetFollowers returns one page of user ids that follow userID,
	// plus a continuation cursor. An empty cursor starts from the
	// beginning; an empty returned cursor means the set is exhausted.
	// Callers that need the full set must loop.
	GetFollowers(ctx context.Context, userID string, cursor string) ([]string, string, error)
}

// RelationshipStore mutates follow edges.
type RelationshipStore interface {
	// Follow creates the edge userID -> otherUserID and bumps both
	// users' follow counters atomically.
	Follow(ctx context.Context, userID, otherUserID string) error

	// Unfollow removes the edge and decrements the counters.
	Unfollow(ctx context.Context, userID, otherUserID string) error
}

// TweetStore persists tweet records and the write transactions that
// accompany authoring them.
type TweetStore interface {
	// GetByID returns the tweet, or (nil, nil) when it does not exist.
	GetByID(ctx context.Context, id string) (*tweet.Tweet, error)

	// GetByIDs resolves many tweets at once. Missing ids are simply
	// absent from the result.
	GetByIDs(ctx context.Context, ids []string) (map[string]tweet.Tweet, error)

	// GetByCreator returns one page of tweets authored by userID,
	// newest first, with the same cursor contract as
	// FollowerStore.GetFollowers.
	GetByCreator(ctx context.Context, userID string, cursor string) ([]tweet.Tweet, string, error)

	// GetRetweetByCreator finds userID's retweet of tweetID, or
	// (nil, nil) when they never retweeted it.
	GetRetweetByCreator(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error)

	// CreateTweet writes an original tweet, its own-timeline row and
	// the author's tweet counter in one transaction.
	CreateTweet(ctx context.Context, t tweet.Tweet) error

	// CreateRetweet writes the retweet record, the retweet marker and
	// the counter updates in one transaction. original is the tweet
	// being retweeted.
	CreateRetweet(ctx context.Context, t, original tweet.Tweet) error

	// DeleteRetweet reverses CreateRetweet for rt.
	DeleteRetweet(ctx context.Context, rt, original tweet.Tweet) error

	// CreateReply writes the reply record, its own-timeline row and
	// the reply counter update in one transaction.
	CreateReply(ctx context.Context, t, original tweet.Tweet) error
}

// TimelineStore is the denormalized per-user inbox both fan-out
// processors write into and readers page through.
type TimelineStore interface {
	// BatchPut upserts the entries. Existing (user, tweet) rows are
	// overwritten, which is what makes redelivery idempotent.
	BatchPut(ctx context.Context, entries []timeline.Entry) error

	// BatchDelete removes the keyed rows. Deleting an absent row is
	// not an error.
	BatchDelete(ctx context.Context, keys []timeline.Key) error

	// GetPage reads one page of a user's timeline, newest first.
	GetPage(ctx context.Context, userID string, limit int32, cursor string) ([]timeline.Entry, string, error)
}
