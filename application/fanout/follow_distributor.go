package fanout

import (
	"context"
	"fmt"
	"time"

	"chirper-backend/application/ports"
	"chirper-backend/domain/timeline"
	"chirper-backend/domain/tweet"
	"chirper-backend/pkg/observability"

	"go.uber.org/zap"
)

// FollowDistributor reacts to follow and unfollow events by copying
// the followee's entire tweet history into, or out of, the single
// follower's timeline. It is the dual of TweetDistributor: one
// follower, many tweets, instead of one tweet, many followers.
type FollowDistributor struct {
	tweets    ports.TweetStore
	timelines ports.TimelineStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewFollowDistributor creates a follow-change fan-out processor.
func NewFollowDistributor(
	tweets ports.TweetStore,
	timelines ports.TimelineStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *FollowDistributor {
	return &FollowDistributor{
		tweets:    tweets,
		timelines: timelines,
		metrics:   metrics,
		logger:    logger,
	}
}

// Process handles one batch of follow changes. Failure semantics match
// TweetDistributor.Process: fail fast, let the feed redeliver, rely on
// idempotent writes.
func (f *FollowDistributor) Process(ctx context.Context, changes []FollowChange) error {
	for _, change := range changes {
		if err := f.processOne(ctx, change); err != nil {
			return err
		}
	}
	return nil
}

func (f *FollowDistributor) processOne(ctx context.Context, change FollowChange) error {
	started := time.Now()

	tweets, err := f.collectTweets(ctx, change.FolloweeID)
	if err != nil {
		return fmt.Errorf("enumerate tweets of %s: %w", change.FolloweeID, err)
	}

	if len(tweets) == 0 {
		f.logger.Debug("Followee has no tweets to distribute",
			zap.String("follower", change.FollowerID),
			zap.String("followee", change.FolloweeID),
		)
		return nil
	}

	switch change.Op {
	case Followed:
		entries := make([]timeline.Entry, 0, len(tweets))
		for _, t := range tweets {
			entries = append(entries, timeline.FromTweet(change.FollowerID, t))
		}
		if err := f.timelines.BatchPut(ctx, entries); err != nil {
			return fmt.Errorf("distribute tweets of %s to %s: %w", change.FolloweeID, change.FollowerID, err)
		}

	case Unfollowed:
		keys := make([]timeline.Key, 0, len(tweets))
		for _, t := range tweets {
			keys = append(keys, timeline.Key{UserID: change.FollowerID, TweetID: t.ID})
		}
		if err := f.timelines.BatchDelete(ctx, keys); err != nil {
			return fmt.Errorf("undistribute tweets of %s from %s: %w", change.FolloweeID, change.FollowerID, err)
		}

	default:
		return fmt.Errorf("unhandled follow change op %d", change.Op)
	}

	f.metrics.RecordFanout(ctx, change.Op.String(), len(tweets), time.Since(started))
	f.logger.Info("Distributed follow change",
		zap.String("follower", change.FollowerID),
		zap.String("followee", change.FolloweeID),
		zap.String("op", change.Op.String()),
		zap.Int("tweets", len(tweets)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// collectTweets pages through the followee's authored tweets until the
// creator index is exhausted.
func (f *FollowDistributor) collectTweets(ctx context.Context, userID string) ([]tweet.Tweet, error) {
	var all []tweet.Tweet
	cursor := ""
	for {
		page, next, err := f.tweets.GetByCreator(ctx, userID, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}
