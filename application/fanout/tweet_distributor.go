package fanout

import (
	"context"
	"fmt"
	"time"

	"chirper-backend/application/ports"
	"chirper-backend/domain/timeline"
	"chirper-backend/pkg/observability"

	"go.uber.org/zap"
)

// TweetDistributor reacts to tweet creation and deletion by inserting
// or removing the corresponding row in every follower's timeline.
type TweetDistributor struct {
	followers ports.FollowerStore
	timelines ports.TimelineStore
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewTweetDistributor creates a tweet-change fan-out processor.
func NewTweetDistributor(
	followers ports.FollowerStore,
	timelines ports.TimelineStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *TweetDistributor {
	return &TweetDistributor{
		followers: followers,
		timelines: timelines,
		metrics:   metrics,
		logger:    logger,
	}
}

// Process handles one batch of tweet changes. Changes are independent
// per tweet id; no ordering across them is assumed. The first failure
// fails the invocation so the change feed redelivers the whole batch,
// which is safe because puts are upserts and deletes unconditional.
func (d *TweetDistributor) Process(ctx context.Context, changes []TweetChange) error {
	for _, change := range changes {
		if err := d.processOne(ctx, change); err != nil {
			return err
		}
	}
	return nil
}

func (d *TweetDistributor) processOne(ctx context.Context, change TweetChange) error {
	started := time.Now()

	followerIDs, err := d.collectFollowers(ctx, change.Tweet.Creator)
	if err != nil {
		return fmt.Errorf("resolve followers of %s: %w", change.Tweet.Creator, err)
	}

	// An author with no followers is a normal outcome, not an error.
	if len(followerIDs) == 0 {
		d.logger.Debug("No followers to distribute to",
			zap.String("tweetID", change.Tweet.ID),
			zap.String("creator", change.Tweet.Creator),
		)
		return nil
	}

	switch change.Op {
	case TweetCreated:
		entries := make([]timeline.Entry, 0, len(followerIDs))
		for _, followerID := range followerIDs {
			entries = append(entries, timeline.FromTweet(followerID, change.Tweet))
		}
		if err := d.timelines.BatchPut(ctx, entries); err != nil {
			return fmt.Errorf("distribute tweet %s: %w", change.Tweet.ID, err)
		}

	case TweetDeleted:
		keys := make([]timeline.Key, 0, len(followerIDs))
		for _, followerID := range followerIDs {
			keys = append(keys, timeline.Key{UserID: followerID, TweetID: change.Tweet.ID})
		}
		if err := d.timelines.BatchDelete(ctx, keys); err != nil {
			return fmt.Errorf("undistribute tweet %s: %w", change.Tweet.ID, err)
		}

	default:
		return fmt.Errorf("unhandled tweet change op %d", change.Op)
	}

	d.metrics.RecordFanout(ctx, "tweet-"+change.Op.String(), len(followerIDs), time.Since(started))
	d.logger.Info("Distributed tweet change",
		zap.String("tweetID", change.Tweet.ID),
		zap.String("creator", change.Tweet.Creator),
		zap.String("op", change.Op.String()),
		zap.Int("followers", len(followerIDs)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return nil
}

// collectFollowers pages through the follower index until it is
// exhausted. The store caps page sizes, so a popular author can span
// many pages.
func (d *TweetDistributor) collectFollowers(ctx context.Context, userID string) ([]string, error) {
	var followerIDs []string
	cursor := ""
	for {
		page, next, err := d.followers.GetFollowers(ctx, userID, cursor)
		if err != nil {
			return nil, err
		}
		followerIDs = append(followerIDs, page...)
		if next == "" {
			return followerIDs, nil
		}
		cursor = next
	}
}
