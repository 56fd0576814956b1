package queries

import (
	"context"
	"fmt"

	"chirper-backend/application/ports"
	"chirper-backend/domain/timeline"
	"chirper-backend/domain/tweet"

	"go.uber.org/zap"
)

const (
	defaultTimelinePageSize = 25
	maxTimelinePageSize     = 100
)

// TimelineItem is one hydrated feed row. Tweet is nil when the
// underlying tweet was deleted after the row was read; the fan-out
// removes such rows eventually but a reader can race it.
type TimelineItem struct {
	Entry timeline.Entry
	Tweet *tweet.Tweet
}

// TimelinePage is one page of a user's home feed.
type TimelinePage struct {
	Items      []TimelineItem
	NextCursor string
}

// TimelineQuery reads a user's home feed: a page of timeline rows
// hydrated with their tweets.
type TimelineQuery struct {
	timelines ports.TimelineStore
	tweets    ports.TweetStore
	logger    *zap.Logger
}

// NewTimelineQuery creates a timeline query.
func NewTimelineQuery(timelines ports.TimelineStore, tweets ports.TweetStore, logger *zap.Logger) *TimelineQuery {
	return &TimelineQuery{
		timelines: timelines,
		tweets:    tweets,
		logger:    logger,
	}
}

// GetTimeline returns one page of userID's home feed, newest first.
func (q *TimelineQuery) GetTimeline(ctx context.Context, userID string, limit int32, cursor string) (*TimelinePage, error) {
	if limit <= 0 {
		limit = defaultTimelinePageSize
	}
	if limit > maxTimelinePageSize {
		limit = maxTimelinePageSize
	}

	entries, nextCursor, err := q.timelines.GetPage(ctx, userID, limit, cursor)
	if err != nil {
		return nil, fmt.Errorf("get timeline of %s: %w", userID, err)
	}

	ids := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		if _, ok := seen[entry.TweetID]; ok {
			continue
		}
		seen[entry.TweetID] = struct{}{}
		ids = append(ids, entry.TweetID)
	}

	tweets, err := q.tweets.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("hydrate timeline of %s: %w", userID, err)
	}

	items := make([]TimelineItem, 0, len(entries))
	for _, entry := range entries {
		item := TimelineItem{Entry: entry}
		if t, ok := tweets[entry.TweetID]; ok {
			hydrated := t
			item.Tweet = &hydrated
		} else {
			q.logger.Debug("Timeline row references missing tweet",
				zap.String("userID", entry.UserID),
				zap.String("tweetID", entry.TweetID),
			)
		}
		items = append(items, item)
	}

	return &TimelinePage{Items: items, NextCursor: nextCursor}, nil
}
