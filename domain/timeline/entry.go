package timeline

import (
	"time"

	"chirper-backend/domain/tweet"
)

// Key identifies one timeline row. At most one entry exists per
// (user, tweet) pair.
type Key struct {
	UserID  string
	TweetID string
}

// Entry is a denormalized row of a user's home timeline: "tweet
// TweetID appears in UserID's feed". The remaining fields are mirrored
// from the tweet at distribution time so readers never join back to
// the Tweets table.
type Entry struct {
	UserID           string
	TweetID          string
	Timestamp        time.Time
	DistributedFrom  string
	RetweetOf        string
	InReplyToTweetID string
	InReplyToUserIDs []string
}

// Key returns the entry's composite key.
func (e Entry) Key() Key {
	return Key{UserID: e.UserID, TweetID: e.TweetID}
}

// FromTweet builds the timeline entry that distributes t into userID's
// feed.
func FromTweet(userID string, t tweet.Tweet) Entry {
	return Entry{
		UserID:           userID,
		TweetID:          t.ID,
		Timestamp:        t.CreatedAt,
		DistributedFrom:  t.Creator,
		RetweetOf:        t.RetweetOf,
		InReplyToTweetID: t.InReplyToTweetID,
		InReplyToUserIDs: t.InReplyToUserIDs,
	}
}

// Own builds the entry written to the author's own timeline when they
// tweet. Own rows carry no DistributedFrom since nothing was fanned
// out.
func Own(t tweet.Tweet) Entry {
	return Entry{
		UserID:    t.Creator,
		TweetID:   t.ID,
		Timestamp: t.CreatedAt,
	}
}
