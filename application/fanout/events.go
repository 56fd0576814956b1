// Package fanout maintains the denormalized Timelines table from two
// independently evolving sources of truth: the Tweets table and the
// follow graph. Both processors are terminal consumers of DynamoDB
// stream events; they emit nothing downstream.
package fanout

import (
	"chirper-backend/domain/tweet"
)

// TweetOp is the operation a tweet change carries.
type TweetOp int

const (
	TweetCreated TweetOp = iota
	TweetDeleted
)

// String returns the op name for logging.
func (op TweetOp) String() string {
	switch op {
	case TweetCreated:
		return "created"
	case TweetDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// TweetChange is one Tweets-table change delivered by the stream. The
// Tweet field holds the new image on create and the old image on
// delete.
type TweetChange struct {
	Op    TweetOp
	Tweet tweet.Tweet
}

// FollowOp is the operation a follow change carries.
type FollowOp int

const (
	Followed FollowOp = iota
	Unfollowed
)

// String returns the op name for logging.
func (op FollowOp) String() string {
	switch op {
	case Followed:
		return "followed"
	case Unfollowed:
		return "unfollowed"
	default:
		return "unknown"
	}
}

// FollowChange is one Relationships-table change delivered by the
// stream: FollowerID started or stopped following FolloweeID.
type FollowChange struct {
	Op         FollowOp
	FollowerID string
	FolloweeID string
}
