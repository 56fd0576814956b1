package tweet

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Kind discriminates the three record shapes stored in the Tweets table.
type Kind int

const (
	KindTweet Kind = iota
	KindRetweet
	KindReply
)

// String returns the storage-level type name for the kind.
func (k Kind) String() string {
	switch k {
	case KindTweet:
		return "Tweet"
	case KindRetweet:
		return "Retweet"
	case KindReply:
		return "Reply"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind converts a storage-level type name back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "Tweet":
		return KindTweet, nil
	case "Retweet":
		return KindRetweet, nil
	case "Reply":
		return KindReply, nil
	default:
		return 0, fmt.Errorf("unknown tweet kind %q", s)
	}
}

// Tweet is a post, retweet or reply. Which fields are populated depends
// on Kind: Text is empty for retweets, RetweetOf is set only for
// retweets, and the InReplyTo fields only for replies.
type Tweet struct {
	ID               string
	Kind             Kind
	Creator          string
	CreatedAt        time.Time
	Text             string
	Replies          int
	Likes            int
	Retweets         int
	RetweetOf        string
	InReplyToTweetID string
	InReplyToUserIDs []string
}

// NewID returns a lexicographically sortable tweet id. IDs generated
// within the same millisecond are monotonically increasing.
func NewID() string {
	return ulid.Make().String()
}

// New creates an original tweet.
func New(creator, text string) Tweet {
	return Tweet{
		ID:        NewID(),
		Kind:      KindTweet,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
		Text:      text,
	}
}

// NewRetweet creates a retweet of the given tweet.
func NewRetweet(creator string, of Tweet) Tweet {
	return Tweet{
		ID:        NewID(),
		Kind:      KindRetweet,
		Creator:   creator,
		CreatedAt: time.Now().UTC(),
		RetweetOf: of.ID,
	}
}

// NewReply creates a reply to the given tweet. The reply is addressed
// to the tweet's creator plus everyone already in the reply thread,
// de-duplicated and in thread order.
func NewReply(creator, text string, to Tweet) Tweet {
	seen := make(map[string]struct{}, len(to.InReplyToUserIDs)+1)
	userIDs := make([]string, 0, len(to.InReplyToUserIDs)+1)
	for _, id := range append([]string{to.Creator}, to.InReplyToUserIDs...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		userIDs = append(userIDs, id)
	}

	return Tweet{
		ID:               NewID(),
		Kind:             KindReply,
		Creator:          creator,
		CreatedAt:        time.Now().UTC(),
		Text:             text,
		InReplyToTweetID: to.ID,
		InReplyToUserIDs: userIDs,
	}
}
