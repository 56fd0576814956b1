package relationship

import (
	"strings"
	"time"
)

// SKPrefix prefixes the sort key of every follow edge. The
// Relationships table is keyed (userId, sk) so other edge types can
// share the table; the fan-out path only ever touches FOLLOWS_ edges.
const SKPrefix = "FOLLOWS_"

// Relationship is a directed follow edge: UserID follows OtherUserID.
type Relationship struct {
	UserID      string
	OtherUserID string
	CreatedAt   time.Time
}

// SortKey returns the sort key for a follow edge to the given user.
func SortKey(otherUserID string) string {
	return SKPrefix + otherUserID
}

// IsFollowSortKey reports whether sk names a follow edge.
func IsFollowSortKey(sk string) bool {
	return strings.HasPrefix(sk, SKPrefix)
}
