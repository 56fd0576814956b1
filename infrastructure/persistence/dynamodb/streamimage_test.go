package dynamodb

import (
	"testing"
	"time"

	"chirper-backend/domain/tweet"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTweetFromStreamImage(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id":         events.NewStringAttribute("01J8ZQ6M7N8P9R0S1T2U3V4W5X"),
		"__typename": events.NewStringAttribute("Tweet"),
		"creator":    events.NewStringAttribute("alice"),
		"createdAt":  events.NewStringAttribute("2026-08-30T12:00:00Z"),
		"text":       events.NewStringAttribute("hello world"),
		"replies":    events.NewNumberAttribute("0"),
		"likes":      events.NewNumberAttribute("3"),
		"retweets":   events.NewNumberAttribute("1"),
	}

	tw, err := TweetFromStreamImage(image)
	require.NoError(t, err)

	assert.Equal(t, "01J8ZQ6M7N8P9R0S1T2U3V4W5X", tw.ID)
	assert.Equal(t, tweet.KindTweet, tw.Kind)
	assert.Equal(t, "alice", tw.Creator)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), tw.CreatedAt)
	assert.Equal(t, "hello world", tw.Text)
	assert.Equal(t, 3, tw.Likes)
	assert.Equal(t, 1, tw.Retweets)
}

func TestTweetFromStreamImage_Reply(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id":               events.NewStringAttribute("01J8ZQ6M7N8P9R0S1T2U3V4W5Y"),
		"__typename":       events.NewStringAttribute("Reply"),
		"creator":          events.NewStringAttribute("bob"),
		"createdAt":        events.NewStringAttribute("2026-08-30T12:05:00Z"),
		"text":             events.NewStringAttribute("hi alice"),
		"inReplyToTweetId": events.NewStringAttribute("01J8ZQ6M7N8P9R0S1T2U3V4W5X"),
		"inReplyToUserIds": events.NewListAttribute([]events.DynamoDBAttributeValue{
			events.NewStringAttribute("alice"),
		}),
	}

	tw, err := TweetFromStreamImage(image)
	require.NoError(t, err)

	assert.Equal(t, tweet.KindReply, tw.Kind)
	assert.Equal(t, "01J8ZQ6M7N8P9R0S1T2U3V4W5X", tw.InReplyToTweetID)
	assert.Equal(t, []string{"alice"}, tw.InReplyToUserIDs)
}

func TestTweetFromStreamImage_UnknownTypename(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"id":         events.NewStringAttribute("x"),
		"__typename": events.NewStringAttribute("Quote"),
		"creator":    events.NewStringAttribute("alice"),
		"createdAt":  events.NewStringAttribute("2026-08-30T12:00:00Z"),
	}

	_, err := TweetFromStreamImage(image)
	require.Error(t, err)
}

func TestRelationshipFromStreamImage(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"userId":      events.NewStringAttribute("bob"),
		"sk":          events.NewStringAttribute("FOLLOWS_alice"),
		"otherUserId": events.NewStringAttribute("alice"),
		"createdAt":   events.NewStringAttribute("2026-08-30T12:00:00Z"),
	}

	rel, err := RelationshipFromStreamImage(image)
	require.NoError(t, err)

	assert.Equal(t, "bob", rel.UserID)
	assert.Equal(t, "alice", rel.OtherUserID)
	assert.False(t, rel.CreatedAt.IsZero())
}

func TestRelationshipFromStreamImage_RejectsForeignSortKey(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"userId":      events.NewStringAttribute("bob"),
		"sk":          events.NewStringAttribute("PROFILE"),
		"otherUserId": events.NewStringAttribute("alice"),
	}

	_, err := RelationshipFromStreamImage(image)
	require.Error(t, err)
}

func TestRelationshipFromStreamImage_ToleratesMissingCreatedAt(t *testing.T) {
	image := map[string]events.DynamoDBAttributeValue{
		"userId":      events.NewStringAttribute("bob"),
		"sk":          events.NewStringAttribute("FOLLOWS_alice"),
		"otherUserId": events.NewStringAttribute("alice"),
	}

	rel, err := RelationshipFromStreamImage(image)
	require.NoError(t, err)
	assert.True(t, rel.CreatedAt.IsZero())
}
