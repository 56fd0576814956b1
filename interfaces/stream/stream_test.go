package stream

import (
	"testing"

	"chirper-backend/application/fanout"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tweetImage(id, creator string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"id":         events.NewStringAttribute(id),
		"__typename": events.NewStringAttribute("Tweet"),
		"creator":    events.NewStringAttribute(creator),
		"createdAt":  events.NewStringAttribute("2026-08-30T12:00:00Z"),
		"text":       events.NewStringAttribute("hello"),
	}
}

func followImage(follower, followee string) map[string]events.DynamoDBAttributeValue {
	return map[string]events.DynamoDBAttributeValue{
		"userId":      events.NewStringAttribute(follower),
		"sk":          events.NewStringAttribute("FOLLOWS_" + followee),
		"otherUserId": events.NewStringAttribute(followee),
		"createdAt":   events.NewStringAttribute("2026-08-30T12:00:00Z"),
	}
}

func TestTweetChanges(t *testing.T) {
	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventID:   "1",
				EventName: "INSERT",
				Change: events.DynamoDBStreamRecord{
					NewImage: tweetImage("t1", "alice"),
				},
			},
			{
				EventID:   "2",
				EventName: "MODIFY",
				Change: events.DynamoDBStreamRecord{
					OldImage: tweetImage("t2", "alice"),
					NewImage: tweetImage("t2", "alice"),
				},
			},
			{
				EventID:   "3",
				EventName: "REMOVE",
				Change: events.DynamoDBStreamRecord{
					OldImage: tweetImage("t3", "bob"),
				},
			},
		},
	}

	changes, err := TweetChanges(event)
	require.NoError(t, err)

	require.Len(t, changes, 2, "MODIFY records must be skipped")
	assert.Equal(t, fanout.TweetCreated, changes[0].Op)
	assert.Equal(t, "t1", changes[0].Tweet.ID)
	assert.Equal(t, fanout.TweetDeleted, changes[1].Op)
	assert.Equal(t, "t3", changes[1].Tweet.ID)
}

func TestTweetChanges_BadImageFailsBatch(t *testing.T) {
	image := tweetImage("t1", "alice")
	image["__typename"] = events.NewStringAttribute("Quote")

	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventID:   "1",
				EventName: "INSERT",
				Change:    events.DynamoDBStreamRecord{NewImage: image},
			},
		},
	}

	_, err := TweetChanges(event)
	require.Error(t, err)
}

func TestFollowChanges(t *testing.T) {
	event := events.DynamoDBEvent{
		Records: []events.DynamoDBEventRecord{
			{
				EventID:   "1",
				EventName: "INSERT",
				Change: events.DynamoDBStreamRecord{
					NewImage: followImage("bob", "alice"),
				},
			},
			{
				EventID:   "2",
				EventName: "REMOVE",
				Change: events.DynamoDBStreamRecord{
					OldImage: followImage("carol", "alice"),
				},
			},
		},
	}

	changes, err := FollowChanges(event)
	require.NoError(t, err)

	require.Len(t, changes, 2)
	assert.Equal(t, fanout.Followed, changes[0].Op)
	assert.Equal(t, "bob", changes[0].FollowerID)
	assert.Equal(t, "alice", changes[0].FolloweeID)
	assert.Equal(t, fanout.Unfollowed, changes[1].Op)
	assert.Equal(t, "carol", changes[1].FollowerID)
}

func TestFollowChanges_EmptyEvent(t *testing.T) {
	changes, err := FollowChanges(events.DynamoDBEvent{})
	require.NoError(t, err)
	assert.Empty(t, changes)
}
