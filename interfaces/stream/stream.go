// Package stream translates DynamoDB stream invocations into the
// change batches the fan-out processors consume.
package stream

import (
	"fmt"

	"chirper-backend/application/fanout"
	"chirper-backend/infrastructure/persistence/dynamodb"

	"github.com/aws/aws-lambda-go/events"
)

// TweetChanges maps a Tweets-table stream event to tweet changes.
// INSERT records carry the new image, REMOVE records the old one.
// MODIFY records are counter updates and are skipped; a modified tweet
// is never re-distributed.
func TweetChanges(event events.DynamoDBEvent) ([]fanout.TweetChange, error) {
	changes := make([]fanout.TweetChange, 0, len(event.Records))
	for _, record := range event.Records {
		switch events.DynamoDBOperationType(record.EventName) {
		case events.DynamoDBOperationTypeInsert:
			t, err := dynamodb.TweetFromStreamImage(record.Change.NewImage)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", record.EventID, err)
			}
			changes = append(changes, fanout.TweetChange{Op: fanout.TweetCreated, Tweet: t})

		case events.DynamoDBOperationTypeRemove:
			t, err := dynamodb.TweetFromStreamImage(record.Change.OldImage)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", record.EventID, err)
			}
			changes = append(changes, fanout.TweetChange{Op: fanout.TweetDeleted, Tweet: t})
		}
	}
	return changes, nil
}

// FollowChanges maps a Relationships-table stream event to follow
// changes. Edges are never updated in place, so MODIFY is skipped
// here too.
func FollowChanges(event events.DynamoDBEvent) ([]fanout.FollowChange, error) {
	changes := make([]fanout.FollowChange, 0, len(event.Records))
	for _, record := range event.Records {
		switch events.DynamoDBOperationType(record.EventName) {
		case events.DynamoDBOperationTypeInsert:
			rel, err := dynamodb.RelationshipFromStreamImage(record.Change.NewImage)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", record.EventID, err)
			}
			changes = append(changes, fanout.FollowChange{
				Op:         fanout.Followed,
				FollowerID: rel.UserID,
				FolloweeID: rel.OtherUserID,
			})

		case events.DynamoDBOperationTypeRemove:
			rel, err := dynamodb.RelationshipFromStreamImage(record.Change.OldImage)
			if err != nil {
				return nil, fmt.Errorf("record %s: %w", record.EventID, err)
			}
			changes = append(changes, fanout.FollowChange{
				Op:         fanout.Unfollowed,
				FollowerID: rel.UserID,
				FolloweeID: rel.OtherUserID,
			})
		}
	}
	return changes, nil
}
