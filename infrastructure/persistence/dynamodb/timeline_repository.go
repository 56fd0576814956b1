package dynamodb

import (
	"context"
	"fmt"
	"time"

	"chirper-backend/domain/timeline"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TimelineRepository implements the TimelineStore port against the
// Timelines table, keyed (userId, tweetId). Batch writes use the
// shared chunked fan-out writer; puts are plain upserts and deletes
// unconditional, which is what makes feed redelivery safe.
type TimelineRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewTimelineRepository creates a timeline repository.
func NewTimelineRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) *TimelineRepository {
	return &TimelineRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// timelineItem represents the DynamoDB item structure for one timeline
// row.
type timelineItem struct {
	UserID           string   `dynamodbav:"userId"`
	TweetID          string   `dynamodbav:"tweetId"`
	Timestamp        string   `dynamodbav:"timestamp"`
	DistributedFrom  string   `dynamodbav:"distributedFrom,omitempty"`
	RetweetOf        string   `dynamodbav:"retweetOf,omitempty"`
	InReplyToTweetID string   `dynamodbav:"inReplyToTweetId,omitempty"`
	InReplyToUserIDs []string `dynamodbav:"inReplyToUserIds,omitempty"`
}

func fromEntry(e timeline.Entry) timelineItem {
	return timelineItem{
		UserID:           e.UserID,
		TweetID:          e.TweetID,
		Timestamp:        e.Timestamp.UTC().Format(time.RFC3339),
		DistributedFrom:  e.DistributedFrom,
		RetweetOf:        e.RetweetOf,
		InReplyToTweetID: e.InReplyToTweetID,
		InReplyToUserIDs: e.InReplyToUserIDs,
	}
}

func (item timelineItem) toEntry() (timeline.Entry, error) {
	timestamp, err := time.Parse(time.RFC3339, item.Timestamp)
	if err != nil {
		return timeline.Entry{}, fmt.Errorf("timeline row (%s, %s): parse timestamp: %w", item.UserID, item.TweetID, err)
	}
	return timeline.Entry{
		UserID:           item.UserID,
		TweetID:          item.TweetID,
		Timestamp:        timestamp,
		DistributedFrom:  item.DistributedFrom,
		RetweetOf:        item.RetweetOf,
		InReplyToTweetID: item.InReplyToTweetID,
		InReplyToUserIDs: item.InReplyToUserIDs,
	}, nil
}

// BatchPut upserts the entries via concurrently dispatched chunks.
func (r *TimelineRepository) BatchPut(ctx context.Context, entries []timeline.Entry) error {
	requests := make([]types.WriteRequest, 0, len(entries))
	for _, entry := range entries {
		av, err := attributevalue.MarshalMap(fromEntry(entry))
		if err != nil {
			return fmt.Errorf("marshal timeline entry (%s, %s): %w", entry.UserID, entry.TweetID, err)
		}
		requests = append(requests, types.WriteRequest{
			PutRequest: &types.PutRequest{Item: av},
		})
	}
	return writeAllBatches(ctx, r.client, r.tableName, requests, r.logger)
}

// BatchDelete removes the keyed rows via concurrently dispatched
// chunks.
func (r *TimelineRepository) BatchDelete(ctx context.Context, keys []timeline.Key) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, key := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{
				Key: map[string]types.AttributeValue{
					"userId":  &types.AttributeValueMemberS{Value: key.UserID},
					"tweetId": &types.AttributeValueMemberS{Value: key.TweetID},
				},
			},
		})
	}
	return writeAllBatches(ctx, r.client, r.tableName, requests, r.logger)
}

// GetPage reads one page of a user's timeline, newest first. Tweet ids
// are ULIDs, so the sort key orders rows chronologically.
func (r *TimelineRepository) GetPage(ctx context.Context, userID string, limit int32, cursor string) ([]timeline.Entry, string, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return nil, "", fmt.Errorf("build timeline query: %w", err)
	}

	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		Limit:                     aws.Int32(limit),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, "", fmt.Errorf("query timeline of %s: %w", userID, err)
	}

	entries := make([]timeline.Entry, 0, len(result.Items))
	for _, raw := range result.Items {
		var item timelineItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal timeline item", zap.Error(err))
			continue
		}
		entry, err := item.toEntry()
		if err != nil {
			r.logger.Warn("Skipping malformed timeline item", zap.Error(err))
			continue
		}
		entries = append(entries, entry)
	}

	nextCursor, err := encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return entries, nextCursor, nil
}
