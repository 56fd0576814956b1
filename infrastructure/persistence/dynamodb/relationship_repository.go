package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"chirper-backend/domain/relationship"
	apperrors "chirper-backend/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// RelationshipRepository implements the FollowerStore and
// RelationshipStore ports against the Relationships table. The
// byOtherUser GSI inverts the edge so "who follows X" is one query.
type RelationshipRepository struct {
	client           *dynamodb.Client
	tableName        string
	usersTable       string
	byOtherUserIndex string
	logger           *zap.Logger
}

// NewRelationshipRepository creates a relationship repository.
func NewRelationshipRepository(client *dynamodb.Client, tableName, usersTable, byOtherUserIndex string, logger *zap.Logger) *RelationshipRepository {
	return &RelationshipRepository{
		client:           client,
		tableName:        tableName,
		usersTable:       usersTable,
		byOtherUserIndex: byOtherUserIndex,
		logger:           logger,
	}
}

// relationshipItem represents the DynamoDB item structure for a follow
// edge.
type relationshipItem struct {
	UserID      string `dynamodbav:"userId"`
	SK          string `dynamodbav:"sk"`
	OtherUserID string `dynamodbav:"otherUserId"`
	CreatedAt   string `dynamodbav:"createdAt"`
}

// GetFollowers returns one page of follower ids for userID, plus a
// continuation cursor when more pages remain.
func (r *RelationshipRepository) GetFollowers(ctx context.Context, userID string, cursor string) ([]string, string, error) {
	keyCond := expression.Key("otherUserId").Equal(expression.Value(userID)).
		And(expression.Key("sk").BeginsWith(relationship.SKPrefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, "", fmt.Errorf("build followers query: %w", err)
	}

	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.byOtherUserIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
	})
	if err != nil {
		return nil, "", fmt.Errorf("query followers of %s: %w", userID, err)
	}

	followerIDs := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		var rel relationshipItem
		if err := attributevalue.UnmarshalMap(item, &rel); err != nil {
			r.logger.Warn("Failed to unmarshal relationship item", zap.Error(err))
			continue
		}
		followerIDs = append(followerIDs, rel.UserID)
	}

	nextCursor, err := encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return followerIDs, nextCursor, nil
}

// Follow creates the follow edge and bumps both users' counters in one
// transaction. Following the same user twice is a conflict.
func (r *RelationshipRepository) Follow(ctx context.Context, userID, otherUserID string) error {
	item, err := attributevalue.MarshalMap(relationshipItem{
		UserID:      userID,
		SK:          relationship.SortKey(otherUserID),
		OtherUserID: otherUserID,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal relationship: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Put: &types.Put{
					TableName:           aws.String(r.tableName),
					Item:                item,
					ConditionExpression: aws.String("attribute_not_exists(sk)"),
				},
			},
			r.adjustCount(userID, "followingCount", 1),
			r.adjustCount(otherUserID, "followersCount", 1),
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return apperrors.NewConflictError(fmt.Sprintf("%s already follows %s", userID, otherUserID)).WithCause(err)
		}
		return fmt.Errorf("follow %s -> %s: %w", userID, otherUserID, err)
	}

	r.logger.Info("Follow edge created",
		zap.String("follower", userID),
		zap.String("followee", otherUserID),
	)
	return nil
}

// Unfollow removes the follow edge and decrements the counters.
func (r *RelationshipRepository) Unfollow(ctx context.Context, userID, otherUserID string) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName: aws.String(r.tableName),
					Key: map[string]types.AttributeValue{
						"userId": &types.AttributeValueMemberS{Value: userID},
						"sk":     &types.AttributeValueMemberS{Value: relationship.SortKey(otherUserID)},
					},
					ConditionExpression: aws.String("attribute_exists(sk)"),
				},
			},
			r.adjustCount(userID, "followingCount", -1),
			r.adjustCount(otherUserID, "followersCount", -1),
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return apperrors.NewNotFoundError(fmt.Sprintf("%s does not follow %s", userID, otherUserID)).WithCause(err)
		}
		return fmt.Errorf("unfollow %s -> %s: %w", userID, otherUserID, err)
	}

	r.logger.Info("Follow edge removed",
		zap.String("follower", userID),
		zap.String("followee", otherUserID),
	)
	return nil
}

// adjustCount builds the Users-table counter update for one side of a
// follow change.
func (r *RelationshipRepository) adjustCount(userID, attribute string, delta int) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(r.usersTable),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: userID},
			},
			UpdateExpression: aws.String("ADD #count :delta"),
			ExpressionAttributeNames: map[string]string{
				"#count": attribute,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":delta": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", delta)},
			},
			ConditionExpression: aws.String("attribute_exists(id)"),
		},
	}
}

// isConditionFailure reports whether a transaction was cancelled by a
// condition check rather than a store fault.
func isConditionFailure(err error) bool {
	var cancelled *types.TransactionCanceledException
	if errors.As(err, &cancelled) {
		for _, reason := range cancelled.CancellationReasons {
			if reason.Code != nil && *reason.Code == "ConditionalCheckFailed" {
				return true
			}
		}
	}
	var conditional *types.ConditionalCheckFailedException
	return errors.As(err, &conditional)
}
