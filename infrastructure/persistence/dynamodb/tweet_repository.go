package dynamodb

import (
	"context"
	"fmt"
	"time"

	"chirper-backend/domain/timeline"
	"chirper-backend/domain/tweet"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// maxBatchGetSize is DynamoDB's hard cap on BatchGetItem.
const maxBatchGetSize = 100

// TweetRepository implements the TweetStore port against the Tweets
// table and its byCreator GSI. Authoring operations also touch the
// Timelines, Users and Retweets tables inside one transaction each,
// mirroring how the records must move together.
type TweetRepository struct {
	client         *dynamodb.Client
	tableName      string
	timelinesTable string
	usersTable     string
	retweetsTable  string
	byCreatorIndex string
	logger         *zap.Logger
}

// NewTweetRepository creates a tweet repository.
func NewTweetRepository(client *dynamodb.Client, tableName, timelinesTable, usersTable, retweetsTable, byCreatorIndex string, logger *zap.Logger) *TweetRepository {
	return &TweetRepository{
		client:         client,
		tableName:      tableName,
		timelinesTable: timelinesTable,
		usersTable:     usersTable,
		retweetsTable:  retweetsTable,
		byCreatorIndex: byCreatorIndex,
		logger:         logger,
	}
}

// tweetItem represents the DynamoDB item structure for any of the
// three tweet kinds. Typename restores the tagged union on the way
// out.
type tweetItem struct {
	ID               string   `dynamodbav:"id"`
	Typename         string   `dynamodbav:"__typename"`
	Creator          string   `dynamodbav:"creator"`
	CreatedAt        string   `dynamodbav:"createdAt"`
	Text             string   `dynamodbav:"text,omitempty"`
	Replies          int      `dynamodbav:"replies"`
	Likes            int      `dynamodbav:"likes"`
	Retweets         int      `dynamodbav:"retweets"`
	RetweetOf        string   `dynamodbav:"retweetOf,omitempty"`
	InReplyToTweetID string   `dynamodbav:"inReplyToTweetId,omitempty"`
	InReplyToUserIDs []string `dynamodbav:"inReplyToUserIds,omitempty"`
}

func fromTweet(t tweet.Tweet) tweetItem {
	return tweetItem{
		ID:               t.ID,
		Typename:         t.Kind.String(),
		Creator:          t.Creator,
		CreatedAt:        t.CreatedAt.UTC().Format(time.RFC3339),
		Text:             t.Text,
		Replies:          t.Replies,
		Likes:            t.Likes,
		Retweets:         t.Retweets,
		RetweetOf:        t.RetweetOf,
		InReplyToTweetID: t.InReplyToTweetID,
		InReplyToUserIDs: t.InReplyToUserIDs,
	}
}

func (item tweetItem) toTweet() (tweet.Tweet, error) {
	kind, err := tweet.ParseKind(item.Typename)
	if err != nil {
		return tweet.Tweet{}, fmt.Errorf("tweet %s: %w", item.ID, err)
	}
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		return tweet.Tweet{}, fmt.Errorf("tweet %s: parse createdAt: %w", item.ID, err)
	}
	return tweet.Tweet{
		ID:               item.ID,
		Kind:             kind,
		Creator:          item.Creator,
		CreatedAt:        createdAt,
		Text:             item.Text,
		Replies:          item.Replies,
		Likes:            item.Likes,
		Retweets:         item.Retweets,
		RetweetOf:        item.RetweetOf,
		InReplyToTweetID: item.InReplyToTweetID,
		InReplyToUserIDs: item.InReplyToUserIDs,
	}, nil
}

// GetByID retrieves a tweet, returning (nil, nil) when it is absent.
func (r *TweetRepository) GetByID(ctx context.Context, id string) (*tweet.Tweet, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get tweet %s: %w", id, err)
	}
	if len(result.Item) == 0 {
		return nil, nil
	}

	var item tweetItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal tweet %s: %w", id, err)
	}
	t, err := item.toTweet()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByIDs resolves many tweets via BatchGetItem, re-submitting
// unprocessed keys until they drain. Missing ids are left out of the
// result.
func (r *TweetRepository) GetByIDs(ctx context.Context, ids []string) (map[string]tweet.Tweet, error) {
	tweets := make(map[string]tweet.Tweet, len(ids))
	for start := 0; start < len(ids); start += maxBatchGetSize {
		end := start + maxBatchGetSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := r.batchGet(ctx, ids[start:end], tweets); err != nil {
			return nil, err
		}
	}
	return tweets, nil
}

func (r *TweetRepository) batchGet(ctx context.Context, ids []string, out map[string]tweet.Tweet) error {
	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		})
	}

	for attempt := 1; len(keys) > 0; attempt++ {
		result, err := r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
			RequestItems: map[string]types.KeysAndAttributes{
				r.tableName: {Keys: keys},
			},
		})
		if err != nil {
			return fmt.Errorf("batch get tweets: %w", err)
		}

		for _, raw := range result.Responses[r.tableName] {
			var item tweetItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				r.logger.Warn("Failed to unmarshal tweet item", zap.Error(err))
				continue
			}
			t, err := item.toTweet()
			if err != nil {
				r.logger.Warn("Skipping malformed tweet item", zap.Error(err))
				continue
			}
			out[t.ID] = t
		}

		keys = result.UnprocessedKeys[r.tableName].Keys
		if len(keys) == 0 {
			return nil
		}
		if attempt >= maxWriteAttempts {
			return fmt.Errorf("batch get tweets: %d keys unprocessed after %d attempts", len(keys), attempt)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
	return nil
}

// GetByCreator returns one page of userID's tweets, newest first.
func (r *TweetRepository) GetByCreator(ctx context.Context, userID string, cursor string) ([]tweet.Tweet, string, error) {
	return r.queryByCreator(ctx, userID, cursor, nil)
}

// GetRetweetByCreator finds userID's retweet of tweetID, scanning the
// creator index page by page until a match or exhaustion.
func (r *TweetRepository) GetRetweetByCreator(ctx context.Context, userID, tweetID string) (*tweet.Tweet, error) {
	filter := expression.Name("retweetOf").Equal(expression.Value(tweetID))
	cursor := ""
	for {
		page, next, err := r.queryByCreator(ctx, userID, cursor, &filter)
		if err != nil {
			return nil, err
		}
		for _, t := range page {
			if t.Kind == tweet.KindRetweet {
				found := t
				return &found, nil
			}
		}
		if next == "" {
			return nil, nil
		}
		cursor = next
	}
}

func (r *TweetRepository) queryByCreator(ctx context.Context, userID, cursor string, filter *expression.ConditionBuilder) ([]tweet.Tweet, string, error) {
	builder := expression.NewBuilder().
		WithKeyCondition(expression.Key("creator").Equal(expression.Value(userID)))
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, "", fmt.Errorf("build creator query: %w", err)
	}

	startKey, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	result, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.byCreatorIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         startKey,
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, "", fmt.Errorf("query tweets of %s: %w", userID, err)
	}

	tweets := make([]tweet.Tweet, 0, len(result.Items))
	for _, raw := range result.Items {
		var item tweetItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			r.logger.Warn("Failed to unmarshal tweet item", zap.Error(err))
			continue
		}
		t, err := item.toTweet()
		if err != nil {
			r.logger.Warn("Skipping malformed tweet item", zap.Error(err))
			continue
		}
		tweets = append(tweets, t)
	}

	nextCursor, err := encodeCursor(result.LastEvaluatedKey)
	if err != nil {
		return nil, "", err
	}
	return tweets, nextCursor, nil
}

// CreateTweet writes the tweet, the author's own timeline row and the
// tweetsCount bump in one transaction. The Users condition keeps
// tweets from unknown authors out of the store.
func (r *TweetRepository) CreateTweet(ctx context.Context, t tweet.Tweet) error {
	tweetAV, err := attributevalue.MarshalMap(fromTweet(t))
	if err != nil {
		return fmt.Errorf("marshal tweet: %w", err)
	}
	ownRowAV, err := attributevalue.MarshalMap(fromEntry(timeline.Own(t)))
	if err != nil {
		return fmt.Errorf("marshal timeline row: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: tweetAV}},
			{Put: &types.Put{TableName: aws.String(r.timelinesTable), Item: ownRowAV}},
			r.adjustUserCount(t.Creator, "tweetsCount", 1),
		},
	})
	if err != nil {
		return fmt.Errorf("create tweet %s: %w", t.ID, err)
	}

	r.logger.Info("Tweet created",
		zap.String("tweetID", t.ID),
		zap.String("creator", t.Creator),
	)
	return nil
}

// CreateRetweet writes the retweet record, the Retweets marker, the
// original's retweet counter and the author's tweet counter in one
// transaction. The author's own timeline only gets a row when the
// retweeted tweet is someone else's.
func (r *TweetRepository) CreateRetweet(ctx context.Context, t, original tweet.Tweet) error {
	tweetAV, err := attributevalue.MarshalMap(fromTweet(t))
	if err != nil {
		return fmt.Errorf("marshal retweet: %w", err)
	}
	markerAV, err := attributevalue.MarshalMap(map[string]string{
		"userId":    t.Creator,
		"tweetId":   original.ID,
		"createdAt": t.CreatedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal retweet marker: %w", err)
	}

	items := []types.TransactWriteItem{
		{Put: &types.Put{TableName: aws.String(r.tableName), Item: tweetAV}},
		{Put: &types.Put{TableName: aws.String(r.retweetsTable), Item: markerAV}},
		r.adjustTweetCount(original.ID, "retweets", 1),
		r.adjustUserCount(t.Creator, "tweetsCount", 1),
	}
	if t.Creator != original.Creator {
		ownRowAV, err := attributevalue.MarshalMap(fromEntry(timeline.Own(t)))
		if err != nil {
			return fmt.Errorf("marshal timeline row: %w", err)
		}
		items = append(items, types.TransactWriteItem{
			Put: &types.Put{TableName: aws.String(r.timelinesTable), Item: ownRowAV},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return fmt.Errorf("create retweet %s of %s: %w", t.ID, original.ID, err)
	}

	r.logger.Info("Retweet created",
		zap.String("tweetID", t.ID),
		zap.String("retweetOf", original.ID),
		zap.String("creator", t.Creator),
	)
	return nil
}

// DeleteRetweet reverses CreateRetweet for rt.
func (r *TweetRepository) DeleteRetweet(ctx context.Context, rt, original tweet.Tweet) error {
	items := []types.TransactWriteItem{
		{
			Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key: map[string]types.AttributeValue{
					"id": &types.AttributeValueMemberS{Value: rt.ID},
				},
			},
		},
		{
			Delete: &types.Delete{
				TableName: aws.String(r.retweetsTable),
				Key: map[string]types.AttributeValue{
					"userId":  &types.AttributeValueMemberS{Value: rt.Creator},
					"tweetId": &types.AttributeValueMemberS{Value: original.ID},
				},
			},
		},
		r.adjustTweetCount(original.ID, "retweets", -1),
		r.adjustUserCount(rt.Creator, "tweetsCount", -1),
	}
	if rt.Creator != original.Creator {
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(r.timelinesTable),
				Key: map[string]types.AttributeValue{
					"userId":  &types.AttributeValueMemberS{Value: rt.Creator},
					"tweetId": &types.AttributeValueMemberS{Value: rt.ID},
				},
			},
		})
	}

	if _, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items}); err != nil {
		return fmt.Errorf("delete retweet %s of %s: %w", rt.ID, original.ID, err)
	}

	r.logger.Info("Retweet deleted",
		zap.String("tweetID", rt.ID),
		zap.String("retweetOf", original.ID),
		zap.String("creator", rt.Creator),
	)
	return nil
}

// CreateReply writes the reply, its own timeline row, the original's
// reply counter and the author's tweet counter in one transaction.
func (r *TweetRepository) CreateReply(ctx context.Context, t, original tweet.Tweet) error {
	tweetAV, err := attributevalue.MarshalMap(fromTweet(t))
	if err != nil {
		return fmt.Errorf("marshal reply: %w", err)
	}
	ownRowAV, err := attributevalue.MarshalMap(fromEntry(timeline.Own(t)))
	if err != nil {
		return fmt.Errorf("marshal timeline row: %w", err)
	}

	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: tweetAV}},
			{Put: &types.Put{TableName: aws.String(r.timelinesTable), Item: ownRowAV}},
			r.adjustTweetCount(original.ID, "replies", 1),
			r.adjustUserCount(t.Creator, "tweetsCount", 1),
		},
	})
	if err != nil {
		return fmt.Errorf("create reply %s to %s: %w", t.ID, original.ID, err)
	}

	r.logger.Info("Reply created",
		zap.String("tweetID", t.ID),
		zap.String("inReplyTo", original.ID),
		zap.String("creator", t.Creator),
	)
	return nil
}

func (r *TweetRepository) adjustUserCount(userID, attribute string, delta int) types.TransactWriteItem {
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

func (r *TweetRepository) adjustTweetCount(tweetID, attribute string, delta int) types.TransactWriteItem {
	return types.TransactWriteItem{
		Update: &types.Update{
			TableName: aws.String(r.tableName),
			Key: map[string]types.AttributeValue{
				"id": &types.AttributeValueMemberS{Value: tweetID},
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
