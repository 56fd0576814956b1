package dynamodb

import (
	"fmt"
	"time"

	"chirper-backend/domain/relationship"
	"chirper-backend/domain/tweet"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDB stream records carry their images in the Lambda events
// representation, not the SDK's. These helpers convert an image back
// into SDK attribute values so the repositories' item shapes can
// decode it.

// TweetFromStreamImage decodes a Tweets-table stream image.
func TweetFromStreamImage(image map[string]events.DynamoDBAttributeValue) (tweet.Tweet, error) {
	av, err := fromStreamImage(image)
	if err != nil {
		return tweet.Tweet{}, err
	}
	var item tweetItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return tweet.Tweet{}, fmt.Errorf("unmarshal tweet stream image: %w", err)
	}
	return item.toTweet()
}

// RelationshipFromStreamImage decodes a Relationships-table stream
// image.
func RelationshipFromStreamImage(image map[string]events.DynamoDBAttributeValue) (relationship.Relationship, error) {
	av, err := fromStreamImage(image)
	if err != nil {
		return relationship.Relationship{}, err
	}
	var item relationshipItem
	if err := attributevalue.UnmarshalMap(av, &item); err != nil {
		return relationship.Relationship{}, fmt.Errorf("unmarshal relationship stream image: %w", err)
	}
	if !relationship.IsFollowSortKey(item.SK) {
		return relationship.Relationship{}, fmt.Errorf("relationship stream image has unexpected sort key %q", item.SK)
	}
	createdAt, err := time.Parse(time.RFC3339, item.CreatedAt)
	if err != nil {
		// Some writers omit or reshape createdAt; the fan-out only
		// needs the edge itself.
		createdAt = time.Time{}
	}
	return relationship.Relationship{
		UserID:      item.UserID,
		OtherUserID: item.OtherUserID,
		CreatedAt:   createdAt,
	}, nil
}

func fromStreamImage(image map[string]events.DynamoDBAttributeValue) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(image))
	for name, value := range image {
		av, err := fromStreamValue(value)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		out[name] = av
	}
	return out, nil
}

func fromStreamValue(value events.DynamoDBAttributeValue) (types.AttributeValue, error) {
	switch value.DataType() {
	case events.DataTypeString:
		return &types.AttributeValueMemberS{Value: value.String()}, nil
	case events.DataTypeNumber:
		return &types.AttributeValueMemberN{Value: value.Number()}, nil
	case events.DataTypeBoolean:
		return &types.AttributeValueMemberBOOL{Value: value.Boolean()}, nil
	case events.DataTypeNull:
		return &types.AttributeValueMemberNULL{Value: value.IsNull()}, nil
	case events.DataTypeBinary:
		return &types.AttributeValueMemberB{Value: value.Binary()}, nil
	case events.DataTypeStringSet:
		return &types.AttributeValueMemberSS{Value: value.StringSet()}, nil
	case events.DataTypeNumberSet:
		return &types.AttributeValueMemberNS{Value: value.NumberSet()}, nil
	case events.DataTypeBinarySet:
		return &types.AttributeValueMemberBS{Value: value.BinarySet()}, nil
	case events.DataTypeList:
		list := value.List()
		members := make([]types.AttributeValue, 0, len(list))
		for _, element := range list {
			member, err := fromStreamValue(element)
			if err != nil {
				return nil, err
			}
			members = append(members, member)
		}
		return &types.AttributeValueMemberL{Value: members}, nil
	case events.DataTypeMap:
		inner, err := fromStreamImage(value.Map())
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: inner}, nil
	default:
		return nil, fmt.Errorf("unsupported stream attribute type %v", value.DataType())
	}
}
