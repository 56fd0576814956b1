package dynamodb

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	key := map[string]types.AttributeValue{
		"userId":  &types.AttributeValueMemberS{Value: "alice"},
		"tweetId": &types.AttributeValueMemberS{Value: "01J8ZQ6M7N8P9R0S1T2U3V4W5X"},
	}

	cursor, err := encodeCursor(key)
	require.NoError(t, err)
	require.NotEmpty(t, cursor)

	decoded, err := decodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestEncodeCursor_EmptyKey(t *testing.T) {
	cursor, err := encodeCursor(nil)
	require.NoError(t, err)
	assert.Empty(t, cursor)
}

func TestEncodeCursor_RejectsNonStringAttributes(t *testing.T) {
	key := map[string]types.AttributeValue{
		"count": &types.AttributeValueMemberN{Value: "7"},
	}

	_, err := encodeCursor(key)
	require.Error(t, err)
}

func TestDecodeCursor_EmptyIsNil(t *testing.T) {
	key, err := decodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, key)
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	_, err := decodeCursor("not base64 !!!")
	require.Error(t, err)
}
