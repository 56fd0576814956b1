package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func makeWriteRequests(n int) []types.WriteRequest {
	requests := make([]types.WriteRequest, n)
	for i := range requests {
		requests[i] = types.WriteRequest{
			PutRequest: &types.PutRequest{
				Item: map[string]types.AttributeValue{
					"userId":  &types.AttributeValueMemberS{Value: "user"},
					"tweetId": &types.AttributeValueMemberS{Value: fmt.Sprintf("tweet-%03d", i)},
				},
			},
		}
	}
	return requests
}

func TestChunkWriteRequests(t *testing.T) {
	cases := []struct {
		total  int
		chunks int
		last   int
	}{
		{0, 0, 0},
		{1, 1, 1},
		{25, 1, 25},
		{26, 2, 1},
		{57, 3, 7},
		{100, 4, 25},
	}

	for _, tc := range cases {
		chunks := chunkWriteRequests(makeWriteRequests(tc.total), maxBatchWriteSize)
		require.Len(t, chunks, tc.chunks, "total=%d", tc.total)

		got := 0
		for i, chunk := range chunks {
			assert.LessOrEqual(t, len(chunk), maxBatchWriteSize)
			if i == len(chunks)-1 {
				assert.Len(t, chunk, tc.last)
			}
			got += len(chunk)
		}
		assert.Equal(t, tc.total, got, "every request must land in exactly one chunk")
	}
}

// fakeBatchWriter counts calls and can return unprocessed items or
// errors for the first few of them.
type fakeBatchWriter struct {
	mu         sync.Mutex
	calls      int
	failFirst  int
	err        error
	leaveFirst int
	written    int
}

func (f *fakeBatchWriter) BatchWriteItem(ctx context.Context, params *awsdynamodb.BatchWriteItemInput, optFns ...func(*awsdynamodb.Options)) (*awsdynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.calls <= f.failFirst {
		return nil, f.err
	}

	var requests []types.WriteRequest
	for _, reqs := range params.RequestItems {
		requests = reqs
	}

	if f.calls <= f.leaveFirst {
		// Process all but one item, echo the leftover back.
		f.written += len(requests) - 1
		table := ""
		for name := range params.RequestItems {
			table = name
		}
		return &awsdynamodb.BatchWriteItemOutput{
			UnprocessedItems: map[string][]types.WriteRequest{table: requests[len(requests)-1:]},
		}, nil
	}

	f.written += len(requests)
	return &awsdynamodb.BatchWriteItemOutput{}, nil
}

func TestWriteAllBatches_WritesEverything(t *testing.T) {
	client := &fakeBatchWriter{}

	err := writeAllBatches(context.Background(), client, "timelines", makeWriteRequests(57), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, 57, client.written)
}

func TestWriteAllBatches_EmptyIsNoop(t *testing.T) {
	client := &fakeBatchWriter{}

	require.NoError(t, writeAllBatches(context.Background(), client, "timelines", nil, zap.NewNop()))
	assert.Zero(t, client.calls)
}

func TestWriteBatch_ResubmitsUnprocessedItems(t *testing.T) {
	client := &fakeBatchWriter{leaveFirst: 2}

	err := writeBatch(context.Background(), client, "timelines", makeWriteRequests(25))
	require.NoError(t, err)

	assert.Equal(t, 3, client.calls)
	assert.Equal(t, 25, client.written)
}

func TestWriteBatch_RetriesThrottling(t *testing.T) {
	client := &fakeBatchWriter{
		failFirst: 2,
		err:       &types.ProvisionedThroughputExceededException{Message: aws.String("slow down")},
	}

	err := writeBatch(context.Background(), client, "timelines", makeWriteRequests(10))
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestWriteBatch_NonTransientFailsImmediately(t *testing.T) {
	client := &fakeBatchWriter{
		failFirst: 1,
		err:       &types.ResourceNotFoundException{Message: aws.String("no such table")},
	}

	err := writeBatch(context.Background(), client, "timelines", makeWriteRequests(10))
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestWriteBatch_GivesUpAfterMaxAttempts(t *testing.T) {
	client := &fakeBatchWriter{leaveFirst: 100}

	err := writeBatch(context.Background(), client, "timelines", makeWriteRequests(25))
	require.Error(t, err)
	assert.Equal(t, maxWriteAttempts, client.calls)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, isTransient(&types.ProvisionedThroughputExceededException{}))
	assert.True(t, isTransient(&types.RequestLimitExceeded{}))
	assert.False(t, isTransient(&types.ResourceNotFoundException{}))
	assert.False(t, isTransient(errors.New("plain error")))
}
