package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

const (
	// maxBatchWriteSize is DynamoDB's hard cap on BatchWriteItem.
	maxBatchWriteSize = 25

	// maxWriteAttempts bounds retries of throttled or partially
	// unprocessed chunks before the invocation is failed and the
	// change feed redelivers.
	maxWriteAttempts = 4

	baseBackoff = 50 * time.Millisecond
)

// BatchWriteAPI is the slice of the DynamoDB client the batch writer
// needs.
type BatchWriteAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// chunkWriteRequests partitions requests into ordered chunks of at
// most size items. Every request lands in exactly one chunk.
func chunkWriteRequests(requests []types.WriteRequest, size int) [][]types.WriteRequest {
	if len(requests) == 0 {
		return nil
	}
	chunks := make([][]types.WriteRequest, 0, (len(requests)+size-1)/size)
	for start := 0; start < len(requests); start += size {
		end := start + size
		if end > len(requests) {
			end = len(requests)
		}
		chunks = append(chunks, requests[start:end])
	}
	return chunks
}

// writeAllBatches fans requests out as independent BatchWriteItem
// calls of at most maxBatchWriteSize each, dispatched concurrently,
// and waits for every chunk. Chunks neither order nor roll back
// relative to each other; a failed chunk fails the whole call after
// its siblings finish.
func writeAllBatches(ctx context.Context, client BatchWriteAPI, table string, requests []types.WriteRequest, logger *zap.Logger) error {
	chunks := chunkWriteRequests(requests, maxBatchWriteSize)
	if len(chunks) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errs := make([]error, len(chunks))
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []types.WriteRequest) {
			defer wg.Done()
			errs[i] = writeBatch(ctx, client, table, chunk)
		}(i, chunk)
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return err
	}

	logger.Debug("Batch write complete",
		zap.String("table", table),
		zap.Int("operations", len(requests)),
		zap.Int("chunks", len(chunks)),
	)
	return nil
}

// writeBatch issues one chunk, re-submitting unprocessed items until
// they drain or attempts run out.
func writeBatch(ctx context.Context, client BatchWriteAPI, table string, chunk []types.WriteRequest) error {
	pending := chunk
	for attempt := 1; ; attempt++ {
		out, err := client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{table: pending},
		})
		if err != nil {
			if isTransient(err) && attempt < maxWriteAttempts {
				if err := sleepBackoff(ctx, attempt); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("batch write to %s: %w", table, err)
		}

		pending = out.UnprocessedItems[table]
		if len(pending) == 0 {
			return nil
		}
		if attempt >= maxWriteAttempts {
			return fmt.Errorf("batch write to %s: %d operations unprocessed after %d attempts", table, len(pending), attempt)
		}
		if err := sleepBackoff(ctx, attempt); err != nil {
			return err
		}
	}
}

// isTransient reports whether err is worth retrying within the
// invocation. Anything else propagates immediately; the change feed's
// redelivery is the outer retry loop.
func isTransient(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var limit *types.RequestLimitExceeded
	if errors.As(err, &limit) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "ThrottlingException", "ServiceUnavailable", "InternalServerError":
			return true
		}
	}
	return false
}

// sleepBackoff waits for an exponentially growing, jittered interval
// or until the context is done.
func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := baseBackoff << (attempt - 1)
	backoff += time.Duration(rand.Int63n(int64(baseBackoff)))
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
