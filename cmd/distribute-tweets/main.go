// Package main implements the Lambda handler that fans tweets out to
// follower timelines. It is triggered by the Tweets table stream.
package main

import (
	"context"
	"log"

	"chirper-backend/infrastructure/config"
	"chirper-backend/infrastructure/di"
	"chirper-backend/interfaces/stream"

	awsevents "github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"go.uber.org/zap"
)

// Global dependencies for Lambda performance optimization
var container *di.Container

func init() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	container, err = di.InitializeContainer(context.Background(), cfg)
	if err != nil {
		log.Fatalf("Failed to initialize dependency container: %v", err)
	}

	container.Logger.Info("distribute-tweets handler initialized")
}

// handler processes one stream batch. Any error fails the whole
// invocation so the event source retries the batch.
func handler(ctx context.Context, event awsevents.DynamoDBEvent) error {
	changes, err := stream.TweetChanges(event)
	if err != nil {
		container.Logger.Error("Failed to decode stream records", zap.Error(err))
		return err
	}

	return container.TweetDistributor.Process(ctx, changes)
}

func main() {
	lambda.Start(handler)
}
