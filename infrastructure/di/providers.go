package di

import (
	"context"

	"chirper-backend/application/fanout"
	"chirper-backend/application/ports"
	"chirper-backend/application/queries"
	"chirper-backend/application/services"
	"chirper-backend/infrastructure/config"
	"chirper-backend/infrastructure/persistence/dynamodb"
	"chirper-backend/pkg/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	var logger *zap.Logger
	var err error

	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}

	if err != nil {
		return nil, err
	}

	return logger, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.EnableTracing {
		observability.InstrumentAWS(&awsCfg)
	}

	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client
func ProvideDynamoDBClient(awsCfg aws.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates a metrics publisher. When metrics are disabled
// it returns nil, which Metrics methods treat as a no-op.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	if !cfg.EnableMetrics {
		return nil
	}
	return observability.NewMetrics(cfg.MetricsNamespace, client, logger)
}

// ProvideValidator creates the request validator
func ProvideValidator() *validator.Validate {
	return validator.New()
}

// ProvideRelationshipRepository creates the relationship repository
func ProvideRelationshipRepository(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) *dynamodb.RelationshipRepository {
	return dynamodb.NewRelationshipRepository(
		client,
		cfg.RelationshipsTable,
		cfg.UsersTable,
		cfg.ByOtherUserIndex,
		logger,
	)
}

// ProvideFollowerStore exposes the relationship repository as a follower reader
func ProvideFollowerStore(repo *dynamodb.RelationshipRepository) ports.FollowerStore {
	return repo
}

// ProvideRelationshipStore exposes the relationship repository as a follow writer
func ProvideRelationshipStore(repo *dynamodb.RelationshipRepository) ports.RelationshipStore {
	return repo
}

// ProvideTweetStore creates the tweet repository
func ProvideTweetStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TweetStore {
	return dynamodb.NewTweetRepository(
		client,
		cfg.TweetsTable,
		cfg.TimelinesTable,
		cfg.UsersTable,
		cfg.RetweetsTable,
		cfg.ByCreatorIndex,
		logger,
	)
}

// ProvideTimelineStore creates the timeline repository
func ProvideTimelineStore(client *awsdynamodb.Client, cfg *config.Config, logger *zap.Logger) ports.TimelineStore {
	return dynamodb.NewTimelineRepository(
		client,
		cfg.TimelinesTable,
		logger,
	)
}

// ProvideTweetDistributor creates the tweet fan-out distributor
func ProvideTweetDistributor(
	followers ports.FollowerStore,
	timelines ports.TimelineStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *fanout.TweetDistributor {
	return fanout.NewTweetDistributor(followers, timelines, metrics, logger)
}

// ProvideFollowDistributor creates the follow fan-out distributor
func ProvideFollowDistributor(
	tweets ports.TweetStore,
	timelines ports.TimelineStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *fanout.FollowDistributor {
	return fanout.NewFollowDistributor(tweets, timelines, metrics, logger)
}

// ProvideTweetService creates the tweet authoring service
func ProvideTweetService(tweets ports.TweetStore, validate *validator.Validate, logger *zap.Logger) *services.TweetService {
	return services.NewTweetService(tweets, validate, logger)
}

// ProvideRelationshipService creates the follow service
func ProvideRelationshipService(relationships ports.RelationshipStore, logger *zap.Logger) *services.RelationshipService {
	return services.NewRelationshipService(relationships, logger)
}

// ProvideTimelineQuery creates the home feed query
func ProvideTimelineQuery(timelines ports.TimelineStore, tweets ports.TweetStore, logger *zap.Logger) *queries.TimelineQuery {
	return queries.NewTimelineQuery(timelines, tweets, logger)
}
