package di

import (
	"chirper-backend/application/fanout"
	"chirper-backend/application/queries"
	"chirper-backend/application/services"
	"chirper-backend/infrastructure/config"
	"chirper-backend/pkg/observability"

	"go.uber.org/zap"
)

// Container holds all application dependencies
type Container struct {
	Config              *config.Config
	Logger              *zap.Logger
	Metrics             *observability.Metrics
	TweetDistributor    *fanout.TweetDistributor
	FollowDistributor   *fanout.FollowDistributor
	TweetService        *services.TweetService
	RelationshipService *services.RelationshipService
	TimelineQuery       *queries.TimelineQuery
}
