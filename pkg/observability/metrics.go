package observability

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// CloudWatchAPI is the slice of the CloudWatch client the metrics
// publisher needs.
type CloudWatchAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Metrics publishes fan-out statistics to CloudWatch. A nil *Metrics
// is a valid no-op publisher, so callers never have to guard.
type Metrics struct {
	namespace string
	client    CloudWatchAPI
	logger    *zap.Logger
}

// NewMetrics creates a metrics publisher for the given namespace.
func NewMetrics(namespace string, client CloudWatchAPI, logger *zap.Logger) *Metrics {
	return &Metrics{
		namespace: namespace,
		client:    client,
		logger:    logger,
	}
}

// RecordFanout publishes the number of timeline writes a distribution
// produced and how long it took. Metric failures are logged and
// swallowed: observability must never fail a fan-out invocation.
func (m *Metrics) RecordFanout(ctx context.Context, operation string, entries int, elapsed time.Duration) {
	if m == nil || m.client == nil {
		return
	}

	dimensions := []types.Dimension{
		{Name: aws.String("Operation"), Value: aws.String(operation)},
	}

	_, err := m.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []types.MetricDatum{
			{
				MetricName: aws.String("TimelineEntries"),
				Dimensions: dimensions,
				Unit:       types.StandardUnitCount,
				Value:      aws.Float64(float64(entries)),
			},
			{
				MetricName: aws.String("FanoutDuration"),
				Dimensions: dimensions,
				Unit:       types.StandardUnitMilliseconds,
				Value:      aws.Float64(float64(elapsed.Milliseconds())),
			},
		},
	})
	if err != nil && m.logger != nil {
		m.logger.Warn("Failed to publish fan-out metrics",
			zap.String("operation", operation),
			zap.Error(err),
		)
	}
}
