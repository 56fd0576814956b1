package observability

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
)

// InstrumentAWS attaches X-Ray tracing to every AWS SDK client built
// from awsCfg. Inside Lambda the segment context comes from the
// runtime, so this is all the wiring tracing needs.
func InstrumentAWS(awsCfg *aws.Config) {
	awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
}
