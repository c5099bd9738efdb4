package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything gathered by g to a Prometheus Pushgateway under job,
// grouped by run id so consecutive runs do not overwrite each other.
func Push(ctx context.Context, url, job, runID string, g prometheus.Gatherer) error {
	return push.New(url, job).
		Gatherer(g).
		Grouping("run_id", runID).
		PushContext(ctx)
}
