package metrics

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Push sends everything in gatherer to a Pushgateway under job, replacing the
// previous push of the same grouping. A batch process exits before any scrape,
// so this is how its metrics leave the process.
func Push(ctx context.Context, url, job string, gatherer prometheus.Gatherer, grouping map[string]string) error {
	p := push.New(url, job).Gatherer(gatherer)
	for k, v := range grouping {
		p = p.Grouping(k, v)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrPushFailed, err)
	}
	return nil
}
