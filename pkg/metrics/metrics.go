package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// RecordCount records a count metric.
func RecordCount(ctx context.Context, metricName string, count uint64) {
	withApp(ctx, func(app *newrelic.Application) {
		app.RecordCustomMetric(metricName, float64(count))
	})
}

// RecordDuration records a duration metric in fractional milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	withApp(ctx, func(app *newrelic.Application) {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	})
}

// RecordEvent records a custom event. Values must be strings, numbers or
// booleans.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	withApp(ctx, func(app *newrelic.Application) {
		app.RecordCustomEvent(eventName, attributes)
	})
}

func withApp(ctx context.Context, fn func(app *newrelic.Application)) {
	if app := appFromContext(ctx); app != nil {
		fn(app)
	}
}
