package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// NewRelicContextKey is the context key holding the *newrelic.Application
// used for custom metrics and events.
type NewRelicContextKey struct{}

// NewContext returns a copy of ctx carrying app. A nil app leaves ctx
// unchanged, which disables all recording.
func NewContext(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

func appFromContext(ctx context.Context) *newrelic.Application {
	app, _ := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return app
}

// StartTransaction starts a New Relic transaction named name when ctx carries
// an application. The returned context carries the transaction so that
// TraceMethodCall segments nest under it. The returned func ends the
// transaction and is always safe to call.
func StartTransaction(ctx context.Context, name string) (context.Context, func()) {
	app := appFromContext(ctx)
	if app == nil {
		return ctx, func() {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), txn.End
}
