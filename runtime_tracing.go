package autosplit

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/goliatone/go-autosplit"

// WithTracerProvider sets the provider used for module call spans. Without
// it the global provider is used.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(cfg *runtimeConfig) {
		cfg.tracerProvider = provider
	}
}

func newTracer(cfg runtimeConfig) trace.Tracer {
	provider := cfg.tracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}
	return provider.Tracer(tracerName)
}

func (r *Runtime) startSpan(ctx context.Context, entry EntryPoint, step uint64) (context.Context, trace.Span) {
	return r.tracer.Start(ctx, "autosplit."+string(entry),
		trace.WithAttributes(
			attribute.String("autosplit.runtime_id", r.id),
			attribute.String("autosplit.module", r.module),
			attribute.Int64("autosplit.step", int64(step)),
		),
	)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
