package service

import (
	"context"
	"errors"
	"time"

	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/logging"
	"github.com/nikolayk812/storefront/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/nikolayk812/storefront/internal/service"
	spanPrefix = "UC."

	outcomeSuccess  = "success"
	outcomeRejected = "rejected"
	outcomeCanceled = "canceled"
	outcomeError    = "error"
)

// rejections are failures caused by the caller, not by the system.
var rejections = []error{
	domain.ErrNotFound,
	domain.ErrForbidden,
	domain.ErrUnauthenticated,
	domain.ErrInvalidRequest,
	domain.ErrInsufficientStock,
	domain.ErrConflict,
	domain.ErrInvalidTransition,
}

type observer struct {
	tracer  trace.Tracer
	metrics *metrics.Metrics
}

func newObserver(m *metrics.Metrics) observer {
	if m == nil {
		m = metrics.NewNop()
	}

	return observer{
		tracer:  otel.Tracer(tracerName),
		metrics: m,
	}
}

// begin opens the UC.<operation> span. The returned finish func records the outcome
// on the span, in metrics and as one use_case_done or use_case_failed log line.
func (o observer) begin(ctx context.Context, useCase, operation string, attrs ...attribute.KeyValue) (context.Context, *zap.Logger, func(error)) {
	logger := logging.FromContext(ctx).With(zap.String("use_case", useCase))

	attrs = append(attrs, attribute.String("use_case", useCase))
	ctx, span := o.tracer.Start(ctx, spanPrefix+operation, trace.WithAttributes(attrs...))
	start := time.Now()

	if sc := span.SpanContext(); sc.IsValid() {
		logger = logger.With(
			zap.String("trace_id", sc.TraceID().String()),
			zap.String("span_id", sc.SpanID().String()),
		)
	}

	logger.Debug("use_case_start")

	return ctx, logger, func(err error) {
		lat := time.Since(start).Seconds()
		outcome := outcomeOf(err)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}
		span.End()

		o.metrics.UseCaseRequests.WithLabelValues(useCase, outcome).Inc()
		o.metrics.UseCaseDuration.WithLabelValues(useCase).Observe(lat)

		fields := []zap.Field{
			zap.String("outcome", outcome),
			zap.Float64("latency_seconds", lat),
		}

		switch outcome {
		case outcomeSuccess:
			logger.Info("use_case_done", fields...)
		case outcomeRejected, outcomeCanceled:
			logger.Warn("use_case_failed", append(fields, zap.Error(err))...)
		default:
			logger.Error("use_case_failed", append(fields, zap.Error(err))...)
		}
	}
}

// external measures one call to a peer outside the process.
func (o observer) external(peer, endpoint string, start time.Time, err error) {
	outcome := outcomeOf(err)
	if err != nil && outcome == outcomeRejected {
		outcome = outcomeError
	}

	o.metrics.ExternalRequests.WithLabelValues(peer, endpoint, outcome).Inc()
	o.metrics.ExternalDuration.WithLabelValues(peer, endpoint).Observe(time.Since(start).Seconds())
}

func outcomeOf(err error) string {
	if err == nil {
		return outcomeSuccess
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return outcomeCanceled
	}

	for _, target := range rejections {
		if errors.Is(err, target) {
			return outcomeRejected
		}
	}

	return outcomeError
}
