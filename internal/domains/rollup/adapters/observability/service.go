package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

const tracerName = "github.com/northmart/go-order-processing/internal/domains/rollup/adapters/observability/service"

// Service decorates the rollup service with tracing, logging, and metrics.
type Service struct {
	inner     ports.Service
	tracer    trace.Tracer
	logger    *slog.Logger
	refreshes metric.Int64Counter
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		if m != nil {
			s.refreshes, _ = m.Int64Counter("rollup.service.refreshes", metric.WithDescription("Rollup rebuilds by result"))
		}
	}
}

// New wraps the core rollup service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:  inner,
		tracer: nooptrace.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) Rebuild(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "RollupService.Rebuild")
	defer span.End()

	snapshot, err := s.inner.Rebuild(ctx)
	if err != nil {
		s.recordRefresh(ctx, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if s.logger != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "rollup rebuild failed", slog.String("error", err.Error()))
		}
		return nil, err
	}
	s.recordRefresh(ctx, "ok")
	span.SetAttributes(
		attribute.String("rollup.generation", snapshot.Generation.String()),
		attribute.Int("rollup.days", len(snapshot.Daily)),
		attribute.Int("rollup.categories", len(snapshot.Categories)),
	)
	if s.logger != nil {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "rollup rebuilt",
			slog.String("generation", snapshot.Generation.String()),
			slog.Int("days", len(snapshot.Daily)),
			slog.Int("categories", len(snapshot.Categories)))
	}
	return snapshot, nil
}

func (s *Service) Current(ctx context.Context) (*domain.Snapshot, error) {
	ctx, span := s.tracer.Start(ctx, "RollupService.Current")
	defer span.End()

	snapshot, err := s.inner.Current(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return snapshot, nil
}

func (s *Service) recordRefresh(ctx context.Context, result string) {
	if s.refreshes != nil {
		s.refreshes.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

var _ ports.Service = (*Service)(nil)
