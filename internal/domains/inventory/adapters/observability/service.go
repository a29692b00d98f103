package observability

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	invdomain "github.com/northmart/go-order-processing/internal/domains/inventory/domain"
	invports "github.com/northmart/go-order-processing/internal/domains/inventory/ports"
)

const tracerName = "github.com/northmart/go-order-processing/internal/domains/inventory/adapters/observability/service"

// Service decorates the stock controller with tracing, logging, and metrics.
type Service struct {
	inner   invports.Controller
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
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
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core stock controller.
func New(inner invports.Controller, opts ...Option) invports.Controller {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		metrics: newServiceMetrics(nil),
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

func (s *Service) AttemptDecrement(ctx context.Context, cmd invports.DecrementCommand) (*invports.StockReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.AttemptDecrement",
		trace.WithAttributes(
			attribute.Int64("product.id", cmd.ProductID),
			attribute.Int64("stock.quantity", cmd.Quantity),
			attribute.Int64("stock.expected_version", cmd.ExpectedVersion),
		))
	defer span.End()

	receipt, err := s.inner.AttemptDecrement(ctx, cmd)
	if err != nil {
		s.metrics.recordDecrement(ctx, decrementResult(err))
		return nil, s.handleError(ctx, span, err, "stock decrement failed",
			slog.Int64("product.id", cmd.ProductID), slog.Int64("quantity", cmd.Quantity))
	}
	s.metrics.recordDecrement(ctx, "ok")
	s.logInfo(ctx, "stock decremented",
		slog.Int64("product.id", cmd.ProductID),
		slog.Int64("quantity", cmd.Quantity),
		slog.Int64("stock.available", receipt.Level.Available),
		slog.Int64("stock.version", receipt.Level.Version))
	return receipt, nil
}

func (s *Service) Restore(ctx context.Context, cmd invports.RestoreCommand) (*invports.StockReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.Restore",
		trace.WithAttributes(attribute.Int64("product.id", cmd.ProductID), attribute.Int64("stock.quantity", cmd.Quantity)))
	defer span.End()

	receipt, err := s.inner.Restore(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "stock restore failed", slog.Int64("product.id", cmd.ProductID))
	}
	s.metrics.recordRestore(ctx)
	s.logInfo(ctx, "stock restored",
		slog.Int64("product.id", cmd.ProductID),
		slog.Int64("quantity", cmd.Quantity),
		slog.Int64("stock.available", receipt.Level.Available))
	return receipt, nil
}

func (s *Service) Receive(ctx context.Context, cmd invports.ReceiveCommand) (*invports.StockReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.Receive",
		trace.WithAttributes(attribute.Int64("product.id", cmd.ProductID), attribute.Int64("stock.quantity", cmd.Quantity)))
	defer span.End()

	receipt, err := s.inner.Receive(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "stock receive failed", slog.Int64("product.id", cmd.ProductID))
	}
	s.logInfo(ctx, "stock received",
		slog.Int64("product.id", cmd.ProductID),
		slog.Int64("quantity", cmd.Quantity),
		slog.Int64("stock.available", receipt.Level.Available))
	return receipt, nil
}

func (s *Service) Adjust(ctx context.Context, cmd invports.AdjustCommand) (*invports.StockReceipt, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.Adjust",
		trace.WithAttributes(attribute.Int64("product.id", cmd.ProductID), attribute.Int64("stock.new_quantity", cmd.NewQuantity)))
	defer span.End()

	receipt, err := s.inner.Adjust(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "stock adjust failed", slog.Int64("product.id", cmd.ProductID))
	}
	s.logInfo(ctx, "stock adjusted",
		slog.Int64("product.id", cmd.ProductID),
		slog.Int64("stock.available", receipt.Level.Available),
		slog.Int64("stock.version", receipt.Level.Version))
	return receipt, nil
}

func (s *Service) Level(ctx context.Context, productID int64) (*invdomain.StockLevel, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.Level", trace.WithAttributes(attribute.Int64("product.id", productID)))
	defer span.End()

	level, err := s.inner.Level(ctx, productID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "stock level read failed", slog.Int64("product.id", productID))
	}
	span.SetAttributes(attribute.Int64("stock.available", level.Available), attribute.Int64("stock.version", level.Version))
	return level, nil
}

func (s *Service) History(ctx context.Context, query invports.HistoryQuery) ([]*invdomain.LedgerEntry, error) {
	ctx, span := s.tracer.Start(ctx, "StockController.History", trace.WithAttributes(attribute.Int64("product.id", query.ProductID)))
	defer span.End()

	entries, err := s.inner.History(ctx, query)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "ledger read failed", slog.Int64("product.id", query.ProductID))
	}
	span.SetAttributes(attribute.Int("ledger.entries", len(entries)))
	return entries, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

func decrementResult(err error) string {
	switch {
	case errors.Is(err, invdomain.ErrVersionConflict):
		return "conflict"
	case errors.Is(err, invdomain.ErrInsufficientStock):
		return "insufficient"
	default:
		return "error"
	}
}

type serviceMetrics struct {
	decrements metric.Int64Counter
	restores   metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	decrements, _ := m.Int64Counter("inventory.controller.decrements", metric.WithDescription("Stock decrement attempts by result"))
	restores, _ := m.Int64Counter("inventory.controller.restores", metric.WithDescription("Stock restores applied"))
	return serviceMetrics{decrements: decrements, restores: restores}
}

func (m serviceMetrics) recordDecrement(ctx context.Context, result string) {
	if m.decrements != nil {
		m.decrements.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (m serviceMetrics) recordRestore(ctx context.Context) {
	if m.restores != nil {
		m.restores.Add(ctx, 1)
	}
}

var _ invports.Controller = (*Service)(nil)
