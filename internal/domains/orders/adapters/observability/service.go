package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/northmart/go-order-processing/internal/domains/orders/domain"
	"github.com/northmart/go-order-processing/internal/domains/orders/ports"
)

const tracerName = "github.com/northmart/go-order-processing/internal/domains/orders/adapters/observability/service"

// Service decorates the order service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
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

// New wraps the core order service.
func New(inner ports.Service, opts ...Option) ports.Service {
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

func (s *Service) CreateOrder(ctx context.Context, cmd ports.CreateOrderCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder",
		trace.WithAttributes(
			attribute.Int64("order.user_id", cmd.UserID),
			attribute.Int("order.items", len(cmd.Items)),
		))
	defer span.End()

	order, err := s.inner.CreateOrder(ctx, cmd)
	if err != nil {
		s.metrics.recordCreation(ctx, "failed")
		return nil, s.handleError(ctx, span, err, "order creation failed", slog.Int64("user.id", cmd.UserID))
	}
	s.metrics.recordCreation(ctx, "created")
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	s.logInfo(ctx, "order created",
		slog.Int64("order.id", order.ID),
		slog.Int64("user.id", order.UserID),
		slog.Int("items", len(order.Items)),
		slog.String("total", order.Total.String()))
	return order, nil
}

func (s *Service) CancelOrder(ctx context.Context, cmd ports.CancelOrderCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CancelOrder",
		trace.WithAttributes(attribute.Int64("order.id", cmd.OrderID)))
	defer span.End()

	order, err := s.inner.CancelOrder(ctx, cmd)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order cancellation failed", slog.Int64("order.id", cmd.OrderID))
	}
	s.metrics.recordCancellation(ctx)
	s.logInfo(ctx, "order cancelled",
		slog.Int64("order.id", order.ID),
		slog.Int("items_restored", len(order.Items)))
	return order, nil
}

func (s *Service) AdvanceStatus(ctx context.Context, orderID int64, next domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.AdvanceStatus",
		trace.WithAttributes(
			attribute.Int64("order.id", orderID),
			attribute.String("order.next_status", string(next)),
		))
	defer span.End()

	order, err := s.inner.AdvanceStatus(ctx, orderID, next)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "status advance failed", slog.Int64("order.id", orderID))
	}
	s.logInfo(ctx, "order status advanced",
		slog.Int64("order.id", order.ID),
		slog.String("status", string(order.Status)))
	return order, nil
}

func (s *Service) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order read failed", slog.Int64("order.id", id))
	}
	return order, nil
}

func (s *Service) ListByUser(ctx context.Context, userID int64, window ports.TimeRange) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByUser", trace.WithAttributes(attribute.Int64("user.id", userID)))
	defer span.End()

	orders, err := s.inner.ListByUser(ctx, userID, window)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order list failed", slog.Int64("user.id", userID))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) ListByStatus(ctx context.Context, statuses []domain.Status, window ports.TimeRange) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByStatus")
	defer span.End()

	orders, err := s.inner.ListByStatus(ctx, statuses, window)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order list failed")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) ListByTimeRange(ctx context.Context, window ports.TimeRange) ([]*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListByTimeRange")
	defer span.End()

	orders, err := s.inner.ListByTimeRange(ctx, window)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "order list failed")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	return orders, nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if s.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
	}
	return err
}

type serviceMetrics struct {
	creations     metric.Int64Counter
	cancellations metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	creations, _ := m.Int64Counter("orders.service.creations", metric.WithDescription("Order creation attempts by result"))
	cancellations, _ := m.Int64Counter("orders.service.cancellations", metric.WithDescription("Orders cancelled"))
	return serviceMetrics{creations: creations, cancellations: cancellations}
}

func (m serviceMetrics) recordCreation(ctx context.Context, result string) {
	if m.creations != nil {
		m.creations.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	}
}

func (m serviceMetrics) recordCancellation(ctx context.Context) {
	if m.cancellations != nil {
		m.cancellations.Add(ctx, 1)
	}
}

var _ ports.Service = (*Service)(nil)
