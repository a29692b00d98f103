package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/northmart/go-order-processing/internal/app/api"
	platformobservability "github.com/northmart/go-order-processing/internal/platform/observability"
	rollupactivities "github.com/northmart/go-order-processing/internal/platform/temporal/activities/rollup"
	rollupworkflows "github.com/northmart/go-order-processing/internal/platform/temporal/workflows/rollup"
)

func main() {
	ctx := context.Background()
	const serviceName = "order-processing-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	cfg, err := api.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.TemporalDisabled {
		logger.Warn("temporal disabled via TEMPORAL_DISABLED; use cmd/rollup-runner for one-shot refreshes")
		return
	}
	services, cleanup := api.BuildServices(ctx, cfg, instruments)
	defer cleanup()
	activities := rollupactivities.NewActivities(services.Rollup, services.Segments)

	tracerOptions := temporalotel.TracerOptions{Tracer: instruments.Tracer("temporal-worker")}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		logger.Error("failed to configure Temporal tracing interceptor", slog.String("error", err.Error()))
		os.Exit(1)
	}
	clientOptions := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(logger),
	}
	clientOptions.Interceptors = append(clientOptions.Interceptors, tracingInterceptor)
	temporalClient, err := client.Dial(clientOptions)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, rollupworkflows.RefreshTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(rollupworkflows.RefreshWorkflow, workflow.RegisterOptions{Name: rollupworkflows.RefreshWorkflowName})
	w.RegisterActivityWithOptions(activities.Rebuild, activity.RegisterOptions{Name: rollupactivities.RebuildActivityName})
	w.RegisterActivityWithOptions(activities.RetireSegments, activity.RegisterOptions{Name: rollupactivities.RetireSegmentsActivityName})

	startRefreshCron(ctx, temporalClient, cfg, logger)

	logger.Info("worker listening", slog.String("taskQueue", rollupworkflows.RefreshTaskQueue), slog.String("namespace", clientOptions.Namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

// startRefreshCron starts the periodic refresh workflow. The fixed workflow id
// makes the start idempotent across worker restarts.
func startRefreshCron(ctx context.Context, temporalClient client.Client, cfg api.Config, logger *slog.Logger) {
	options := client.StartWorkflowOptions{
		ID:           "rollup-refresh-cron",
		TaskQueue:    rollupworkflows.RefreshTaskQueue,
		CronSchedule: cfg.RollupCron,
	}
	input := rollupworkflows.RefreshWorkflowInput{RetainMonths: cfg.RetainMonths}
	_, err := temporalClient.ExecuteWorkflow(ctx, options, rollupworkflows.RefreshWorkflowName, input)
	if err != nil {
		var already *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &already) {
			logger.Info("rollup refresh cron already scheduled", slog.String("cron", cfg.RollupCron))
			return
		}
		logger.Error("failed to schedule rollup refresh cron", slog.String("error", err.Error()))
		return
	}
	logger.Info("rollup refresh cron scheduled", slog.String("cron", cfg.RollupCron), slog.Int("retainMonths", cfg.RetainMonths))
}
