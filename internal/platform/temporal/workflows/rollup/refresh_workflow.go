package rollup

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	rollupactivities "github.com/northmart/go-order-processing/internal/platform/temporal/activities/rollup"
)

const (
	// RefreshWorkflowName is the public identifier for registering the workflow.
	RefreshWorkflowName = "rollup.workflows.Refresh"
	// RefreshTaskQueue is the queue consumed by the worker processing rollup refreshes.
	RefreshTaskQueue = "ROLLUP_REFRESH"
)

// RefreshWorkflowInput tunes one refresh run. A zero RetainMonths skips
// segment retirement.
type RefreshWorkflowInput struct {
	RetainMonths int
}

// RefreshWorkflow rebuilds the sales rollups and, when retention is set,
// retires order segments that fell out of the retention horizon. Scheduled
// as a cron workflow; a single run is also valid for manual refreshes.
func RefreshWorkflow(ctx workflow.Context, input RefreshWorkflowInput) (*rollupactivities.RebuildResult, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("RefreshWorkflow started", "retainMonths", input.RetainMonths)

	options := workflow.ActivityOptions{
		StartToCloseTimeout: 5 * time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, options)

	var result rollupactivities.RebuildResult
	if err := workflow.ExecuteActivity(ctx, rollupactivities.RebuildActivityName).Get(ctx, &result); err != nil {
		logger.Error("RefreshWorkflow rebuild failed", "error", err)
		return nil, err
	}
	logger.Info("RefreshWorkflow rebuilt rollups",
		"generation", result.Generation, "days", result.Days, "categories", result.Categories)

	if input.RetainMonths > 0 {
		cutoff := workflow.Now(ctx).UTC().AddDate(0, -input.RetainMonths, 0)
		retireInput := rollupactivities.RetireSegmentsInput{Cutoff: cutoff}
		var retired rollupactivities.RetireSegmentsResult
		if err := workflow.ExecuteActivity(ctx, rollupactivities.RetireSegmentsActivityName, retireInput).Get(ctx, &retired); err != nil {
			// Retirement is housekeeping; a failure must not void the rebuild.
			logger.Error("RefreshWorkflow segment retirement failed", "cutoff", cutoff, "error", err)
		} else if retired.Dropped > 0 {
			logger.Info("RefreshWorkflow retired segments", "dropped", retired.Dropped)
		}
	}

	logger.Info("RefreshWorkflow completed", "generation", result.Generation)
	return &result, nil
}
