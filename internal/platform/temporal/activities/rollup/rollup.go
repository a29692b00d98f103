package rollup

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/sdk/activity"

	ordersports "github.com/northmart/go-order-processing/internal/domains/orders/ports"
	rollupports "github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

const (
	// RebuildActivityName rebuilds and publishes the sales rollups.
	RebuildActivityName = "rollup.activities.Rebuild"
	// RetireSegmentsActivityName drops order segments past the retention cutoff.
	RetireSegmentsActivityName = "rollup.activities.RetireSegments"
)

// RebuildResult summarizes a published rollup generation.
type RebuildResult struct {
	Generation string
	Days       int
	Categories int
}

// RetireSegmentsInput carries the retention cutoff for segment cleanup.
type RetireSegmentsInput struct {
	Cutoff time.Time
}

// RetireSegmentsResult reports how many segments were dropped.
type RetireSegmentsResult struct {
	Dropped int
}

// Activities groups maintenance activities for the sales read side.
type Activities struct {
	rollup   rollupports.Service
	segments ordersports.SegmentEnsurer
}

// NewActivities wires the rollup collaborators into the Temporal activities bundle.
// segments may be nil when the deployment does not retire old order segments.
func NewActivities(rollup rollupports.Service, segments ordersports.SegmentEnsurer) *Activities {
	return &Activities{
		rollup:   rollup,
		segments: segments,
	}
}

// Rebuild recomputes the rollups off committed orders and publishes them.
func (a *Activities) Rebuild(ctx context.Context) (*RebuildResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.rollup == nil {
		logger.Error("rollup rebuild activity not initialized")
		return nil, errors.New("rollup rebuild activity not initialized")
	}
	logger.Info("Rebuild activity started")
	snapshot, err := a.rollup.Rebuild(ctx)
	if err != nil {
		logger.Error("Rebuild activity failed", "error", err)
		return nil, err
	}
	result := &RebuildResult{
		Generation: snapshot.Generation.String(),
		Days:       len(snapshot.Daily),
		Categories: len(snapshot.Categories),
	}
	logger.Info("Rebuild activity completed",
		"generation", result.Generation, "days", result.Days, "categories", result.Categories)
	return result, nil
}

// RetireSegments drops order segments whose window ended before the cutoff.
func (a *Activities) RetireSegments(ctx context.Context, input RetireSegmentsInput) (*RetireSegmentsResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil {
		logger.Error("segment retirement activity not initialized")
		return nil, errors.New("segment retirement activity not initialized")
	}
	if a.segments == nil {
		logger.Info("segment retirement not configured; skipping")
		return &RetireSegmentsResult{}, nil
	}
	logger.Info("RetireSegments activity started", "cutoff", input.Cutoff)
	dropped, err := a.segments.RetireBefore(ctx, input.Cutoff)
	if err != nil {
		logger.Error("RetireSegments activity failed", "cutoff", input.Cutoff, "error", err)
		return nil, err
	}
	logger.Info("RetireSegments activity completed", "dropped", dropped)
	return &RetireSegmentsResult{Dropped: dropped}, nil
}
