package application

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/northmart/go-order-processing/internal/domains/rollup/domain"
	"github.com/northmart/go-order-processing/internal/domains/rollup/ports"
)

type fakeSource struct {
	lines []domain.SoldLine
	from  time.Time
	to    time.Time
}

func (f *fakeSource) SoldLines(_ context.Context, from, to time.Time) ([]domain.SoldLine, error) {
	f.from, f.to = from, to
	return f.lines, nil
}

type fakeStore struct {
	published *domain.Snapshot
}

func (f *fakeStore) Publish(_ context.Context, snapshot *domain.Snapshot) error {
	f.published = snapshot
	return nil
}

func (f *fakeStore) Current(_ context.Context) (*domain.Snapshot, error) {
	if f.published == nil {
		return nil, ports.ErrNoSnapshot
	}
	return f.published, nil
}

func TestRebuild_PublishesTrailingWindow(t *testing.T) {
	now := time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{lines: []domain.SoldLine{
		{OrderID: 1, UserID: 1, PlacedAt: now.Add(-time.Hour), LineTotal: decimal.RequireFromString("12.00")},
	}}
	store := &fakeStore{}
	svc := NewService(source, store,
		WithWindow(30*24*time.Hour),
		WithClock(func() time.Time { return now }),
	)

	snapshot, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), source.from)
	assert.Equal(t, now, source.to)
	assert.Equal(t, snapshot, store.published)
	require.Len(t, snapshot.Daily, 1)
	assert.Equal(t, int64(1), snapshot.Daily[0].OrderCount)

	current, err := svc.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot.Generation, current.Generation)
}

func TestRebuild_NewGenerationEachRun(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(&fakeSource{}, store)

	first, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	second, err := svc.Rebuild(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.Generation, second.Generation)
}

func TestCurrent_NoSnapshotYet(t *testing.T) {
	svc := NewService(&fakeSource{}, &fakeStore{})
	_, err := svc.Current(context.Background())
	require.ErrorIs(t, err, ports.ErrNoSnapshot)
}
