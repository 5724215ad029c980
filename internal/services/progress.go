package services

import (
	"context"
	"time"

	"github.com/walkgoal/apiserver/internal/metrics"
	"github.com/walkgoal/apiserver/internal/progress"
	"github.com/walkgoal/apiserver/types"
)

// EntryLister is the read side of the entry store used for aggregation.
type EntryLister interface {
	List(ctx context.Context) ([]types.Entry, error)
}

// ProgressService produces dashboard snapshots over the full entry set.
type ProgressService struct {
	entries  EntryLister
	settings *SettingsService
	loc      *time.Location
	now      func() time.Time
	metrics  *metrics.Metrics
}

func NewProgressService(entries EntryLister, settings *SettingsService, loc *time.Location, m *metrics.Metrics) *ProgressService {
	if loc == nil {
		loc = time.UTC
	}
	return &ProgressService{entries: entries, settings: settings, loc: loc, now: time.Now, metrics: m}
}

func (s *ProgressService) Snapshot(ctx context.Context) (types.Progress, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return types.Progress{}, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return types.Progress{}, err
	}

	snapshot := progress.Compute(entries, settings, s.now().In(s.loc))
	s.metrics.ObserveProgress(snapshot.ProgressPercentage)
	return snapshot, nil
}

// History returns per-week totals, oldest week first.
func (s *ProgressService) History(ctx context.Context) ([]types.WeekTotal, error) {
	entries, err := s.entries.List(ctx)
	if err != nil {
		return nil, err
	}
	return progress.WeeklyTotals(entries), nil
}
