package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/walkgoal/apiserver/internal/metrics"
	"github.com/walkgoal/apiserver/internal/progress"
	"github.com/walkgoal/apiserver/internal/store"
	"github.com/walkgoal/apiserver/types"
)

const (
	DefaultMaxEntryMinutes = 300

	defaultEntryPageSize = 50
	maxEntryPageSize     = 200
)

// EntryRepository defines persistence operations for walking entries.
type EntryRepository interface {
	List(ctx context.Context) ([]types.Entry, error)
	ListByUser(ctx context.Context, userName string) ([]types.Entry, error)
	ListByWeek(ctx context.Context, weekStartDate string) ([]types.Entry, error)
	Create(ctx context.Context, entry types.Entry) (types.Entry, error)
	Delete(ctx context.Context, id string) error
}

// EntryOptions tunes submission behaviour.
type EntryOptions struct {
	// MaxMinutes caps a single entry. Zero means DefaultMaxEntryMinutes.
	MaxMinutes int
	// AutoCreateUsers registers unknown names on first submission instead of
	// rejecting them.
	AutoCreateUsers bool
	// Location is used to bucket entries into weeks. Nil means UTC.
	Location *time.Location
	Events   *Events
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// EntryService validates and records walking entries.
type EntryService struct {
	repo     EntryRepository
	users    *UserService
	settings *SettingsService
	opts     EntryOptions
	now      func() time.Time
}

func NewEntryService(repo EntryRepository, users *UserService, settings *SettingsService, opts EntryOptions) *EntryService {
	if opts.MaxMinutes <= 0 {
		opts.MaxMinutes = DefaultMaxEntryMinutes
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &EntryService{
		repo:     repo,
		users:    users,
		settings: settings,
		opts:     opts,
		now:      time.Now,
	}
}

// Submit validates and stores an entry for name. rawMinutes is the textual
// form of the submitted number; fractional minutes are truncated.
func (s *EntryService) Submit(ctx context.Context, name, rawMinutes string) (types.SubmitResult, error) {
	result, err := s.submit(ctx, name, rawMinutes)
	if verr, ok := IsValidation(err); ok {
		s.opts.Metrics.EntryRejected(verr.Code)
	}
	return result, err
}

func (s *EntryService) submit(ctx context.Context, rawName, rawMinutes string) (types.SubmitResult, error) {
	name, err := normalizeName(rawName)
	if err != nil {
		return types.SubmitResult{}, err
	}
	minutes, err := parseMinutes(rawMinutes, s.opts.MaxMinutes)
	if err != nil {
		return types.SubmitResult{}, err
	}
	user, err := s.users.Resolve(ctx, name, s.opts.AutoCreateUsers)
	if err != nil {
		return types.SubmitResult{}, err
	}

	now := s.now().In(s.opts.Location)
	entry, err := s.repo.Create(ctx, types.Entry{
		ID:            uuid.NewString(),
		UserName:      user.Name,
		Minutes:       minutes,
		WeekStartDate: progress.WeekStartDate(now),
		CreatedAt:     now,
	})
	if err != nil {
		return types.SubmitResult{}, fmt.Errorf("store entry: %w", err)
	}
	s.opts.Metrics.EntrySubmitted(entry.Minutes)
	s.opts.Logger.InfoContext(ctx, "entry recorded", "entry_id", entry.ID, "user", entry.UserName, "minutes", entry.Minutes)
	s.opts.Events.Emit(ctx, EventEntryCreated, entry)

	stats, err := s.relativeStats(ctx, user.Name)
	if err != nil {
		return types.SubmitResult{}, err
	}

	return types.SubmitResult{
		Entry:         entry,
		Message:       fmt.Sprintf("Successfully added %d minutes for %s", entry.Minutes, entry.UserName),
		RelativeStats: stats,
	}, nil
}

func (s *EntryService) relativeStats(ctx context.Context, name string) (types.RelativeStats, error) {
	entries, err := s.repo.ListByUser(ctx, name)
	if err != nil {
		return types.RelativeStats{}, err
	}
	settings, err := s.settings.Current(ctx)
	if err != nil {
		return types.RelativeStats{}, err
	}
	total := progress.UserTotal(entries, name)
	return types.RelativeStats{
		UserTotalMinutes:    total,
		ContributionPercent: progress.ContributionPercent(total, settings.GoalMinutes),
	}, nil
}

// List returns entries newest first, optionally filtered by user, along with
// the total number of matches before paging.
func (s *EntryService) List(ctx context.Context, userName string, offset, limit int) ([]types.Entry, int, error) {
	if limit <= 0 {
		limit = defaultEntryPageSize
	}
	if limit > maxEntryPageSize {
		limit = maxEntryPageSize
	}
	if offset < 0 {
		offset = 0
	}

	var (
		entries []types.Entry
		err     error
	)
	if userName = strings.TrimSpace(userName); userName != "" {
		entries, err = s.repo.ListByUser(ctx, userName)
	} else {
		entries, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, 0, err
	}

	total := len(entries)
	if offset >= total {
		return []types.Entry{}, total, nil
	}
	end := min(offset+limit, total)
	return entries[offset:end], total, nil
}

// CurrentWeek returns the entries recorded in the current week.
func (s *EntryService) CurrentWeek(ctx context.Context) ([]types.Entry, error) {
	return s.repo.ListByWeek(ctx, progress.WeekStartDate(s.now().In(s.opts.Location)))
}

func (s *EntryService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrEntryNotFound
		}
		return err
	}
	s.opts.Events.Emit(ctx, EventEntryDeleted, map[string]string{"id": id})
	return nil
}

// parseMinutes accepts any finite decimal, truncates it and checks it against
// the range 1..maxMinutes. A value that truncates below 1 is invalid, not over-cap.
func parseMinutes(raw string, maxMinutes int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidMinutes
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, ErrInvalidMinutes
	}
	value = math.Trunc(value)
	if value < 1 {
		return 0, ErrInvalidMinutes
	}
	if value > float64(maxMinutes) {
		return 0, ErrMinutesExceedsCap
	}
	return int(value), nil
}
