package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/walkgoal/apiserver/types"
)

const exportKeyLayout = "20060102T150405Z"

// ObjectWriter is the subset of *storage.Storage needed for exports.
type ObjectWriter interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Bucket() string
}

// ExportService writes a full JSON snapshot of the group to object storage.
type ExportService struct {
	objects  ObjectWriter
	users    *UserService
	entries  EntryLister
	settings *SettingsService
	progress *ProgressService
	now      func() time.Time
}

func NewExportService(objects ObjectWriter, users *UserService, entries EntryLister, settings *SettingsService, progress *ProgressService) *ExportService {
	return &ExportService{
		objects:  objects,
		users:    users,
		entries:  entries,
		settings: settings,
		progress: progress,
		now:      time.Now,
	}
}

func (s *ExportService) Export(ctx context.Context) (types.ExportResult, error) {
	if s.objects == nil {
		return types.ExportResult{}, errors.New("object storage is not configured")
	}

	users, err := s.users.List(ctx)
	if err != nil {
		return types.ExportResult{}, err
	}
	entries, err := s.entries.List(ctx)
	if err != nil {
		return types.ExportResult{}, err
	}
	settings, err := s.settings.Public(ctx)
	if err != nil {
		return types.ExportResult{}, err
	}
	snapshot, err := s.progress.Snapshot(ctx)
	if err != nil {
		return types.ExportResult{}, err
	}

	generatedAt := s.now().UTC()
	body, err := json.MarshalIndent(types.Export{
		GeneratedAt: generatedAt,
		Settings:    settings,
		Users:       users,
		Entries:     entries,
		Progress:    snapshot,
	}, "", "  ")
	if err != nil {
		return types.ExportResult{}, fmt.Errorf("encode export: %w", err)
	}

	key := fmt.Sprintf("exports/walkgoal-%s.json", generatedAt.Format(exportKeyLayout))
	if err := s.objects.Put(ctx, key, bytes.NewReader(body), int64(len(body)), "application/json"); err != nil {
		return types.ExportResult{}, fmt.Errorf("upload export: %w", err)
	}

	return types.ExportResult{Key: key, Bucket: s.objects.Bucket(), Entries: len(entries)}, nil
}
