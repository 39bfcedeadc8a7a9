// Package reserved keeps the reserved path namespace in step with the host
// site. Paths come from static configuration and from a remote JSON index
// that is polled on a cron schedule.
package reserved

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// DefaultSchedule polls the index every five minutes
const DefaultSchedule = "@every 5m"

// maxIndexSize caps the index body read from the host
const maxIndexSize = 10 * 1024 * 1024

// Index is the document served by the host site at the index URL
type Index struct {
	Version   string       `json:"version,omitempty"`
	UpdatedAt time.Time    `json:"updated_at,omitempty"`
	Paths     []IndexEntry `json:"paths"`
}

// IndexEntry is one addressable page, post or system path on the host
type IndexEntry struct {
	Path string              `json:"path"`
	Kind domain.ReservedKind `json:"kind,omitempty"`
}

// SyncResult summarizes one sync run
type SyncResult struct {
	Changed  bool      `json:"changed"`
	Paths    int       `json:"paths"`
	Skipped  int       `json:"skipped"`
	ETag     string    `json:"etag,omitempty"`
	SyncedAt time.Time `json:"synced_at"`
}

// SyncerConfig holds configuration for the syncer
type SyncerConfig struct {
	IndexURL string
	Timeout  time.Duration
	Schedule string
}

// Syncer mirrors the host's reserved path index into a ReservedPathRepository
type Syncer struct {
	config     SyncerConfig
	repo       domain.ReservedPathRepository
	validator  domain.Validator
	httpClient *http.Client

	mu       sync.RWMutex
	lastETag string
	last     *SyncResult

	runMu     sync.Mutex
	scheduler *cron.Cron

	onSync   func()
	onSyncMu sync.RWMutex
}

// NewSyncer creates a new Syncer
func NewSyncer(config SyncerConfig, repo domain.ReservedPathRepository, validator domain.Validator) *Syncer {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}

	return &Syncer{
		config:    config,
		repo:      repo,
		validator: validator,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// SetOnSync sets a callback to be called when the reserved set changed
func (s *Syncer) SetOnSync(fn func()) {
	s.onSyncMu.Lock()
	s.onSync = fn
	s.onSyncMu.Unlock()
}

func (s *Syncer) triggerOnSync() {
	s.onSyncMu.RLock()
	fn := s.onSync
	s.onSyncMu.RUnlock()
	if fn != nil {
		fn()
	}
}

// Start runs an initial sync and schedules the rest. It returns an error only
// for an invalid schedule.
func (s *Syncer) Start(ctx context.Context) error {
	s.scheduler = cron.New()
	if _, err := s.scheduler.AddFunc(s.config.Schedule, func() { s.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("invalid reserved sync schedule %q: %w", s.config.Schedule, err)
	}

	go s.runScheduled(ctx)
	s.scheduler.Start()

	log.Info().Str("index_url", s.config.IndexURL).Str("schedule", s.config.Schedule).Msg("Reserved path syncer started")
	return nil
}

// Stop stops the schedule and waits for a running sync to finish
func (s *Syncer) Stop() {
	if s.scheduler == nil {
		return
	}
	<-s.scheduler.Stop().Done()
}

func (s *Syncer) runScheduled(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.Sync(ctx); err != nil {
		log.Warn().Err(err).Msg("Reserved path sync failed")
	}
}

// Sync fetches the index and replaces the synced reserved paths when it changed
func (s *Syncer) Sync(ctx context.Context) (*SyncResult, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	index, etag, changed, err := s.fetchIndex(ctx)
	if err != nil {
		return nil, domain.NewAppErrorWithCause(
			domain.ErrSyncFailed,
			"Failed to fetch reserved path index",
			502,
			err,
			map[string]string{"index_url": s.config.IndexURL},
		).WithContext(ctx, "reserved_sync")
	}

	result := &SyncResult{SyncedAt: time.Now(), ETag: etag}
	if !changed {
		log.Debug().Msg("Reserved path index unchanged")
		s.setLast(result)
		return result, nil
	}

	paths, skipped := s.entriesToPaths(index.Paths)
	if err := s.repo.ReplaceReservedPaths(ctx, domain.SourceSynced, paths); err != nil {
		return nil, err
	}

	// Only remember the ETag once the paths are stored, so a failed write is retried
	s.mu.Lock()
	s.lastETag = etag
	s.mu.Unlock()

	result.Changed = true
	result.Paths = len(paths)
	result.Skipped = skipped
	s.setLast(result)

	log.Info().
		Int("paths", result.Paths).
		Int("skipped", result.Skipped).
		Str("version", index.Version).
		Msg("Reserved path sync completed")

	s.triggerOnSync()
	return result, nil
}

// LastResult returns the most recent successful sync, or nil
func (s *Syncer) LastResult() *SyncResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil
	}
	last := *s.last
	return &last
}

func (s *Syncer) setLast(result *SyncResult) {
	s.mu.Lock()
	s.last = result
	s.mu.Unlock()
}

func (s *Syncer) fetchIndex(ctx context.Context) (*Index, string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.config.IndexURL, nil)
	if err != nil {
		return nil, "", false, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "redirector")

	s.mu.RLock()
	lastETag := s.lastETag
	s.mu.RUnlock()
	if lastETag != "" {
		req.Header.Set("If-None-Match", lastETag)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return nil, lastETag, false, nil
	}

	if resp.StatusCode != http.StatusOK {
		return nil, "", false, fmt.Errorf("failed to fetch reserved path index: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIndexSize))
	if err != nil {
		return nil, "", false, err
	}

	var index Index
	if err := json.Unmarshal(body, &index); err != nil {
		return nil, "", false, fmt.Errorf("invalid reserved path index: %w", err)
	}

	return &index, resp.Header.Get("ETag"), true, nil
}

// entriesToPaths validates index entries; invalid and duplicate entries are skipped
func (s *Syncer) entriesToPaths(entries []IndexEntry) ([]domain.ReservedPath, int) {
	paths := make([]domain.ReservedPath, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	skipped := 0

	for _, entry := range entries {
		path := domain.ReservedPath{
			Path: domain.NormalizeSlug(strings.TrimSpace(entry.Path)),
			Kind: entry.Kind,
		}
		if path.Kind == "" {
			path.Kind = domain.ReservedPage
		}

		if s.validator != nil {
			if err := s.validator.ValidateReservedPath(&path); err != nil {
				log.Warn().Err(err).Str("path", entry.Path).Msg("Skipping invalid reserved path")
				skipped++
				continue
			}
		}
		if path.Path == "" || seen[path.Path] {
			skipped++
			continue
		}

		seen[path.Path] = true
		paths = append(paths, path)
	}

	return paths, skipped
}

// SeedStatic replaces the configured reserved paths with the given list
func SeedStatic(ctx context.Context, repo domain.ReservedPathRepository, entries []string) error {
	paths := make([]domain.ReservedPath, 0, len(entries))
	for _, entry := range entries {
		path := domain.NormalizeSlug(strings.TrimSpace(entry))
		if path == "" {
			continue
		}
		paths = append(paths, domain.ReservedPath{Path: path, Kind: domain.ReservedPage})
	}

	if err := repo.ReplaceReservedPaths(ctx, domain.SourceConfig, paths); err != nil {
		return err
	}

	log.Info().Int("paths", len(paths)).Msg("Configured reserved paths loaded")
	return nil
}
