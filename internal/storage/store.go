package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"
	"github.com/freewebtopdf/redirector/internal/loader"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StoreConfig holds configuration for the Store
type StoreConfig struct {
	DataDir  string
	RulesDir string
}

// DefaultStoreConfig returns a default configuration
func DefaultStoreConfig(dataDir string) StoreConfig {
	return StoreConfig{
		DataDir:  dataDir,
		RulesDir: filepath.Join(dataDir, "redirects"),
	}
}

// Store is the file-backed rule store. Rules are indexed by ID and by slug and
// mirrored to one YAML file each; every mutation, visit counts included,
// happens under the write lock and is persisted before the lock is released.
type Store struct {
	mu       sync.RWMutex
	rules    map[string]*domain.Rule
	bySlug   map[string]*domain.Rule
	ruleList []*domain.Rule
	reserved []*domain.ReservedPath
	config   StoreConfig

	ruleLoader *loader.FileRuleLoader
	ruleWriter *loader.Writer
}

// NewStore creates a new Store instance
func NewStore(dataDir string) *Store {
	return NewStoreWithConfig(DefaultStoreConfig(dataDir))
}

// NewStoreWithConfig creates a new Store with full configuration
func NewStoreWithConfig(config StoreConfig) *Store {
	return &Store{
		rules:      make(map[string]*domain.Rule),
		bySlug:     make(map[string]*domain.Rule),
		ruleList:   make([]*domain.Rule, 0),
		config:     config,
		ruleLoader: loader.NewFileRuleLoader(loader.ScanConfig{RulesDir: config.RulesDir}),
		ruleWriter: loader.NewWriter(config.RulesDir),
	}
}

// Load loads rules and reserved paths from disk.
// When two files claim the same slug the most recently created rule wins.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-ctx.Done():
		return domain.NewAppErrorWithCause(
			domain.ErrTimeout,
			"Load cancelled",
			408,
			ctx.Err(),
			map[string]any{"operation": "load"},
		)
	default:
	}

	if err := os.MkdirAll(s.config.RulesDir, 0755); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to create rules directory",
			500,
			err,
			map[string]any{"dir": s.config.RulesDir},
		).WithContext(ctx, "load")
	}

	rules, loadErrors, err := s.ruleLoader.LoadAll(ctx)
	if err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to load rules from files",
			500,
			err,
			map[string]any{"errors": len(loadErrors)},
		).WithContext(ctx, "load")
	}
	for _, loadErr := range loadErrors {
		log.Warn().Str("file", loadErr.FilePath).Str("error", loadErr.Error).Msg("Skipping unreadable redirect file")
	}

	// Newest first so the winner of a slug collision is indexed first
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].CreatedAt.After(rules[j].CreatedAt)
	})

	s.rules = make(map[string]*domain.Rule, len(rules))
	s.bySlug = make(map[string]*domain.Rule, len(rules))
	s.ruleList = make([]*domain.Rule, 0, len(rules))

	for i := range rules {
		rule := rules[i]
		if _, dup := s.rules[rule.ID]; dup {
			log.Warn().Str("rule_id", rule.ID).Str("file", rule.FilePath).Msg("Duplicate rule ID on disk, ignoring older file")
			continue
		}
		if winner, dup := s.bySlug[rule.Slug]; dup {
			log.Warn().
				Str("slug", rule.Slug).
				Str("kept_rule_id", winner.ID).
				Str("ignored_rule_id", rule.ID).
				Msg("Duplicate slug on disk, keeping most recently created rule")
			continue
		}
		ruleCopy := rule
		s.rules[rule.ID] = &ruleCopy
		s.bySlug[rule.Slug] = &ruleCopy
		s.ruleList = append(s.ruleList, &ruleCopy)
	}

	// Restore creation order for listings
	sort.SliceStable(s.ruleList, func(i, j int) bool {
		return s.ruleList[i].CreatedAt.Before(s.ruleList[j].CreatedAt)
	})

	reserved, err := s.ruleLoader.LoadReserved(ctx)
	if err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to load reserved paths",
			500,
			err,
			nil,
		).WithContext(ctx, "load")
	}
	s.reserved = make([]*domain.ReservedPath, 0, len(reserved))
	for i := range reserved {
		p := reserved[i]
		p.Path = domain.NormalizeSlug(p.Path)
		s.reserved = append(s.reserved, &p)
	}

	return nil
}

// GetAllRules returns all rules in the repository
func (s *Store) GetAllRules(ctx context.Context) ([]domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Rule, len(s.ruleList))
	for i, rule := range s.ruleList {
		result[i] = *rule
	}

	return result, nil
}

// GetRuleByID retrieves a rule by its ID
func (s *Store) GetRuleByID(ctx context.Context, id string) (*domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, ruleNotFound(id)
	}

	ruleCopy := *rule
	return &ruleCopy, nil
}

// FindPublishedBySlug returns the published rule with exactly this slug
func (s *Store) FindPublishedBySlug(ctx context.Context, slug string) (*domain.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.bySlug[slug]
	if !exists || rule.Status != domain.StatusPublished {
		return nil, domain.NewAppError(
			domain.ErrNotFound,
			"No published rule for slug",
			404,
			map[string]any{"slug": slug},
		)
	}

	ruleCopy := *rule
	return &ruleCopy, nil
}

// CreateRule creates a new rule in the repository. Visit count always starts at zero.
func (s *Store) CreateRule(ctx context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return domain.NewAppError(
			domain.ErrConflict,
			"Rule already exists",
			409,
			map[string]any{"id": rule.ID},
		)
	}
	if other, taken := s.bySlug[rule.Slug]; taken {
		return slugTaken(rule.Slug, other.ID)
	}

	now := time.Now()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = now
	}
	rule.VisitCount = 0
	rule.FilePath = s.ruleWriter.RulePath(rule.ID)

	ruleCopy := *rule
	if err := s.ruleWriter.WriteRule(&ruleCopy); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to write rule file",
			500,
			err,
			map[string]any{"rule_id": rule.ID},
		).WithContext(ctx, "create_rule")
	}

	s.rules[rule.ID] = &ruleCopy
	s.bySlug[rule.Slug] = &ruleCopy
	s.ruleList = append(s.ruleList, &ruleCopy)

	return nil
}

// UpdateRule replaces the editable fields of an existing rule.
// CreatedAt and VisitCount are always carried over from the stored rule.
func (s *Store) UpdateRule(ctx context.Context, rule *domain.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return ruleNotFound(rule.ID)
	}
	if other, taken := s.bySlug[rule.Slug]; taken && other.ID != rule.ID {
		return slugTaken(rule.Slug, other.ID)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	rule.VisitCount = existing.VisitCount
	rule.FilePath = existing.FilePath

	ruleCopy := *rule
	if err := s.ruleWriter.WriteRule(&ruleCopy); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to update rule file",
			500,
			err,
			map[string]any{"rule_id": rule.ID},
		).WithContext(ctx, "update_rule")
	}

	delete(s.bySlug, existing.Slug)
	s.rules[rule.ID] = &ruleCopy
	s.bySlug[rule.Slug] = &ruleCopy
	for i, r := range s.ruleList {
		if r.ID == rule.ID {
			s.ruleList[i] = &ruleCopy
			break
		}
	}

	return nil
}

// DeleteRule removes a rule from the repository
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rules[id]
	if !exists {
		return ruleNotFound(id)
	}

	if err := s.ruleWriter.DeleteRule(rule); err != nil {
		return domain.NewAppErrorWithCause(
			domain.ErrInternal,
			"Failed to delete rule file",
			500,
			err,
			map[string]any{"rule_id": rule.ID},
		).WithContext(ctx, "delete_rule")
	}

	delete(s.rules, id)
	if s.bySlug[rule.Slug] == rule {
		delete(s.bySlug, rule.Slug)
	}
	for i, r := range s.ruleList {
		if r.ID == id {
			s.ruleList = append(s.ruleList[:i], s.ruleList[i+1:]...)
			break
		}
	}

	return nil
}

// IncrementVisitCount adds one to the rule's count and persists it before
// releasing the write lock, so concurrent increments never lose an update.
func (s *Store) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rule, exists := s.rules[ruleID]
	if !exists {
		return 0, ruleNotFound(ruleID)
	}

	rule.VisitCount++
	if err := s.ruleWriter.WriteRule(rule); err != nil {
		rule.VisitCount--
		return 0, domain.NewAppErrorWithCause(
			domain.ErrCounterWriteFailed,
			"Failed to persist visit count",
			500,
			err,
			map[string]any{"rule_id": ruleID},
		).WithContext(ctx, "increment_visit_count")
	}

	return rule.VisitCount, nil
}

// VisitCount returns the stored count for a rule
func (s *Store) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[ruleID]
	if !exists {
		return 0, ruleNotFound(ruleID)
	}
	return rule.VisitCount, nil
}

// ListReservedPaths returns every reserved path
func (s *Store) ListReservedPaths(ctx context.Context) ([]domain.ReservedPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.ReservedPath, len(s.reserved))
	for i, p := range s.reserved {
		result[i] = *p
	}
	return result, nil
}

// CreateReservedPath registers a path owned by site content
func (s *Store) CreateReservedPath(ctx context.Context, path *domain.ReservedPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path.Path = domain.NormalizeSlug(path.Path)
	for _, p := range s.reserved {
		if p.Path == path.Path {
			return domain.NewAppError(
				domain.ErrConflict,
				"Path is already reserved",
				409,
				map[string]any{"path": path.Path, "id": p.ID},
			)
		}
	}

	if path.ID == "" {
		path.ID = uuid.New().String()
	}
	if path.Source == "" {
		path.Source = domain.SourceManual
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = time.Now()
	}

	pathCopy := *path
	next := append(append([]*domain.ReservedPath{}, s.reserved...), &pathCopy)
	if err := s.persistReserved(next); err != nil {
		return err.WithContext(ctx, "create_reserved_path")
	}
	s.reserved = next
	return nil
}

// DeleteReservedPath removes a reserved path by ID
func (s *Store) DeleteReservedPath(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*domain.ReservedPath, 0, len(s.reserved))
	for _, p := range s.reserved {
		if p.ID != id {
			next = append(next, p)
		}
	}
	if len(next) == len(s.reserved) {
		return domain.NewAppError(domain.ErrNotFound, "Reserved path not found", 404, map[string]any{"id": id})
	}

	if err := s.persistReserved(next); err != nil {
		return err.WithContext(ctx, "delete_reserved_path")
	}
	s.reserved = next
	return nil
}

// ReplaceReservedPaths swaps all entries from source for the given paths
func (s *Store) ReplaceReservedPaths(ctx context.Context, source string, paths []domain.ReservedPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]*domain.ReservedPath, 0, len(s.reserved)+len(paths))
	seen := make(map[string]bool, len(s.reserved))
	for _, p := range s.reserved {
		if p.Source != source {
			next = append(next, p)
			seen[p.Path] = true
		}
	}

	now := time.Now()
	for i := range paths {
		p := paths[i]
		p.Path = domain.NormalizeSlug(p.Path)
		if p.Path == "" || seen[p.Path] {
			continue
		}
		seen[p.Path] = true
		p.Source = source
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		next = append(next, &p)
	}

	if err := s.persistReserved(next); err != nil {
		return err.WithContext(ctx, "replace_reserved_paths")
	}
	s.reserved = next
	return nil
}

// PathIsReserved reports whether a reserved entry other than excludingID claims path
func (s *Store) PathIsReserved(ctx context.Context, path, excludingID string) (*domain.ReservedPath, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path = domain.NormalizeSlug(path)
	for _, p := range s.reserved {
		if p.Path == path && p.ID != excludingID {
			pathCopy := *p
			return &pathCopy, true, nil
		}
	}
	return nil, false, nil
}

func (s *Store) persistReserved(paths []*domain.ReservedPath) *domain.AppError {
	out := make([]domain.ReservedPath, len(paths))
	for i, p := range paths {
		out[i] = *p
	}
	if err := s.ruleWriter.WriteReserved(out); err != nil {
		return domain.NewAppErrorWithCause(domain.ErrInternal, "Failed to write reserved paths", 500, err, nil)
	}
	return nil
}

// Reload reloads rules from storage
func (s *Store) Reload(ctx context.Context) error {
	return s.Load(ctx)
}

// GetLoadErrors returns any errors from the last load operation
func (s *Store) GetLoadErrors() []domain.LoadError {
	return s.ruleLoader.GetLoadErrors()
}

// Close is a no-op; every write is already on disk
func (s *Store) Close() error {
	return nil
}

// HealthCheck performs a health check on the storage system
func (s *Store) HealthCheck(ctx context.Context) domain.HealthStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	details := map[string]any{
		"driver":     "file",
		"rule_count": len(s.ruleList),
		"rules_dir":  s.config.RulesDir,
	}

	if _, err := os.Stat(s.config.RulesDir); err != nil {
		details["error"] = err.Error()
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "Rules directory is not accessible",
			Details:   details,
			Timestamp: now,
		}
	}

	if len(s.rules) != len(s.ruleList) || len(s.bySlug) != len(s.ruleList) {
		details["map_size"] = len(s.rules)
		details["slug_index_size"] = len(s.bySlug)
		details["list_size"] = len(s.ruleList)
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "Data structure inconsistency detected",
			Details:   details,
			Timestamp: now,
		}
	}

	return domain.HealthStatus{
		Status:    domain.HealthStatusHealthy,
		Message:   "Storage is operating normally",
		Details:   details,
		Timestamp: now,
	}
}

// GetStats returns storage statistics
func (s *Store) GetStats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	statusCount := make(map[string]int)
	var totalVisits int64
	for _, rule := range s.ruleList {
		statusCount[string(rule.Status)]++
		totalVisits += rule.VisitCount
	}

	return map[string]any{
		"driver":         "file",
		"rule_count":     len(s.ruleList),
		"reserved_count": len(s.reserved),
		"rules_dir":      s.config.RulesDir,
		"load_errors":    len(s.ruleLoader.GetLoadErrors()),
		"rule_statuses":  statusCount,
		"total_visits":   totalVisits,
	}
}

func ruleNotFound(id string) *domain.AppError {
	return domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, map[string]any{"id": id})
}

func slugTaken(slug, ownerID string) *domain.AppError {
	return domain.NewAppError(
		domain.ErrConflict,
		"Slug is already used by another redirect",
		409,
		map[string]any{"slug": slug, "rule_id": ownerID},
	)
}
