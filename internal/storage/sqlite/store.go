// Package sqlite provides a SQLite-backed rule store
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
)

// Config holds SQLite connection settings
type Config struct {
	DatabasePath string
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database path is required")
	}
	return nil
}

// Store implements domain.Store on SQLite
type Store struct {
	db     *sql.DB
	config *Config
}

// NewStore opens the database and applies the schema
func NewStore(ctx context.Context, config *Config) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SQLite config: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on", config.DatabasePath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time keeps UPDATE ... RETURNING free of SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{db: db, config: config}
	if err := store.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *Store) migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS redirect_rules (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			target_url TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'published',
			visit_count INTEGER NOT NULL DEFAULT 0,
			description TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_redirect_rules_slug ON redirect_rules(slug)`,
		`CREATE TABLE IF NOT EXISTS reserved_paths (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL DEFAULT 'page',
			source TEXT NOT NULL DEFAULT 'manual',
			created_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reserved_paths_source ON reserved_paths(source)`,
	}

	for _, query := range queries {
		if _, err := s.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const ruleColumns = `id, slug, target_url, status, visit_count, description, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(row rowScanner) (*domain.Rule, error) {
	var rule domain.Rule
	var status string
	if err := row.Scan(&rule.ID, &rule.Slug, &rule.TargetURL, &status, &rule.VisitCount,
		&rule.Description, &rule.CreatedAt, &rule.UpdatedAt); err != nil {
		return nil, err
	}
	rule.Status = domain.RuleStatus(status)
	return &rule, nil
}

// GetAllRules returns all rules ordered by creation time
func (s *Store) GetAllRules(ctx context.Context) ([]domain.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+ruleColumns+` FROM redirect_rules ORDER BY created_at, id`)
	if err != nil {
		return nil, queryFailed(ctx, "get_all_rules", err)
	}
	defer rows.Close()

	rules := make([]domain.Rule, 0)
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, queryFailed(ctx, "get_all_rules", err)
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(ctx, "get_all_rules", err)
	}
	return rules, nil
}

// GetRuleByID retrieves a rule by its ID
func (s *Store) GetRuleByID(ctx context.Context, id string) (*domain.Rule, error) {
	rule, err := scanRule(s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM redirect_rules WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ruleNotFound(id)
	}
	if err != nil {
		return nil, queryFailed(ctx, "get_rule", err)
	}
	return rule, nil
}

// FindPublishedBySlug returns the published rule with exactly this slug
func (s *Store) FindPublishedBySlug(ctx context.Context, slug string) (*domain.Rule, error) {
	rule, err := scanRule(s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM redirect_rules WHERE slug = ? AND status = ? LIMIT 1`,
		slug, string(domain.StatusPublished)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewAppError(domain.ErrNotFound, "No published rule for slug", 404, map[string]any{"slug": slug})
	}
	if err != nil {
		return nil, domain.NewAppErrorWithCause(domain.ErrLookupUnavailable, "Rule lookup failed", 503, err,
			map[string]any{"slug": slug}).WithContext(ctx, "find_published_by_slug")
	}
	return rule, nil
}

// CreateRule inserts a rule with a zero visit count
func (s *Store) CreateRule(ctx context.Context, rule *domain.Rule) error {
	now := time.Now().UTC()
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = now
	}
	if rule.UpdatedAt.IsZero() {
		rule.UpdatedAt = now
	}
	rule.VisitCount = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO redirect_rules (`+ruleColumns+`) VALUES (?, ?, ?, ?, 0, ?, ?, ?)`,
		rule.ID, rule.Slug, rule.TargetURL, string(rule.Status), rule.Description, rule.CreatedAt, rule.UpdatedAt)
	if isUniqueViolation(err) {
		return domain.NewAppError(domain.ErrConflict, "Slug or ID is already used by another redirect", 409,
			map[string]any{"slug": rule.Slug, "id": rule.ID})
	}
	if err != nil {
		return queryFailed(ctx, "create_rule", err)
	}
	return nil
}

// UpdateRule replaces the editable fields; visit_count and created_at are untouched
func (s *Store) UpdateRule(ctx context.Context, rule *domain.Rule) error {
	rule.UpdatedAt = time.Now().UTC()

	row := s.db.QueryRowContext(ctx,
		`UPDATE redirect_rules SET slug = ?, target_url = ?, status = ?, description = ?, updated_at = ?
		 WHERE id = ? RETURNING visit_count, created_at`,
		rule.Slug, rule.TargetURL, string(rule.Status), rule.Description, rule.UpdatedAt, rule.ID)

	err := row.Scan(&rule.VisitCount, &rule.CreatedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return ruleNotFound(rule.ID)
	case isUniqueViolation(err):
		return domain.NewAppError(domain.ErrConflict, "Slug is already used by another redirect", 409,
			map[string]any{"slug": rule.Slug})
	case err != nil:
		return queryFailed(ctx, "update_rule", err)
	}
	return nil
}

// DeleteRule removes a rule
func (s *Store) DeleteRule(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM redirect_rules WHERE id = ?`, id)
	if err != nil {
		return queryFailed(ctx, "delete_rule", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ruleNotFound(id)
	}
	return nil
}

// IncrementVisitCount adds one in a single UPDATE statement
func (s *Store) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		`UPDATE redirect_rules SET visit_count = visit_count + 1 WHERE id = ? RETURNING visit_count`,
		ruleID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ruleNotFound(ruleID)
	}
	if err != nil {
		return 0, domain.NewAppErrorWithCause(domain.ErrCounterWriteFailed, "Failed to increment visit count", 500, err,
			map[string]any{"rule_id": ruleID}).WithContext(ctx, "increment_visit_count")
	}
	return count, nil
}

// VisitCount returns the stored count for a rule
func (s *Store) VisitCount(ctx context.Context, ruleID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT visit_count FROM redirect_rules WHERE id = ?`, ruleID).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ruleNotFound(ruleID)
	}
	if err != nil {
		return 0, queryFailed(ctx, "visit_count", err)
	}
	return count, nil
}

// ListReservedPaths returns every reserved path
func (s *Store) ListReservedPaths(ctx context.Context) ([]domain.ReservedPath, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, path, kind, source, created_at FROM reserved_paths ORDER BY path`)
	if err != nil {
		return nil, queryFailed(ctx, "list_reserved_paths", err)
	}
	defer rows.Close()

	paths := make([]domain.ReservedPath, 0)
	for rows.Next() {
		var p domain.ReservedPath
		var kind string
		if err := rows.Scan(&p.ID, &p.Path, &kind, &p.Source, &p.CreatedAt); err != nil {
			return nil, queryFailed(ctx, "list_reserved_paths", err)
		}
		p.Kind = domain.ReservedKind(kind)
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed(ctx, "list_reserved_paths", err)
	}
	return paths, nil
}

// CreateReservedPath registers a path owned by site content
func (s *Store) CreateReservedPath(ctx context.Context, path *domain.ReservedPath) error {
	prepareReserved(path, domain.SourceManual, time.Now().UTC())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reserved_paths (id, path, kind, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		path.ID, path.Path, string(path.Kind), path.Source, path.CreatedAt)
	if isUniqueViolation(err) {
		return domain.NewAppError(domain.ErrConflict, "Path is already reserved", 409, map[string]any{"path": path.Path})
	}
	if err != nil {
		return queryFailed(ctx, "create_reserved_path", err)
	}
	return nil
}

// DeleteReservedPath removes a reserved path by ID
func (s *Store) DeleteReservedPath(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM reserved_paths WHERE id = ?`, id)
	if err != nil {
		return queryFailed(ctx, "delete_reserved_path", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return domain.NewAppError(domain.ErrNotFound, "Reserved path not found", 404, map[string]any{"id": id})
	}
	return nil
}

// ReplaceReservedPaths swaps all entries from source inside one transaction.
// Paths already claimed by another source are skipped.
func (s *Store) ReplaceReservedPaths(ctx context.Context, source string, paths []domain.ReservedPath) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reserved_paths WHERE source = ?`, source); err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}

	now := time.Now().UTC()
	for i := range paths {
		p := paths[i]
		p.ID = ""
		prepareReserved(&p, source, now)
		p.Source = source
		if p.Path == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO reserved_paths (id, path, kind, source, created_at) VALUES (?, ?, ?, ?, ?)`,
			p.ID, p.Path, string(p.Kind), p.Source, p.CreatedAt); err != nil {
			return queryFailed(ctx, "replace_reserved_paths", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}
	return nil
}

// PathIsReserved reports whether an entry other than excludingID claims path
func (s *Store) PathIsReserved(ctx context.Context, path, excludingID string) (*domain.ReservedPath, bool, error) {
	var p domain.ReservedPath
	var kind string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, path, kind, source, created_at FROM reserved_paths WHERE path = ? AND id <> ? LIMIT 1`,
		domain.NormalizeSlug(path), excludingID).Scan(&p.ID, &p.Path, &kind, &p.Source, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, queryFailed(ctx, "path_is_reserved", err)
	}
	p.Kind = domain.ReservedKind(kind)
	return &p, true, nil
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) domain.HealthStatus {
	details := map[string]any{
		"driver": "sqlite",
		"path":   s.config.DatabasePath,
	}
	if err := s.db.PingContext(ctx); err != nil {
		details["error"] = err.Error()
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "SQLite database is not reachable",
			Details:   details,
			Timestamp: time.Now(),
		}
	}

	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM redirect_rules`).Scan(&count); err == nil {
		details["rule_count"] = count
	}

	return domain.HealthStatus{
		Status:    domain.HealthStatusHealthy,
		Message:   "Storage is operating normally",
		Details:   details,
		Timestamp: time.Now(),
	}
}

// GetStats returns storage statistics
func (s *Store) GetStats(ctx context.Context) map[string]any {
	stats := map[string]any{"driver": "sqlite"}

	var rules, reserved int
	var visits sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*), SUM(visit_count) FROM redirect_rules`).Scan(&rules, &visits); err == nil {
		stats["rule_count"] = rules
		stats["total_visits"] = visits.Int64
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reserved_paths`).Scan(&reserved); err == nil {
		stats["reserved_count"] = reserved
	}

	dbStats := s.db.Stats()
	stats["open_connections"] = dbStats.OpenConnections
	stats["in_use"] = dbStats.InUse
	return stats
}

func prepareReserved(path *domain.ReservedPath, defaultSource string, now time.Time) {
	path.Path = domain.NormalizeSlug(path.Path)
	if path.ID == "" {
		path.ID = uuid.New().String()
	}
	if path.Kind == "" {
		path.Kind = domain.ReservedPage
	}
	if path.Source == "" {
		path.Source = defaultSource
	}
	if path.CreatedAt.IsZero() {
		path.CreatedAt = now
	}
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func ruleNotFound(id string) *domain.AppError {
	return domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, map[string]any{"id": id})
}

func queryFailed(ctx context.Context, op string, err error) *domain.AppError {
	return domain.NewAppErrorWithCause(domain.ErrInternal, "Database operation failed", 500, err, nil).WithContext(ctx, op)
}
