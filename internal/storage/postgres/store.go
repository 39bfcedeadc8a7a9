// Package postgres provides a PostgreSQL-backed rule store built on a pgx pool
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// Config holds pool settings
type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Store implements domain.Store on PostgreSQL
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects, pings and applies the schema
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &Store{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
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
			visit_count BIGINT NOT NULL DEFAULT 0 CHECK (visit_count >= 0),
			description TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_redirect_rules_slug ON redirect_rules(slug)`,
		`CREATE TABLE IF NOT EXISTS reserved_paths (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL DEFAULT 'page',
			source TEXT NOT NULL DEFAULT 'manual',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reserved_paths_source ON reserved_paths(source)`,
	}

	for _, query := range queries {
		if _, err := s.pool.Exec(ctx, query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

// Close closes the pool
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Truncate empties both tables; used by tests sharing a database
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE redirect_rules, reserved_paths`)
	return err
}

const ruleColumns = `id, slug, target_url, status, visit_count, description, created_at, updated_at`

func scanRule(row pgx.Row) (*domain.Rule, error) {
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
	rows, err := s.pool.Query(ctx, `SELECT `+ruleColumns+` FROM redirect_rules ORDER BY created_at, id`)
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
	rule, err := scanRule(s.pool.QueryRow(ctx, `SELECT `+ruleColumns+` FROM redirect_rules WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ruleNotFound(id)
	}
	if err != nil {
		return nil, queryFailed(ctx, "get_rule", err)
	}
	return rule, nil
}

// FindPublishedBySlug returns the published rule with exactly this slug
func (s *Store) FindPublishedBySlug(ctx context.Context, slug string) (*domain.Rule, error) {
	rule, err := scanRule(s.pool.QueryRow(ctx,
		`SELECT `+ruleColumns+` FROM redirect_rules WHERE slug = $1 AND status = $2 LIMIT 1`,
		slug, string(domain.StatusPublished)))
	if errors.Is(err, pgx.ErrNoRows) {
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO redirect_rules (`+ruleColumns+`) VALUES ($1, $2, $3, $4, 0, $5, $6, $7)`,
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

	err := s.pool.QueryRow(ctx,
		`UPDATE redirect_rules SET slug = $1, target_url = $2, status = $3, description = $4, updated_at = $5
		 WHERE id = $6 RETURNING visit_count, created_at`,
		rule.Slug, rule.TargetURL, string(rule.Status), rule.Description, rule.UpdatedAt, rule.ID,
	).Scan(&rule.VisitCount, &rule.CreatedAt)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM redirect_rules WHERE id = $1`, id)
	if err != nil {
		return queryFailed(ctx, "delete_rule", err)
	}
	if tag.RowsAffected() == 0 {
		return ruleNotFound(id)
	}
	return nil
}

// IncrementVisitCount adds one in a single UPDATE statement; the row lock
// taken by UPDATE serializes concurrent increments
func (s *Store) IncrementVisitCount(ctx context.Context, ruleID string) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`UPDATE redirect_rules SET visit_count = visit_count + 1 WHERE id = $1 RETURNING visit_count`,
		ruleID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
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
	err := s.pool.QueryRow(ctx, `SELECT visit_count FROM redirect_rules WHERE id = $1`, ruleID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ruleNotFound(ruleID)
	}
	if err != nil {
		return 0, queryFailed(ctx, "visit_count", err)
	}
	return count, nil
}

// ListReservedPaths returns every reserved path
func (s *Store) ListReservedPaths(ctx context.Context) ([]domain.ReservedPath, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, path, kind, source, created_at FROM reserved_paths ORDER BY path`)
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

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reserved_paths (id, path, kind, source, created_at) VALUES ($1, $2, $3, $4, $5)`,
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
	tag, err := s.pool.Exec(ctx, `DELETE FROM reserved_paths WHERE id = $1`, id)
	if err != nil {
		return queryFailed(ctx, "delete_reserved_path", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewAppError(domain.ErrNotFound, "Reserved path not found", 404, map[string]any{"id": id})
	}
	return nil
}

// ReplaceReservedPaths swaps all entries from source inside one transaction.
// Paths already claimed by another source are skipped.
func (s *Store) ReplaceReservedPaths(ctx context.Context, source string, paths []domain.ReservedPath) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM reserved_paths WHERE source = $1`, source); err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}

	batch := &pgx.Batch{}
	now := time.Now().UTC()
	for i := range paths {
		p := paths[i]
		p.ID = ""
		prepareReserved(&p, source, now)
		p.Source = source
		if p.Path == "" {
			continue
		}
		batch.Queue(
			`INSERT INTO reserved_paths (id, path, kind, source, created_at) VALUES ($1, $2, $3, $4, $5)
			 ON CONFLICT (path) DO NOTHING`,
			p.ID, p.Path, string(p.Kind), p.Source, p.CreatedAt)
	}
	if batch.Len() > 0 {
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return queryFailed(ctx, "replace_reserved_paths", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return queryFailed(ctx, "replace_reserved_paths", err)
	}
	return nil
}

// PathIsReserved reports whether an entry other than excludingID claims path
func (s *Store) PathIsReserved(ctx context.Context, path, excludingID string) (*domain.ReservedPath, bool, error) {
	var p domain.ReservedPath
	var kind string
	err := s.pool.QueryRow(ctx,
		`SELECT id, path, kind, source, created_at FROM reserved_paths WHERE path = $1 AND id <> $2 LIMIT 1`,
		domain.NormalizeSlug(path), excludingID).Scan(&p.ID, &p.Path, &kind, &p.Source, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, queryFailed(ctx, "path_is_reserved", err)
	}
	p.Kind = domain.ReservedKind(kind)
	return &p, true, nil
}

// HealthCheck pings the pool
func (s *Store) HealthCheck(ctx context.Context) domain.HealthStatus {
	poolStats := s.pool.Stat()
	details := map[string]any{
		"driver":         "postgres",
		"total_conns":    poolStats.TotalConns(),
		"idle_conns":     poolStats.IdleConns(),
		"acquired_conns": poolStats.AcquiredConns(),
	}

	if err := s.pool.Ping(ctx); err != nil {
		details["error"] = err.Error()
		return domain.HealthStatus{
			Status:    domain.HealthStatusUnhealthy,
			Message:   "PostgreSQL is not reachable",
			Details:   details,
			Timestamp: time.Now(),
		}
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
	stats := map[string]any{"driver": "postgres"}

	var rules, reserved int
	var visits int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*), COALESCE(SUM(visit_count), 0) FROM redirect_rules`).Scan(&rules, &visits); err == nil {
		stats["rule_count"] = rules
		stats["total_visits"] = visits
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reserved_paths`).Scan(&reserved); err == nil {
		stats["reserved_count"] = reserved
	}
	stats["total_conns"] = s.pool.Stat().TotalConns()
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
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func ruleNotFound(id string) *domain.AppError {
	return domain.NewAppError(domain.ErrNotFound, "Rule not found", 404, map[string]any{"id": id})
}

func queryFailed(ctx context.Context, op string, err error) *domain.AppError {
	return domain.NewAppErrorWithCause(domain.ErrInternal, "Database operation failed", 500, err, nil).WithContext(ctx, op)
}
