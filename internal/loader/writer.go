package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"gopkg.in/yaml.v3"
)

// Writer handles writing rules to disk in YAML format
type Writer struct {
	baseDir string
}

// NewWriter creates a new Writer with the specified base directory
func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// RulePath returns the default file path for a rule ID
func (w *Writer) RulePath(ruleID string) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("%s.redirect.yaml", ruleID))
}

// WriteRule writes a rule to its file, or the default location when it has none.
// Uses atomic write pattern: temp file → sync → rename
func (w *Writer) WriteRule(rule *domain.Rule) error {
	filePath := rule.FilePath
	if filePath == "" {
		filePath = w.RulePath(rule.ID)
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(filePath), err)
	}

	data, err := yaml.Marshal(prepareRuleForWrite(rule))
	if err != nil {
		return fmt.Errorf("failed to marshal rule to YAML: %w", err)
	}

	return atomicWrite(filePath, data)
}

// WriteReserved replaces reserved.yaml with the given paths
func (w *Writer) WriteReserved(paths []domain.ReservedPath) error {
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", w.baseDir, err)
	}

	data, err := yaml.Marshal(domain.ReservedFile{Paths: paths})
	if err != nil {
		return fmt.Errorf("failed to marshal reserved paths: %w", err)
	}

	return atomicWrite(filepath.Join(w.baseDir, ReservedFileName), data)
}

// ruleYAML is the YAML-serializable representation of a rule
type ruleYAML struct {
	ID          string            `yaml:"id"`
	Slug        string            `yaml:"slug"`
	TargetURL   string            `yaml:"target_url"`
	Status      domain.RuleStatus `yaml:"status"`
	VisitCount  int64             `yaml:"visit_count"`
	Description string            `yaml:"description,omitempty"`
	CreatedAt   time.Time         `yaml:"created_at,omitempty"`
	UpdatedAt   time.Time         `yaml:"updated_at,omitempty"`
}

func prepareRuleForWrite(rule *domain.Rule) ruleYAML {
	return ruleYAML{
		ID:          rule.ID,
		Slug:        rule.Slug,
		TargetURL:   rule.TargetURL,
		Status:      rule.Status,
		VisitCount:  rule.VisitCount,
		Description: rule.Description,
		CreatedAt:   rule.CreatedAt,
		UpdatedAt:   rule.UpdatedAt,
	}
}

// atomicWrite performs an atomic file write using temp file → sync → rename pattern
func atomicWrite(targetPath string, data []byte) error {
	dir := filepath.Dir(targetPath)
	tempFile, err := os.CreateTemp(dir, ".redirect-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	success := false
	defer func() {
		if !success {
			_ = os.Remove(tempPath)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return fmt.Errorf("failed to rename temp file to target: %w", err)
	}

	success = true
	return nil
}

// DeleteRule removes a rule file; a file that is already gone is not an error
func (w *Writer) DeleteRule(rule *domain.Rule) error {
	filePath := rule.FilePath
	if filePath == "" {
		filePath = w.RulePath(rule.ID)
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete rule file %s: %w", filePath, err)
	}
	return nil
}
