// Package loader reads and writes redirect rule files.
// Rules live one per file as <id>.redirect.yaml (or .redirect.json) under a rules directory,
// and reserved paths live in a single reserved.yaml next to them.
package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// ValidRuleExtensions defines the file extensions recognized as rule files
var ValidRuleExtensions = []string{".redirect.yaml", ".redirect.json"}

// ReservedFileName is the file holding reserved paths inside the rules directory
const ReservedFileName = "reserved.yaml"

// ScanConfig holds configuration for directory scanning
type ScanConfig struct {
	RulesDir string
}

// Scanner handles recursive directory scanning for rule files
type Scanner struct {
	config ScanConfig
}

// NewScanner creates a new Scanner with the given configuration
func NewScanner(config ScanConfig) *Scanner {
	return &Scanner{config: config}
}

// Scan walks the rules directory and returns every rule file path.
// A missing directory yields no files and no error.
func (s *Scanner) Scan(ctx context.Context) ([]string, error) {
	if s.config.RulesDir == "" {
		return nil, nil
	}
	files, err := s.scanDirectory(ctx, s.config.RulesDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return files, nil
}

func (s *Scanner) scanDirectory(ctx context.Context, rootDir string) ([]string, error) {
	if _, err := os.Stat(rootDir); err != nil {
		return nil, err
	}

	var files []string
	err := filepath.WalkDir(rootDir, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			// Skip inaccessible entries but keep scanning
			return nil
		}
		if d.IsDir() || !isRuleFile(path) {
			return nil
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// isRuleFile checks if a file path has a valid rule file extension
func isRuleFile(path string) bool {
	lowerPath := strings.ToLower(path)
	for _, ext := range ValidRuleExtensions {
		if strings.HasSuffix(lowerPath, ext) {
			return true
		}
	}
	return false
}
