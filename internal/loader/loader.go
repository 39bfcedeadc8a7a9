package loader

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/freewebtopdf/redirector/internal/domain"
)

// RuleLoader loads redirect rules and reserved paths from the file system
type RuleLoader interface {
	// LoadAll scans the rules directory and returns all parsed rules
	LoadAll(ctx context.Context) ([]domain.Rule, []domain.LoadError, error)
	LoadReserved(ctx context.Context) ([]domain.ReservedPath, error)
	GetLoadErrors() []domain.LoadError
}

// FileRuleLoader implements RuleLoader using file-based storage
type FileRuleLoader struct {
	config     ScanConfig
	scanner    *Scanner
	parser     *Parser
	mu         sync.RWMutex
	loadErrors []domain.LoadError
}

// NewFileRuleLoader creates a new FileRuleLoader with the given configuration
func NewFileRuleLoader(config ScanConfig) *FileRuleLoader {
	return &FileRuleLoader{
		config:  config,
		scanner: NewScanner(config),
		parser:  NewParser(),
	}
}

// LoadAll parses every rule file. Broken files are reported as load errors
// and skipped; only a failing directory walk is fatal.
func (l *FileRuleLoader) LoadAll(ctx context.Context) ([]domain.Rule, []domain.LoadError, error) {
	paths, err := l.scanner.Scan(ctx)
	if err != nil {
		return nil, nil, err
	}

	var rules []domain.Rule
	var loadErrors []domain.LoadError

	for _, path := range paths {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		fileRules, loadErr := l.parser.ParseFile(path)
		if loadErr != nil {
			loadErrors = append(loadErrors, *loadErr)
			continue
		}
		rules = append(rules, fileRules...)
	}

	l.mu.Lock()
	l.loadErrors = loadErrors
	l.mu.Unlock()

	return rules, loadErrors, nil
}

// LoadReserved reads reserved.yaml from the rules directory
func (l *FileRuleLoader) LoadReserved(ctx context.Context) ([]domain.ReservedPath, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if l.config.RulesDir == "" {
		return nil, nil
	}
	return l.parser.ParseReservedFile(filepath.Join(l.config.RulesDir, ReservedFileName))
}

// GetLoadErrors returns errors from the last load operation
func (l *FileRuleLoader) GetLoadErrors() []domain.LoadError {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]domain.LoadError, len(l.loadErrors))
	copy(result, l.loadErrors)
	return result
}
