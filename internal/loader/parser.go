package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/freewebtopdf/redirector/internal/domain"

	"gopkg.in/yaml.v3"
)

// Parser handles parsing of rule files in YAML and JSON formats
type Parser struct{}

// NewParser creates a new Parser instance
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile reads and parses a rule file.
// Both the single-rule format and the multi-rule format (with a "rules" array) are accepted.
func (p *Parser) ParseFile(path string) ([]domain.Rule, *domain.LoadError) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.LoadError{
			FilePath: path,
			Error:    fmt.Sprintf("failed to read file: %v", err),
		}
	}

	var rules []domain.Rule
	var loadErr *domain.LoadError
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		rules, loadErr = p.parseJSON(data, path)
	} else {
		rules, loadErr = p.parseYAML(data, path)
	}
	if loadErr != nil {
		return nil, loadErr
	}

	for i := range rules {
		rules[i].FilePath = path
		if rules[i].Status == "" {
			rules[i].Status = domain.StatusPublished
		}
	}

	return rules, nil
}

func (p *Parser) parseYAML(data []byte, filePath string) ([]domain.Rule, *domain.LoadError) {
	var ruleFile domain.RuleFile
	if err := yaml.Unmarshal(data, &ruleFile); err == nil && len(ruleFile.Rules) > 0 {
		return ruleFile.Rules, nil
	}

	var singleRule domain.Rule
	if err := yaml.Unmarshal(data, &singleRule); err == nil && singleRule.ID != "" {
		return []domain.Rule{singleRule}, nil
	}

	err := yaml.Unmarshal(data, &ruleFile)
	if err == nil {
		err = errors.New("no rules found")
	}

	return nil, &domain.LoadError{
		FilePath: filePath,
		Error:    fmt.Sprintf("failed to parse YAML: %v", err),
		Line:     extractYAMLErrorLine(err),
	}
}

func (p *Parser) parseJSON(data []byte, filePath string) ([]domain.Rule, *domain.LoadError) {
	var ruleFile domain.RuleFile
	if err := json.Unmarshal(data, &ruleFile); err == nil && len(ruleFile.Rules) > 0 {
		return ruleFile.Rules, nil
	}

	var singleRule domain.Rule
	if err := json.Unmarshal(data, &singleRule); err == nil && singleRule.ID != "" {
		return []domain.Rule{singleRule}, nil
	}

	err := json.Unmarshal(data, &ruleFile)
	if err == nil {
		err = errors.New("no rules found")
	}

	return nil, &domain.LoadError{
		FilePath: filePath,
		Error:    fmt.Sprintf("failed to parse JSON: %v", err),
	}
}

// extractYAMLErrorLine pulls the first line number out of a yaml.v3 type error
func extractYAMLErrorLine(err error) int {
	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) || len(typeErr.Errors) == 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(typeErr.Errors[0], "line %d:", &line); scanErr != nil {
		return 0
	}
	return line
}

// ParseReservedFile reads the reserved path list. A missing file is an empty list.
func (p *Parser) ParseReservedFile(path string) ([]domain.ReservedPath, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read reserved paths: %w", err)
	}

	var file domain.ReservedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse reserved paths: %w", err)
	}
	return file.Paths, nil
}

// ParseContent parses rule content from bytes without file context
func (p *Parser) ParseContent(data []byte, format string) ([]domain.Rule, error) {
	var rules []domain.Rule
	var loadErr *domain.LoadError

	switch strings.ToLower(format) {
	case "yaml", "yml":
		rules, loadErr = p.parseYAML(data, "content.yaml")
	case "json":
		rules, loadErr = p.parseJSON(data, "content.json")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}

	if loadErr != nil {
		return nil, errors.New(loadErr.Error)
	}
	return rules, nil
}
