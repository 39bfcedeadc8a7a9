package loader

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/freewebtopdf/redirector/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_IsRuleFile(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"valid yaml extension", "promo.redirect.yaml", true},
		{"valid json extension", "promo.redirect.json", true},
		{"uppercase yaml", "PROMO.REDIRECT.YAML", true},
		{"plain yaml", "promo.yaml", false},
		{"reserved file", "reserved.yaml", false},
		{"no extension", "promo", false},
		{"nested path", "dir/sub/promo.redirect.yaml", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRuleFile(tt.path))
		})
	}
}

func TestScanner_Scan(t *testing.T) {
	tempDir := t.TempDir()

	files := []string{
		"a.redirect.yaml",
		"b.redirect.json",
		"sub/c.redirect.yaml",
		"reserved.yaml",
		"readme.md",
	}
	for _, f := range files {
		path := filepath.Join(tempDir, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	}

	found, err := NewScanner(ScanConfig{RulesDir: tempDir}).Scan(context.Background())
	require.NoError(t, err)
	assert.Len(t, found, 3)
}

func TestScanner_MissingDirectory(t *testing.T) {
	found, err := NewScanner(ScanConfig{RulesDir: filepath.Join(t.TempDir(), "absent")}).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestParser_ParseYAMLFile(t *testing.T) {
	tempDir := t.TempDir()

	yamlContent := `rules:
  - id: "rule-1"
    slug: "promo"
    target_url: "https://partner.example.com/offer"
    status: "published"
    visit_count: 7
  - id: "rule-2"
    slug: "draft"
    target_url: ""
`
	filePath := filepath.Join(tempDir, "multi.redirect.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(yamlContent), 0644))

	rules, loadErr := NewParser().ParseFile(filePath)
	require.Nil(t, loadErr)
	require.Len(t, rules, 2)

	assert.Equal(t, "promo", rules[0].Slug)
	assert.Equal(t, int64(7), rules[0].VisitCount)
	assert.Equal(t, filePath, rules[0].FilePath)
	assert.Equal(t, domain.StatusPublished, rules[1].Status, "missing status defaults to published")
}

func TestParser_ParseJSONFile(t *testing.T) {
	tempDir := t.TempDir()

	jsonContent := `{"id": "json-rule", "slug": "go", "target_url": "https://go.dev", "status": "unpublished"}`
	filePath := filepath.Join(tempDir, "go.redirect.json")
	require.NoError(t, os.WriteFile(filePath, []byte(jsonContent), 0644))

	rules, loadErr := NewParser().ParseFile(filePath)
	require.Nil(t, loadErr)
	require.Len(t, rules, 1)
	assert.Equal(t, "json-rule", rules[0].ID)
	assert.Equal(t, domain.StatusUnpublished, rules[0].Status)
}

func TestParser_InvalidFile(t *testing.T) {
	tempDir := t.TempDir()
	filePath := filepath.Join(tempDir, "invalid.redirect.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(`this is not valid yaml: [[[`), 0644))

	rules, loadErr := NewParser().ParseFile(filePath)
	assert.Nil(t, rules)
	require.NotNil(t, loadErr)
	assert.Contains(t, loadErr.Error, "failed to parse YAML")
}

func TestParser_ParseContent(t *testing.T) {
	rules, err := NewParser().ParseContent([]byte(`{"rules":[{"id":"x","slug":"x"}]}`), "json")
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	_, err = NewParser().ParseContent([]byte("x"), "toml")
	assert.Error(t, err)
}

func TestWriter_WriteAndReadRule(t *testing.T) {
	tempDir := t.TempDir()
	now := time.Now().UTC().Truncate(time.Second)

	rule := &domain.Rule{
		ID:          "write-test",
		Slug:        "promo",
		TargetURL:   "https://partner.example.com/offer",
		Status:      domain.StatusPublished,
		VisitCount:  3,
		Description: "spring campaign",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	writer := NewWriter(tempDir)
	require.NoError(t, writer.WriteRule(rule))

	expectedPath := filepath.Join(tempDir, "write-test.redirect.yaml")
	assert.Equal(t, expectedPath, writer.RulePath(rule.ID))

	rules, loadErr := NewParser().ParseFile(expectedPath)
	require.Nil(t, loadErr)
	require.Len(t, rules, 1)

	got := rules[0]
	assert.Equal(t, rule.Slug, got.Slug)
	assert.Equal(t, rule.TargetURL, got.TargetURL)
	assert.Equal(t, rule.Status, got.Status)
	assert.Equal(t, rule.VisitCount, got.VisitCount)
	assert.Equal(t, rule.Description, got.Description)
	assert.True(t, rule.CreatedAt.Equal(got.CreatedAt))

	require.NoError(t, writer.DeleteRule(&got))
	_, err := os.Stat(expectedPath)
	assert.True(t, os.IsNotExist(err))

	// Deleting twice is fine
	assert.NoError(t, writer.DeleteRule(&got))
}

func TestWriter_NoTempFilesLeft(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewWriter(tempDir)

	for i := 0; i < 5; i++ {
		require.NoError(t, writer.WriteRule(&domain.Rule{ID: "same", Slug: "s", VisitCount: int64(i)}))
	}

	entries, err := os.ReadDir(tempDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestFileRuleLoader_LoadAllAndReserved(t *testing.T) {
	tempDir := t.TempDir()
	writer := NewWriter(tempDir)

	require.NoError(t, writer.WriteRule(&domain.Rule{ID: "r1", Slug: "one", TargetURL: "https://one.example", Status: domain.StatusPublished}))
	require.NoError(t, writer.WriteRule(&domain.Rule{ID: "r2", Slug: "two", TargetURL: "https://two.example", Status: domain.StatusPublished}))
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "broken.redirect.yaml"), []byte(`[[[`), 0644))
	require.NoError(t, writer.WriteReserved([]domain.ReservedPath{
		{ID: "p1", Path: "about", Kind: domain.ReservedPage, Source: domain.SourceManual},
	}))

	l := NewFileRuleLoader(ScanConfig{RulesDir: tempDir})
	ctx := context.Background()

	rules, loadErrors, err := l.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
	require.Len(t, loadErrors, 1)
	assert.Contains(t, loadErrors[0].FilePath, "broken.redirect.yaml")
	assert.Len(t, l.GetLoadErrors(), 1)

	reserved, err := l.LoadReserved(ctx)
	require.NoError(t, err)
	require.Len(t, reserved, 1)
	assert.Equal(t, "about", reserved[0].Path)
}

func TestFileRuleLoader_NoReservedFile(t *testing.T) {
	l := NewFileRuleLoader(ScanConfig{RulesDir: t.TempDir()})
	reserved, err := l.LoadReserved(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reserved)
}
