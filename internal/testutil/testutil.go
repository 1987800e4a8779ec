// Package testutil provides shared test helpers for creating config files and knowledge base fixtures.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// SetupTestConfig creates a minimal config file backed by a SQLite database in tmpDir.
// Speech is disabled and no knowledge base is configured. Returns the path to the generated config file.
func SetupTestConfig(t *testing.T, tmpDir string) string {
	t.Helper()

	configContent := fmt.Sprintf(`server:
  port: 5000
  max_upload_bytes: 1048576
database:
  driver: sqlite
  path: %s
  auto_migrate: true
  ready_attempts: 1
speech:
  backend: none
`,
		filepath.Join(tmpDir, "arbackend.db"),
	)

	cfgPath := filepath.Join(tmpDir, "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(configContent), 0644))
	return cfgPath
}

// SetupTestConfigWithAPIKey creates a config file with a fake OpenAI-compatible model endpoint for tests
// that require API key validation to pass.
func SetupTestConfigWithAPIKey(t *testing.T, tmpDir, baseURL string) string {
	t.Helper()
	cfgPath := SetupTestConfig(t, tmpDir)

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf(`inference:
  provider: openai
  timeout_seconds: 5
  openai:
    api_key: fake-key-for-testing
    model: gpt-4o-mini
    base_url: %s
`, baseURL))...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return cfgPath
}

// WithKnowledgeBase appends a knowledge_base section pointing at a CSV file with the given
// object_name, description and example_sentence rows, and returns the CSV path.
func WithKnowledgeBase(t *testing.T, cfgPath string, rows ...[3]string) string {
	t.Helper()

	csvPath := filepath.Join(filepath.Dir(cfgPath), "knowledge.csv")
	csv := "object_name,description,example_sentence\n"
	for _, r := range rows {
		csv += fmt.Sprintf("%s,%s,%s\n", r[0], r[1], r[2])
	}
	require.NoError(t, os.WriteFile(csvPath, []byte(csv), 0644))

	content, err := os.ReadFile(cfgPath)
	require.NoError(t, err)
	content = append(content, []byte(fmt.Sprintf("knowledge_base:\n  path: %s\n  strict: true\n", csvPath))...)
	require.NoError(t, os.WriteFile(cfgPath, content, 0644))
	return csvPath
}
