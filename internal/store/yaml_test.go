package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faqs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFAQsYAML_ValidCorpus(t *testing.T) {
	path := writeYAML(t, `
- id: 1
  question: How do I reset my password?
  answer: Use the settings page.
  tags: [password, account]
- id: 2
  question: What are the shipping costs?
  answer: Shipping is free above fifty dollars.
`)

	faqs, err := LoadFAQsYAML(path)
	require.NoError(t, err)
	require.Len(t, faqs, 2)

	assert.Equal(t, int64(1), faqs[0].ID)
	assert.Equal(t, []string{"password", "account"}, faqs[0].Tags)
	assert.Empty(t, faqs[1].Tags)
}

func TestLoadFAQsYAML_InvalidRecordFailsLoad(t *testing.T) {
	// A record without an answer is a contract violation; the whole
	// import fails rather than silently dropping the row.
	path := writeYAML(t, `
- id: 1
  question: Orphaned question
`)

	_, err := LoadFAQsYAML(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "answer is required")
}

func TestLoadFAQsYAML_MalformedYAML(t *testing.T) {
	path := writeYAML(t, "question: [unclosed")

	_, err := LoadFAQsYAML(path)
	require.Error(t, err)
}

func TestLoadFAQsYAML_MissingFile(t *testing.T) {
	_, err := LoadFAQsYAML(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
