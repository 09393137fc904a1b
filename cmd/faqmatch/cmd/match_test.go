package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acurlabs/faqmatch/pkg/match"
)

const testCorpusCSV = `id,question,answer,tags
1,How do I reset my password?,Use the account settings page and click reset password.,"[""password"",""account""]"
2,What are the shipping costs?,Shipping is free for orders above fifty dollars.,"[""shipping"",""costs""]"
3,How can I cancel my subscription?,Open billing and choose cancel subscription.,"[""subscription"",""billing""]"
`

// runRoot executes the root command against a fresh temp database and
// returns the captured output.
func runRoot(t *testing.T, dbPath string, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	buf := &bytes.Buffer{}
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(append([]string{"--db", dbPath, "--no-color"}, args...))

	err := root.Execute()
	return buf.String(), err
}

func writeTestCorpus(t *testing.T) (dbPath, csvPath string) {
	t.Helper()

	dir := t.TempDir()
	dbPath = filepath.Join(dir, "faqs.db")
	csvPath = filepath.Join(dir, "faqs.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(testCorpusCSV), 0o644))

	out, err := runRoot(t, dbPath, "import", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "3 FAQ records")
	return dbPath, csvPath
}

func TestMatchCmd_AcceptsKnownQuestion(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: matching a close paraphrase with JSON output
	out, err := runRoot(t, dbPath, "match", "--variant", "lexical", "--json",
		"how do i reset my password")

	// Then: the password answer is accepted
	require.NoError(t, err)

	var result match.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, match.StateAccept, result.State)
	require.NotNil(t, result.ID)
	assert.Equal(t, int64(1), *result.ID)
	assert.Contains(t, result.Answer, "reset password")
}

func TestMatchCmd_ClarifiesOnNonsense(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: matching an unrelated query
	out, err := runRoot(t, dbPath, "match", "--variant", "lexical", "--json",
		"qwerty zxcvb asdfgh")

	// Then: the matcher clarifies instead of answering
	require.NoError(t, err)

	var result match.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, match.StateClarify, result.State)
	assert.Nil(t, result.ID)
	assert.NotEmpty(t, result.Answer)
}

func TestMatchCmd_RejectsUnknownVariant(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: matching with a bogus variant
	_, err := runRoot(t, dbPath, "match", "--variant", "nonsense", "anything")

	// Then: the command fails with a variant error
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variant")
}

func TestImportCmd_YAMLCorpus(t *testing.T) {
	// Given: a YAML corpus file
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "faqs.db")
	yamlPath := filepath.Join(dir, "faqs.yaml")
	corpus := `- id: 1
  question: How do I reset my password?
  answer: Use the account settings page.
  tags: [password]
`
	require.NoError(t, os.WriteFile(yamlPath, []byte(corpus), 0o644))

	// When: importing it
	out, err := runRoot(t, dbPath, "import", yamlPath)

	// Then: the record lands in the database
	require.NoError(t, err)
	assert.Contains(t, out, "1 FAQ records")
}

func TestFeedbackCmd_RecordsVote(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: recording a helpful vote for a matched record
	out, err := runRoot(t, dbPath, "feedback", "--session", "sess-1", "--faq", "1", "--helpful")

	// Then: the vote is stored
	require.NoError(t, err)
	assert.Contains(t, out, "sess-1")
}

func TestEscalateCmd_RecordsQuestion(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: escalating an unanswered question
	out, err := runRoot(t, dbPath, "escalate", "--session", "sess-2",
		"--contact", "user@example.com", "do", "you", "ship", "to", "mars")

	// Then: the escalation is stored
	require.NoError(t, err)
	assert.Contains(t, out, "sess-2")
}

func TestTagsCmd_SuggestsWithoutWriting(t *testing.T) {
	// Given: an imported corpus
	dbPath, _ := writeTestCorpus(t)

	// When: suggesting tags without --apply
	out, err := runRoot(t, dbPath, "tags", "1")

	// Then: suggestions are printed for the record
	require.NoError(t, err)
	assert.Contains(t, out, "#1")
	assert.Contains(t, out, "suggested:")
}

func TestEvalCmd_ReportsMetrics(t *testing.T) {
	// Given: an imported corpus and a labeled query set
	dbPath, _ := writeTestCorpus(t)
	queriesPath := filepath.Join(t.TempDir(), "queries.csv")
	queries := `query,gold_id
how do i reset my password,1
what does shipping cost,2
`
	require.NoError(t, os.WriteFile(queriesPath, []byte(queries), 0o644))

	// When: evaluating the lexical variant
	out, err := runRoot(t, dbPath, "eval", "--variant", "lexical", "--queries", queriesPath)

	// Then: accuracy and latency metrics are reported
	require.NoError(t, err)
	assert.Contains(t, out, "Samples:")
	assert.Contains(t, out, "Accuracy")
	assert.Contains(t, out, "Combined score")
}
