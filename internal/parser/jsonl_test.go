package parser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTranscript = `{"type":"user","sessionId":"s1","timestamp":"2024-03-01T10:00:00Z","message":{}}
{"type":"assistant","sessionId":"s1","timestamp":"2024-03-01T10:00:05Z","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":100,"output_tokens":50,"cache_creation_input_tokens":10,"cache_read_input_tokens":200}}}
not valid json at all
{"type":"assistant","sessionId":"s1","timestamp":"2024-03-01T10:01:00Z","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":0,"output_tokens":0}}}
{"type":"assistant","sessionId":"s1","timestamp":"not-a-timestamp","message":{"model":"claude-sonnet-4-5","usage":{"input_tokens":5,"output_tokens":5}}}
{"type":"assistant","sessionId":"s1","timestamp":"2024-03-01T10:02:00Z","message":{"model":"","usage":{"input_tokens":5,"output_tokens":5}}}
{"type":"assistant","sessionId":"s2","timestamp":"2024-03-02T09:00:00Z","message":{"model":"claude-opus-4-5","usage":{"input_tokens":30,"output_tokens":20}}}
`

func TestParseSkipsUnusableLines(t *testing.T) {
	records, err := parse(strings.NewReader(sampleTranscript))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "claude-sonnet-4-5", records[0].Model)
	assert.Equal(t, int64(100), records[0].InputTokens)
	assert.Equal(t, int64(10), records[0].CacheCreationTokens)
	assert.Equal(t, int64(200), records[0].CacheReadTokens)
	assert.Equal(t, "s1", records[0].SessionID)

	assert.Equal(t, "claude-opus-4-5", records[1].Model)
	assert.Equal(t, "2024-03-02", records[1].Timestamp.Format("2006-01-02"))
}

func TestParseAll(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "-home-user-proj")
	require.NoError(t, os.MkdirAll(projDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "a.jsonl"), []byte(sampleTranscript), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(projDir, "notes.txt"), []byte("ignored"), 0o644))

	records, err := ParseAll(root)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestParseAllMissingRoot(t *testing.T) {
	records, err := ParseAll(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Empty(t, records)
}
