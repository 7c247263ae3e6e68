// Package parser reads Claude Code session transcripts. Each project
// under ~/.claude/projects keeps append-only JSONL files; the assistant
// turns in them carry the token usage the local source is built from.
package parser

import (
	"bufio"
	"encoding/json"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"ccdash/internal/model"
)

type transcriptLine struct {
	Type      string `json:"type"`
	SessionID string `json:"sessionId"`
	Timestamp string `json:"timestamp"`
	Message   struct {
		Model string `json:"model"`
		Usage struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

// DefaultRoot returns the Claude Code projects directory for this user.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// ListTranscripts walks root and returns every JSONL file under it.
// A missing or partly unreadable root yields whatever was reachable.
func ListTranscripts(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && filepath.Ext(path) == ".jsonl" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// ParseFile extracts assistant-turn usage records from one transcript.
// Malformed lines, non-assistant turns and turns without tokens are
// skipped silently.
func ParseFile(path string) ([]model.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parse(f)
}

func parse(r io.Reader) ([]model.RawRecord, error) {
	var records []model.RawRecord
	scanner := bufio.NewScanner(r)

	// Tool results can make individual lines very large.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var entry transcriptLine
		if err := json.Unmarshal(line, &entry); err != nil {
			continue
		}
		if entry.Type != "assistant" || entry.Message.Model == "" {
			continue
		}

		usage := entry.Message.Usage
		if usage.InputTokens == 0 && usage.OutputTokens == 0 {
			continue
		}

		ts, err := time.Parse(time.RFC3339, entry.Timestamp)
		if err != nil {
			continue
		}

		records = append(records, model.RawRecord{
			Timestamp:           ts,
			SessionID:           entry.SessionID,
			Model:               entry.Message.Model,
			InputTokens:         usage.InputTokens,
			OutputTokens:        usage.OutputTokens,
			CacheCreationTokens: usage.CacheCreationInputTokens,
			CacheReadTokens:     usage.CacheReadInputTokens,
		})
	}

	return records, scanner.Err()
}

// ParseAll parses every transcript under root. Files that fail to open
// are skipped so one bad file cannot hide the rest of the history.
func ParseAll(root string) ([]model.RawRecord, error) {
	files, err := ListTranscripts(root)
	if err != nil {
		return nil, err
	}

	var all []model.RawRecord
	for _, path := range files {
		records, err := ParseFile(path)
		if err != nil {
			continue
		}
		all = append(all, records...)
	}
	return all, nil
}
