// Package notes turns recorded lecture audio chunks into a class notes
// document. A recorder drops WAV chunks into a spool directory; the
// pipeline transcribes them as they appear and writes a single JSON
// document when the session ends.
package notes

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Segment is one transcribed audio chunk.
type Segment struct {
	Chunk         string `json:"chunk"`
	Text          string `json:"text"`
	TranscribedAt string `json:"transcribed_at"`
}

// Notes is the emitted class notes document.
type Notes struct {
	SessionID  string    `json:"session_id"`
	CreatedAt  string    `json:"created_at"`
	ChunkCount int       `json:"chunk_count"`
	Segments   []Segment `json:"segments"`
	Transcript string    `json:"transcript"`
}

// Build assembles the document from ordered segments. The full transcript
// is the non-empty segment texts joined in chunk order.
func Build(sessionID string, segments []Segment, now time.Time) Notes {
	if segments == nil {
		segments = []Segment{}
	}
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		if t := strings.TrimSpace(s.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return Notes{
		SessionID:  sessionID,
		CreatedAt:  now.Format(time.RFC3339),
		ChunkCount: len(segments),
		Segments:   segments,
		Transcript: strings.Join(parts, " "),
	}
}

// FileName returns the output name for a session's notes document.
func FileName(sessionID string) string {
	return fmt.Sprintf("class_notes_%s.json", sessionID)
}

func writeAtomic(dir, name string, doc Notes) (string, error) {
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal notes: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create notes dir %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".notes-*")
	if err != nil {
		return "", fmt.Errorf("create temp notes file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write notes: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close notes: %w", err)
	}
	final := filepath.Join(dir, name)
	if err := os.Rename(tmpName, final); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("rename notes: %w", err)
	}
	return final, nil
}
