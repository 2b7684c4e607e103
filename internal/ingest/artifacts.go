package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// RunMetadata stamps every pipeline run for artifact traceability.
type RunMetadata struct {
	RunID       string `json:"run_id"`
	GeneratedAt string `json:"generated_at"`
	Stage       string `json:"stage"`
}

// NewRunMetadata creates metadata for the named pipeline stage.
func NewRunMetadata(stage string) RunMetadata {
	return RunMetadata{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Stage:       stage,
	}
}

// artifact wraps a payload with its run metadata.
type artifact struct {
	Metadata RunMetadata `json:"metadata"`
	Result   any         `json:"result"`
}

// WriteArtifact serializes a stage result to an indented JSON file under
// dir, wrapped with run metadata.
func WriteArtifact(dir, name, stage string, result any) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)

	raw, err := json.MarshalIndent(artifact{Metadata: NewRunMetadata(stage), Result: result}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal artifact %s: %w", name, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", fmt.Errorf("write artifact %s: %w", path, err)
	}

	slog.Info("artifact written", "path", path, "stage", stage)
	return path, nil
}

// ReadArtifact loads the result payload of a previously written artifact
// into out.
func ReadArtifact(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	var a struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &a); err != nil {
		return fmt.Errorf("parse artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(a.Result, out); err != nil {
		return fmt.Errorf("decode artifact result %s: %w", path, err)
	}
	return nil
}
