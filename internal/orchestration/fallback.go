package orchestration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FallbackLog is an append-only JSONL file used when the database write
// path is unavailable. One line per record, flushed per write so a crash
// loses at most the line being written.
type FallbackLog struct {
	mu   sync.Mutex
	path string
}

// NewFallbackLog creates the log, ensuring its directory exists.
func NewFallbackLog(path string) (*FallbackLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create fallback directory: %w", err)
	}
	return &FallbackLog{path: path}, nil
}

type fallbackLine struct {
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// Append writes one record of the given kind.
func (f *FallbackLog) Append(kind string, payload any) error {
	line, err := json.Marshal(fallbackLine{
		Kind:      kind,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return fmt.Errorf("failed to encode fallback record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open fallback log: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append fallback record: %w", err)
	}
	return nil
}
