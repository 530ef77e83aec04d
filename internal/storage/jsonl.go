package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"swapPilot/internal/model"
)

// JSONLFile appends JSON encoded records to a file, one per line.
type JSONLFile struct {
	path string
	mu   sync.Mutex
}

func NewJSONLFile(path string) *JSONLFile {
	return &JSONLFile{path: path}
}

// Path returns the file location.
func (f *JSONLFile) Path() string {
	return f.path
}

// Append writes records as JSON lines, creating parent directories.
func (f *JSONLFile) Append(records ...any) error {
	if len(records) == 0 {
		return nil
	}

	dir := filepath.Dir(f.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := writer.Write(line); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
		if err := writer.WriteByte('\n'); err != nil {
			return fmt.Errorf("write newline: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}

// JsonlStorage keeps transactions and balance snapshots in two JSONL files.
type JsonlStorage struct {
	txs       *JSONLFile
	snapshots *JSONLFile
}

func NewJsonlStorage(txPath, snapshotPath string) *JsonlStorage {
	return &JsonlStorage{
		txs:       NewJSONLFile(txPath),
		snapshots: NewJSONLFile(snapshotPath),
	}
}

func (s *JsonlStorage) PutTransactions(_ context.Context, records []model.TxRecord) error {
	return s.txs.Append(toAny(records)...)
}

func (s *JsonlStorage) PutBalanceSnapshots(_ context.Context, snapshots []model.BalanceSnapshot) error {
	return s.snapshots.Append(toAny(snapshots)...)
}

func toAny[T any](in []T) []any {
	out := make([]any, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}
