// Package pkg provides utilities for rig.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// RunLog is a generic append-only disk log for records of type T.
// Records are gob-encoded in append order and read back with Range.
type RunLog[T any] interface {
	Len() uint64
	Path() string
	Append(record T) error
	AppendBatch(records []T) error
	Range(f func(index uint64, record T) error) error
	Close() error
}

type runLogImpl[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewRunLog creates (or truncates) a RunLog at the given path.
func NewRunLog[T any](path string) (RunLog[T], error) {
	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create run log", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create run log: %w", err)
	}

	slog.Debug("created run log", "path", path)

	return &runLogImpl[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
	}, nil
}

// OpenRunLog opens an existing RunLog for reading with Range.
func OpenRunLog[T any](path string) (RunLog[T], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open run log: %w", err)
	}

	if info.IsDir() {
		return nil, fmt.Errorf("run log path %s is a directory", path)
	}

	length, err := countRecords[T](path)
	if err != nil {
		return nil, err
	}

	return &runLogImpl[T]{path: path, length: length}, nil
}

func countRecords[T any](path string) (uint64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open run log: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close run log", "path", path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)
	count := uint64(0)

	for {
		var record T
		if err := decoder.Decode(&record); err != nil {
			return count, nil //nolint:nilerr // decode failure marks end of log
		}

		count++
	}
}

// Append implements RunLog.
func (l *runLogImpl[T]) Append(record T) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.encoder == nil {
		return fmt.Errorf("run log %s is not open for writing", l.path)
	}

	if err := l.encoder.Encode(record); err != nil {
		slog.Error("failed to encode record", "path", l.path, "index", l.length, "error", err)
		return fmt.Errorf("failed to encode record: %w", err)
	}

	l.length++

	return nil
}

// AppendBatch implements RunLog.
func (l *runLogImpl[T]) AppendBatch(records []T) error {
	for _, record := range records {
		if err := l.Append(record); err != nil {
			return err
		}
	}

	return nil
}

// Len implements RunLog.
func (l *runLogImpl[T]) Len() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.length
}

// Path implements RunLog.
func (l *runLogImpl[T]) Path() string {
	return l.path
}

// Range implements RunLog.
func (l *runLogImpl[T]) Range(fn func(index uint64, record T) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	file, err := os.Open(l.path)
	if err != nil {
		slog.Error("failed to open run log for range", "path", l.path, "error", err)
		return fmt.Errorf("failed to open run log: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close run log", "path", l.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := uint64(0); i < l.length; i++ {
		var record T
		if err := decoder.Decode(&record); err != nil {
			slog.Error("failed to decode record", "path", l.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode record at index %d: %w", i, err)
		}

		if err := fn(i, record); err != nil {
			return err
		}
	}

	return nil
}

// Close implements RunLog.
func (l *runLogImpl[T]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			slog.Error("failed to close run log", "path", l.path, "error", err)
			return err
		}

		l.file = nil
		slog.Debug("closed run log", "path", l.path, "length", l.length)
	}

	return nil
}
