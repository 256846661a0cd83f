// Package aof implements the append-log persistence format (C6): one
// whitespace-separated command per line, with fsync behavior configurable
// per §4.5.
package aof

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// SyncPolicy controls when the writer flushes to stable storage.
type SyncPolicy int

const (
	// SyncAlways flushes and fsyncs after every append.
	SyncAlways SyncPolicy = iota
	// SyncEverySecond relies on the database manager calling Flush once a
	// second (§4.3); the writer itself owns no ticker.
	SyncEverySecond
	// SyncNo performs no explicit flush; the OS decides.
	SyncNo
)

func (p SyncPolicy) String() string {
	switch p {
	case SyncAlways:
		return "always"
	case SyncEverySecond:
		return "everysec"
	case SyncNo:
		return "no"
	default:
		return "unknown"
	}
}

// ParseSyncPolicy maps a config string to a SyncPolicy, defaulting to
// SyncEverySecond for anything unrecognized.
func ParseSyncPolicy(s string) SyncPolicy {
	switch s {
	case "always":
		return SyncAlways
	case "no":
		return SyncNo
	default:
		return SyncEverySecond
	}
}

// Writer appends commands to an append-log file. Safe for concurrent
// callers; a single mutex serializes writes onto the shared file handle
// (§5 "the append-log writer is a single shared handle guarded so that
// concurrent appenders do not interleave lines").
type Writer struct {
	path   string
	policy SyncPolicy
	logger zerolog.Logger

	mu     sync.Mutex
	file   *os.File
	writer *bufio.Writer
	closed bool
}

// NewWriter opens (creating if necessary) path in append mode.
func NewWriter(path string, policy SyncPolicy, logger zerolog.Logger) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("persistence: open append log: %w", err)
	}
	return &Writer{
		path:   path,
		policy: policy,
		logger: logger,
		file:   file,
		writer: bufio.NewWriter(file),
	}, nil
}

// Append writes one line, "cmd arg1 arg2 ...", to the log. A SELECT line
// should be appended explicitly by the caller when the active shard
// changes (§4.5). Failures are returned; the caller logs them and does not
// abort the originating command (§4.5 "Append operation").
func (w *Writer) Append(args []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}

	if _, err := w.writer.WriteString(strings.Join(args, " ")); err != nil {
		return fmt.Errorf("persistence: append log write: %w", err)
	}
	if err := w.writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("persistence: append log write: %w", err)
	}

	if w.policy == SyncAlways {
		return w.flushLocked()
	}
	return nil
}

// Flush flushes the buffer and fsyncs the file. Called directly for
// SyncAlways and on the database manager's 1s timer for SyncEverySecond.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	return w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("persistence: append log flush: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		return fmt.Errorf("persistence: append log sync: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.writer.Flush(); err != nil {
		return fmt.Errorf("persistence: append log close flush: %w", err)
	}
	return w.file.Close()
}

// Rewrite replaces the log with a minimal replay transcript, atomically
// (§4.4's tmp+rename contract, reused here per §4.5). entries is the
// sequence of lines to write, in order (including SELECT lines).
func (w *Writer) Rewrite(entries [][]string) error {
	tmpPath := w.path + ".tmp"
	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("persistence: create rewrite temp file: %w", err)
	}

	bw := bufio.NewWriter(file)
	for _, args := range entries {
		if _, err := bw.WriteString(strings.Join(args, " ")); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("persistence: rewrite write: %w", err)
		}
		if err := bw.WriteByte('\n'); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("persistence: rewrite write: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: rewrite flush: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: rewrite sync: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("persistence: rewrite close: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file != nil {
		w.writer.Flush()
		w.file.Close()
	}

	if err := os.Rename(tmpPath, w.path); err != nil {
		os.Remove(w.path)
		if err2 := os.Rename(tmpPath, w.path); err2 != nil {
			return fmt.Errorf("persistence: replace append log after retry: %w", err2)
		}
	}

	newFile, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("persistence: reopen append log: %w", err)
	}
	w.file = newFile
	w.writer = bufio.NewWriter(newFile)
	return nil
}
