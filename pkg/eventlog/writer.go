// Package eventlog mirrors pkg/eventbus events to a daily-rotated JSONL
// sink for audit and post-mortem replay (spec §4.9).
package eventlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
)

// Record is the on-disk shape of one logged event: the event's topic and
// payload plus the wall-clock time it was mirrored.
type Record struct {
	Timestamp time.Time      `json:"timestamp"`
	Topic     eventbus.Topic `json:"topic"`
	Data      any            `json:"data"`
}

// Writer handles structured logging of bus events to daily rotated JSON log files.
type Writer struct {
	logDir       string
	currentFile  *os.File
	currentDate  string
	mu           sync.Mutex
	rotationHour int // rotationHours as given to NewWriter (<= 0 becomes 24); rotation follows the calendar date and does not read it
}

// NewWriter creates a new event log writer with daily rotation in the specified directory.
func NewWriter(logDir string, rotationHours int) (*Writer, error) {
	// Create logs directory if it doesn't exist.
	if err := os.MkdirAll(logDir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Default to 24 hours (daily rotation at midnight) if invalid
	if rotationHours <= 0 {
		rotationHours = 24
	}

	writer := &Writer{
		logDir:       logDir,
		rotationHour: rotationHours,
	}

	// Initialize with current log file.
	if err := writer.rotateIfNeeded(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	return writer, nil
}

// WriteEvent writes a bus event to the current log file with automatic rotation.
func (w *Writer) WriteEvent(evt eventbus.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.rotateIfNeeded(); err != nil {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}

	rec := Record{Timestamp: time.Now(), Topic: evt.Topic, Data: evt.Data}
	jsonData, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	if _, err := w.currentFile.Write(jsonData); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if _, err := w.currentFile.WriteString("\n"); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}
	if err := w.currentFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync file: %w", err)
	}

	return nil
}

func (w *Writer) rotateIfNeeded() error {
	now := time.Now()
	newDate := now.Format("2006-01-02")

	if w.currentFile == nil || w.currentDate != newDate {
		return w.rotate(newDate)
	}

	return nil
}

func (w *Writer) rotate(newDate string) error {
	if w.currentFile != nil {
		if err := w.currentFile.Close(); err != nil {
			return fmt.Errorf("failed to close current log file: %w", err)
		}
	}

	filename := fmt.Sprintf("events-%s.jsonl", newDate)
	path := filepath.Join(w.logDir, filename)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	w.currentFile = file
	w.currentDate = newDate

	return nil
}

// Close closes the current log file and cleans up resources.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile != nil {
		err := w.currentFile.Close()
		w.currentFile = nil
		if err != nil {
			return fmt.Errorf("failed to close event log file: %w", err)
		}
	}

	return nil
}

// GetCurrentLogFile returns the path of the currently active log file.
func (w *Writer) GetCurrentLogFile() string {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.currentFile == nil {
		return ""
	}

	return filepath.Join(w.logDir, fmt.Sprintf("events-%s.jsonl", w.currentDate))
}

// Mirror subscribes to every topic in topics and writes each received
// event to w, one goroutine per topic. It returns immediately; the
// goroutines run until ctx is cancelled, at which point each subscription
// is unsubscribed and its goroutine exits.
func (w *Writer) Mirror(ctx context.Context, bus *eventbus.Bus, topics []eventbus.Topic) {
	for _, topic := range topics {
		sub := bus.Subscribe(topic, 0)
		go func(sub *eventbus.Subscription) {
			defer sub.Unsubscribe()
			for {
				select {
				case evt, ok := <-sub.Events():
					if !ok {
						return
					}
					_ = w.WriteEvent(evt) // best-effort: a log write failure must not stall the bus
				case <-ctx.Done():
					return
				}
			}
		}(sub)
	}
}

// ReadEvents reads and parses events from a specific log file.
func ReadEvents(logFilePath string) ([]Record, error) {
	data, err := os.ReadFile(logFilePath) //nolint:gosec // caller-supplied log directory, not request input
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	if len(data) == 0 {
		return []Record{}, nil
	}

	var records []Record
	for _, line := range splitLines(data) {
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, fmt.Errorf("failed to parse event: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}

func splitLines(data []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range data {
		if b == '\n' {
			lines = append(lines, data[start:i])
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, data[start:])
	}
	return lines
}

// ListLogFiles returns all event log files in the log directory.
func ListLogFiles(logDir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "events-*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	return files, nil
}
