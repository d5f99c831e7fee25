package eventlog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShadmanAbir/A3sist-sub000/pkg/eventbus"
)

func TestNewWriterCreatesLogDirAndFile(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	_, err = os.Stat(tmpDir)
	require.NoError(t, err)

	currentFile := writer.GetCurrentLogFile()
	assert.NotEmpty(t, currentFile)
	_, err = os.Stat(currentFile)
	assert.NoError(t, err)
}

func TestWriteEvent(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.WriteEvent(eventbus.Event{
		Topic: eventbus.TopicTaskEnqueued,
		Data:  map[string]string{"task_id": "t1"},
	}))

	data, err := os.ReadFile(writer.GetCurrentLogFile())
	require.NoError(t, err)
	assert.NotEmpty(t, data)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestWriteAndReadMultipleEvents(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	events := []eventbus.Event{
		{Topic: eventbus.TopicTaskEnqueued, Data: map[string]any{"sequence": float64(0)}},
		{Topic: eventbus.TopicTaskDequeued, Data: map[string]any{"sequence": float64(1)}},
		{Topic: eventbus.TopicAgentStatus, Data: map[string]any{"sequence": float64(2)}},
	}

	for _, evt := range events {
		require.NoError(t, writer.WriteEvent(evt))
	}

	records, err := ReadEvents(writer.GetCurrentLogFile())
	require.NoError(t, err)
	require.Len(t, records, len(events))

	for i, rec := range records {
		assert.Equal(t, events[i].Topic, rec.Topic)
		payload, ok := rec.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, events[i].Data.(map[string]any)["sequence"], payload["sequence"])
	}
}

func TestDailyRotation(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	require.NoError(t, writer.WriteEvent(eventbus.Event{Topic: eventbus.TopicTaskEnqueued, Data: "today"}))
	initialFile := writer.GetCurrentLogFile()

	writer.mu.Lock()
	err = writer.rotate("2025-12-25")
	writer.mu.Unlock()
	require.NoError(t, err)

	require.NoError(t, writer.WriteEvent(eventbus.Event{Topic: eventbus.TopicTaskDequeued, Data: "christmas"}))
	newFile := writer.GetCurrentLogFile()

	assert.NotEqual(t, initialFile, newFile)

	originalRecords, err := ReadEvents(initialFile)
	require.NoError(t, err)
	require.Len(t, originalRecords, 1)
	assert.Equal(t, "today", originalRecords[0].Data)

	newRecords, err := ReadEvents(newFile)
	require.NoError(t, err)
	require.Len(t, newRecords, 1)
	assert.Equal(t, "christmas", newRecords[0].Data)
}

func TestReadEventsEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	logFile := filepath.Join(tmpDir, "empty.jsonl")
	require.NoError(t, os.WriteFile(logFile, nil, 0o600))

	records, err := ReadEvents(logFile)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestListLogFiles(t *testing.T) {
	tmpDir := t.TempDir()

	testFiles := []string{
		"events-2025-01-01.jsonl",
		"events-2025-01-02.jsonl",
		"events-2025-01-03.jsonl",
		"other-file.txt",
	}
	for _, name := range testFiles {
		require.NoError(t, os.WriteFile(filepath.Join(tmpDir, name), nil, 0o600))
	}

	logFiles, err := ListLogFiles(tmpDir)
	require.NoError(t, err)
	assert.Len(t, logFiles, 3)

	for _, file := range logFiles {
		matched, err := filepath.Match("events-*.jsonl", filepath.Base(file))
		require.NoError(t, err)
		assert.True(t, matched)
	}
}

func TestWriterClose(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)

	require.NoError(t, writer.WriteEvent(eventbus.Event{Topic: eventbus.TopicTaskEnqueued}))
	require.NoError(t, writer.Close())
	assert.Nil(t, writer.currentFile)

	// Writing after close works: it reopens via rotateIfNeeded.
	assert.NoError(t, writer.WriteEvent(eventbus.Event{Topic: eventbus.TopicTaskEnqueued}))
}

func TestConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(id int) {
			err := writer.WriteEvent(eventbus.Event{Topic: eventbus.TopicTaskEnqueued, Data: id})
			assert.NoError(t, err)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	records, err := ReadEvents(writer.GetCurrentLogFile())
	require.NoError(t, err)
	assert.Len(t, records, 10)
}

func TestMirrorWritesPublishedEvents(t *testing.T) {
	tmpDir := t.TempDir()

	writer, err := NewWriter(tmpDir, 24)
	require.NoError(t, err)
	defer writer.Close()

	bus := eventbus.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	writer.Mirror(ctx, bus, []eventbus.Topic{eventbus.TopicScanProgress, eventbus.TopicScanCompleted})

	bus.Publish(eventbus.TopicScanProgress, map[string]any{"files": float64(3)})
	bus.Publish(eventbus.TopicScanCompleted, map[string]any{"findings": float64(1)})

	require.Eventually(t, func() bool {
		records, err := ReadEvents(writer.GetCurrentLogFile())
		return err == nil && len(records) == 2
	}, time.Second, 10*time.Millisecond)
}
