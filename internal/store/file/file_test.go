package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/models"
	"github.com/povarna/generative-ai-agents/blog-agent/internal/store"
	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

func newRecord(i int) models.GenerationRecord {
	return models.GenerationRecord{
		ID:        fmt.Sprintf("id-%d", i),
		Prompt:    fmt.Sprintf("prompt %d", i),
		Content:   fmt.Sprintf("content %d", i),
		CreatedAt: time.Date(2024, 1, 1, 0, 0, i, 0, time.UTC),
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data.json"), newTestLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestNew_CreatesEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data.json")

	if _, err := New(path, newTestLogger()); err != nil {
		t.Fatalf("New failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected data file to exist: %v", err)
	}

	var records []models.GenerationRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("Data file is not valid JSON: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("Expected empty array, got %d records", len(records))
	}
}

func TestNew_InvalidExistingFile(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"garbage", "not json"},
		{"object", `{"id":"1"}`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "data.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("Failed to write file: %v", err)
			}

			if _, err := New(path, newTestLogger()); err == nil {
				t.Error("Expected error for invalid data file")
			}

			data, _ := os.ReadFile(path)
			if string(data) != tt.content {
				t.Errorf("Invalid file must not be overwritten, got %q", string(data))
			}
		})
	}
}

func TestNew_CreateWaitsForWriterLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	// Another process holds the lock while it creates the file.
	other := flock.New(path + ".lock")
	if err := other.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := New(path, newTestLogger())
		done <- err
	}()

	time.Sleep(50 * time.Millisecond)
	data, err := json.Marshal([]models.GenerationRecord{newRecord(1)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := other.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("New did not return after the lock was released")
	}

	var records []models.GenerationRecord
	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if err := json.Unmarshal(after, &records); err != nil {
		t.Fatalf("Data file is not valid JSON: %v", err)
	}
	if len(records) != 1 || records[0].ID != "id-1" {
		t.Errorf("Expected the other writer's record to survive, got %+v", records)
	}
}

func TestAppend_ListAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 3 {
		if err := s.Append(ctx, newRecord(i)); err != nil {
			t.Fatalf("Append %d failed: %v", i, err)
		}
	}

	records, err := store.Collect(s.ListAll(ctx))
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	for i, record := range records {
		want := newRecord(i)
		if record.ID != want.ID || record.Prompt != want.Prompt || record.Content != want.Content {
			t.Errorf("Record %d mismatch: got %+v, want %+v", i, record, want)
		}
		if !record.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("Record %d createdAt mismatch: got %s", i, record.CreatedAt)
		}
	}
}

func TestAppend_NonDestructive(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := newRecord(1)
	if err := s.Append(ctx, first); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	second := newRecord(2)
	if err := s.Append(ctx, second); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	records, err := store.Collect(s.ListAll(ctx))
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}

	count := 0
	for _, record := range records {
		if record.ID == second.ID {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Expected appended record exactly once, got %d", count)
	}
	if records[0].ID != first.ID || records[0].Content != first.Content {
		t.Errorf("Earlier record was modified: %+v", records[0])
	}
}

func TestListAll_Restartable(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 5 {
		if err := s.Append(ctx, newRecord(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	seq := s.ListAll(ctx)
	first, err := store.Collect(seq)
	if err != nil {
		t.Fatalf("first ListAll failed: %v", err)
	}
	second, err := store.Collect(seq)
	if err != nil {
		t.Fatalf("second ListAll failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("Expected identical sequences, got %d and %d records", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Record %d differs between iterations", i)
		}
	}
}

func TestListAll_EarlyBreak(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := range 10 {
		if err := s.Append(ctx, newRecord(i)); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}

	count := 0
	for _, err := range s.ListAll(ctx) {
		if err != nil {
			t.Fatalf("ListAll failed: %v", err)
		}
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Errorf("Expected to stop after 3 records, got %d", count)
	}
}

func TestListAll_ContextCancelled(t *testing.T) {
	s := newTestStore(t)
	if err := s.Append(context.Background(), newRecord(1)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Collect(s.ListAll(ctx)); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestAppend_Concurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	// Two handles on the same file behave like two processes.
	a, err := New(path, newTestLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	b, err := New(path, newTestLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := range n {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := a
			if i%2 == 1 {
				s = b
			}
			errs <- s.Append(context.Background(), newRecord(i))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent Append failed: %v", err)
		}
	}

	records, err := store.Collect(a.ListAll(context.Background()))
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(records) != n {
		t.Fatalf("Expected %d records, got %d", n, len(records))
	}

	seen := make(map[string]bool)
	for _, record := range records {
		if seen[record.ID] {
			t.Errorf("Duplicate record %s", record.ID)
		}
		seen[record.ID] = true
	}
}

func TestAppend_FailureKeepsPreviousDocument(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission checks do not apply to root")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	s, err := New(path, newTestLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	if err := s.Append(ctx, newRecord(1)); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	before, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	if err := os.Chmod(dir, 0o555); err != nil {
		t.Fatalf("Chmod failed: %v", err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o755) })

	if err := s.Append(ctx, newRecord(2)); err == nil {
		t.Fatal("Expected Append to fail in a read-only directory")
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("Data file changed after failed append")
	}
}
