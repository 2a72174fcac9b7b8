package id

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id1.Compare(id2) >= 0 {
		t.Error("IDs from one generator should be increasing")
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{MessagePrefix, WorkerPrefix, RequestPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}
		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	if msg := NewMessageID(); !strings.HasPrefix(msg.String(), "msg_") {
		t.Errorf("MessageID should start with 'msg_', got: %s", msg)
	}
	if wrk := NewWorkerID(); !strings.HasPrefix(wrk.String(), "wrk_") {
		t.Errorf("WorkerID should start with 'wrk_', got: %s", wrk)
	}
	if req := NewRequestID(); !strings.HasPrefix(req.String(), "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", req)
	}
}

func TestIsValid(t *testing.T) {
	if !IsValid(NewGenerator().GenerateString()) {
		t.Error("Generated ULID should be valid")
	}

	for _, id := range []string{"", "invalid", "1234567890"} {
		if IsValid(id) {
			t.Errorf("ID should be invalid: %s", id)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	msg := NewMessageID()
	after := time.Now()

	ts, err := Timestamp(msg.String())
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	// ULID timestamps have millisecond precision
	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp %v outside [%v, %v]", ts, before, after)
	}

	if _, err := Timestamp("msg_invalid"); err == nil {
		t.Error("Expected error for invalid ULID")
	}
}

func TestConcurrentGeneration(t *testing.T) {
	const goroutines = 50
	const idsPerGoroutine = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[MessageID]bool)
	)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				msg := NewMessageID()
				mu.Lock()
				if seen[msg] {
					t.Errorf("Duplicate ID: %s", msg)
				}
				seen[msg] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}
