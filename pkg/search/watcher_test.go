package search

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/avolpe/searchd/internal/logger"
)

// syncBuffer lets the watcher goroutine and the test poll the same log
// output without racing.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestWatchLogsStalenessInCachedMode(t *testing.T) {
	var out syncBuffer
	logger.InitWithWriter(&out, "WARN", "text", false)
	defer logger.InitWithWriter(io.Discard, "ERROR", "text", false)

	path := writeDataFile(t, "apple")
	e := NewEngine(path, false, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Populate the snapshot first; an unpopulated engine has nothing to go stale
	if !e.Exists(ctx, "apple") {
		t.Fatal("apple should exist")
	}

	stop, err := e.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte("cherry\n"), 0644); err != nil {
		t.Fatalf("failed to mutate file: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if strings.Contains(out.String(), "cached snapshot remains authoritative") {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Error("staleness warning was not logged after file mutation")
}

func TestWatchStopIsIdempotentEnough(t *testing.T) {
	logger.InitWithWriter(io.Discard, "ERROR", "text", false)

	path := writeDataFile(t, "apple")
	e := NewEngine(path, true, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop, err := e.Watch(ctx)
	if err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := stop(); err != nil {
		t.Errorf("stop returned error: %v", err)
	}
}
