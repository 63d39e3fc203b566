package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/pkg/search"
	"github.com/avolpe/searchd/pkg/server"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard, "ERROR", "text", false)
	os.Exit(m.Run())
}

func startTestServer(t *testing.T, lines string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.txt")
	if err := os.WriteFile(path, []byte(lines), 0644); err != nil {
		t.Fatalf("Failed to write data file: %v", err)
	}

	engine := search.NewEngine(path, false, nil)
	srv := server.New(server.Config{Host: "127.0.0.1", Port: 0}, engine, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()

	select {
	case <-srv.WaitReady():
	case <-time.After(5 * time.Second):
		t.Fatal("server did not become ready")
	}

	t.Cleanup(func() {
		cancel()
		<-done
	})

	return srv.Addr()
}

func TestSendQuery_Exists(t *testing.T) {
	addr := startTestServer(t, "apple\nbanana\n")

	verdict, err := sendQuery(addr, "banana", false, 5*time.Second)
	if err != nil {
		t.Fatalf("sendQuery failed: %v", err)
	}
	if verdict != "STRING EXISTS" {
		t.Errorf("Expected 'STRING EXISTS', got '%s'", verdict)
	}
}

func TestSendQuery_NotFound(t *testing.T) {
	addr := startTestServer(t, "apple\n")

	verdict, err := sendQuery(addr, "grape", false, 5*time.Second)
	if err != nil {
		t.Fatalf("sendQuery failed: %v", err)
	}
	if verdict != "STRING NOT FOUND" {
		t.Errorf("Expected 'STRING NOT FOUND', got '%s'", verdict)
	}
}

func TestSendQuery_ConnectionRefused(t *testing.T) {
	_, err := sendQuery("127.0.0.1:1", "apple", false, time.Second)
	if err == nil {
		t.Fatal("Expected connection error, got nil")
	}
}
