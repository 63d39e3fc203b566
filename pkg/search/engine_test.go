package search

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/avolpe/searchd/internal/logger"
)

func TestMain(m *testing.M) {
	logger.InitWithWriter(io.Discard, "ERROR", "text", false)
	os.Exit(m.Run())
}

func writeDataFile(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.txt")
	content := ""
	for _, l := range lines {
		content += l + "\n"
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}
	return path
}

func TestExactMatch(t *testing.T) {
	path := writeDataFile(t, "apple", "banana", "carrot")

	for _, reread := range []bool{true, false} {
		t.Run(fmt.Sprintf("reread=%v", reread), func(t *testing.T) {
			e := NewEngine(path, reread, nil)
			ctx := context.Background()

			if !e.Exists(ctx, "banana") {
				t.Error("banana should exist")
			}
			if e.Exists(ctx, "grape") {
				t.Error("grape should not exist")
			}
		})
	}
}

func TestSubstringIsNotAMatch(t *testing.T) {
	path := writeDataFile(t, "bananarama")

	for _, reread := range []bool{true, false} {
		e := NewEngine(path, reread, nil)
		ctx := context.Background()

		if e.Exists(ctx, "banana") {
			t.Errorf("reread=%v: substring matched, want whole-line equality only", reread)
		}
		if e.Exists(ctx, "anar") {
			t.Errorf("reread=%v: inner substring matched", reread)
		}
		if !e.Exists(ctx, "bananarama") {
			t.Errorf("reread=%v: full line did not match", reread)
		}
	}
}

func TestLeadingTrailingWhitespaceTrimmedFromFileLines(t *testing.T) {
	path := writeDataFile(t, "  padded  ", "plain")

	for _, reread := range []bool{true, false} {
		e := NewEngine(path, reread, nil)
		if !e.Exists(context.Background(), "padded") {
			t.Errorf("reread=%v: trimmed file line should match trimmed query", reread)
		}
	}
}

func TestOversizedLinesDoNotAbortScan(t *testing.T) {
	// The backing file may carry lines far longer than any query ever
	// could be. Such a line can never match, but everything after it
	// must stay findable in both modes.
	long := strings.Repeat("x", 2*1024*1024)
	path := writeDataFile(t, long, "apple")
	ctx := context.Background()

	for _, reread := range []bool{true, false} {
		e := NewEngine(path, reread, nil)
		if got := e.Lookup(ctx, "apple"); got != Found {
			t.Errorf("mode %s: Lookup(apple) after oversized line = %v, want Found", e.Mode(), got)
		}
		if e.Exists(ctx, "grape") {
			t.Errorf("mode %s: phantom match after oversized line", e.Mode())
		}
		if !reread && !e.Populated() {
			t.Error("cached engine failed to populate with oversized line present")
		}
	}
}

func TestModesAgreeOnStaticFile(t *testing.T) {
	lines := make([]string, 0, 200)
	for i := 0; i < 200; i++ {
		lines = append(lines, fmt.Sprintf("line_%d", i))
	}
	path := writeDataFile(t, lines...)

	rereadEngine := NewEngine(path, true, nil)
	cachedEngine := NewEngine(path, false, nil)
	ctx := context.Background()

	queries := []string{"line_0", "line_42", "line_199", "line_200", "", "line", "LINE_42"}
	for _, q := range queries {
		got := cachedEngine.Exists(ctx, q)
		want := rereadEngine.Exists(ctx, q)
		if got != want {
			t.Errorf("modes disagree on %q: cached=%v reread=%v", q, got, want)
		}
	}
}

func TestCachedModeIgnoresFileMutation(t *testing.T) {
	path := writeDataFile(t, "apple", "banana")
	e := NewEngine(path, false, nil)
	ctx := context.Background()

	if !e.Exists(ctx, "apple") {
		t.Fatal("apple should exist before mutation")
	}

	// Rewrite the file: apple gone, cherry added
	if err := os.WriteFile(path, []byte("cherry\n"), 0644); err != nil {
		t.Fatalf("failed to mutate file: %v", err)
	}

	// Snapshot answers must persist
	if !e.Exists(ctx, "apple") {
		t.Error("cached engine lost apple after external mutation")
	}
	if e.Exists(ctx, "cherry") {
		t.Error("cached engine picked up cherry; cache must stay stale")
	}
}

func TestRereadModeSeesFileMutation(t *testing.T) {
	path := writeDataFile(t, "apple")
	e := NewEngine(path, true, nil)
	ctx := context.Background()

	if !e.Exists(ctx, "apple") {
		t.Fatal("apple should exist")
	}

	if err := os.WriteFile(path, []byte("cherry\n"), 0644); err != nil {
		t.Fatalf("failed to mutate file: %v", err)
	}

	if e.Exists(ctx, "apple") {
		t.Error("reread engine still sees apple after mutation")
	}
	if !e.Exists(ctx, "cherry") {
		t.Error("reread engine does not see cherry after mutation")
	}
}

func TestMissingFileDegradesToNotFound(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.txt")
	e := NewEngine(path, true, nil)
	ctx := context.Background()

	if got := e.Lookup(ctx, "anything"); got != ReadFailure {
		t.Errorf("Lookup on missing file = %v, want ReadFailure", got)
	}
	if e.Exists(ctx, "anything") {
		t.Error("Exists on missing file = true, want false")
	}

	// Service recovers once the file appears (reread mode)
	if err := os.WriteFile(path, []byte("anything\n"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	if !e.Exists(ctx, "anything") {
		t.Error("reread engine did not recover after file reappeared")
	}
}

func TestCachedModeRetriesFailedPopulation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "late.txt")
	e := NewEngine(path, false, nil)
	ctx := context.Background()

	if got := e.Lookup(ctx, "x"); got != ReadFailure {
		t.Errorf("Lookup before file exists = %v, want ReadFailure", got)
	}
	if e.Populated() {
		t.Error("engine reports populated after failed read")
	}

	if err := os.WriteFile(path, []byte("x\n"), 0644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	if !e.Exists(ctx, "x") {
		t.Error("cached engine did not populate once the file appeared")
	}
	if !e.Populated() {
		t.Error("engine reports unpopulated after successful read")
	}
}

func TestEmptyQuery(t *testing.T) {
	plain := writeDataFile(t, "apple")
	withBlank := writeDataFile(t, "apple", "", "banana")

	for _, reread := range []bool{true, false} {
		if NewEngine(plain, reread, nil).Exists(context.Background(), "") {
			t.Errorf("reread=%v: empty query matched a file without blank lines", reread)
		}
		if !NewEngine(withBlank, reread, nil).Exists(context.Background(), "") {
			t.Errorf("reread=%v: empty query did not match a literal blank line", reread)
		}
	}
}

func TestConcurrentFirstPopulation(t *testing.T) {
	lines := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, fmt.Sprintf("word_%d", i))
	}
	path := writeDataFile(t, lines...)

	e := NewEngine(path, false, nil)
	ctx := context.Background()

	const goroutines = 32
	var wg sync.WaitGroup
	errs := make(chan string, goroutines)

	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			present := fmt.Sprintf("word_%d", g*7%1000)
			if !e.Exists(ctx, present) {
				errs <- fmt.Sprintf("goroutine %d: %q missing", g, present)
			}
			if e.Exists(ctx, fmt.Sprintf("missing_%d", g)) {
				errs <- fmt.Sprintf("goroutine %d: phantom match", g)
			}
		}(g)
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
	if !e.Populated() {
		t.Error("engine unpopulated after concurrent first queries")
	}
}

func TestIdempotentRepeatedQueries(t *testing.T) {
	path := writeDataFile(t, "alpha", "beta")
	e := NewEngine(path, false, nil)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		if !e.Exists(ctx, "alpha") {
			t.Fatalf("iteration %d: alpha missing", i)
		}
		if e.Exists(ctx, "gamma") {
			t.Fatalf("iteration %d: gamma present", i)
		}
	}
}

func TestModeLabel(t *testing.T) {
	if got := NewEngine("/x", true, nil).Mode(); got != ModeReread {
		t.Errorf("Mode() = %q, want %q", got, ModeReread)
	}
	if got := NewEngine("/x", false, nil).Mode(); got != ModeCached {
		t.Errorf("Mode() = %q, want %q", got, ModeCached)
	}
}
