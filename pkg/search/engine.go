// Package search implements the lookup engine: exact whole-line membership
// tests against a flat text file.
//
// Two modes are supported. Reread mode scans the file on every query and
// always reflects its current content. Cached mode reads the file once into
// an in-memory set on the first query and serves every later query from that
// snapshot; the snapshot is never invalidated, so external file changes are
// deliberately not visible.
package search

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/avolpe/searchd/internal/logger"
	"github.com/avolpe/searchd/internal/telemetry"
)

// Outcome is the internal result of a lookup. ReadFailure is collapsed to
// the same wire verdict as NotFound at the protocol boundary but is kept
// distinct here for logging and tests.
type Outcome int

const (
	Found Outcome = iota
	NotFound
	ReadFailure
)

func (o Outcome) String() string {
	switch o {
	case Found:
		return "found"
	case NotFound:
		return "not_found"
	case ReadFailure:
		return "read_failure"
	default:
		return "unknown"
	}
}

// Exists reports whether the outcome maps to the positive wire verdict.
func (o Outcome) Exists() bool {
	return o == Found
}

// Mode field values used in logs and metrics.
const (
	ModeReread = "reread"
	ModeCached = "cached"
)

// Metrics receives per-lookup observations. Implementations must be safe
// for concurrent use. A nil Metrics disables collection entirely.
type Metrics interface {
	ObserveLookup(mode string, outcome string, duration time.Duration)
}

type lineSet = map[string]struct{}

// Engine answers exact-line membership queries against a single file.
//
// The cached line set is the only state shared between concurrent queries.
// Population happens at most once: the first successful read sweep is
// authoritative and the set is immutable afterwards, so reads need no
// locking. A failed read (file missing at the time of the first query)
// leaves the engine unpopulated and the next query retries.
type Engine struct {
	path    string
	reread  bool
	metrics Metrics

	mu    sync.Mutex // serializes population attempts
	lines atomic.Pointer[lineSet]
}

// NewEngine creates a lookup engine for the given file.
// When rereadOnQuery is true the file is scanned on every query; otherwise
// it is loaded once on first use and cached for the process lifetime.
func NewEngine(path string, rereadOnQuery bool, metrics Metrics) *Engine {
	return &Engine{
		path:    path,
		reread:  rereadOnQuery,
		metrics: metrics,
	}
}

// Mode returns the active lookup mode as a log/metric label.
func (e *Engine) Mode() string {
	if e.reread {
		return ModeReread
	}
	return ModeCached
}

// Exists reports whether query exactly matches some line of the file.
// It never fails: an unreadable file degrades to false for that query.
func (e *Engine) Exists(ctx context.Context, query string) bool {
	return e.Lookup(ctx, query).Exists()
}

// Lookup performs a membership test and returns the typed outcome.
// Every invocation logs its elapsed time and the active mode.
func (e *Engine) Lookup(ctx context.Context, query string) Outcome {
	ctx, span := telemetry.StartSpan(ctx, "search.Lookup")
	defer span.End()

	start := time.Now()

	var outcome Outcome
	if e.reread {
		outcome = e.scanFile(ctx, query)
	} else {
		outcome = e.cachedLookup(ctx, query)
	}

	elapsed := time.Since(start)
	mode := e.Mode()

	span.SetAttributes(
		attribute.String("search.mode", mode),
		attribute.String("search.outcome", outcome.String()),
	)

	if e.metrics != nil {
		e.metrics.ObserveLookup(mode, outcome.String(), elapsed)
	}

	logger.DebugCtx(ctx, "query processed",
		logger.KeyQuery, query,
		logger.KeyMode, mode,
		logger.KeyDuration, logger.Duration(start),
		logger.KeyVerdict, outcome.String(),
	)

	return outcome
}

// scanFile streams the file line by line, comparing each trimmed line
// against the query. First exact match wins.
func (e *Engine) scanFile(ctx context.Context, query string) Outcome {
	f, err := os.Open(e.path)
	if err != nil {
		logger.ErrorCtx(ctx, "data file unreadable",
			logger.KeyFile, e.path,
			logger.KeyError, err,
		)
		return ReadFailure
	}
	defer f.Close()

	found := false
	err = eachLine(f, func(line string) bool {
		if strings.TrimSpace(line) == query {
			found = true
			return false
		}
		return true
	})
	if err != nil {
		logger.ErrorCtx(ctx, "data file read error",
			logger.KeyFile, e.path,
			logger.KeyError, err,
		)
		return ReadFailure
	}

	if found {
		return Found
	}
	return NotFound
}

// cachedLookup serves the query from the in-memory snapshot, populating it
// on first use.
func (e *Engine) cachedLookup(ctx context.Context, query string) Outcome {
	set := e.lines.Load()
	if set == nil {
		var err error
		set, err = e.populate()
		if err != nil {
			logger.ErrorCtx(ctx, "data file unreadable",
				logger.KeyFile, e.path,
				logger.KeyError, err,
			)
			return ReadFailure
		}
	}

	if _, ok := (*set)[query]; ok {
		return Found
	}
	return NotFound
}

// populate reads the whole file into a set of trimmed lines. Concurrent
// first-time callers serialize on the mutex; only one read sweep becomes
// authoritative and later callers observe it through the atomic pointer.
func (e *Engine) populate() (*lineSet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// Another caller may have populated while we waited on the lock
	if set := e.lines.Load(); set != nil {
		return set, nil
	}

	f, err := os.Open(e.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(lineSet)
	err = eachLine(f, func(line string) bool {
		set[strings.TrimSpace(line)] = struct{}{}
		return true
	})
	if err != nil {
		return nil, err
	}

	e.lines.Store(&set)
	logger.Info("line set cached",
		logger.KeyFile, e.path,
		"lines", len(set),
	)
	return &set, nil
}

// Populated reports whether the cached line set has been built.
// Always false in reread mode.
func (e *Engine) Populated() bool {
	return e.lines.Load() != nil
}

// eachLine streams r line by line, passing each line (newline included)
// to fn until fn returns false or the input ends. The backing file is
// untrusted input and may contain lines of any length; an over-long line
// must not abort the sweep, so no fixed line buffer is imposed.
func eachLine(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			if !fn(line) {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}
