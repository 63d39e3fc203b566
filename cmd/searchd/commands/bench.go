package commands

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/avolpe/searchd/internal/cli/output"
	"github.com/avolpe/searchd/pkg/search"
)

var (
	benchSizes   []int
	benchQueries int
	benchCSV     string
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Benchmark lookup strategies across file sizes",
	Long: `Benchmark lookup strategies against synthetic data files.

For each file size a throwaway data file is generated, then the given number
of queries (half hits, half misses) is timed per strategy. The reread and
cached strategies are the two modes the server actually runs; the regex,
prefix, and suffix scans exist for comparison. Results are printed as a
table and can optionally be written to CSV.

Examples:
  # Default sizes (10k, 100k, 250k, 1M lines), 1000 queries each
  searchd bench

  # Custom sizes and query count
  searchd bench --sizes 10000,500000 --queries 5000

  # Export results to CSV
  searchd bench --csv results.csv`,
	RunE: runBench,
}

func init() {
	benchCmd.Flags().IntSliceVar(&benchSizes, "sizes", []int{10000, 100000, 250000, 1000000}, "File sizes (line counts) to benchmark")
	benchCmd.Flags().IntVar(&benchQueries, "queries", 1000, "Number of queries per mode")
	benchCmd.Flags().StringVar(&benchCSV, "csv", "", "Write results to this CSV file")
}

// benchResult holds the timings for one file size and strategy.
type benchResult struct {
	lines    int
	strategy string
	total    time.Duration
	perOp    time.Duration
	queries  int
}

// lookupStrategy runs one query against the file and reports a match.
type lookupStrategy struct {
	name string
	fn   func(path, query string) bool
}

func runBench(cmd *cobra.Command, args []string) error {
	dir, err := os.MkdirTemp("", "searchd-bench-")
	if err != nil {
		return fmt.Errorf("failed to create benchmark directory: %w", err)
	}
	defer os.RemoveAll(dir)

	ctx := context.Background()
	results := make([]benchResult, 0, len(benchSizes)*5)

	for _, lines := range benchSizes {
		path := filepath.Join(dir, fmt.Sprintf("bench-%d.txt", lines))
		if err := generateDataFile(path, lines); err != nil {
			return fmt.Errorf("failed to generate %d-line file: %w", lines, err)
		}

		queries := generateQueries(lines, benchQueries)

		for _, reread := range []bool{true, false} {
			engine := search.NewEngine(path, reread, nil)

			// Cached mode pays its file read on the first query; issue
			// one warmup so the steady-state cost is what gets measured
			engine.Exists(ctx, queries[0])

			start := time.Now()
			for _, q := range queries {
				engine.Exists(ctx, q)
			}
			total := time.Since(start)

			results = append(results, benchResult{
				lines:    lines,
				strategy: modeLabel(reread),
				total:    total,
				perOp:    total / time.Duration(len(queries)),
				queries:  len(queries),
			})
		}

		// Comparison strategies scan the whole file per query; cap the
		// query count so large sizes finish in reasonable time
		cmpQueries := queries
		if len(cmpQueries) > 100 {
			cmpQueries = cmpQueries[:100]
		}

		for _, strat := range comparisonStrategies() {
			start := time.Now()
			for _, q := range cmpQueries {
				strat.fn(path, q)
			}
			total := time.Since(start)

			results = append(results, benchResult{
				lines:    lines,
				strategy: strat.name,
				total:    total,
				perOp:    total / time.Duration(len(cmpQueries)),
				queries:  len(cmpQueries),
			})
		}
	}

	printBenchResults(results)

	if benchCSV != "" {
		if err := writeBenchCSV(benchCSV, results); err != nil {
			return fmt.Errorf("failed to write CSV: %w", err)
		}
		fmt.Printf("\nResults written to %s\n", benchCSV)
	}

	return nil
}

// comparisonStrategies are scan variants that are not served by the engine
// but show where exact matching sits relative to looser alternatives.
func comparisonStrategies() []lookupStrategy {
	return []lookupStrategy{
		{"regex", func(path, query string) bool {
			re, err := regexp.Compile("(?m)^" + regexp.QuoteMeta(query) + "$")
			if err != nil {
				return false
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return false
			}
			return re.Match(data)
		}},
		{"prefix", func(path, query string) bool {
			return scanLines(path, func(line string) bool {
				return strings.HasPrefix(line, query)
			})
		}},
		{"suffix", func(path, query string) bool {
			return scanLines(path, func(line string) bool {
				return strings.HasSuffix(line, query)
			})
		}},
	}
}

// scanLines streams the file and returns true on the first line for which
// match returns true.
func scanLines(path string, match func(string) bool) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if match(scanner.Text()) {
			return true
		}
	}
	return false
}

// generateDataFile writes semicolon-delimited records keyed by line number
// so queries can target known hits and guaranteed misses.
func generateDataFile(path string, lines int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := 0; i < lines; i++ {
		if _, err := fmt.Fprintf(f, "%d;0;1;26;0;%d;%d;0;\n", i, i%10, i%100); err != nil {
			return err
		}
	}
	return nil
}

// generateQueries returns a shuffled mix of half hits and half misses.
func generateQueries(lines, count int) []string {
	rng := rand.New(rand.NewSource(42))
	queries := make([]string, 0, count)

	for i := 0; i < count/2; i++ {
		n := rng.Intn(lines)
		queries = append(queries, fmt.Sprintf("%d;0;1;26;0;%d;%d;0;", n, n%10, n%100))
	}
	for i := count / 2; i < count; i++ {
		queries = append(queries, fmt.Sprintf("missing-%d", i))
	}

	rng.Shuffle(len(queries), func(i, j int) {
		queries[i], queries[j] = queries[j], queries[i]
	})
	return queries
}

func printBenchResults(results []benchResult) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			fmt.Sprintf("%d", r.lines),
			r.strategy,
			fmt.Sprintf("%d", r.queries),
			r.total.Round(time.Millisecond).String(),
			fmt.Sprintf("%.3f ms", float64(r.perOp.Microseconds())/1000.0),
		})
	}
	output.PrintTable(os.Stdout, []string{"Lines", "Strategy", "Queries", "Total", "Per query"}, rows)
}

func writeBenchCSV(path string, results []benchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"lines", "strategy", "queries", "total_ms", "per_query_ms"}); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			fmt.Sprintf("%d", r.lines),
			r.strategy,
			fmt.Sprintf("%d", r.queries),
			fmt.Sprintf("%.3f", float64(r.total.Microseconds())/1000.0),
			fmt.Sprintf("%.3f", float64(r.perOp.Microseconds())/1000.0),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}
