// bench - CIF codec benchmark runner
//
// Parses every .cif file in a corpus directory under both tokenizer
// strategies, verifies the strategies agree, and times parsing and
// serialization.
//
// Output: CSV and a stdout summary.
//
// Usage: bench [corpusdir]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dewiedem/salmagundi/cif"
	"github.com/dewiedem/salmagundi/cifio"
)

type caseResult struct {
	Name      string
	Bytes     int
	Grammar   cif.Grammar
	ParseNs   int64
	FastNs    int64
	WriteNs   int64
	ParseMBps float64
	FastMBps  float64
}

func main() {
	dir := ""
	if len(os.Args) > 1 {
		dir = os.Args[1]
	} else {
		dir = findCorpus()
	}
	if dir == "" {
		fmt.Fprintln(os.Stderr, "Cannot find a corpus directory; pass one as the first argument")
		os.Exit(1)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot read corpus: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "CIF Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "====================\n")
	fmt.Fprintf(os.Stderr, "Corpus: %s\n\n", dir)

	var results []caseResult
	var totalBytes int
	mismatches := 0

	for _, e := range entries {
		if !strings.HasSuffix(e.Name(), ".cif") {
			continue
		}
		text, err := cifio.ReadFile(filepath.Join(dir, e.Name()), cifio.Options{Permissive: true})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", e.Name(), err)
			continue
		}
		g, err := cif.DetectGrammar(text)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", e.Name(), err)
			continue
		}
		opts := cif.ParseOptions{Grammar: g}

		f, err := cif.ParseWithOptions(text, opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: %v\n", e.Name(), err)
			continue
		}

		// Cross-check the strategies before timing anything.
		fastOpts := opts
		fastOpts.Strategy = cif.StrategyFast
		ff, err := cif.ParseWithOptions(text, fastOpts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "MISMATCH %s: fast strategy failed: %v\n", e.Name(), err)
			mismatches++
			continue
		}
		out, err := cif.WriteString(f, cif.WriteOptions{Grammar: g})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Skip %s: write: %v\n", e.Name(), err)
			continue
		}
		outFast, err := cif.WriteString(ff, cif.WriteOptions{Grammar: g})
		if err != nil || out != outFast {
			fmt.Fprintf(os.Stderr, "MISMATCH %s: strategies disagree\n", e.Name())
			mismatches++
			continue
		}

		n := reps(len(text))
		parseNs := timeIt(n, func() {
			_, _ = cif.ParseWithOptions(text, opts)
		})
		fastNs := timeIt(n, func() {
			_, _ = cif.ParseWithOptions(text, fastOpts)
		})
		writeNs := timeIt(n, func() {
			_, _ = cif.WriteString(f, cif.WriteOptions{Grammar: g})
		})

		results = append(results, caseResult{
			Name:      strings.TrimSuffix(e.Name(), ".cif"),
			Bytes:     len(text),
			Grammar:   g,
			ParseNs:   parseNs,
			FastNs:    fastNs,
			WriteNs:   writeNs,
			ParseMBps: mbps(len(text), parseNs),
			FastMBps:  mbps(len(text), fastNs),
		})
		totalBytes += len(text)
	}

	if len(results) == 0 {
		fmt.Fprintln(os.Stderr, "No usable corpus files")
		os.Exit(1)
	}

	csvPath := "bench_results.csv"
	if csvFile, err := os.Create(csvPath); err == nil {
		writeCSV(csvFile, results)
		csvFile.Close()
		fmt.Fprintf(os.Stderr, "CSV written to: %s\n", csvPath)
	}

	// Slowest files first, so regressions stand out.
	sorted := make([]caseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ParseMBps < sorted[j].ParseMBps
	})

	fmt.Printf("\n=== SUMMARY ===\n")
	fmt.Printf("Cases:       %d (%d bytes)\n", len(results), totalBytes)
	fmt.Printf("Mismatches:  %d\n\n", mismatches)
	fmt.Printf("%-24s %8s %8s %12s %12s %12s\n", "case", "bytes", "grammar", "parse MB/s", "fast MB/s", "write ns")
	for _, r := range sorted {
		fmt.Printf("%-24s %8d %8s %12.1f %12.1f %12d\n",
			truncateName(r.Name, 24), r.Bytes, r.Grammar, r.ParseMBps, r.FastMBps, r.WriteNs)
	}

	if mismatches > 0 {
		os.Exit(1)
	}
}

// reps picks an iteration count that keeps per-file timing above noise
// without making large corpora crawl.
func reps(size int) int {
	switch {
	case size < 4<<10:
		return 400
	case size < 256<<10:
		return 50
	default:
		return 5
	}
}

// timeIt returns the average time of n runs of fn, in nanoseconds.
func timeIt(n int, fn func()) int64 {
	start := time.Now()
	for i := 0; i < n; i++ {
		fn()
	}
	return time.Since(start).Nanoseconds() / int64(n)
}

func mbps(bytes int, ns int64) float64 {
	if ns <= 0 {
		return 0
	}
	return float64(bytes) / float64(ns) * 1e9 / (1 << 20)
}

func findCorpus() string {
	paths := []string{
		"cif/testdata",
		"testdata",
		"../cif/testdata",
	}
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && fi.IsDir() {
			return p
		}
	}
	return ""
}

func writeCSV(w io.Writer, results []caseResult) {
	fmt.Fprintln(w, "name,bytes,grammar,parse_ns,fast_ns,write_ns,parse_mbps,fast_mbps")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%s,%d,%d,%d,%.1f,%.1f\n",
			r.Name, r.Bytes, r.Grammar, r.ParseNs, r.FastNs, r.WriteNs, r.ParseMBps, r.FastMBps)
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
