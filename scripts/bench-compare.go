//go:build ignore

// Package main compares two Go benchmark runs and flags regressions.
// Usage: go run scripts/bench-compare.go [options] <current.txt> <baseline.txt>
//
// Intended for CI: capture `go test -bench . -benchmem` output for the
// branch and for main, then diff ns/op. More than 20% slower fails.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strconv"
)

var (
	outputJSON = flag.Bool("json", false, "Emit the report as JSON")
	threshold  = flag.Float64("threshold", 0.20, "Regression threshold as a fraction of baseline ns/op")
	verbose    = flag.Bool("verbose", false, "List every benchmark, not just changed ones")
	failHard   = flag.Bool("fail", true, "Exit non-zero when a regression is found")
)

// improvementCutoff marks runs worth calling out as faster.
const improvementCutoff = 0.10

// benchLine matches `BenchmarkName-8   1000   1234 ns/op   56 B/op   7 allocs/op`.
var benchLine = regexp.MustCompile(`^(Benchmark\S+)\s+\d+\s+([\d.]+)\s+ns/op`)

type sample struct {
	Name    string  `json:"name"`
	NsPerOp float64 `json:"ns_per_op"`
}

type comparison struct {
	Name     string  `json:"name"`
	Current  float64 `json:"current_ns_per_op"`
	Baseline float64 `json:"baseline_ns_per_op,omitempty"`
	DeltaPct float64 `json:"delta_percent"`
	Verdict  string  `json:"verdict"`
}

type report struct {
	Regressions  int          `json:"regressions"`
	Improvements int          `json:"improvements"`
	Unchanged    int          `json:"unchanged"`
	New          int          `json:"new"`
	Missing      int          `json:"missing"`
	Rows         []comparison `json:"rows"`
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] <current.txt> <baseline.txt>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() < 2 {
		flag.Usage()
		os.Exit(1)
	}

	current, err := parseFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}
	baseline, err := parseFile(flag.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse %s: %v\n", flag.Arg(1), err)
		os.Exit(1)
	}

	rep := diff(current, baseline)

	if *outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			fmt.Fprintf(os.Stderr, "encode report: %v\n", err)
			os.Exit(1)
		}
	} else {
		printReport(rep)
	}

	if *failHard && rep.Regressions > 0 {
		os.Exit(1)
	}
}

func parseFile(path string) (map[string]sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]sample)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m := benchLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		ns, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		out[m[1]] = sample{Name: m[1], NsPerOp: ns}
	}
	return out, sc.Err()
}

func diff(current, baseline map[string]sample) *report {
	rep := &report{}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		curr := current[name]
		base, ok := baseline[name]
		if !ok {
			rep.New++
			if *verbose {
				rep.Rows = append(rep.Rows, comparison{Name: name, Current: curr.NsPerOp, Verdict: "new"})
			}
			continue
		}

		delta := 0.0
		if base.NsPerOp > 0 {
			delta = (curr.NsPerOp - base.NsPerOp) / base.NsPerOp
		}
		row := comparison{Name: name, Current: curr.NsPerOp, Baseline: base.NsPerOp, DeltaPct: delta * 100}

		switch {
		case delta > *threshold:
			row.Verdict = "regression"
			rep.Regressions++
		case delta < -improvementCutoff:
			row.Verdict = "improved"
			rep.Improvements++
		default:
			row.Verdict = "ok"
			rep.Unchanged++
		}

		if row.Verdict != "ok" || *verbose {
			rep.Rows = append(rep.Rows, row)
		}
	}

	for name, base := range baseline {
		if _, ok := current[name]; !ok {
			rep.Missing++
			if *verbose {
				rep.Rows = append(rep.Rows, comparison{Name: name, Baseline: base.NsPerOp, Verdict: "missing"})
			}
		}
	}

	return rep
}

func printReport(rep *report) {
	fmt.Printf("benchmarks: %d regressed, %d improved, %d unchanged, %d new, %d missing\n\n",
		rep.Regressions, rep.Improvements, rep.Unchanged, rep.New, rep.Missing)

	for _, row := range rep.Rows {
		if row.Baseline > 0 {
			fmt.Printf("%-55s %10.0f ns %10.0f ns %+7.1f%%  %s\n",
				row.Name, row.Current, row.Baseline, row.DeltaPct, row.Verdict)
		} else {
			fmt.Printf("%-55s %10.0f ns %10s %8s  %s\n",
				row.Name, row.Current, "-", "-", row.Verdict)
		}
	}

	fmt.Println()
	if rep.Regressions > 0 {
		fmt.Printf("FAIL: %d benchmark(s) slower than baseline by more than %.0f%%\n",
			rep.Regressions, *threshold*100)
	} else {
		fmt.Println("PASS: no significant regressions")
	}
}
