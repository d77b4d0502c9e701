// Package cli parses command-line arguments for the three modes: compare
// (default, two export files), collect (replay one export and save it), and
// capture (reverse-proxy recording).
package cli

import (
	"flag"
	"fmt"
	"os"
)

type ExitCode int

const (
	ExitOK ExitCode = iota
	ExitDiffs
	ExitRules
	ExitInvalid
	ExitRuntime
)

type Args struct {
	// Compare mode: the two export files, old then new.
	OldFile string
	NewFile string

	Format     string // auto, fetch, har, collected, capture
	ConfigFile string
	RulesFile  string

	OutputJSON bool
	OutputFile string
	Markdown   string

	SummaryOnly bool

	CallMarker     string
	IgnoreVolatile bool
	IgnoreFields   []string
	IgnorePatterns []string
	IgnoreHeaders  []string

	FilterMethod string
	FilterPath   string
	Limit        int

	// Replay of matched requests during compare, one target per side.
	OldTarget string
	NewTarget string

	// Collect mode: replay one export and save requests + responses.
	Collect  bool
	SaveFile string
	Target   string

	Timeout     int64
	Concurrency int
	Delay       int64
	Insecure    bool
	ProgressBar bool

	// Capture mode: reverse proxy recording live traffic.
	CaptureMode bool
	ListenAddr  string
	Upstream    string
	CaptureOut  string
}

func ParseArgs() (*Args, ExitCode) {
	args := &Args{}

	flag.StringVar(&args.Format, "format", "auto", "Input format: auto, fetch, har, collected or capture")
	flag.StringVar(&args.ConfigFile, "config", "", "Path to a comparison config YAML file")
	flag.StringVar(&args.RulesFile, "rules", "", "Path to a rules YAML file evaluated against the result")

	flag.BoolVar(&args.OutputJSON, "json", false, "Print the full result document as JSON")
	flag.StringVar(&args.OutputFile, "output", "", "Write the result document JSON to a file")
	flag.StringVar(&args.Markdown, "markdown", "", "Write a Markdown report to a file")
	flag.BoolVar(&args.SummaryOnly, "summary-only", false, "Suppress per-endpoint lines in the terminal summary")

	flag.StringVar(&args.CallMarker, "call-marker", "", "Invocation token scanned for in fetch exports (default from config)")
	flag.BoolVar(&args.IgnoreVolatile, "ignore-volatile", true, "Ignore configured volatile fields in body diffs")

	var ignoreFields, ignorePatterns, ignoreHeaders stringSlice
	flag.Var(&ignoreFields, "ignore-field", "Body field to ignore in comparison (can be repeated)")
	flag.Var(&ignorePatterns, "ignore-pattern", "Regex for body fields to ignore (can be repeated)")
	flag.Var(&ignoreHeaders, "ignore-header", "Header to exclude from comparison (can be repeated)")

	flag.StringVar(&args.FilterMethod, "filter-method", "", "Keep only requests with this method (e.g. GET)")
	flag.StringVar(&args.FilterPath, "filter-path", "", "Keep only requests whose path contains this substring")
	flag.IntVar(&args.Limit, "limit", 0, "Cap the number of requests taken from each export")

	flag.StringVar(&args.OldTarget, "old-target", "", "Replay the old run against this base URL before comparing responses")
	flag.StringVar(&args.NewTarget, "new-target", "", "Replay the new run against this base URL before comparing responses")

	flag.BoolVar(&args.Collect, "collect", false, "Collect mode: replay one export and save requests + responses")
	flag.StringVar(&args.SaveFile, "save", "collected.json", "Collect mode output path")
	flag.StringVar(&args.Target, "target", "", "Collect mode replay base URL (default: recorded URLs)")

	flag.Int64Var(&args.Timeout, "timeout", 10000, "Replay timeout per request (ms)")
	flag.IntVar(&args.Concurrency, "concurrency", 4, "Concurrent replay requests")
	flag.Int64Var(&args.Delay, "delay", 0, "Delay between replay request starts (ms)")
	flag.BoolVar(&args.Insecure, "insecure", false, "Skip TLS verification on replay")
	flag.BoolVar(&args.ProgressBar, "progress", true, "Show replay progress bar")

	flag.BoolVar(&args.CaptureMode, "capture", false, "Capture mode: reverse proxy recording live traffic")
	flag.StringVar(&args.ListenAddr, "listen", ":8080", "Capture proxy listen address")
	flag.StringVar(&args.Upstream, "upstream", "", "Capture proxy upstream base URL")
	flag.StringVar(&args.CaptureOut, "capture-out", "captured.json", "Capture output path (JSON lines)")

	flag.Parse()

	args.IgnoreFields = ignoreFields
	args.IgnorePatterns = ignorePatterns
	args.IgnoreHeaders = ignoreHeaders

	positional := flag.Args()

	if args.CaptureMode {
		if args.Upstream == "" {
			fmt.Fprintln(os.Stderr, "Error: -upstream is required in capture mode")
			flag.Usage()
			return nil, ExitInvalid
		}
		return args, ExitOK
	}

	if args.Collect {
		if len(positional) != 1 {
			fmt.Fprintln(os.Stderr, "Error: collect mode takes exactly one export file")
			flag.Usage()
			return nil, ExitInvalid
		}
		args.OldFile = positional[0]
		return args, ExitOK
	}

	if len(positional) != 2 {
		fmt.Fprintln(os.Stderr, "Error: expected two export files: old new")
		flag.Usage()
		return nil, ExitInvalid
	}
	args.OldFile = positional[0]
	args.NewFile = positional[1]

	return args, ExitOK
}

type stringSlice []string

func (s *stringSlice) String() string {
	return fmt.Sprintf("%v", *s)
}

func (s *stringSlice) Set(value string) error {
	*s = append(*s, value)
	return nil
}
