package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"apidiff/internal/capture"
	"apidiff/internal/cli"
	"apidiff/internal/compare"
	"apidiff/internal/config"
	"apidiff/internal/extract"
	"apidiff/internal/har"
	"apidiff/internal/input"
	"apidiff/internal/models"
	"apidiff/internal/output"
	"apidiff/internal/replay"
	"apidiff/internal/report"
	"apidiff/internal/rules"
	"apidiff/internal/stats"
)

func main() {
	os.Exit(int(run()))
}

func run() cli.ExitCode {
	args, code := cli.ParseArgs()
	if code != cli.ExitOK {
		return code
	}

	return execute(args)
}

func execute(args *cli.Args) cli.ExitCode {
	switch {
	case args.CaptureMode:
		return runCapture(args)
	case args.Collect:
		return runCollect(args)
	default:
		return runCompare(args)
	}
}

func runCapture(args *cli.Args) cli.ExitCode {
	fmt.Printf("Starting reverse proxy on %s, forwarding to %s...\n", args.ListenAddr, args.Upstream)

	cfg := &capture.Config{
		ListenAddr: args.ListenAddr,
		Upstream:   args.Upstream,
		OutputFile: args.CaptureOut,
	}

	if err := capture.Start(cfg); err != nil {
		return handleError("Failed to start reverse proxy", err)
	}

	return cli.ExitOK
}

func runCollect(args *cli.Args) cli.ExitCode {
	cfg, code := loadConfig(args)
	if code != cli.ExitOK {
		return code
	}

	side, meta, err := loadInput(args.OldFile, args.Format, cfg)
	if err != nil {
		return handleError("Failed to read input file", err)
	}

	records := input.Apply(side.Records, filterFrom(args))
	printParseWarnings("input", side.Warnings)

	responses := replay.Replay(records, replayOptions(args, args.Target))
	attachResponses(records, responses)

	if meta == (extract.Metadata{}) {
		meta = extract.CollectMetadata(records)
	}

	id, err := output.SaveCollected(records, meta, args.SaveFile)
	if err != nil {
		return handleError("Failed to save collected run", err)
	}

	fmt.Printf("Collected %d request(s) into %s (run %s)\n", len(records), args.SaveFile, id)
	printLatency(records)

	return cli.ExitOK
}

func printLatency(records []models.RequestRecord) {
	var latencies []int64
	for i := range records {
		if resp := records[i].Response; resp != nil && resp.Err == "" {
			latencies = append(latencies, resp.LatencyMs)
		}
	}
	if len(latencies) == 0 {
		return
	}

	s := stats.Latency(latencies)
	fmt.Printf("Latency (ms): p50=%d p90=%d p95=%d p99=%d min=%d max=%d avg=%d\n",
		s.P50, s.P90, s.P95, s.P99, s.Min, s.Max, s.Avg)
}

func runCompare(args *cli.Args) cli.ExitCode {
	cfg, code := loadConfig(args)
	if code != cli.ExitOK {
		return code
	}

	oldSide, oldMeta, err := loadInput(args.OldFile, args.Format, cfg)
	if err != nil {
		return handleError("Failed to read old export", err)
	}

	newSide, newMeta, err := loadInput(args.NewFile, args.Format, cfg)
	if err != nil {
		return handleError("Failed to read new export", err)
	}

	filter := filterFrom(args)
	oldSide.Records = input.Apply(oldSide.Records, filter)
	newSide.Records = input.Apply(newSide.Records, filter)

	if args.OldTarget != "" {
		attachResponses(oldSide.Records, replay.Replay(oldSide.Records, replayOptions(args, args.OldTarget)))
	}
	if args.NewTarget != "" {
		attachResponses(newSide.Records, replay.Replay(newSide.Records, replayOptions(args, args.NewTarget)))
	}

	result := compare.Compare(oldSide.Records, newSide.Records, compare.Options{
		Config:         cfg,
		IgnoreVolatile: args.IgnoreVolatile,
	})
	result.OldWarnings = oldSide.Warnings
	result.NewWarnings = newSide.Warnings

	if meta := extract.CollectMetadata(oldSide.Records); oldMeta == (extract.Metadata{}) {
		oldMeta = meta
	}
	if meta := extract.CollectMetadata(newSide.Records); newMeta == (extract.Metadata{}) {
		newMeta = meta
	}

	doc := output.Build(result, oldMeta, newMeta)

	if args.Markdown != "" {
		if err := report.GenerateMarkdown(doc, args.OldFile, args.NewFile, args.Markdown); err != nil {
			return handleError("Failed to generate Markdown report", err)
		}
	}

	if args.OutputFile != "" {
		if err := output.WriteJSON(doc, args.OutputFile); err != nil {
			return handleError("Failed to write result file", err)
		}
	}

	if args.RulesFile != "" {
		return runRules(args, result, doc)
	}

	if args.OutputJSON {
		if err := output.WriteJSON(doc, ""); err != nil {
			return handleError("Failed to encode result", err)
		}
	} else {
		output.PrintSummary(os.Stdout, result, !args.SummaryOnly)
	}

	if result.HasDifferences() {
		return cli.ExitDiffs
	}

	return cli.ExitOK
}

func runRules(args *cli.Args, result *compare.Result, doc *output.Document) cli.ExitCode {
	rulesConfig, err := rules.ParseFile(args.RulesFile)
	if err != nil {
		return handleError("Failed to load rules", err)
	}

	evalResult := rules.Evaluate(rulesConfig, result)

	if args.OutputJSON {
		return outputRulesJSON(doc, evalResult)
	}

	fmt.Fprint(os.Stderr, rules.Format(evalResult))

	return rules.GetExitCode(evalResult)
}

func outputRulesJSON(doc *output.Document, evalResult *rules.EvaluationResult) cli.ExitCode {
	formatted, err := rules.FormatJSON(evalResult)
	if err != nil {
		return handleError("Failed to encode rule evaluation", err)
	}

	if err := output.WriteJSON(doc, ""); err != nil {
		return handleError("Failed to encode result", err)
	}
	fmt.Println(formatted)

	return rules.GetExitCode(evalResult)
}

func loadConfig(args *cli.Args) (*config.Config, cli.ExitCode) {
	cfg := config.Default()

	if args.ConfigFile != "" {
		loaded, err := config.Load(args.ConfigFile)
		if err != nil {
			return nil, handleError("Failed to load config", err)
		}
		cfg = loaded
	}

	if args.CallMarker != "" {
		cfg.CallMarker = args.CallMarker
	}

	if err := cfg.AddIgnores(args.IgnoreFields, args.IgnorePatterns, args.IgnoreHeaders); err != nil {
		return nil, handleError("Invalid ignore pattern", err)
	}

	return cfg, cli.ExitOK
}

// loadInput reads one comparison side, detecting the file format when the
// flag says auto.
func loadInput(path, format string, cfg *config.Config) (extract.Result, extract.Metadata, error) {
	if format == "auto" {
		detected, err := detectFormat(path)
		if err != nil {
			return extract.Result{}, extract.Metadata{}, err
		}
		format = detected
	}

	switch format {
	case "fetch":
		data, err := os.ReadFile(path)
		if err != nil {
			return extract.Result{}, extract.Metadata{}, fmt.Errorf("failed to read export: %w", err)
		}
		marker := cfg.CallMarker
		if marker == "" {
			marker = extract.DefaultCallMarker
		}
		res := extract.ExtractWithMarker(string(data), marker)
		return res, extract.Metadata{}, nil
	case "har":
		res, err := har.ParseFile(path, cfg)
		return res, extract.Metadata{}, err
	case "collected":
		return output.LoadCollected(path)
	case "capture":
		res, err := capture.LoadFile(path)
		return res, extract.Metadata{}, err
	default:
		return extract.Result{}, extract.Metadata{}, fmt.Errorf("unknown format %q", format)
	}
}

func detectFormat(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".har") {
		return "har", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read export: %w", err)
	}

	switch {
	case output.IsCollectedFile(data):
		return "collected", nil
	case capture.IsCaptureFile(data):
		return "capture", nil
	default:
		return "fetch", nil
	}
}

func filterFrom(args *cli.Args) input.Filter {
	return input.Filter{
		Method: args.FilterMethod,
		Path:   args.FilterPath,
		Limit:  args.Limit,
	}
}

func replayOptions(args *cli.Args, target string) replay.Options {
	return replay.Options{
		Target:      target,
		Timeout:     time.Duration(args.Timeout) * time.Millisecond,
		Concurrency: args.Concurrency,
		Delay:       time.Duration(args.Delay) * time.Millisecond,
		Insecure:    args.Insecure,
		Progress:    args.ProgressBar,
	}
}

func attachResponses(records []models.RequestRecord, responses []models.ResponseRecord) {
	for i := range records {
		if i < len(responses) {
			resp := responses[i]
			records[i].Response = &resp
		}
	}
}

func handleError(msg string, err error) cli.ExitCode {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	return cli.ExitRuntime
}

func printParseWarnings(side string, warnings []models.Warning) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning (%s): %s\n", side, w)
	}
}
