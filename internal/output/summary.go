package output

import (
	"fmt"
	"io"

	"apidiff/internal/compare"
	"apidiff/internal/models"
)

const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorCyan   = "\033[36m"
	ColorBold   = "\033[1m"
)

// PrintSummary writes the human-readable comparison summary.
func PrintSummary(w io.Writer, result *compare.Result, verbose bool) {
	fmt.Fprintln(w, ColorBold+"==== Comparison Summary ===="+ColorReset)

	s := result.Summary
	fmt.Fprintf(w, "Old requests: %d\nNew requests: %d\nMatched: %s%d%s\n",
		s.TotalOld, s.TotalNew, ColorCyan, s.Matched, ColorReset)

	if s.WithDifferences > 0 {
		fmt.Fprintf(w, "With differences: %s%d%s\n", ColorRed, s.WithDifferences, ColorReset)
	} else if s.Matched > 0 {
		fmt.Fprintf(w, "With differences: %s0%s\n", ColorGreen, ColorReset)
	}

	if s.OnlyInOld > 0 {
		fmt.Fprintf(w, "Only in old: %s%d%s\n", ColorYellow, s.OnlyInOld, ColorReset)
	}
	if s.OnlyInNew > 0 {
		fmt.Fprintf(w, "Only in new: %s%d%s\n", ColorYellow, s.OnlyInNew, ColorReset)
	}

	if verbose {
		printPairs(w, result)
	}

	printWarnings(w, "old", result.OldWarnings)
	printWarnings(w, "new", result.NewWarnings)
}

func printPairs(w io.Writer, result *compare.Result) {
	fmt.Fprintln(w)

	for i := range result.Matched {
		pair := &result.Matched[i]

		status := ColorGreen + "identical" + ColorReset
		if pair.HasDifferences() {
			status = ColorRed + fmt.Sprintf("%d difference(s)", countDifferences(pair)) + ColorReset
		}

		fmt.Fprintf(w, "  %s %s: %s\n", pair.Old.Method, pair.Old.Path, status)

		if pair.Response != nil && pair.Response.Unavailable != "" {
			fmt.Fprintf(w, "    %sresponse comparison unavailable: %s%s\n",
				ColorYellow, pair.Response.Unavailable, ColorReset)
		}
	}

	for _, r := range result.OnlyInOld {
		fmt.Fprintf(w, "  %s%s %s: only in old%s\n", ColorYellow, r.Method, r.Path, ColorReset)
	}
	for _, r := range result.OnlyInNew {
		fmt.Fprintf(w, "  %s%s %s: only in new%s\n", ColorYellow, r.Method, r.Path, ColorReset)
	}
}

func countDifferences(pair *compare.MatchedPair) int {
	n := len(pair.QueryDiff) + len(pair.HeaderDiff) + len(pair.BodyDiff)
	if len(pair.BodyText) > 0 {
		n++
	}
	if rc := pair.Response; rc.HasDifferences() {
		n += len(rc.BodyDiff)
		if len(rc.BodyText) > 0 {
			n++
		}
		if rc.StatusChanged {
			n++
		}
	}

	return n
}

func printWarnings(w io.Writer, side string, warnings []models.Warning) {
	for _, warning := range warnings {
		fmt.Fprintf(w, "%sWarning (%s export): %s%s\n", ColorYellow, side, warning, ColorReset)
	}
}
