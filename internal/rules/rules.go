// Package rules evaluates a YAML rule file against a comparison result, for
// gating CI on structural drift between the two runs.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"apidiff/internal/cli"
	"apidiff/internal/compare"
	"apidiff/internal/diff"
	"apidiff/internal/models"
)

type Config struct {
	Rules Rules `yaml:"rules"`
}

// Rules are enforced only when set; a nil pointer means "no opinion".
type Rules struct {
	MaxTypeMismatches     *int  `yaml:"max_type_mismatches"`
	MaxBodyDiffs          *int  `yaml:"max_body_diffs"`
	AllowRemovedEndpoints *bool `yaml:"allow_removed_endpoints"`
	AllowAddedEndpoints   *bool `yaml:"allow_added_endpoints"`
	AllowQueryChanges     *bool `yaml:"allow_query_changes"`
	AllowStatusChanges    *bool `yaml:"allow_status_changes"`

	EndpointRules []EndpointRule `yaml:"endpoint_rules"`
}

// EndpointRule narrows thresholds to pairs whose path contains Path (and
// method matches, when given).
type EndpointRule struct {
	Path              string `yaml:"path"`
	Method            string `yaml:"method"`
	MaxTypeMismatches *int   `yaml:"max_type_mismatches"`
	MaxBodyDiffs      *int   `yaml:"max_body_diffs"`
}

type Failure struct {
	Rule    string         `json:"rule"`
	Scope   string         `json:"scope"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type EvaluationResult struct {
	Passed   bool      `json:"passed"`
	Failures []Failure `json:"failures"`
}

// Evaluate checks every configured rule against the result. Failures come
// back sorted by scope then rule name so output is stable.
func Evaluate(config *Config, result *compare.Result) *EvaluationResult {
	eval := &EvaluationResult{Passed: true, Failures: []Failure{}}
	rules := &config.Rules

	if rules.MaxTypeMismatches != nil {
		if f := checkTypeMismatches(*rules.MaxTypeMismatches, result.Matched, "global"); f != nil {
			eval.Failures = append(eval.Failures, *f)
		}
	}

	if rules.MaxBodyDiffs != nil {
		if f := checkBodyDiffs(*rules.MaxBodyDiffs, result.Matched, "global"); f != nil {
			eval.Failures = append(eval.Failures, *f)
		}
	}

	if rules.AllowRemovedEndpoints != nil && !*rules.AllowRemovedEndpoints && len(result.OnlyInOld) > 0 {
		eval.Failures = append(eval.Failures, Failure{
			Rule:    "removed_endpoints",
			Scope:   "global",
			Message: fmt.Sprintf("%d endpoint(s) present in the old run are gone from the new run", len(result.OnlyInOld)),
			Details: map[string]any{"endpoints": endpointNames(result.OnlyInOld)},
		})
	}

	if rules.AllowAddedEndpoints != nil && !*rules.AllowAddedEndpoints && len(result.OnlyInNew) > 0 {
		eval.Failures = append(eval.Failures, Failure{
			Rule:    "added_endpoints",
			Scope:   "global",
			Message: fmt.Sprintf("%d endpoint(s) appear only in the new run", len(result.OnlyInNew)),
			Details: map[string]any{"endpoints": endpointNames(result.OnlyInNew)},
		})
	}

	if rules.AllowQueryChanges != nil && !*rules.AllowQueryChanges {
		if f := checkQueryChanges(result.Matched); f != nil {
			eval.Failures = append(eval.Failures, *f)
		}
	}

	if rules.AllowStatusChanges != nil && !*rules.AllowStatusChanges {
		if f := checkStatusChanges(result.Matched); f != nil {
			eval.Failures = append(eval.Failures, *f)
		}
	}

	for i := range rules.EndpointRules {
		rule := &rules.EndpointRules[i]
		scope := endpointScope(rule)
		selected := selectPairs(result.Matched, rule)

		if rule.MaxTypeMismatches != nil {
			if f := checkTypeMismatches(*rule.MaxTypeMismatches, selected, scope); f != nil {
				eval.Failures = append(eval.Failures, *f)
			}
		}
		if rule.MaxBodyDiffs != nil {
			if f := checkBodyDiffs(*rule.MaxBodyDiffs, selected, scope); f != nil {
				eval.Failures = append(eval.Failures, *f)
			}
		}
	}

	sort.Slice(eval.Failures, func(i, j int) bool {
		if eval.Failures[i].Scope != eval.Failures[j].Scope {
			return eval.Failures[i].Scope < eval.Failures[j].Scope
		}
		return eval.Failures[i].Rule < eval.Failures[j].Rule
	})

	eval.Passed = len(eval.Failures) == 0

	return eval
}

func checkTypeMismatches(max int, pairs []compare.MatchedPair, scope string) *Failure {
	count := 0
	var affected []string

	for i := range pairs {
		n := countKind(pairs[i].BodyDiff, diff.TypeMismatch) +
			countKind(pairs[i].QueryDiff, diff.TypeMismatch)
		if pairs[i].Response != nil {
			n += countKind(pairs[i].Response.BodyDiff, diff.TypeMismatch)
		}
		if n > 0 {
			count += n
			affected = append(affected, pairName(&pairs[i]))
		}
	}

	if count <= max {
		return nil
	}

	return &Failure{
		Rule:    "type_mismatches",
		Scope:   scope,
		Message: fmt.Sprintf("Found %d type mismatch(es), maximum allowed is %d", count, max),
		Details: map[string]any{
			"count":       count,
			"max_allowed": max,
			"affected":    affected,
		},
	}
}

func checkBodyDiffs(max int, pairs []compare.MatchedPair, scope string) *Failure {
	count := 0
	var affected []string

	for i := range pairs {
		n := len(pairs[i].BodyDiff)
		if len(pairs[i].BodyText) > 0 {
			n++
		}
		if n > 0 {
			count += n
			affected = append(affected, pairName(&pairs[i]))
		}
	}

	if count <= max {
		return nil
	}

	return &Failure{
		Rule:    "body_diffs",
		Scope:   scope,
		Message: fmt.Sprintf("Found %d body difference(s), maximum allowed is %d", count, max),
		Details: map[string]any{
			"count":       count,
			"max_allowed": max,
			"affected":    affected,
		},
	}
}

func checkQueryChanges(pairs []compare.MatchedPair) *Failure {
	count := 0
	var affected []string

	for i := range pairs {
		if len(pairs[i].QueryDiff) > 0 {
			count += len(pairs[i].QueryDiff)
			affected = append(affected, pairName(&pairs[i]))
		}
	}

	if count == 0 {
		return nil
	}

	return &Failure{
		Rule:    "query_changes",
		Scope:   "global",
		Message: fmt.Sprintf("Found %d query parameter change(s) (query changes not allowed)", count),
		Details: map[string]any{"count": count, "affected": affected},
	}
}

func checkStatusChanges(pairs []compare.MatchedPair) *Failure {
	var affected []string

	for i := range pairs {
		if rc := pairs[i].Response; rc != nil && rc.StatusChanged {
			affected = append(affected, fmt.Sprintf("%s (%d -> %d)",
				pairName(&pairs[i]), rc.OldStatus, rc.NewStatus))
		}
	}

	if len(affected) == 0 {
		return nil
	}

	return &Failure{
		Rule:    "status_changes",
		Scope:   "global",
		Message: fmt.Sprintf("Found %d response status change(s) (status changes not allowed)", len(affected)),
		Details: map[string]any{"affected": affected},
	}
}

func selectPairs(pairs []compare.MatchedPair, rule *EndpointRule) []compare.MatchedPair {
	var out []compare.MatchedPair
	for i := range pairs {
		if !strings.Contains(pairs[i].Old.Path, rule.Path) {
			continue
		}
		if rule.Method != "" && !strings.EqualFold(pairs[i].Old.Method, rule.Method) {
			continue
		}
		out = append(out, pairs[i])
	}

	return out
}

func endpointScope(rule *EndpointRule) string {
	if rule.Method != "" {
		return strings.ToUpper(rule.Method) + " " + rule.Path
	}

	return rule.Path
}

func countKind(entries []diff.Entry, kind diff.Kind) int {
	n := 0
	for _, e := range entries {
		if e.Kind == kind {
			n++
		}
	}

	return n
}

func pairName(pair *compare.MatchedPair) string {
	return pair.Old.Method + " " + pair.Old.Path
}

func endpointNames(records []models.RequestRecord) []string {
	var out []string
	for _, r := range records {
		out = append(out, r.Method+" "+r.Path)
	}

	return out
}

// GetExitCode maps an evaluation to the process exit code.
func GetExitCode(result *EvaluationResult) cli.ExitCode {
	if result.Passed {
		return cli.ExitOK
	}

	return cli.ExitRules
}
