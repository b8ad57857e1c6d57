package lint

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chriskevini/kairon/workflow"
)

// Status is the three-way outcome of validating one document.
type Status int

const (
	// Pass means no errors and no warnings.
	Pass Status = iota
	// Warn means no errors but at least one warning.
	Warn
	// Fail means at least one error.
	Fail
)

func (s Status) String() string {
	switch s {
	case Pass:
		return "PASS"
	case Warn:
		return "WARN"
	case Fail:
		return "FAIL"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Result accumulates everything found while validating one document. It is
// created fresh per document per run and never persisted.
type Result struct {
	Name        string       // document display name
	Path        string       // file path, "" for in-memory documents
	Diagnostics []Diagnostic // all findings, rule order
	DeadNodes   []string     // names of nodes unreachable from any trigger, sorted
}

// Errors returns the error-severity diagnostics.
func (r *Result) Errors() []Diagnostic { return r.filter(Error) }

// Warnings returns the warning-severity diagnostics.
func (r *Result) Warnings() []Diagnostic { return r.filter(Warning) }

// Infos returns the informational diagnostics.
func (r *Result) Infos() []Diagnostic { return r.filter(Info) }

func (r *Result) filter(sev Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// Passed reports whether the document produced no error diagnostics.
func (r *Result) Passed() bool { return len(r.Errors()) == 0 }

// Status computes the three-way status used for reporting and exit codes.
func (r *Result) Status() Status {
	switch {
	case len(r.Errors()) > 0:
		return Fail
	case len(r.Warnings()) > 0:
		return Warn
	default:
		return Pass
	}
}

// Analyze runs the full per-document pipeline: dead-code detection plus all
// rules, merged into one Result.
//
// Archived documents are skipped entirely: the only output is an
// informational note. A document with no triggers gets a warning, not an
// error; some documents are pure libraries.
func Analyze(doc *workflow.Document, reg *workflow.Registry, extra ...Rule) *Result {
	result := &Result{Name: doc.DisplayName(), Path: doc.Path}

	if doc.Archived {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     "archived",
			Severity: Info,
			Message:  "workflow is archived - skipping validation",
		})
		return result
	}

	dead, triggers := FindDeadCode(doc)
	if len(dead) > 0 {
		result.DeadNodes = sortedKeys(dead)
		// One synthetic diagnostic for the whole set, not one per node,
		// to avoid flooding the report.
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     "dead_code",
			Severity: Error,
			Message: fmt.Sprintf("%d node(s) unreachable from triggers: %s",
				len(dead), strings.Join(result.DeadNodes, ", ")),
		})
	}
	if len(triggers) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     "no_triggers",
			Severity: Warning,
			Message:  "no trigger nodes found in workflow",
		})
	}

	result.Diagnostics = append(result.Diagnostics, ApplyRules(doc, reg, extra...)...)

	if result.Passed() && len(result.Warnings()) == 0 {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     "summary",
			Severity: Info,
			Message:  fmt.Sprintf("all %d nodes validated successfully", len(doc.Nodes)),
		})
	}
	return result
}

// AnalyzeFile loads and analyzes the document at path. Load failures become
// a single error diagnostic so one broken file never aborts a project run.
func AnalyzeFile(path string, reg *workflow.Registry, extra ...Rule) *Result {
	doc, err := workflow.Load(path)
	if err != nil {
		return &Result{
			Name: displayNameForPath(path),
			Path: path,
			Diagnostics: []Diagnostic{{
				Rule:     "parse",
				Severity: Error,
				Message:  err.Error(),
			}},
		}
	}
	return Analyze(doc, reg, extra...)
}

func displayNameForPath(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".json")
}

// sortResults orders results by document name for deterministic reporting.
func sortResults(results []*Result) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Name != results[j].Name {
			return results[i].Name < results[j].Name
		}
		return results[i].Path < results[j].Path
	})
}
