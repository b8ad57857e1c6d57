package lint

import (
	"fmt"
	"sync"

	"github.com/chriskevini/kairon/workflow"
)

// Options configure a validation run. Strict mode and quiet output live in
// the CLI layer: strict only changes the exit code and quiet only the
// report, never the analysis.
type Options struct {
	WorkflowDir string // project directory scanned for documents
	Fix         bool   // remove dead nodes and rewrite affected files
}

// Summary is the reduction over every analyzed document.
type Summary struct {
	Files    int
	Errors   int
	Warnings int
	Fixed    int
}

// ExitCode maps the summary to the process exit contract: 0 for success,
// 1 when any error is present, 2 when only warnings are present and strict
// mode was requested.
func (s Summary) ExitCode(strict bool) int {
	switch {
	case s.Errors > 0:
		return 1
	case strict && s.Warnings > 0:
		return 2
	default:
		return 0
	}
}

// Runner drives a batch validation: the Registry is built once, documents
// are analyzed concurrently against it, and results are reduced into a
// Summary. The Registry is read-only after construction so the concurrent
// analyses share it without locking; nothing else crosses document
// boundaries.
type Runner struct {
	opts Options
	reg  *workflow.Registry
}

// NewRunner builds the project Registry and returns a Runner. Unparsable
// files do not abort the build; they fail individually during analysis.
func NewRunner(opts Options) (*Runner, error) {
	reg, err := workflow.BuildRegistry(opts.WorkflowDir)
	if err != nil {
		return nil, err
	}
	return &Runner{opts: opts, reg: reg}, nil
}

// Registry exposes the shared registry, mainly for the CLI's report header.
func (r *Runner) Registry() *workflow.Registry { return r.reg }

// RunFile validates a single document. With Fix enabled and dead nodes
// found, the file is rewritten and re-analyzed so the returned result
// reflects the document as it now is, rather than trusting the fix.
func (r *Runner) RunFile(path string) (*Result, Summary) {
	result := r.analyzeAndFix(path)
	return result, summarize([]*Result{result})
}

// Run validates every document in the project directory and returns the
// per-document results sorted by name.
func (r *Runner) Run() ([]*Result, Summary) {
	files := r.reg.Files()
	results := make([]*Result, len(files))

	var wg sync.WaitGroup
	for i, path := range files {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i] = r.analyzeAndFix(path)
		}(i, path)
	}
	wg.Wait()

	sortResults(results)
	return results, summarize(results)
}

// analyzeAndFix runs one document's pipeline. Each call owns its document
// and target file exclusively, so fixes on different documents may run
// concurrently; a single document is never fixed concurrently with itself.
func (r *Runner) analyzeAndFix(path string) *Result {
	result := AnalyzeFile(path, r.reg)
	if !r.opts.Fix || len(result.DeadNodes) == 0 {
		return result
	}

	dead := make(map[string]bool, len(result.DeadNodes))
	for _, name := range result.DeadNodes {
		dead[name] = true
	}

	fixed, err := FixFile(path, dead)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			Rule:     "fix",
			Severity: Error,
			Message:  fmt.Sprintf("auto-fix failed: %v", err),
		})
		return result
	}
	if !fixed {
		return result
	}

	// Re-validate rather than trusting the fix.
	result = AnalyzeFile(path, r.reg)
	result.Diagnostics = append(result.Diagnostics, Diagnostic{
		Rule:     "fix",
		Severity: Info,
		Message:  fmt.Sprintf("removed %d dead node(s)", len(dead)),
	})
	return result
}

// summarize reduces results by summation; no ordering guarantees needed.
func summarize(results []*Result) Summary {
	var s Summary
	for _, r := range results {
		s.Files++
		s.Errors += len(r.Errors())
		s.Warnings += len(r.Warnings())
		for _, d := range r.Diagnostics {
			if d.Rule == "fix" && d.Severity == Info {
				s.Fixed++
			}
		}
	}
	return s
}
