package lint

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/chriskevini/kairon/workflow"
)

// The code-node rules below are deliberate heuristics: they grep the
// embedded script text for patterns rather than parsing the embedded
// language. Each heuristic is an independent predicate+message pair so new
// ones can be added without touching control flow.

// preCtxNamePrefixes exempt nodes that legitimately operate before the ctx
// envelope exists: they parse raw webhook data or prepare it for ctx
// initialization. The list is maintained by naming convention, which is a
// known limitation: a differently named raw-input node will be flagged.
var preCtxNamePrefixes = []string{"Parse", "Prepare", "Determine", "Check"}

// flatReturnPattern is one legacy-shape heuristic: a regex over the script
// text plus the message emitted when it matches.
type flatReturnPattern struct {
	re      *regexp.Regexp
	message string
}

// flatReturnPatterns detect the legacy flat return shape that predates the
// ctx envelope. Any match is an error.
var flatReturnPatterns = []flatReturnPattern{
	{regexp.MustCompile(`return\s*\{\s*response:`), "returns flat {response:} instead of {ctx: {..., response:}}"},
	{regexp.MustCompile(`return\s*\{\s*error:`), "returns flat {error:} instead of {ctx: {..., validation:}}"},
	{regexp.MustCompile(`return\s*\{\s*valid:`), "returns flat {valid:} instead of {ctx: {..., validation:}}"},
	{regexp.MustCompile(`return\s*\{\s*\.\.\.\s*event`), "returns {...event} instead of ctx pattern"},
}

// approvedCtxNamespaces is the documented set of ctx namespaces.
var approvedCtxNamespaces = map[string]bool{
	"event":      true,
	"llm":        true,
	"db":         true,
	"validation": true,
	"thread":     true,
	"command":    true,
	"projection": true,
	"timing":     true,
}

// toleratedCtxNamespaces are common variations that are not flagged.
var toleratedCtxNamespaces = map[string]bool{
	"response": true,
	"error":    true,
	"result":   true,
	"data":     true,
}

var (
	spreadJSONRe      = regexp.MustCompile(`\.\.\.\$json(\s*\.\s*ctx)?`)
	rawJSONAccessRe   = regexp.MustCompile(`\$json\.([a-z_]+)`)
	ctxReturnRe       = regexp.MustCompile(`ctx\s*:`)
	arrayReturnRe     = regexp.MustCompile(`return\s+\[\s*\{`)
	spreadReturnRe    = regexp.MustCompile(`return\s+\[\s*\.\.\.|\.\.\.\$input`)
	nodeReferenceRe   = regexp.MustCompile(`\$\('([^']+)'\)`)
	jsonCtxAccessRe   = regexp.MustCompile(`\$json\.ctx\.(\w+)`)
	anyCtxAccessRe    = regexp.MustCompile(`\.ctx\.(\w+)`)
	rawNodeRefFieldRe = regexp.MustCompile(`\$\('[^']+'\)\.item\.json\.([A-Za-z_]\w*)`)
	rawWebhookFieldRe = regexp.MustCompile(`\$json\.(body|payload|raw)`)
	eventFieldRes     = map[string]*regexp.Regexp{
		"event_id":    regexp.MustCompile(`\bevent_id\s*:`),
		"trace_chain": regexp.MustCompile(`\btrace_chain\s*:`),
	}
)

// jsCode returns the embedded script of a code node, or "" for other nodes.
func jsCode(n *workflow.Node) string {
	if n.Family() != "code" {
		return ""
	}
	return n.Parameters.Str("jsCode")
}

// hasPreCtxName reports whether the node is exempt from ctx-convention
// checks by the naming convention for raw-input pre-processing nodes.
func hasPreCtxName(name string) bool {
	for _, prefix := range preCtxNamePrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// spreadsRawJSON reports whether the code spreads $json without going
// through the ctx envelope (...$json but not ...$json.ctx).
func spreadsRawJSON(code string) bool {
	for _, m := range spreadJSONRe.FindAllStringSubmatch(code, -1) {
		if m[1] == "" {
			return true
		}
	}
	return false
}

// readsRawJSONField reports whether the code reads a top-level $json field
// outside the ctx namespace. A trailing "||" marks a deliberate fallback
// read and is not counted.
func readsRawJSONField(code string) bool {
	for _, idx := range rawJSONAccessRe.FindAllStringSubmatchIndex(code, -1) {
		field := code[idx[2]:idx[3]]
		if strings.HasPrefix(field, "ctx") {
			continue
		}
		rest := strings.TrimLeft(code[idx[1]:], " \t")
		if strings.HasPrefix(rest, "||") {
			continue
		}
		return true
	}
	return false
}

// matchesRawNodeReference reports a node-reference read that bypasses the
// ctx envelope: $('Node').item.json.X where X is not ctx.
func matchesRawNodeReference(text string) bool {
	for _, m := range rawNodeRefFieldRe.FindAllStringSubmatch(text, -1) {
		if !strings.HasPrefix(m[1], "ctx") {
			return true
		}
	}
	return false
}

// matchesRawWebhookField reports a read of a raw webhook payload field.
func matchesRawWebhookField(text string) bool {
	return rawWebhookFieldRe.MatchString(text)
}

// code_return_shape: code in per-item execution mode must return a single
// record, not an array, except when deliberately spreading an input
// collection.
type codeReturnShapeRule struct{}

func (codeReturnShapeRule) Name() string { return "code_return_shape" }

func (codeReturnShapeRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		code := jsCode(n)
		if code == "" || n.Parameters.Str("mode") != "runOnceForEachItem" {
			continue
		}
		if arrayReturnRe.MatchString(code) && !strings.Contains(code, "return [{json:") && !spreadReturnRe.MatchString(code) {
			diags = append(diags, Diagnostic{
				Rule:     "code_return_shape",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': code in runOnceForEachItem mode returns array - should return single object", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// code_ctx_convention: code nodes must return the nested ctx envelope and
// read through it, not the legacy flat shape.
type codeCtxConventionRule struct{}

func (codeCtxConventionRule) Name() string { return "code_ctx_convention" }

func (codeCtxConventionRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		code := jsCode(n)
		if code == "" || hasPreCtxName(n.Name) {
			continue
		}

		for _, p := range flatReturnPatterns {
			if p.re.MatchString(code) {
				diags = append(diags, Diagnostic{
					Rule:     "code_ctx_convention",
					Severity: Error,
					Message:  fmt.Sprintf("'%s': %s", n.Name, p.message),
					Node:     n.Name,
				})
			}
		}
		if spreadsRawJSON(code) {
			diags = append(diags, Diagnostic{
				Rule:     "code_ctx_convention",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': spreads $json instead of $json.ctx", n.Name),
				Node:     n.Name,
			})
		}

		// Simple passthrough nodes are not held to the convention.
		if strings.Contains(strings.ToLower(code), "passthrough") || len(code) < 50 {
			continue
		}
		if readsRawJSONField(code) && !ctxReturnRe.MatchString(code) {
			diags = append(diags, Diagnostic{
				Rule:     "code_ctx_convention",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': may be using flat data access", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// ctx_namespace: code should stay within the approved ctx namespaces.
type ctxNamespaceRule struct{}

func (ctxNamespaceRule) Name() string { return "ctx_namespace" }

func (ctxNamespaceRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		code := jsCode(n)
		if code == "" {
			continue
		}

		accessed := make(map[string]bool)
		for _, m := range jsonCtxAccessRe.FindAllStringSubmatch(code, -1) {
			accessed[m[1]] = true
		}
		for _, m := range anyCtxAccessRe.FindAllStringSubmatch(code, -1) {
			accessed[m[1]] = true
		}

		var unapproved []string
		for ns := range accessed {
			if !approvedCtxNamespaces[ns] && !toleratedCtxNamespaces[ns] {
				unapproved = append(unapproved, ns)
			}
		}
		if len(unapproved) == 0 {
			continue
		}
		sort.Strings(unapproved)

		diags = append(diags, Diagnostic{
			Rule:     "ctx_namespace",
			Severity: Warning,
			Message: fmt.Sprintf("'%s': uses non-standard ctx namespace(s): %s - approved: %s",
				n.Name, strings.Join(unapproved, ", "), strings.Join(sortedKeys(approvedCtxNamespaces), ", ")),
			Node: n.Name,
		})
	}
	return diags
}

// ctx_event_fields: code that initializes the event namespace must set the
// identity field, and should set the causal-chain field.
type ctxEventFieldsRule struct{}

func (ctxEventFieldsRule) Name() string { return "ctx_event_fields" }

func (ctxEventFieldsRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		code := jsCode(n)
		if code == "" {
			continue
		}
		if !strings.Contains(code, "ctx:") || !strings.Contains(code, "event:") {
			continue
		}

		// Nested braces make a precise extraction unreliable; checking the
		// tail of the script from the event key onward is close enough.
		start := strings.Index(code, "event:")
		if start == -1 {
			continue
		}
		section := code[start:]

		switch {
		case !eventFieldRes["event_id"].MatchString(section):
			diags = append(diags, Diagnostic{
				Rule:     "ctx_event_fields",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': ctx.event initialization missing critical field: event_id", n.Name),
				Node:     n.Name,
			})
		case !eventFieldRes["trace_chain"].MatchString(section):
			diags = append(diags, Diagnostic{
				Rule:     "ctx_event_fields",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': ctx.event initialization missing recommended field: trace_chain", n.Name),
				Node:     n.Name,
			})
		default:
			diags = append(diags, Diagnostic{
				Rule:     "ctx_event_fields",
				Severity: Info,
				Message:  fmt.Sprintf("'%s': ctx.event has required fields", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// node_reference_fanout: more than two direct upstream references from one
// code node suggests the ctx convention is being bypassed.
type nodeReferenceFanOutRule struct{}

func (nodeReferenceFanOutRule) Name() string { return "node_reference_fanout" }

func (nodeReferenceFanOutRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		code := jsCode(n)
		if code == "" {
			continue
		}
		refs := nodeReferenceRe.FindAllString(code, -1)
		if len(refs) > 2 {
			diags = append(diags, Diagnostic{
				Rule:     "node_reference_fanout",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': has %d node references - consider using ctx pattern to reduce coupling", n.Name, len(refs)),
				Node:     n.Name,
			})
		}
	}
	return diags
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
