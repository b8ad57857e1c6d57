package lint

import (
	"fmt"
	"strings"

	"github.com/chriskevini/kairon/workflow"
)

// queryWrapperName is the one document allowed to use database nodes
// directly; everything else is expected to call it as a sub-workflow.
const queryWrapperName = "Query_DB"

// switchFallbackSentinels are the values the runtime accepts for a branch
// node's fallback output at type version 3 and above.
var switchFallbackSentinels = map[string]bool{"extra": true, "none": true}

// structure: required top-level keys must be present and node names unique.
type structureRule struct{}

func (structureRule) Name() string { return "structure" }

func (structureRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	if !doc.HasNodes {
		diags = append(diags, Diagnostic{
			Rule:     "structure",
			Severity: Error,
			Message:  "missing 'nodes' array",
		})
	}
	if !doc.HasConnections {
		diags = append(diags, Diagnostic{
			Rule:     "structure",
			Severity: Error,
			Message:  "missing 'connections' object",
		})
	}

	seen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if seen[n.Name] {
			diags = append(diags, Diagnostic{
				Rule:     "structure",
				Severity: Error,
				Message:  fmt.Sprintf("duplicate node name '%s'", n.Name),
				Node:     n.Name,
			})
		}
		seen[n.Name] = true
	}
	return diags
}

// connection_integrity: every connection source and target must exist.
type connectionIntegrityRule struct{}

func (connectionIntegrityRule) Name() string { return "connection_integrity" }

func (connectionIntegrityRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	names := doc.NodeNames()

	var diags []Diagnostic
	for source, slots := range doc.Connections {
		if !names[source] {
			diags = append(diags, Diagnostic{
				Rule:     "connection_integrity",
				Severity: Error,
				Message:  fmt.Sprintf("connection from non-existent node '%s'", source),
			})
		}
		for _, slot := range slots {
			for _, conns := range slot {
				for _, conn := range conns {
					if conn.Node != "" && !names[conn.Node] {
						diags = append(diags, Diagnostic{
							Rule:     "connection_integrity",
							Severity: Error,
							Message:  fmt.Sprintf("connection to non-existent node: '%s' -> '%s'", source, conn.Node),
						})
					}
				}
			}
		}
	}
	return diags
}

// empty_trigger: a sub-workflow invocation trigger with no parameters is
// rejected by the runtime's editor.
type emptyTriggerRule struct{}

func (emptyTriggerRule) Name() string { return "empty_trigger" }

func (emptyTriggerRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "executeWorkflowTrigger" {
			continue
		}
		if n.Parameters.Empty() {
			diags = append(diags, Diagnostic{
				Rule:     "empty_trigger",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': workflow trigger has empty parameters", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// subworkflow_ref: sub-workflow call nodes must carry a reference descriptor
// that resolves against the project registry, and should reference the
// target by name rather than by an unstable identifier.
type subWorkflowRefRule struct{}

func (subWorkflowRefRule) Name() string { return "subworkflow_ref" }

func (subWorkflowRefRule) Apply(doc *workflow.Document, reg *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "executeWorkflow" {
			continue
		}

		workflowID := n.Parameters.Map("workflowId")
		if workflowID.Empty() {
			diags = append(diags, Diagnostic{
				Rule:     "subworkflow_ref",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': Execute Workflow missing workflowId configuration", n.Name),
				Node:     n.Name,
			})
			continue
		}

		if mode := workflowID.Str("mode"); mode != "list" {
			diags = append(diags, Diagnostic{
				Rule:     "subworkflow_ref",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': Execute Workflow using mode '%s' instead of 'list' (not portable)", n.Name, mode),
				Node:     n.Name,
			})
		}

		name := workflowID.Str("cachedResultName")
		if name != "" && reg != nil && !reg.Exists(name) {
			diags = append(diags, Diagnostic{
				Rule:     "subworkflow_ref",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': references workflow '%s' which does not exist", n.Name, name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// switch_fallback: branch nodes at type version 3+ must use one of the
// accepted fallback sentinels, and should have a fallback at all.
type switchFallbackRule struct{}

func (switchFallbackRule) Name() string { return "switch_fallback" }

func (switchFallbackRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "switch" || n.TypeVersion < 3 {
			continue
		}

		options := n.Parameters.Map("options")
		fallback, present := options["fallbackOutput"]
		if !present {
			diags = append(diags, Diagnostic{
				Rule:     "switch_fallback",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': Switch node has no fallback output - unmatched cases will produce no output", n.Name),
				Node:     n.Name,
			})
			continue
		}

		s, isString := fallback.(string)
		switch {
		case !isString:
			diags = append(diags, Diagnostic{
				Rule:     "switch_fallback",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': Switch node fallbackOutput must be a string ('extra' or 'none'), got %T", n.Name, fallback),
				Node:     n.Name,
			})
		case !switchFallbackSentinels[s]:
			diags = append(diags, Diagnostic{
				Rule:     "switch_fallback",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': Switch node fallbackOutput invalid value: '%s'", n.Name, s),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// merge_config: merge nodes need an explicit configuration.
type mergeConfigRule struct{}

func (mergeConfigRule) Name() string { return "merge_config" }

func (mergeConfigRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "merge" {
			continue
		}
		if n.Parameters.Empty() {
			diags = append(diags, Diagnostic{
				Rule:     "merge_config",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': Merge node has empty parameters (needs mode configuration)", n.Name),
				Node:     n.Name,
			})
		} else if !n.Parameters.Has("mode") {
			diags = append(diags, Diagnostic{
				Rule:     "merge_config",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': Merge node missing 'mode' parameter (should usually be 'append')", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// if_condition: conditional nodes must test the namespaced validation flag,
// not the legacy flat field.
type ifConditionRule struct{}

func (ifConditionRule) Name() string { return "if_condition" }

func (ifConditionRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "if" {
			continue
		}
		for _, raw := range n.Parameters.Map("conditions").Slice("conditions") {
			cond, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			left := workflow.Params(cond).Str("leftValue")
			if strings.Contains(left, "$json.valid") && !strings.Contains(left, "ctx") {
				diags = append(diags, Diagnostic{
					Rule:     "if_condition",
					Severity: Error,
					Message:  fmt.Sprintf("'%s': checks $json.valid instead of $json.ctx.validation.valid", n.Name),
					Node:     n.Name,
				})
			}
			if strings.Contains(left, "ctx.validation.valid") {
				diags = append(diags, Diagnostic{
					Rule:     "if_condition",
					Severity: Info,
					Message:  fmt.Sprintf("'%s': correctly checks ctx.validation.valid", n.Name),
					Node:     n.Name,
				})
			}
		}
	}
	return diags
}

// set_preserves_ctx: assignment nodes that write ctx.* fields without
// passing other fields through will drop the rest of the context envelope.
// Feeding a merge node is the one sanctioned use of a partial object.
type setPreservesCtxRule struct{}

func (setPreservesCtxRule) Name() string { return "set_preserves_ctx" }

func (setPreservesCtxRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "set" {
			continue
		}
		if n.Parameters.Bool("includeOtherFields") {
			continue
		}

		if !setAssignsCtx(n) || feedsMergeNode(doc, n.Name) {
			continue
		}

		diags = append(diags, Diagnostic{
			Rule:     "set_preserves_ctx",
			Severity: Warning,
			Message:  fmt.Sprintf("'%s': sets ctx.* fields but includeOtherFields is false - may lose ctx data", n.Name),
			Node:     n.Name,
		})
	}
	return diags
}

func feedsMergeNode(doc *workflow.Document, name string) bool {
	for _, target := range doc.Targets(name) {
		if t := doc.NodeByName(target); t != nil && t.Family() == "merge" {
			return true
		}
	}
	return false
}

// initializerTriggerTypes are the trigger families whose first downstream
// set or code node is expected to establish the ctx envelope.
var initializerTriggerTypes = []string{
	"executeWorkflowTrigger",
	"webhook",
	"manualTrigger",
	"errorTrigger",
	"scheduleTrigger",
}

// ctx_initialization: confirm the first set or code node after the trigger
// establishes ctx. A first node without ctx may be a pre-ctx preparation
// step, so absence is not reported; only positive confirmation is.
type ctxInitializationRule struct{}

func (ctxInitializationRule) Name() string { return "ctx_initialization" }

func (ctxInitializationRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var trigger *workflow.Node
	for _, n := range doc.Nodes {
		for _, t := range initializerTriggerTypes {
			if strings.Contains(n.Type, t) {
				trigger = n
				break
			}
		}
		if trigger != nil {
			break
		}
	}
	// Trigger-less documents get their own warning from the analyzer.
	if trigger == nil {
		return nil
	}

	slots := doc.Connections[trigger.Name]["main"]
	if len(slots) == 0 {
		return nil
	}

	var diags []Diagnostic
	for _, conn := range slots[0] {
		next := doc.NodeByName(conn.Node)
		if next == nil {
			continue
		}
		switch next.Family() {
		case "set":
			if setAssignsCtx(next) {
				diags = append(diags, Diagnostic{
					Rule:     "ctx_initialization",
					Severity: Info,
					Message:  fmt.Sprintf("ctx initialized in '%s' (Set node)", next.Name),
					Node:     next.Name,
				})
			}
		case "code":
			if strings.Contains(jsCode(next), "ctx:") {
				diags = append(diags, Diagnostic{
					Rule:     "ctx_initialization",
					Severity: Info,
					Message:  fmt.Sprintf("ctx initialized in '%s' (Code node)", next.Name),
					Node:     next.Name,
				})
			}
		}
	}
	return diags
}

func setAssignsCtx(n *workflow.Node) bool {
	for _, raw := range n.Parameters.Map("assignments").Slice("assignments") {
		a, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if strings.Contains(workflow.Params(a).Str("name"), "ctx.") {
			return true
		}
	}
	return false
}

// database_wrapper: direct database nodes belong in the designated query
// wrapper document; everywhere else they bypass the shared query path.
type databaseWrapperRule struct{}

func (databaseWrapperRule) Name() string { return "database_wrapper" }

func (databaseWrapperRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "postgres" {
			continue
		}
		if doc.DisplayName() != queryWrapperName {
			diags = append(diags, Diagnostic{
				Rule:     "database_wrapper",
				Severity: Warning,
				Message:  fmt.Sprintf("'%s': consider using %s sub-workflow instead of a direct database node", n.Name, queryWrapperName),
				Node:     n.Name,
			})
		}

		query := n.Parameters.Map("options").Str("queryReplacement")
		if query == "" {
			continue
		}
		if matchesRawNodeReference(query) {
			diags = append(diags, Diagnostic{
				Rule:     "database_wrapper",
				Severity: Error,
				Message:  fmt.Sprintf("'%s': uses node reference without ctx: $('...').item.json.X", n.Name),
				Node:     n.Name,
			})
		}
		if strings.Contains(query, "$json.ctx.") {
			diags = append(diags, Diagnostic{
				Rule:     "database_wrapper",
				Severity: Info,
				Message:  fmt.Sprintf("'%s': correctly uses ctx for query parameters", n.Name),
				Node:     n.Name,
			})
		}
	}
	return diags
}

// relay_addressing: chat-relay nodes must take their target IDs from the
// ctx envelope, and message content should not read raw webhook fields.
type relayAddressingRule struct{}

func (relayAddressingRule) Name() string { return "relay_addressing" }

func (relayAddressingRule) Apply(doc *workflow.Document, _ *workflow.Registry) []Diagnostic {
	var diags []Diagnostic
	for _, n := range doc.Nodes {
		if n.Family() != "discord" {
			continue
		}

		for _, field := range []string{"guildId", "channelId"} {
			value := n.Parameters.Map(field).Str("value")
			if strings.Contains(value, "$json.") && !strings.Contains(value, ".ctx.") {
				diags = append(diags, Diagnostic{
					Rule:     "relay_addressing",
					Severity: Error,
					Message:  fmt.Sprintf("'%s': %s uses $json.X instead of $json.ctx.*", n.Name, field),
					Node:     n.Name,
				})
			}
		}

		content := n.Parameters.Str("content")
		if strings.Contains(content, "$json.") && !strings.Contains(content, ".ctx.") && strings.Contains(content, "{{") {
			if matchesRawWebhookField(content) {
				diags = append(diags, Diagnostic{
					Rule:     "relay_addressing",
					Severity: Warning,
					Message:  fmt.Sprintf("'%s': content may use raw webhook data instead of ctx", n.Name),
					Node:     n.Name,
				})
			}
		}
	}
	return diags
}
