package lint

import "github.com/chriskevini/kairon/workflow"

// Rule is the interface for a single validation rule. Rules are pure:
// they read the document and registry and return findings. No rule may
// depend on another rule having already run.
type Rule interface {
	Name() string
	Apply(doc *workflow.Document, reg *workflow.Registry) []Diagnostic
}

// ApplyRules runs all built-in rules (and any extra rules) against the
// document. Returns all diagnostics regardless of severity. Dead-code
// detection is separate; see FindDeadCode and Analyze.
func ApplyRules(doc *workflow.Document, reg *workflow.Registry, extra ...Rule) []Diagnostic {
	rules := builtInRules()
	rules = append(rules, extra...)

	var diagnostics []Diagnostic
	for _, rule := range rules {
		diagnostics = append(diagnostics, rule.Apply(doc, reg)...)
	}
	return diagnostics
}

// builtInRules returns the standard rule set.
func builtInRules() []Rule {
	return []Rule{
		structureRule{},
		connectionIntegrityRule{},
		emptyTriggerRule{},
		subWorkflowRefRule{},
		switchFallbackRule{},
		mergeConfigRule{},
		ifConditionRule{},
		ctxInitializationRule{},
		setPreservesCtxRule{},
		databaseWrapperRule{},
		relayAddressingRule{},
		codeReturnShapeRule{},
		codeCtxConventionRule{},
		ctxNamespaceRule{},
		ctxEventFieldsRule{},
		nodeReferenceFanOutRule{},
	}
}
