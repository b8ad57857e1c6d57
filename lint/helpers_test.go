package lint

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chriskevini/kairon/workflow"
)

// --- helpers ---

func mustDoc(t *testing.T, src string) *workflow.Document {
	t.Helper()
	doc, err := workflow.Parse([]byte(src))
	require.NoError(t, err)
	return doc
}

func diagsByRule(diags []Diagnostic, rule string) []Diagnostic {
	var out []Diagnostic
	for _, d := range diags {
		if d.Rule == rule {
			out = append(out, d)
		}
	}
	return out
}

func hasRule(diags []Diagnostic, rule string) bool {
	return len(diagsByRule(diags, rule)) > 0
}

// orderFlow is a minimal document with one dead node: the trigger connects
// to A, while B is connected to nothing.
const orderFlow = `{
	"name": "Order_Flow",
	"nodes": [
		{"name": "T", "type": "n8n-nodes-base.webhook", "typeVersion": 1, "parameters": {"path": "order"}},
		{"name": "A", "type": "n8n-nodes-base.code", "typeVersion": 2, "parameters": {}},
		{"name": "B", "type": "n8n-nodes-base.code", "typeVersion": 2, "parameters": {}}
	],
	"connections": {
		"T": {"main": [[{"node": "A", "type": "main", "index": 0}]]}
	}
}`

// cleanFlow is a minimal document that passes every check.
const cleanFlow = `{
	"name": "Clean_Flow",
	"nodes": [
		{"name": "T", "type": "n8n-nodes-base.manualTrigger", "typeVersion": 1, "parameters": {"notes": "entry"}}
	],
	"connections": {}
}`
