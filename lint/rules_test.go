package lint

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chriskevini/kairon/workflow"
)

// docWithNode wraps a single node JSON object into a parseable document.
func docWithNode(t *testing.T, nodeJSON string) *workflow.Document {
	t.Helper()
	return mustDoc(t, fmt.Sprintf(`{"name": "Test_Flow", "nodes": [%s], "connections": {}}`, nodeJSON))
}

// --- structure ---

func TestStructureMissingTopLevelKeys(t *testing.T) {
	doc := mustDoc(t, `{"name": "Bare"}`)
	diags := structureRule{}.Apply(doc, nil)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, Error, d.Severity)
	}
}

func TestStructureDuplicateNodeNames(t *testing.T) {
	doc := mustDoc(t, `{
		"name": "Dup_Flow",
		"nodes": [
			{"name": "A", "type": "n8n-nodes-base.code", "typeVersion": 2, "parameters": {}},
			{"name": "A", "type": "n8n-nodes-base.code", "typeVersion": 2, "parameters": {}}
		],
		"connections": {}
	}`)
	diags := structureRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "duplicate node name 'A'")
}

// --- connection_integrity ---

func TestConnectionIntegrityDanglingSourceAndTarget(t *testing.T) {
	doc := mustDoc(t, `{
		"name": "Broken_Flow",
		"nodes": [
			{"name": "T", "type": "n8n-nodes-base.webhook", "typeVersion": 1, "parameters": {}}
		],
		"connections": {
			"Ghost": {"main": [[{"node": "T", "type": "main", "index": 0}]]},
			"T": {"main": [[{"node": "Missing", "type": "main", "index": 0}]]}
		}
	}`)
	diags := connectionIntegrityRule{}.Apply(doc, nil)
	require.Len(t, diags, 2)
	for _, d := range diags {
		assert.Equal(t, Error, d.Severity)
	}
}

// --- empty_trigger ---

func TestEmptyWorkflowTriggerWarns(t *testing.T) {
	doc := docWithNode(t, `{"name": "When Called", "type": "n8n-nodes-base.executeWorkflowTrigger", "typeVersion": 1, "parameters": {}}`)
	diags := emptyTriggerRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestConfiguredWorkflowTriggerPasses(t *testing.T) {
	doc := docWithNode(t, `{"name": "When Called", "type": "n8n-nodes-base.executeWorkflowTrigger", "typeVersion": 1, "parameters": {"workflowInputs": {}}}`)
	assert.Empty(t, emptyTriggerRule{}.Apply(doc, nil))
}

// --- subworkflow_ref ---

func writeWorkflowFile(t *testing.T, dir, name string) {
	t.Helper()
	body := fmt.Sprintf(`{"name": %q, "nodes": [], "connections": {}}`, name)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o644))
}

func TestSubWorkflowRefMissingDescriptor(t *testing.T) {
	doc := docWithNode(t, `{"name": "Call", "type": "n8n-nodes-base.executeWorkflow", "typeVersion": 1, "parameters": {}}`)
	diags := subWorkflowRefRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "missing workflowId")
}

func TestSubWorkflowRefUnknownName(t *testing.T) {
	dir := t.TempDir()
	writeWorkflowFile(t, dir, "Query_DB")
	reg, err := workflow.BuildRegistry(dir)
	require.NoError(t, err)

	node := `{"name": "Call", "type": "n8n-nodes-base.executeWorkflow", "typeVersion": 1,
		"parameters": {"workflowId": {"mode": "list", "cachedResultName": "Missing_Flow"}}}`
	doc := docWithNode(t, node)

	diags := subWorkflowRefRule{}.Apply(doc, reg)
	errs := 0
	for _, d := range diags {
		if d.Severity == Error {
			errs++
			assert.Contains(t, d.Message, "Missing_Flow")
		}
	}
	assert.Equal(t, 1, errs)

	// Adding a document with that exact name and rebuilding the registry
	// removes the error.
	writeWorkflowFile(t, dir, "Missing_Flow")
	reg, err = workflow.BuildRegistry(dir)
	require.NoError(t, err)
	for _, d := range (subWorkflowRefRule{}).Apply(doc, reg) {
		assert.NotEqual(t, Error, d.Severity)
	}
}

func TestSubWorkflowRefUnstableModeWarns(t *testing.T) {
	dir := t.TempDir()
	writeWorkflowFile(t, dir, "Query_DB")
	reg, err := workflow.BuildRegistry(dir)
	require.NoError(t, err)

	node := `{"name": "Call", "type": "n8n-nodes-base.executeWorkflow", "typeVersion": 1,
		"parameters": {"workflowId": {"mode": "id", "value": "abc123", "cachedResultName": "Query_DB"}}}`
	doc := docWithNode(t, node)

	diags := subWorkflowRefRule{}.Apply(doc, reg)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "mode 'id'")
}

// --- switch_fallback ---

func switchNode(version int, options string) string {
	return fmt.Sprintf(`{"name": "Route", "type": "n8n-nodes-base.switch", "typeVersion": %d,
		"parameters": {"options": %s}}`, version, options)
}

func TestSwitchFallbackInvalidValue(t *testing.T) {
	doc := docWithNode(t, switchNode(3, `{"fallbackOutput": "maybe"}`))
	diags := switchFallbackRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "'maybe'")
}

func TestSwitchFallbackValidSentinels(t *testing.T) {
	for _, sentinel := range []string{"extra", "none"} {
		doc := docWithNode(t, switchNode(3, fmt.Sprintf(`{"fallbackOutput": %q}`, sentinel)))
		assert.Empty(t, switchFallbackRule{}.Apply(doc, nil), "sentinel %q", sentinel)
	}
}

func TestSwitchFallbackAbsentWarns(t *testing.T) {
	doc := docWithNode(t, switchNode(3, `{}`))
	diags := switchFallbackRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestSwitchFallbackNonStringValue(t *testing.T) {
	doc := docWithNode(t, switchNode(3, `{"fallbackOutput": 1}`))
	diags := switchFallbackRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
}

func TestSwitchFallbackOldVersionExempt(t *testing.T) {
	doc := docWithNode(t, switchNode(2, `{"fallbackOutput": "maybe"}`))
	assert.Empty(t, switchFallbackRule{}.Apply(doc, nil))
}

// --- merge_config ---

func TestMergeEmptyParameters(t *testing.T) {
	doc := docWithNode(t, `{"name": "Join", "type": "n8n-nodes-base.merge", "typeVersion": 3, "parameters": {}}`)
	diags := mergeConfigRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
}

func TestMergeMissingMode(t *testing.T) {
	doc := docWithNode(t, `{"name": "Join", "type": "n8n-nodes-base.merge", "typeVersion": 3, "parameters": {"numberInputs": 2}}`)
	diags := mergeConfigRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestMergeWithModePasses(t *testing.T) {
	doc := docWithNode(t, `{"name": "Join", "type": "n8n-nodes-base.merge", "typeVersion": 3, "parameters": {"mode": "append"}}`)
	assert.Empty(t, mergeConfigRule{}.Apply(doc, nil))
}

// --- if_condition ---

func TestIfConditionFlatValidCheck(t *testing.T) {
	doc := docWithNode(t, `{"name": "Valid?", "type": "n8n-nodes-base.if", "typeVersion": 2,
		"parameters": {"conditions": {"conditions": [{"leftValue": "={{ $json.valid }}"}]}}}`)
	diags := ifConditionRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
}

func TestIfConditionNamespacedCheck(t *testing.T) {
	doc := docWithNode(t, `{"name": "Valid?", "type": "n8n-nodes-base.if", "typeVersion": 2,
		"parameters": {"conditions": {"conditions": [{"leftValue": "={{ $json.ctx.validation.valid }}"}]}}}`)
	diags := ifConditionRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Info, diags[0].Severity)
}

// --- ctx_initialization ---

func initFlow(firstNode string) string {
	return fmt.Sprintf(`{
		"name": "Init_Flow",
		"nodes": [
			{"name": "T", "type": "n8n-nodes-base.webhook", "typeVersion": 1, "parameters": {"path": "x"}},
			%s
		],
		"connections": {"T": {"main": [[{"node": "First", "type": "main", "index": 0}]]}}
	}`, firstNode)
}

func TestCtxInitializationSetNodeConfirmed(t *testing.T) {
	doc := mustDoc(t, initFlow(`{"name": "First", "type": "n8n-nodes-base.set", "typeVersion": 3,
		"parameters": {"assignments": {"assignments": [{"name": "ctx.event", "value": "x"}]}}}`))
	diags := (ctxInitializationRule{}).Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Info, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "ctx initialized in 'First' (Set node)")
}

func TestCtxInitializationCodeNodeConfirmed(t *testing.T) {
	doc := mustDoc(t, initFlow(`{"name": "First", "type": "n8n-nodes-base.code", "typeVersion": 2,
		"parameters": {"jsCode": "return { json: { ctx: { event: { event_id: id } } } };"}}`))
	diags := (ctxInitializationRule{}).Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Contains(t, diags[0].Message, "(Code node)")
}

func TestCtxInitializationPreCtxFirstNodeIsSilent(t *testing.T) {
	// A first node without ctx may be preparing raw input; that is not a
	// finding either way.
	doc := mustDoc(t, initFlow(`{"name": "First", "type": "n8n-nodes-base.code", "typeVersion": 2,
		"parameters": {"jsCode": "return { json: $json };"}}`))
	assert.Empty(t, (ctxInitializationRule{}).Apply(doc, nil))
}

func TestCtxInitializationNoTriggerIsSilent(t *testing.T) {
	doc := docWithNode(t, `{"name": "Lone", "type": "n8n-nodes-base.code", "typeVersion": 2, "parameters": {}}`)
	assert.Empty(t, (ctxInitializationRule{}).Apply(doc, nil))
}

// --- set_preserves_ctx ---

const setCtxNode = `{"name": "Update State", "type": "n8n-nodes-base.set", "typeVersion": 3,
	"parameters": {%s"assignments": {"assignments": [{"name": "ctx.command", "value": "x"}]}}}`

func TestSetCtxWithoutIncludeOtherFieldsWarns(t *testing.T) {
	doc := docWithNode(t, fmt.Sprintf(setCtxNode, ""))
	diags := setPreservesCtxRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestSetCtxWithIncludeOtherFieldsPasses(t *testing.T) {
	doc := docWithNode(t, fmt.Sprintf(setCtxNode, `"includeOtherFields": true, `))
	assert.Empty(t, setPreservesCtxRule{}.Apply(doc, nil))
}

func TestSetCtxFeedingMergeIsExempt(t *testing.T) {
	doc := mustDoc(t, fmt.Sprintf(`{
		"name": "Merge_Flow",
		"nodes": [
			%s,
			{"name": "Join", "type": "n8n-nodes-base.merge", "typeVersion": 3, "parameters": {"mode": "append"}}
		],
		"connections": {
			"Update State": {"main": [[{"node": "Join", "type": "main", "index": 0}]]}
		}
	}`, fmt.Sprintf(setCtxNode, "")))
	assert.Empty(t, setPreservesCtxRule{}.Apply(doc, nil))
}

// --- database_wrapper ---

func TestDirectDatabaseNodeWarnsOutsideWrapper(t *testing.T) {
	doc := docWithNode(t, `{"name": "Fetch Rows", "type": "n8n-nodes-base.postgres", "typeVersion": 2, "parameters": {}}`)
	diags := databaseWrapperRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestDirectDatabaseNodeAllowedInWrapper(t *testing.T) {
	doc := mustDoc(t, `{
		"name": "Query_DB",
		"nodes": [{"name": "Run Query", "type": "n8n-nodes-base.postgres", "typeVersion": 2, "parameters": {}}],
		"connections": {}
	}`)
	assert.Empty(t, databaseWrapperRule{}.Apply(doc, nil))
}

func TestDatabaseQueryRawNodeReference(t *testing.T) {
	doc := docWithNode(t, `{"name": "Run Query", "type": "n8n-nodes-base.postgres", "typeVersion": 2,
		"parameters": {"options": {"queryReplacement": "=$('Prepare Event').item.json.user_id"}}}`)
	diags := databaseWrapperRule{}.Apply(doc, nil)
	errs := diagsByRule(diags, "database_wrapper")
	found := false
	for _, d := range errs {
		if d.Severity == Error {
			found = true
		}
	}
	assert.True(t, found, "expected a raw node-reference error")
}

// --- relay_addressing ---

func TestRelayChannelIDRawAccess(t *testing.T) {
	doc := docWithNode(t, `{"name": "Send Reply", "type": "n8n-nodes-base.discord", "typeVersion": 2,
		"parameters": {"channelId": {"value": "={{ $json.channel_id }}"}, "guildId": {"value": "={{ $json.ctx.event.guild_id }}"}}}`)
	diags := relayAddressingRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Error, diags[0].Severity)
	assert.Contains(t, diags[0].Message, "channelId")
}

func TestRelayRawWebhookContentWarns(t *testing.T) {
	doc := docWithNode(t, `{"name": "Send Reply", "type": "n8n-nodes-base.discord", "typeVersion": 2,
		"parameters": {"content": "={{ $json.body.message }}"}}`)
	diags := relayAddressingRule{}.Apply(doc, nil)
	require.Len(t, diags, 1)
	assert.Equal(t, Warning, diags[0].Severity)
}

func TestRelayCtxAddressingPasses(t *testing.T) {
	doc := docWithNode(t, `{"name": "Send Reply", "type": "n8n-nodes-base.discord", "typeVersion": 2,
		"parameters": {"channelId": {"value": "={{ $json.ctx.event.channel_id }}"}, "content": "={{ $json.ctx.response.content }}"}}`)
	assert.Empty(t, relayAddressingRule{}.Apply(doc, nil))
}

// --- rule independence ---

func TestApplyRulesIsOrderInsensitive(t *testing.T) {
	doc := mustDoc(t, orderFlow)
	first := ApplyRules(doc, nil)
	second := ApplyRules(doc, nil)
	assert.Equal(t, first, second)
}

type testRule struct {
	name string
	fn   func(*workflow.Document, *workflow.Registry) []Diagnostic
}

func (r *testRule) Name() string { return r.name }
func (r *testRule) Apply(doc *workflow.Document, reg *workflow.Registry) []Diagnostic {
	return r.fn(doc, reg)
}

func TestApplyRulesWithCustomRule(t *testing.T) {
	doc := mustDoc(t, cleanFlow)
	custom := &testRule{
		name: "custom_check",
		fn: func(*workflow.Document, *workflow.Registry) []Diagnostic {
			return []Diagnostic{{Rule: "custom_check", Severity: Info, Message: "custom info"}}
		},
	}
	diags := ApplyRules(doc, nil, custom)
	assert.True(t, hasRule(diags, "custom_check"))
}
