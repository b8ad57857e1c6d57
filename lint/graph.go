package lint

import (
	"strings"

	"github.com/chriskevini/kairon/workflow"
)

// triggerKeywords identify node types that can originate execution: webhook
// receivers, schedule timers, manual invocation, error handlers, and
// invocation from another workflow all carry one of these substrings.
var triggerKeywords = []string{"Trigger", "webhook"}

// chainTypes are AI chain/agent node types. Their model subnodes attach via
// an out-of-band relationship that is not represented in the connections
// map, so reachability needs a special case for them.
var chainTypes = []string{"chainLlm", "agentExecutor", "chainRetrievalQa"}

// modelTypes are the AI model subnode types rescued by a reachable chain.
var modelTypes = []string{
	"lmChatOpenRouter",
	"lmChatOpenAi",
	"lmChatAnthropic",
	"lmChatMistral",
}

func typeMatchesAny(nodeType string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(nodeType, kw) {
			return true
		}
	}
	return false
}

// IsTrigger reports whether the node can originate execution.
func IsTrigger(n *workflow.Node) bool {
	return typeMatchesAny(n.Type, triggerKeywords)
}

// FindDeadCode returns the set of nodes unreachable from any trigger, and
// the names of the trigger nodes found.
//
// Reachability is a forward breadth-first traversal over the flattened
// adjacency of the connections map; slot information does not matter for
// reachability. Cycles are a supported workflow pattern, so traversal keeps
// a visited set and terminates on repeat visits.
//
// One exception applies document-wide: if any reachable node is a chain
// node, every model node in the document is considered reachable regardless
// of explicit connections, because model subnodes attach to chains outside
// the connections map.
func FindDeadCode(doc *workflow.Document) (dead map[string]bool, triggers []string) {
	names := doc.NodeNames()

	// Flattened forward adjacency. Edges from unknown sources are dropped
	// here; the connection integrity rule reports them.
	adjacency := make(map[string][]string, len(names))
	for source := range doc.Connections {
		if !names[source] {
			continue
		}
		adjacency[source] = doc.Targets(source)
	}

	for _, n := range doc.Nodes {
		if IsTrigger(n) {
			triggers = append(triggers, n.Name)
		}
	}

	reachable := make(map[string]bool)
	queue := append([]string(nil), triggers...)
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if reachable[current] {
			continue
		}
		reachable[current] = true
		for _, next := range adjacency[current] {
			if !reachable[next] {
				queue = append(queue, next)
			}
		}
	}

	dead = make(map[string]bool)
	for name := range names {
		if !reachable[name] {
			dead[name] = true
		}
	}

	if hasReachableChain(doc, reachable) {
		for _, n := range doc.Nodes {
			if typeMatchesAny(n.Type, modelTypes) {
				delete(dead, n.Name)
			}
		}
	}

	return dead, triggers
}

func hasReachableChain(doc *workflow.Document, reachable map[string]bool) bool {
	for _, n := range doc.Nodes {
		if reachable[n.Name] && typeMatchesAny(n.Type, chainTypes) {
			return true
		}
	}
	return false
}
