// Package workflow implements the document model for Kairon workflow files.
//
// A workflow document is a JSON description of a node graph consumed by the
// external automation runtime: a list of typed nodes plus a connections map
// from source node name to output slots to target entries. This package
// parses documents into an in-memory form suitable for static analysis,
// keeping unknown top-level keys as raw JSON so a rewritten document loses
// nothing the runtime cares about.
//
// The package also provides the Registry, a read-only index of every
// document name in a project directory, used to resolve cross-workflow
// references. A Registry is built once per run and is safe for concurrent
// reads.
//
// Usage:
//
//	doc, err := workflow.Load("Route_Message.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(doc.Name, len(doc.Nodes))
package workflow
