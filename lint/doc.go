// Package lint statically validates Kairon workflow documents.
//
// The linter builds the control-flow graph implied by a document's
// connections, proves every node reachable from a trigger (dead-code
// detection), and runs a registry of independent rules over nodes and the
// document as a whole: cross-workflow references must resolve, branch nodes
// must have sane fallbacks, and code nodes must follow the project-wide
// "ctx" data-flow convention.
//
// The analysis is deterministic and side-effect free except for the
// explicit auto-fix mode, which deletes dead nodes and their dangling
// connection entries and rewrites the document in place.
//
// Rules are pure functions over a parsed document and the shared Registry;
// they are order-insensitive and each produces zero or more Diagnostics.
// Code-node rules are deliberately regex heuristics over the embedded
// script text, not a parse of the embedded language.
package lint
