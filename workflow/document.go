package workflow

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Connection is a single edge entry: the target node name and which of its
// input slots the edge attaches to.
type Connection struct {
	Node  string `json:"node"`
	Type  string `json:"type,omitempty"`
	Index int    `json:"index"`
}

// ConnectionMap is the runtime's connection shape: source node name ->
// connection type (usually "main") -> output slot -> edge entries.
type ConnectionMap map[string]map[string][][]Connection

// Node is a single typed unit of behavior within a document.
type Node struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	TypeVersion float64 `json:"typeVersion"`
	Parameters  Params  `json:"parameters"`
	Disabled    bool    `json:"disabled,omitempty"`
}

// Family returns the short node type: the segment after the last dot, or the
// full type when it has no namespace prefix.
func (n *Node) Family() string {
	if i := strings.LastIndex(n.Type, "."); i >= 0 {
		return n.Type[i+1:]
	}
	return n.Type
}

// Document is one parsed workflow file.
type Document struct {
	Name        string
	Path        string // file the document was loaded from, "" when parsed from memory
	Nodes       []*Node
	Connections ConnectionMap
	Settings    Params
	Archived    bool

	// HasNodes and HasConnections record whether the top-level keys were
	// present at all. Parsing never substitutes empty collections for
	// missing keys; the structure rule reports their absence.
	HasNodes       bool
	HasConnections bool

	// raw holds every top-level key as parsed, so a rewrite preserves keys
	// this tool does not interpret (pinData, meta, versionId, ...).
	raw map[string]json.RawMessage
}

// Load reads and parses the workflow document at path. A missing file yields
// a *NotFoundError, malformed JSON a *ParseError.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path, Cause: err}
		}
		return nil, &ParseError{Path: path, Cause: err}
	}
	doc, err := Parse(data)
	if err != nil {
		var pe *ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	doc.Path = path
	if doc.Name == "" {
		doc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// Parse decodes a workflow document from raw JSON.
func Parse(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Cause: err}
	}

	doc := &Document{raw: raw}

	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &doc.Name); err != nil {
			return nil, &ParseError{Cause: err}
		}
	}
	if v, ok := raw["isArchived"]; ok {
		if err := json.Unmarshal(v, &doc.Archived); err != nil {
			return nil, &ParseError{Cause: err}
		}
	}
	if v, ok := raw["settings"]; ok {
		if err := json.Unmarshal(v, &doc.Settings); err != nil {
			return nil, &ParseError{Cause: err}
		}
	}
	if v, ok := raw["nodes"]; ok {
		doc.HasNodes = true
		if err := json.Unmarshal(v, &doc.Nodes); err != nil {
			return nil, &ParseError{Cause: err}
		}
	}
	if v, ok := raw["connections"]; ok {
		doc.HasConnections = true
		if err := json.Unmarshal(v, &doc.Connections); err != nil {
			return nil, &ParseError{Cause: err}
		}
	}
	return doc, nil
}

// DisplayName returns the document name, falling back to the file base name.
func (d *Document) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.Path != "" {
		return filepath.Base(d.Path)
	}
	return "Unknown"
}

// NodeByName returns the node with the given name, or nil if not found.
func (d *Document) NodeByName(name string) *Node {
	for _, n := range d.Nodes {
		if n.Name == name {
			return n
		}
	}
	return nil
}

// NodeNames returns the set of node names in the document.
func (d *Document) NodeNames() map[string]bool {
	names := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		names[n.Name] = true
	}
	return names
}

// Targets returns the names of every node the given source connects to,
// across all connection types and output slots.
func (d *Document) Targets(source string) []string {
	var out []string
	for _, slots := range d.Connections[source] {
		for _, slot := range slots {
			for _, conn := range slot {
				if conn.Node != "" {
					out = append(out, conn.Node)
				}
			}
		}
	}
	return out
}

// Marshal re-encodes the document, folding the current Nodes and Connections
// back into the preserved top-level keys.
func (d *Document) Marshal() ([]byte, error) {
	raw := make(map[string]json.RawMessage, len(d.raw))
	for k, v := range d.raw {
		raw[k] = v
	}
	nodes, err := json.Marshal(d.Nodes)
	if err != nil {
		return nil, err
	}
	raw["nodes"] = nodes
	conns, err := json.Marshal(d.Connections)
	if err != nil {
		return nil, err
	}
	raw["connections"] = conns
	return json.MarshalIndent(raw, "", "  ")
}
