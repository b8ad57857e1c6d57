package lint

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a validation diagnostic.
type Severity int

const (
	// Error means the runtime will reject or mis-execute the document.
	Error Severity = iota
	// Warning means the document will run but deviates from convention.
	Warning
	// Info is an informational note.
	Info
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is a single validation finding.
type Diagnostic struct {
	Rule     string   // rule identifier (e.g., "dead_code")
	Severity Severity // ERROR, WARNING, or INFO
	Message  string   // human-readable description
	Node     string   // related node name (optional)
}

func (d Diagnostic) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s: %s", d.Severity, d.Rule, d.Message)
	if d.Node != "" {
		fmt.Fprintf(&b, " (node: %s)", d.Node)
	}
	return b.String()
}
