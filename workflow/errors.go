package workflow

import "fmt"

// ParseError reports a document that could not be decoded. Analysis of that
// document stops; sibling documents are unaffected.
type ParseError struct {
	Path  string
	Cause error
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: invalid workflow document: %v", e.Path, e.Cause)
	}
	return fmt.Sprintf("invalid workflow document: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// NotFoundError reports a workflow file that does not exist.
type NotFoundError struct {
	Path  string
	Cause error
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("workflow file not found: %s", e.Path)
}

func (e *NotFoundError) Unwrap() error { return e.Cause }
