package workflow

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Registry is a read-only index of every workflow name in a project
// directory. It exists to answer one question: does a document with this
// name exist? Sub-workflow call nodes reference other documents by name, and
// those references are validated against the Registry.
//
// A Registry is built once per process invocation and never mutated
// afterward, so it may be shared across concurrently analyzed documents
// without locking.
type Registry struct {
	dir   string
	names map[string]bool
	files []string
}

// BuildRegistry scans dir once for workflow files. Unparsable files are
// skipped rather than aborting the scan: they are still listed for
// individual validation and will fail on their own. Subdirectories (test
// fixtures live in one) are not scanned. A missing directory yields an
// empty registry, so explicitly named files can still be validated from
// outside a project root; cross-document references then report as
// unknown.
func BuildRegistry(dir string) (*Registry, error) {
	reg := &Registry{dir: dir, names: make(map[string]bool)}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return reg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning workflow directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		reg.files = append(reg.files, path)

		doc, err := Load(path)
		if err != nil {
			continue
		}
		reg.names[doc.DisplayName()] = true
	}
	sort.Strings(reg.files)
	return reg, nil
}

// Exists reports whether a document with the given name is known.
func (r *Registry) Exists(name string) bool { return r.names[name] }

// Dir returns the directory the registry was built from.
func (r *Registry) Dir() string { return r.dir }

// Files returns the workflow file paths found during the scan, sorted.
// Unparsable files are included so they can be reported individually.
func (r *Registry) Files() []string { return r.files }

// Len returns the number of known document names.
func (r *Registry) Len() int { return len(r.names) }
