package lint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/chriskevini/kairon/workflow"
)

// RemoveDeadNodes deletes every node named in dead from the document, along
// with every connection entry whose source or target is in the set. Nested
// target entries inside surviving sources are pruned too, not just the
// top-level source keys. Nodes and connections unrelated to the dead set
// are left untouched, so the operation is idempotent: running it again on
// its own output changes nothing.
//
// It returns true when the document was modified.
func RemoveDeadNodes(doc *workflow.Document, dead map[string]bool) bool {
	if len(dead) == 0 {
		return false
	}

	changed := false
	kept := doc.Nodes[:0]
	for _, n := range doc.Nodes {
		if dead[n.Name] {
			changed = true
			continue
		}
		kept = append(kept, n)
	}
	doc.Nodes = kept

	for source, slots := range doc.Connections {
		if dead[source] {
			delete(doc.Connections, source)
			changed = true
			continue
		}
		for connType, slotList := range slots {
			for i, conns := range slotList {
				pruned := conns[:0]
				for _, conn := range conns {
					if dead[conn.Node] {
						changed = true
						continue
					}
					pruned = append(pruned, conn)
				}
				slotList[i] = pruned
			}
			slots[connType] = slotList
		}
	}
	return changed
}

// FixFile removes the named dead nodes from the document at path and
// rewrites the file. The rewrite preserves every top-level key the linter
// does not interpret, and goes through a uniquely named temp file plus
// rename so an interrupted write never leaves a truncated document.
//
// Returns true when the file was changed. A write failure is the caller's
// to report; it is never swallowed.
func FixFile(path string, dead map[string]bool) (bool, error) {
	if len(dead) == 0 {
		return false, nil
	}

	doc, err := workflow.Load(path)
	if err != nil {
		return false, err
	}
	if !RemoveDeadNodes(doc, dead) {
		return false, nil
	}

	data, err := doc.Marshal()
	if err != nil {
		return false, fmt.Errorf("encoding fixed workflow: %w", err)
	}

	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return false, fmt.Errorf("writing fixed workflow: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return false, fmt.Errorf("replacing workflow file: %w", err)
	}
	return true, nil
}
