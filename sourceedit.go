package formula

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangesBetween computes the ordered character-level content changes
// turning old source text into new source text, suitable for feeding to
// WithContentChange one at a time. Offsets in each change are relative to
// the text as it stands after the preceding changes have been applied,
// which is exactly the order a text editor reports them in.
func ChangesBetween(oldText, newText string) []ContentChange {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(oldText, newText, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var changes []ContentChange
	pos := 0
	for _, d := range diffs {
		n := len([]rune(d.Text))
		switch d.Type {
		case diffmatchpatch.DiffEqual:
			pos += n
		case diffmatchpatch.DiffDelete:
			changes = append(changes, ContentChange{
				Op:   ChangeDelete,
				From: pos,
				To:   pos + n,
			})
		case diffmatchpatch.DiffInsert:
			changes = append(changes, ContentChange{
				Op:       ChangeInsert,
				From:     pos,
				To:       pos,
				Inserted: d.Text,
			})
			pos += n
		}
	}
	return changes
}
