package formula

// History is an append-only log of canonical no-id LaTeX snapshots with a
// single movable cursor. Recording a new snapshot after undoing discards
// the redo tail. Not safe for concurrent use; mutate only from the single
// edit-processing path.
type History struct {
	snapshots []string
	cursor    int
}

// NewHistory starts a history at the given initial snapshot.
func NewHistory(initial string) *History {
	return &History{snapshots: []string{initial}}
}

// Current returns the snapshot at the cursor.
func (h *History) Current() string {
	return h.snapshots[h.cursor]
}

// Record appends a snapshot and moves the cursor to it. Recording the
// current snapshot again is a no-op so repeated no-change commits do not
// pollute the log.
func (h *History) Record(snapshot string) {
	if h.snapshots[h.cursor] == snapshot {
		return
	}
	h.snapshots = append(h.snapshots[:h.cursor+1], snapshot)
	h.cursor = len(h.snapshots) - 1
}

// CanUndo reports whether an earlier snapshot exists.
func (h *History) CanUndo() bool { return h.cursor > 0 }

// CanRedo reports whether a later snapshot exists.
func (h *History) CanRedo() bool { return h.cursor < len(h.snapshots)-1 }

// Undo moves the cursor back and returns that snapshot.
func (h *History) Undo() (string, error) {
	if !h.CanUndo() {
		return "", ErrNoHistory
	}
	h.cursor--
	return h.snapshots[h.cursor], nil
}

// Redo moves the cursor forward and returns that snapshot.
func (h *History) Redo() (string, error) {
	if !h.CanRedo() {
		return "", ErrNoHistory
	}
	h.cursor++
	return h.snapshots[h.cursor], nil
}

// Len returns the number of stored snapshots.
func (h *History) Len() int { return len(h.snapshots) }
