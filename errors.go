// Package formula provides a structured document model for mathematical
// formulas: a LaTeX-derived syntax tree with stylable sub-expressions, a
// styled-range text model kept in sync with the tree, canonicalization
// passes that restore id/parent/sibling invariants after every edit, and
// selection resolution for grouping sub-expressions.
package formula

import (
	"errors"
	"fmt"
)

// Parse and construction errors
var (
	// ErrUnexpectedEOF indicates the LaTeX source ended inside a group,
	// argument, or environment.
	ErrUnexpectedEOF = errors.New("unexpected end of input")

	// ErrUnbalancedBrace indicates a '}' with no matching '{'.
	ErrUnbalancedBrace = errors.New("unbalanced closing brace")

	// ErrUnknownConstruct indicates a parse node the tree builder does not
	// understand. Content is never silently dropped.
	ErrUnknownConstruct = errors.New("unknown construct")

	// ErrDanglingScript indicates a '^' or '_' with no base expression.
	ErrDanglingScript = errors.New("script has no base")
)

// Canonicalization errors
var (
	// ErrInvariantViolation indicates a canonicalization pass produced a
	// shape the pipeline cannot resolve, such as a required slot (fraction
	// numerator, script base) collapsing to empty. The edit that caused it
	// must be rejected.
	ErrInvariantViolation = errors.New("canonicalization invariant violation")
)

// Replacement and selection errors
var (
	// ErrNotSiblings indicates a consolidation request whose ids are not a
	// contiguous run of children under one parent.
	ErrNotSiblings = errors.New("ids are not a contiguous sibling run")

	// ErrEmptySelection indicates a style operation with nothing selected.
	ErrEmptySelection = errors.New("selection is empty")
)

// Document errors
var (
	// ErrEditRejected indicates a committed edit failed to parse or
	// canonicalize; the prior document state remains authoritative.
	ErrEditRejected = errors.New("edit rejected")

	// ErrNoHistory indicates there is no further undo or redo state.
	ErrNoHistory = errors.New("no further history")

	// ErrStaleRender indicates a render completion for a generation that
	// has been superseded by a newer tree.
	ErrStaleRender = errors.New("stale render generation")
)

// ConstructionError reports a parse-tree construct the builder cannot turn
// into an augmented formula node. It wraps ErrUnknownConstruct so callers
// can test with errors.Is.
type ConstructionError struct {
	Construct string // the command or shape that was not recognized
	Pos       int    // rune offset in the source, -1 if unknown
}

func (e *ConstructionError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("cannot build %q at offset %d", e.Construct, e.Pos)
	}
	return fmt.Sprintf("cannot build %q", e.Construct)
}

func (e *ConstructionError) Unwrap() error { return ErrUnknownConstruct }

// PassError reports a canonicalization pass failure with enough context to
// diagnose which node broke which invariant.
type PassError struct {
	Pass   string // pass name, e.g. "removeEmptyGroups"
	NodeID string // id of the offending node
	Err    error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("%s: node %q: %v", e.Pass, e.NodeID, e.Err)
}

func (e *PassError) Unwrap() error { return e.Err }
