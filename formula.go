package formula

import (
	"fmt"
	"log/slog"
)

// DocumentOptions configures NewDocument.
type DocumentOptions struct {
	// Latex is the initial formula source.
	Latex string

	// Logger receives structured diagnostics (stale references, rejected
	// edits). Nil disables logging.
	Logger *slog.Logger

	// Variables optionally attaches interactive-variable configuration,
	// as parsed by ParseVariableConfig.
	Variables map[string]VariableConfig
}

// Document owns one formula's live state: the canonical tree, the styled
// source text model, the selection, the undo history, and the render
// generation used to discard stale typesetter geometry. All document
// state is owned by a single logical editing path; Document is not safe
// for concurrent use and deliberately carries no locks.
type Document struct {
	formula AugmentedFormula
	ranges  FormulaLatexRanges

	// srcValid is false while the text model holds an edit that does not
	// re-parse; the last good tree stays authoritative.
	srcValid bool

	history   *History
	selection SelectionState
	variables map[string]VariableConfig

	// activeRanges are the styled ranges the caret currently sits inside,
	// deciding whether boundary typing extends or escapes a style.
	activeRanges map[string]bool

	renderGen uint64
	logger    *slog.Logger
}

// NewDocument parses the initial source and builds a document around it.
func NewDocument(opts DocumentOptions) (*Document, error) {
	f, err := DeriveAugmentedFormula(opts.Latex)
	if err != nil {
		return nil, err
	}
	d := &Document{
		formula:      f,
		ranges:       f.StyledRanges(),
		srcValid:     true,
		history:      NewHistory(f.Latex(LatexNoID)),
		selection:    SelectionState{Targets: make(map[string]Rect)},
		variables:    opts.Variables,
		activeRanges: make(map[string]bool),
		logger:       opts.Logger,
	}
	return d, nil
}

// Formula returns the current canonical tree snapshot.
func (d *Document) Formula() AugmentedFormula { return d.formula }

// Ranges returns the current styled-range text model. While an edit is in
// flight that does not re-parse, this holds the user's literal text even
// though the tree still reflects the last good state.
func (d *Document) Ranges() FormulaLatexRanges { return d.ranges }

// Latex returns the canonical no-id source of the current tree.
func (d *Document) Latex() string { return d.formula.Latex(LatexNoID) }

// SourceValid reports whether the text model currently re-parses. A false
// value is the recoverable "invalid formula" state; the user's text is
// preserved and the previous tree remains authoritative.
func (d *Document) SourceValid() bool { return d.srcValid }

// Variables returns the interactive-variable configuration, nil if none.
func (d *Document) Variables() map[string]VariableConfig { return d.variables }

// adopt installs a new canonical tree, regenerates the text model from
// it, and records an undo snapshot.
func (d *Document) adopt(f AugmentedFormula) {
	d.formula = f
	d.ranges = f.StyledRanges()
	d.srcValid = true
	d.history.Record(f.Latex(LatexNoID))
}

// reject logs and wraps an edit failure; the prior state stays in place.
func (d *Document) reject(op string, err error) error {
	if d.logger != nil {
		d.logger.Warn("edit rejected", "op", op, "err", err)
	}
	return fmt.Errorf("%w: %w", ErrEditRejected, err)
}

// CommitLatex replaces the whole formula from source. A failed parse or
// canonicalization rejects the edit and keeps the prior tree.
func (d *Document) CommitLatex(src string) error {
	f, err := DeriveAugmentedFormula(src)
	if err != nil {
		return d.reject("commit", err)
	}
	d.adopt(f)
	return nil
}

// SetCaret records which styled ranges the caret position is strictly
// inside, for boundary-typing decisions. Edge positions intentionally do
// not count as inside.
func (d *Document) SetCaret(pos int) {
	d.activeRanges = make(map[string]bool)
	for _, r := range d.ranges.GetPositionRanges(pos, false) {
		if sr, ok := r.(*StyledRange); ok {
			d.activeRanges[sr.ID] = true
		}
	}
}

// ApplyTextEdit applies one character-level edit to the text model. If
// the edited text re-parses, the tree is rebuilt and a snapshot recorded;
// otherwise the document enters the invalid-source state without losing
// the user's text.
func (d *Document) ApplyTextEdit(change ContentChange) error {
	d.ranges = d.ranges.WithContentChange(change, d.activeRanges)
	f, err := DeriveAugmentedFormula(d.ranges.ToLatex())
	if err != nil {
		d.srcValid = false
		if d.logger != nil {
			d.logger.Debug("source does not re-parse yet", "err", err)
		}
		return nil
	}
	d.formula = f
	d.srcValid = true
	d.history.Record(f.Latex(LatexNoID))
	return nil
}

// SyncSource reconciles the text model with a full replacement source
// string as reported by the plain-text editor, applying the minimal
// character changes between the two.
func (d *Document) SyncSource(newText string) error {
	for _, change := range ChangesBetween(d.ranges.ToLatex(), newText) {
		if err := d.ApplyTextEdit(change); err != nil {
			return err
		}
	}
	return nil
}

// Replace maps every node through the replacer and commits the result.
func (d *Document) Replace(replacer Replacer) error {
	f, err := ReplaceNodes(d.formula, replacer)
	if err != nil {
		return d.reject("replace", err)
	}
	d.adopt(f)
	return nil
}

// Selection accessors and mutation.

// Select adds node ids to the explicit selection.
func (d *Document) Select(ids ...string) {
	for _, id := range ids {
		if d.formula.FindNode(id) == nil {
			logStale(d.logger, "select", id)
			continue
		}
		d.selection.Selected = append(d.selection.Selected, id)
	}
}

// ClearSelection drops the explicit selection and any drag state.
func (d *Document) ClearSelection() {
	d.selection.Selected = nil
	d.selection.DragRect = nil
}

// SetDragRect sets the active drag region; nil ends the drag.
func (d *Document) SetDragRect(r *Rect) { d.selection.DragRect = r }

// SetTarget records a rendered leaf bounding box for hit-testing.
func (d *Document) SetTarget(id string, box Rect) { d.selection.Targets[id] = box }

// ResolvedSelection promotes and merges the raw selection into maximal
// structurally coherent node ids.
func (d *Document) ResolvedSelection() []string {
	return ResolveSelection(d.formula, &d.selection, d.logger)
}

// SelectionGroups returns the resolved selection as contiguous sibling-id
// runs ready for consolidation.
func (d *Document) SelectionGroups() [][]string {
	return SiblingSelections(d.formula, d.ResolvedSelection(), d.logger)
}

// applyStyle consolidates the current selection and wraps each resulting
// group with the style node produced by wrap.
func (d *Document) applyStyle(op string, wrap func(body []Node) Node) error {
	groups := d.SelectionGroups()
	if len(groups) == 0 {
		return d.reject(op, ErrEmptySelection)
	}
	consolidated, groupIDs, err := ConsolidateGroups(d.formula, groups)
	if err != nil {
		return d.reject(op, err)
	}
	wrapped := make(map[string]bool, len(groupIDs))
	for _, id := range groupIDs {
		wrapped[id] = true
	}
	f, err := ReplaceNodes(consolidated, func(n Node) Node {
		if !wrapped[n.ID()] {
			return n
		}
		if g, ok := n.(*Group); ok {
			return wrap(g.Body)
		}
		return wrap([]Node{n})
	})
	if err != nil {
		return d.reject(op, err)
	}
	d.adopt(f)
	d.ClearSelection()
	return nil
}

// ApplyColor colors the current selection.
func (d *Document) ApplyColor(color string) error {
	return d.applyStyle("color", func(body []Node) Node {
		return &Color{Color: color, Body: body}
	})
}

// ApplyBox draws a border and background behind the current selection.
func (d *Document) ApplyBox(borderColor, backgroundColor string) error {
	return d.applyStyle("box", func(body []Node) Node {
		return &Box{BorderColor: borderColor, BackgroundColor: backgroundColor, Body: nodeOrGroup(body)}
	})
}

// ApplyBrace annotates the current selection with an over- or underbrace.
func (d *Document) ApplyBrace(over bool) error {
	return d.applyStyle("brace", func(body []Node) Node {
		return &Brace{Over: over, Base: nodeOrGroup(body)}
	})
}

// ApplyStrikethrough crosses out the current selection.
func (d *Document) ApplyStrikethrough() error {
	return d.applyStyle("strikethrough", func(body []Node) Node {
		return &Strikethrough{Body: nodeOrGroup(body)}
	})
}

// Undo restores the previous snapshot.
func (d *Document) Undo() error {
	snapshot, err := d.history.Undo()
	if err != nil {
		return err
	}
	return d.restore(snapshot)
}

// Redo restores the next snapshot.
func (d *Document) Redo() error {
	snapshot, err := d.history.Redo()
	if err != nil {
		return err
	}
	return d.restore(snapshot)
}

func (d *Document) restore(snapshot string) error {
	f, err := DeriveAugmentedFormula(snapshot)
	if err != nil {
		// Snapshots are canonical output; failing to re-derive one is a
		// bug worth surfacing loudly.
		return d.reject("history", err)
	}
	d.formula = f
	d.ranges = f.StyledRanges()
	d.srcValid = true
	d.ClearSelection()
	return nil
}

// BeginRender starts a new render generation and returns the id-marked
// LaTeX for the typesetter. Starting a new render invalidates geometry
// from any previous in-flight render.
func (d *Document) BeginRender() (latex string, generation uint64) {
	d.renderGen++
	return d.formula.Latex(LatexRender), d.renderGen
}

// CompleteRender accepts typesetter output for a generation. Results for
// superseded generations are discarded with ErrStaleRender so geometry
// from an older tree can never attach to a newer one.
func (d *Document) CompleteRender(generation uint64, markup string) (*RenderSpec, error) {
	if generation != d.renderGen {
		if d.logger != nil {
			d.logger.Debug("discarding stale render", "generation", generation, "current", d.renderGen)
		}
		return nil, ErrStaleRender
	}
	return ParseRenderedFragment(markup)
}
