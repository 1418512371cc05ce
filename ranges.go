package formula

import (
	"fmt"
	"strings"
)

// RangeNode is one element of the styled-range text model: either a plain
// substring or a styled bracket pair wrapping nested ranges.
type RangeNode interface {
	// Length is the total covered character count in the flattened source
	// string, used for all offset arithmetic.
	Length() int

	appendLatex(b *strings.Builder)
}

// UnstyledRange is a plain substring of the source text.
type UnstyledRange struct {
	Text string
}

func (r *UnstyledRange) Length() int { return len([]rune(r.Text)) }

func (r *UnstyledRange) appendLatex(b *strings.Builder) { b.WriteString(r.Text) }

// StyleHints carries display metadata for a styled range: never semantics.
type StyleHints struct {
	Color    string // marker/border color for the range
	Tooltip  string // hover caption
	NoMarker bool   // suppress the visual range marker
}

// StyledRange is a bracketing pair of literal strings wrapping nested
// ranges, e.g. "\textcolor{red}{" ... "}".
type StyledRange struct {
	ID       string
	Left     string
	Children []RangeNode
	Right    string
	Hints    *StyleHints
}

func (r *StyledRange) Length() int {
	n := len([]rune(r.Left)) + len([]rune(r.Right))
	for _, c := range r.Children {
		n += c.Length()
	}
	return n
}

func (r *StyledRange) appendLatex(b *strings.Builder) {
	b.WriteString(r.Left)
	for _, c := range r.Children {
		c.appendLatex(b)
	}
	b.WriteString(r.Right)
}

// FormulaLatexRanges represents a formula's source text as an ordered
// sequence of styled and unstyled ranges.
type FormulaLatexRanges struct {
	Ranges []RangeNode
}

// NewFormulaLatexRanges wraps a range list, enforcing the constructor
// invariant that no two unstyled siblings are ever adjacent.
func NewFormulaLatexRanges(ranges []RangeNode) FormulaLatexRanges {
	return FormulaLatexRanges{Ranges: mergeUnstyled(ranges)}
}

// mergeUnstyled combines adjacent unstyled siblings at one nesting level
// and drops empty unstyled ranges.
func mergeUnstyled(ranges []RangeNode) []RangeNode {
	var out []RangeNode
	for _, r := range ranges {
		if u, ok := r.(*UnstyledRange); ok {
			if u.Text == "" {
				continue
			}
			if len(out) > 0 {
				if prev, ok := out[len(out)-1].(*UnstyledRange); ok {
					out[len(out)-1] = &UnstyledRange{Text: prev.Text + u.Text}
					continue
				}
			}
		}
		out = append(out, r)
	}
	return out
}

// Length is the flattened character count of the whole model.
func (f FormulaLatexRanges) Length() int {
	n := 0
	for _, r := range f.Ranges {
		n += r.Length()
	}
	return n
}

// ToLatex flattens the model back to source text.
func (f FormulaLatexRanges) ToLatex() string {
	var b strings.Builder
	for _, r := range f.Ranges {
		r.appendLatex(&b)
	}
	return b.String()
}

// GetPositionRanges returns every range containing the caret position,
// innermost first. A range of covered length n contains n-1 strictly
// interior positions when includeEdges is false and n+1 positions
// including both boundaries when true: entering a styled region from its
// edge does not count as inside, but a boundary crossing still touches it.
// Out-of-bounds positions are a programming error and panic.
func (f FormulaLatexRanges) GetPositionRanges(pos int, includeEdges bool) []RangeNode {
	if pos < 0 || pos > f.Length() {
		panic(fmt.Sprintf("formula: position %d out of bounds [0,%d]", pos, f.Length()))
	}
	var topDown []RangeNode
	collectPositionRanges(f.Ranges, 0, pos, includeEdges, &topDown)
	// Innermost first: reverse of the top-down visitation.
	for i, j := 0, len(topDown)-1; i < j; i, j = i+1, j-1 {
		topDown[i], topDown[j] = topDown[j], topDown[i]
	}
	return topDown
}

func collectPositionRanges(ranges []RangeNode, start, pos int, includeEdges bool, out *[]RangeNode) {
	off := start
	for _, r := range ranges {
		n := r.Length()
		s, e := off, off+n
		contains := pos > s && pos < e
		if includeEdges {
			contains = pos >= s && pos <= e
		}
		if contains {
			*out = append(*out, r)
			if sr, ok := r.(*StyledRange); ok {
				collectPositionRanges(sr.Children, s+len([]rune(sr.Left)), pos, includeEdges, out)
			}
		}
		off = e
	}
}

// ChangeOp discriminates content changes.
type ChangeOp int

const (
	// ChangeInsert inserts text at From (To is ignored).
	ChangeInsert ChangeOp = iota

	// ChangeDelete removes the half-open character range [From, To).
	ChangeDelete
)

// ContentChange is a single character-level edit against the flattened
// source string.
type ContentChange struct {
	Op       ChangeOp
	From     int
	To       int
	Inserted string
}

// WithContentChange applies one edit and returns a new range tree.
// activeRangeIDs are the styled ranges the caret is currently inside:
// typing at the boundary of a style extends it when active and escapes it
// otherwise. Out-of-bounds offsets panic; offset correctness is
// safety-critical to the caller's editor state and is never clamped.
func (f FormulaLatexRanges) WithContentChange(change ContentChange, activeRangeIDs map[string]bool) FormulaLatexRanges {
	total := f.Length()
	switch change.Op {
	case ChangeInsert:
		if change.From < 0 || change.From > total {
			panic(fmt.Sprintf("formula: insert position %d out of bounds [0,%d]", change.From, total))
		}
		if change.Inserted == "" {
			return NewFormulaLatexRanges(f.Ranges)
		}
		return NewFormulaLatexRanges(insertAt(f.Ranges, 0, change.From, change.Inserted, activeRangeIDs))
	case ChangeDelete:
		if change.From < 0 || change.To > total || change.From > change.To {
			panic(fmt.Sprintf("formula: delete range [%d,%d) out of bounds [0,%d]", change.From, change.To, total))
		}
		return NewFormulaLatexRanges(deleteRange(f.Ranges, 0, change.From, change.To))
	}
	panic(fmt.Sprintf("formula: unknown change op %d", change.Op))
}

// insertAt places text at position pos within one nesting level,
// recursing into styled ranges for strictly interior positions.
func insertAt(ranges []RangeNode, start, pos int, text string, active map[string]bool) []RangeNode {
	// Phase one: an active styled range touching pos absorbs the text.
	// Scanning left to right means a shared boundary between two active
	// ranges extends the earlier one.
	off := start
	for i, r := range ranges {
		n := r.Length()
		s, e := off, off+n
		off = e
		sr, styled := r.(*StyledRange)
		if !styled || !active[sr.ID] {
			continue
		}
		if pos == s {
			out := append([]RangeNode(nil), ranges...)
			out[i] = styledWithChildren(sr, mergeUnstyled(append([]RangeNode{&UnstyledRange{Text: text}}, sr.Children...)))
			return out
		}
		if pos == e {
			out := append([]RangeNode(nil), ranges...)
			out[i] = styledWithChildren(sr, mergeUnstyled(append(append([]RangeNode(nil), sr.Children...), &UnstyledRange{Text: text})))
			return out
		}
	}

	// Phase two: strictly interior positions splice into unstyled text or
	// recurse into a styled range's children.
	off = start
	for i, r := range ranges {
		n := r.Length()
		s, e := off, off+n
		off = e
		if pos <= s || pos >= e {
			continue
		}
		out := append([]RangeNode(nil), ranges...)
		switch t := r.(type) {
		case *UnstyledRange:
			runes := []rune(t.Text)
			at := pos - s
			out[i] = &UnstyledRange{Text: string(runes[:at]) + text + string(runes[at:])}
		case *StyledRange:
			llen := len([]rune(t.Left))
			rlen := len([]rune(t.Right))
			switch {
			case pos < s+llen:
				// Inside the left bracket literal. Brackets cannot be
				// split, so the text snaps to the literal's nearest edge:
				// either just before the range or the start of its body.
				if pos-s <= s+llen-pos {
					return insertSibling(ranges, i, text)
				}
				out[i] = styledWithChildren(t, insertAt(t.Children, s+llen, s+llen, text, active))
			case pos > e-rlen:
				if e-pos <= pos-(e-rlen) {
					return insertSibling(ranges, i+1, text)
				}
				out[i] = styledWithChildren(t, insertAt(t.Children, s+llen, e-rlen, text, active))
			default:
				out[i] = styledWithChildren(t, insertAt(t.Children, s+llen, pos, text, active))
			}
		}
		return out
	}

	// Phase three: pos sits at a boundary with no active range; the text
	// becomes (or joins) a sibling unstyled range at this level.
	off = start
	for i, r := range ranges {
		if pos == off {
			return insertSibling(ranges, i, text)
		}
		off += r.Length()
	}
	return insertSibling(ranges, len(ranges), text)
}

func insertSibling(ranges []RangeNode, i int, text string) []RangeNode {
	out := make([]RangeNode, 0, len(ranges)+1)
	out = append(out, ranges[:i]...)
	out = append(out, &UnstyledRange{Text: text})
	out = append(out, ranges[i:]...)
	return mergeUnstyled(out)
}

func styledWithChildren(r *StyledRange, children []RangeNode) *StyledRange {
	return &StyledRange{ID: r.ID, Left: r.Left, Children: children, Right: r.Right, Hints: r.Hints}
}

// deleteRange removes [from,to) at one nesting level. A deletion covering
// a whole styled range removes it; one that consumes part of a bracket
// literal dissolves the style, splicing the surviving children into this
// level, since a half-deleted command cannot be kept.
func deleteRange(ranges []RangeNode, start, from, to int) []RangeNode {
	out := make([]RangeNode, 0, len(ranges))
	off := start
	for _, r := range ranges {
		n := r.Length()
		s, e := off, off+n
		off = e
		if to <= s || from >= e {
			out = append(out, r)
			continue
		}
		switch t := r.(type) {
		case *UnstyledRange:
			runes := []rune(t.Text)
			lo := max(from, s) - s
			hi := min(to, e) - s
			kept := string(runes[:lo]) + string(runes[hi:])
			out = append(out, &UnstyledRange{Text: kept})
		case *StyledRange:
			if from <= s && to >= e {
				continue
			}
			llen := len([]rune(t.Left))
			rlen := len([]rune(t.Right))
			children := deleteRange(t.Children, s+llen, clampInt(from, s+llen, e-rlen), clampInt(to, s+llen, e-rlen))
			if from < s+llen || to > e-rlen {
				out = append(out, mergeUnstyled(children)...)
				continue
			}
			out = append(out, styledWithChildren(t, mergeUnstyled(children)))
		}
	}
	return mergeUnstyled(out)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// styledRangesOf mirrors the no-id LaTeX emission, splitting it into
// styled ranges at the styling nodes (Color, Box, Brace, Strikethrough,
// Aligned) and literal unstyled text everywhere else. The flattened text
// of the result equals the node sequence's no-id LaTeX.
func styledRangesOf(nodes []Node) []RangeNode {
	var out []RangeNode
	for _, n := range nodes {
		out = append(out, rangesOfNode(n)...)
	}
	return mergeUnstyled(out)
}

// slotRanges serializes a slot argument's interior, with the surrounding
// braces supplied by the caller's literal text.
func slotRanges(n Node) []RangeNode {
	if g, ok := n.(*Group); ok {
		return styledRangesOf(g.Body)
	}
	return rangesOfNode(n)
}

func rangesOfNode(n Node) []RangeNode {
	switch t := n.(type) {
	case *Symbol, *Op, *Space:
		return []RangeNode{&UnstyledRange{Text: n.Latex(LatexNoID)}}
	case *Group:
		out := []RangeNode{&UnstyledRange{Text: "{"}}
		out = append(out, styledRangesOf(t.Body)...)
		return append(out, &UnstyledRange{Text: "}"})
	case *Fraction:
		out := []RangeNode{&UnstyledRange{Text: `\frac{`}}
		out = append(out, slotRanges(t.Numerator)...)
		out = append(out, &UnstyledRange{Text: "}{"})
		out = append(out, slotRanges(t.Denominator)...)
		return append(out, &UnstyledRange{Text: "}"})
	case *Script:
		var out []RangeNode
		if _, grouped := t.Base.(*Group); grouped {
			out = append(out, &UnstyledRange{Text: "{"})
			out = append(out, slotRanges(t.Base)...)
			out = append(out, &UnstyledRange{Text: "}"})
		} else {
			out = append(out, rangesOfNode(t.Base)...)
		}
		if t.Sub != nil {
			out = append(out, &UnstyledRange{Text: "_{"})
			out = append(out, slotRanges(t.Sub)...)
			out = append(out, &UnstyledRange{Text: "}"})
		}
		if t.Sup != nil {
			out = append(out, &UnstyledRange{Text: "^{"})
			out = append(out, slotRanges(t.Sup)...)
			out = append(out, &UnstyledRange{Text: "}"})
		}
		return out
	case *TextRun:
		out := []RangeNode{&UnstyledRange{Text: `\text{`}}
		out = append(out, styledRangesOf(t.Body)...)
		return append(out, &UnstyledRange{Text: "}"})
	case *Root:
		out := []RangeNode{&UnstyledRange{Text: `\sqrt`}}
		if t.Index != nil {
			out = append(out, &UnstyledRange{Text: "["})
			out = append(out, slotRanges(t.Index)...)
			out = append(out, &UnstyledRange{Text: "]"})
		}
		out = append(out, &UnstyledRange{Text: "{"})
		out = append(out, slotRanges(t.Body)...)
		return append(out, &UnstyledRange{Text: "}"})
	case *Color:
		return []RangeNode{&StyledRange{
			ID:       t.ID(),
			Left:     `\textcolor{` + t.Color + `}{`,
			Children: styledRangesOf(t.Body),
			Right:    "}",
			Hints:    &StyleHints{Color: t.Color},
		}}
	case *Box:
		return []RangeNode{&StyledRange{
			ID:       t.ID(),
			Left:     `\fcolorbox{` + t.BorderColor + `}{` + t.BackgroundColor + `}{`,
			Children: slotRanges(t.Body),
			Right:    "}",
			Hints:    &StyleHints{Color: t.BorderColor},
		}}
	case *Brace:
		cmd := `\underbrace{`
		tip := "underbrace"
		if t.Over {
			cmd = `\overbrace{`
			tip = "overbrace"
		}
		return []RangeNode{&StyledRange{
			ID:       t.ID(),
			Left:     cmd,
			Children: slotRanges(t.Base),
			Right:    "}",
			Hints:    &StyleHints{Tooltip: tip},
		}}
	case *Strikethrough:
		return []RangeNode{&StyledRange{
			ID:       t.ID(),
			Left:     `\cancel{`,
			Children: slotRanges(t.Body),
			Right:    "}",
			Hints:    &StyleHints{Tooltip: "strikethrough"},
		}}
	case *Aligned:
		var children []RangeNode
		for i, row := range t.Body {
			if i > 0 {
				children = append(children, &UnstyledRange{Text: `\\`})
			}
			for j, cell := range row {
				if j > 0 {
					children = append(children, &UnstyledRange{Text: "&"})
				}
				children = append(children, rangesOfNode(cell)...)
			}
		}
		return []RangeNode{&StyledRange{
			ID:       t.ID(),
			Left:     `\begin{aligned}`,
			Children: mergeUnstyled(children),
			Right:    `\end{aligned}`,
			Hints:    &StyleHints{NoMarker: true},
		}}
	}
	return []RangeNode{&UnstyledRange{Text: n.Latex(LatexNoID)}}
}
