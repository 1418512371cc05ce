package formula

import "strings"

// LatexMode selects how a tree serializes back to LaTeX.
type LatexMode int

const (
	// LatexRender wraps every node in a \cssId marker so the typesetter's
	// output elements can be correlated back to tree ids for hit-testing.
	LatexRender LatexMode = iota

	// LatexNoID is the bare canonical source text. This is the round-trip
	// form used for equality and undo-history snapshots.
	LatexNoID

	// LatexContentOnly strips cosmetic wrapping (color, box, brace,
	// strikethrough commands), keeping only content. Used by the
	// plain-text editing surface where style is edited structurally.
	LatexContentOnly
)

// latexSequence serializes a node list by concatenation.
func latexSequence(nodes []Node, mode LatexMode) string {
	var b strings.Builder
	for _, n := range nodes {
		b.WriteString(n.Latex(mode))
	}
	return b.String()
}

// wrapID adds the render-mode id marker around a serialized node.
func wrapID(mode LatexMode, n Node, inner string) string {
	if mode != LatexRender {
		return inner
	}
	return `\cssId{` + n.ID() + `}{` + inner + `}`
}

// argLatex serializes a node as a braced command argument. A Group child
// supplies the argument braces itself, so its body is spliced in directly
// rather than double-braced.
func argLatex(n Node, mode LatexMode) string {
	if g, ok := n.(*Group); ok {
		return "{" + wrapID(mode, g, latexSequence(g.Body, mode)) + "}"
	}
	return "{" + n.Latex(mode) + "}"
}

// symbolLatex emits an atom, keeping a separating space after command
// names so adjacent letters cannot fuse into the command.
func symbolLatex(v string) string {
	if strings.HasPrefix(v, `\`) && endsWithLetter(v) {
		return v + " "
	}
	return v
}

func endsWithLetter(s string) bool {
	if s == "" {
		return false
	}
	c := s[len(s)-1]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (n *Symbol) Latex(mode LatexMode) string {
	return wrapID(mode, n, symbolLatex(n.Value))
}

func (n *Op) Latex(mode LatexMode) string {
	op := n.Operator
	if n.Limits {
		op += `\limits`
	}
	return wrapID(mode, n, symbolLatex(op))
}

func (n *Space) Latex(mode LatexMode) string {
	return wrapID(mode, n, n.Text)
}

func (n *Fraction) Latex(mode LatexMode) string {
	return wrapID(mode, n, `\frac`+argLatex(n.Numerator, mode)+argLatex(n.Denominator, mode))
}

func (n *Script) Latex(mode LatexMode) string {
	var b strings.Builder
	if _, grouped := n.Base.(*Group); grouped {
		b.WriteString(argLatex(n.Base, mode))
	} else {
		b.WriteString(n.Base.Latex(mode))
	}
	if n.Sub != nil {
		b.WriteString("_")
		b.WriteString(argLatex(n.Sub, mode))
	}
	if n.Sup != nil {
		b.WriteString("^")
		b.WriteString(argLatex(n.Sup, mode))
	}
	return wrapID(mode, n, b.String())
}

func (n *Group) Latex(mode LatexMode) string {
	return wrapID(mode, n, "{"+latexSequence(n.Body, mode)+"}")
}

func (n *Color) Latex(mode LatexMode) string {
	if mode == LatexContentOnly {
		return latexSequence(n.Body, mode)
	}
	return wrapID(mode, n, `\textcolor{`+n.Color+`}{`+latexSequence(n.Body, mode)+`}`)
}

func (n *Box) Latex(mode LatexMode) string {
	if mode == LatexContentOnly {
		return n.Body.Latex(mode)
	}
	return wrapID(mode, n, `\fcolorbox{`+n.BorderColor+`}{`+n.BackgroundColor+`}`+argLatex(n.Body, mode))
}

func (n *Brace) Latex(mode LatexMode) string {
	if mode == LatexContentOnly {
		return n.Base.Latex(mode)
	}
	cmd := `\underbrace`
	if n.Over {
		cmd = `\overbrace`
	}
	return wrapID(mode, n, cmd+argLatex(n.Base, mode))
}

func (n *TextRun) Latex(mode LatexMode) string {
	return wrapID(mode, n, `\text{`+latexSequence(n.Body, mode)+`}`)
}

func (n *Aligned) Latex(mode LatexMode) string {
	rows := make([]string, len(n.Body))
	for i, row := range n.Body {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = cell.Latex(mode)
		}
		rows[i] = strings.Join(cells, "&")
	}
	inner := strings.Join(rows, `\\`)
	if mode == LatexContentOnly {
		return inner
	}
	return wrapID(mode, n, `\begin{aligned}`+inner+`\end{aligned}`)
}

func (n *Root) Latex(mode LatexMode) string {
	var b strings.Builder
	b.WriteString(`\sqrt`)
	if n.Index != nil {
		b.WriteString("[")
		if g, ok := n.Index.(*Group); ok {
			b.WriteString(wrapID(mode, g, latexSequence(g.Body, mode)))
		} else {
			b.WriteString(n.Index.Latex(mode))
		}
		b.WriteString("]")
	}
	b.WriteString(argLatex(n.Body, mode))
	return wrapID(mode, n, b.String())
}

func (n *Strikethrough) Latex(mode LatexMode) string {
	if mode == LatexContentOnly {
		return n.Body.Latex(mode)
	}
	return wrapID(mode, n, `\cancel`+argLatex(n.Body, mode))
}
