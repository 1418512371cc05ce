package formula

import "strings"

// mathMLNamespace is the namespace emitted on the root <math> element.
const mathMLNamespace = "http://www.w3.org/1998/Math/MathML"

// greekLetters maps letter commands to their identifier glyph.
var greekLetters = map[string]string{
	`\alpha`: "α", `\beta`: "β", `\gamma`: "γ", `\delta`: "δ",
	`\epsilon`: "ε", `\varepsilon`: "ε", `\zeta`: "ζ", `\eta`: "η",
	`\theta`: "θ", `\iota`: "ι", `\kappa`: "κ", `\lambda`: "λ",
	`\mu`: "μ", `\nu`: "ν", `\xi`: "ξ", `\pi`: "π",
	`\rho`: "ρ", `\sigma`: "σ", `\tau`: "τ", `\upsilon`: "υ",
	`\phi`: "φ", `\varphi`: "ϕ", `\chi`: "χ", `\psi`: "ψ", `\omega`: "ω",
	`\Gamma`: "Γ", `\Delta`: "Δ", `\Theta`: "Θ", `\Lambda`: "Λ",
	`\Xi`: "Ξ", `\Pi`: "Π", `\Sigma`: "Σ", `\Upsilon`: "Υ",
	`\Phi`: "Φ", `\Psi`: "Ψ", `\Omega`: "Ω",
	`\infty`: "∞", `\partial`: "∂", `\nabla`: "∇", `\ell`: "ℓ", `\hbar`: "ℏ",
}

// operatorSymbols maps operator commands to their <mo> glyph.
var operatorSymbols = map[string]string{
	`\cdot`: "·", `\times`: "×", `\div`: "÷", `\pm`: "±", `\mp`: "∓",
	`\leq`: "≤", `\le`: "≤", `\geq`: "≥", `\ge`: "≥",
	`\neq`: "≠", `\ne`: "≠", `\approx`: "≈", `\equiv`: "≡", `\sim`: "∼",
	`\rightarrow`: "→", `\to`: "→", `\leftarrow`: "←", `\mapsto`: "↦",
	`\Rightarrow`: "⇒", `\Leftarrow`: "⇐", `\Leftrightarrow`: "⇔",
	`\in`: "∈", `\notin`: "∉", `\subset`: "⊂", `\supset`: "⊃",
	`\subseteq`: "⊆", `\supseteq`: "⊇", `\cup`: "∪", `\cap`: "∩",
	`\forall`: "∀", `\exists`: "∃", `\land`: "∧", `\lor`: "∨", `\neg`: "¬",
	`\sum`: "∑", `\prod`: "∏", `\int`: "∫", `\oint`: "∮", `\coprod`: "∐",
	`\ldots`: "…", `\cdots`: "⋯",
}

// spaceWidths maps spacing commands to mspace widths.
var spaceWidths = map[string]string{
	`\,`: "0.167em", `\:`: "0.222em", `\;`: "0.278em", `\ `: "0.333em",
	`\quad`: "1em", `\qquad`: "2em", `~`: "0.333em",
}

func xmlEscape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// mathMLDocument wraps a node sequence in a namespaced <math> element.
func mathMLDocument(body []Node) string {
	return `<math xmlns="` + mathMLNamespace + `">` + mathMLRow(body) + `</math>`
}

// mathMLRow serializes a node sequence, adding an <mrow> wrapper whenever
// more than one element needs to act as a single operand.
func mathMLRow(nodes []Node) string {
	if len(nodes) == 1 {
		return nodes[0].MathML()
	}
	var b strings.Builder
	b.WriteString("<mrow>")
	for _, n := range nodes {
		b.WriteString(n.MathML())
	}
	b.WriteString("</mrow>")
	return b.String()
}

// slotMathML serializes a named-slot child; a Group slot becomes an <mrow>
// of its body rather than a nested group element.
func slotMathML(n Node) string {
	if g, ok := n.(*Group); ok {
		return mathMLRow(g.Body)
	}
	return n.MathML()
}

func isASCIIDigit(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isASCIILetter(s string) bool {
	if len(s) != 1 {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func (n *Symbol) MathML() string {
	v := n.Value
	switch {
	case isASCIIDigit(v):
		return "<mn>" + v + "</mn>"
	case isASCIILetter(v):
		return "<mi>" + v + "</mi>"
	case strings.ContainsAny(v, "+-=<>/*,!.;:()[]|"):
		return "<mo>" + xmlEscape(v) + "</mo>"
	}
	if glyph, ok := greekLetters[v]; ok {
		return "<mi>" + glyph + "</mi>"
	}
	if glyph, ok := operatorSymbols[v]; ok {
		return "<mo>" + glyph + "</mo>"
	}
	// Unrecognized atoms fall back to literal text.
	return "<mtext>" + xmlEscape(strings.TrimPrefix(v, `\`)) + "</mtext>"
}

func (n *Op) MathML() string {
	if glyph, ok := operatorSymbols[n.Operator]; ok {
		return "<mo>" + glyph + "</mo>"
	}
	// Named function operators (\sin, \lim, ...) display by name.
	return "<mo>" + xmlEscape(strings.TrimPrefix(n.Operator, `\`)) + "</mo>"
}

func (n *Space) MathML() string {
	if w, ok := spaceWidths[strings.TrimRight(n.Text, " ")]; ok {
		return `<mspace width="` + w + `"/>`
	}
	return "<mspace/>"
}

func (n *Fraction) MathML() string {
	return "<mfrac>" + slotMathML(n.Numerator) + slotMathML(n.Denominator) + "</mfrac>"
}

func (n *Script) MathML() string {
	switch {
	case n.Sub != nil && n.Sup != nil:
		return "<msubsup>" + slotMathML(n.Base) + slotMathML(n.Sub) + slotMathML(n.Sup) + "</msubsup>"
	case n.Sub != nil:
		return "<msub>" + slotMathML(n.Base) + slotMathML(n.Sub) + "</msub>"
	case n.Sup != nil:
		return "<msup>" + slotMathML(n.Base) + slotMathML(n.Sup) + "</msup>"
	}
	return slotMathML(n.Base)
}

func (n *Group) MathML() string {
	var b strings.Builder
	b.WriteString("<mrow>")
	for _, c := range n.Body {
		b.WriteString(c.MathML())
	}
	b.WriteString("</mrow>")
	return b.String()
}

func (n *Color) MathML() string {
	return `<mstyle mathcolor="` + xmlEscape(n.Color) + `">` + mathMLRow(n.Body) + "</mstyle>"
}

func (n *Box) MathML() string {
	return `<menclose notation="box">` + slotMathML(n.Body) + "</menclose>"
}

func (n *Brace) MathML() string {
	if n.Over {
		return "<mover>" + slotMathML(n.Base) + `<mo stretchy="true">&#x23DE;</mo>` + "</mover>"
	}
	return "<munder>" + slotMathML(n.Base) + `<mo stretchy="true">&#x23DF;</mo>` + "</munder>"
}

func (n *TextRun) MathML() string {
	var b strings.Builder
	for _, c := range n.Body {
		if s, ok := c.(*Symbol); ok {
			b.WriteString(xmlEscape(s.Value))
			continue
		}
		if _, ok := c.(*Space); ok {
			b.WriteString(" ")
		}
	}
	return "<mtext>" + b.String() + "</mtext>"
}

func (n *Aligned) MathML() string {
	var b strings.Builder
	b.WriteString(`<mtable>`)
	for _, row := range n.Body {
		b.WriteString("<mtr>")
		for _, cell := range row {
			b.WriteString("<mtd>" + slotMathML(cell) + "</mtd>")
		}
		b.WriteString("</mtr>")
	}
	b.WriteString("</mtable>")
	return b.String()
}

func (n *Root) MathML() string {
	if n.Index != nil {
		return "<mroot>" + slotMathML(n.Body) + slotMathML(n.Index) + "</mroot>"
	}
	return "<msqrt>" + slotMathML(n.Body) + "</msqrt>"
}

func (n *Strikethrough) MathML() string {
	return `<menclose notation="horizontalstrike">` + slotMathML(n.Body) + "</menclose>"
}
