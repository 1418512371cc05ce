package formula

// Node is the interface satisfied by every augmented formula node variant.
// A node owns its children through its variant payload fields; the id,
// parent and sibling links are derived properties reassigned by the
// canonicalization pipeline after every structural change and must never
// be persisted externally.
type Node interface {
	// ID returns the path-derived identifier, e.g. "0.numerator.1".
	// Unique within one canonical tree snapshot, not stable across edits.
	ID() string

	// Parent returns the immediately enclosing node, or nil at top level.
	Parent() Node

	// LeftSibling and RightSibling link directly adjacent children of the
	// same Group/Color/Text body or Aligned cell. Nil otherwise; cells
	// across an '&' boundary are never linked.
	LeftSibling() Node
	RightSibling() Node

	// Children returns the node's structural children in document order,
	// named slots first-to-last, then list bodies. The returned slice is
	// shared; callers must not mutate it.
	Children() []Node

	// Latex serializes the node in the given mode.
	Latex(mode LatexMode) string

	// MathML serializes the node as namespace-free MathML elements.
	MathML() string

	// links gives the pipeline access to the mutable derived fields.
	links() *nodeLinks
}

// nodeLinks carries the derived identity and weak back-references embedded
// in every variant. Back-references are observer pointers only; ownership
// is strictly parent to child through the payload fields.
type nodeLinks struct {
	id    string
	par   Node
	left  Node
	right Node
}

func (l *nodeLinks) ID() string         { return l.id }
func (l *nodeLinks) Parent() Node       { return l.par }
func (l *nodeLinks) LeftSibling() Node  { return l.left }
func (l *nodeLinks) RightSibling() Node { return l.right }
func (l *nodeLinks) links() *nodeLinks  { return l }

// Symbol is a single atom: a letter, digit, punctuation character, or a
// zero-argument command such as \alpha or \infty.
type Symbol struct {
	nodeLinks
	Value string
}

// Op is a named operator such as \sum or \lim, optionally rendered with
// \limits placement.
type Op struct {
	nodeLinks
	Operator string
	Limits   bool
}

// Space is literal spacing text such as "\;" or "\quad".
type Space struct {
	nodeLinks
	Text string
}

// Fraction is \frac{numerator}{denominator}. Both slots are required.
type Fraction struct {
	nodeLinks
	Numerator   Node
	Denominator Node
}

// Script attaches a subscript and/or superscript to a base. Base is
// required; at least one of Sub and Sup is present.
type Script struct {
	nodeLinks
	Base Node
	Sub  Node
	Sup  Node
}

// Group is an explicit brace group. Empty and single-child groups are
// removed by canonicalization except where structurally required.
type Group struct {
	nodeLinks
	Body []Node
}

// Color styles its body with \textcolor.
type Color struct {
	nodeLinks
	Color string
	Body  []Node
}

// Box draws a border and background behind its body with \fcolorbox.
type Box struct {
	nodeLinks
	BorderColor     string
	BackgroundColor string
	Body            Node
}

// Brace annotates its base with \overbrace or \underbrace. The base stays
// separately selectable from any caption scripted onto the brace, so
// selection promotion never crosses a Brace.
type Brace struct {
	nodeLinks
	Over bool
	Base Node
}

// TextRun is a \text{...} span of text-mode atoms.
type TextRun struct {
	nodeLinks
	Body []Node
}

// Aligned is an alignment environment: rows of '&'-separated cells. Cells
// are intentionally not siblings of one another across the '&' boundary.
type Aligned struct {
	nodeLinks
	Body [][]Node
}

// Root is \sqrt{body}, with an optional index for general roots.
type Root struct {
	nodeLinks
	Index Node // nil for a plain square root
	Body  Node
}

// Strikethrough crosses out its body with \cancel.
type Strikethrough struct {
	nodeLinks
	Body Node
}

func (n *Symbol) Children() []Node { return nil }
func (n *Op) Children() []Node     { return nil }
func (n *Space) Children() []Node  { return nil }

func (n *Fraction) Children() []Node {
	return []Node{n.Numerator, n.Denominator}
}

func (n *Script) Children() []Node {
	kids := []Node{n.Base}
	if n.Sub != nil {
		kids = append(kids, n.Sub)
	}
	if n.Sup != nil {
		kids = append(kids, n.Sup)
	}
	return kids
}

func (n *Group) Children() []Node   { return n.Body }
func (n *Color) Children() []Node   { return n.Body }
func (n *TextRun) Children() []Node { return n.Body }

func (n *Box) Children() []Node   { return []Node{n.Body} }
func (n *Brace) Children() []Node { return []Node{n.Base} }

func (n *Aligned) Children() []Node {
	var kids []Node
	for _, row := range n.Body {
		kids = append(kids, row...)
	}
	return kids
}

func (n *Root) Children() []Node {
	if n.Index != nil {
		return []Node{n.Index, n.Body}
	}
	return []Node{n.Body}
}

func (n *Strikethrough) Children() []Node { return []Node{n.Body} }

// AugmentedFormula is one canonical snapshot of a formula document: an
// ordered top-level node sequence plus an id index built once at
// construction. Snapshots are replaced wholesale on every committed edit.
type AugmentedFormula struct {
	Body []Node

	index map[string]Node
}

// newAugmentedFormula wraps a canonicalized body and builds the id index.
func newAugmentedFormula(body []Node) AugmentedFormula {
	f := AugmentedFormula{Body: body, index: make(map[string]Node)}
	for _, n := range body {
		walkNodes(n, func(n Node) {
			f.index[n.ID()] = n
		})
	}
	return f
}

// FindNode returns the node with the given id, or nil if no such node
// exists in this snapshot.
func (f AugmentedFormula) FindNode(id string) Node {
	return f.index[id]
}

// Latex serializes the whole formula in the given mode.
func (f AugmentedFormula) Latex(mode LatexMode) string {
	return latexSequence(f.Body, mode)
}

// Equals compares two formulas by canonical no-id LaTeX. Ids are ephemeral
// and never participate in equality.
func (f AugmentedFormula) Equals(other AugmentedFormula) bool {
	return f.Latex(LatexNoID) == other.Latex(LatexNoID)
}

// MathML serializes the formula as a namespaced <math> element.
func (f AugmentedFormula) MathML() string {
	return mathMLDocument(f.Body)
}

// StyledRanges produces the styled-range text model equivalent of the
// formula. The flattened text equals Latex(LatexNoID).
func (f AugmentedFormula) StyledRanges() FormulaLatexRanges {
	return NewFormulaLatexRanges(styledRangesOf(f.Body))
}

// walkNodes visits n and every descendant top-down in document order.
func walkNodes(n Node, visit func(Node)) {
	visit(n)
	for _, c := range n.Children() {
		walkNodes(c, visit)
	}
}
