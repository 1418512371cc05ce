package formula

import (
	"errors"
	"testing"
)

func mustDerive(t *testing.T, src string) AugmentedFormula {
	t.Helper()
	f, err := DeriveAugmentedFormula(src)
	if err != nil {
		t.Fatalf("DeriveAugmentedFormula(%q) failed: %v", src, err)
	}
	return f
}

func TestDeriveCanonicalLatex(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"a+b", "a+b"},
		{"x^2", "x^{2}"},
		{"x_i^2", "x_{i}^{2}"},
		{`\frac{a}{b}`, `\frac{a}{b}`},
		{`\frac12`, `\frac{1}{2}`},
		{`\frac{a+b}{2}`, `\frac{a+b}{2}`},
		{`\sqrt{x}`, `\sqrt{x}`},
		{`\sqrt[3]{x}`, `\sqrt[3]{x}`},
		{`\alpha\beta`, `\alpha \beta `},
		{`\textcolor{red}{x}`, `\textcolor{red}{x}`},
		{`\fcolorbox{blue}{white}{xy}`, `\fcolorbox{blue}{white}{xy}`},
		{`\overbrace{a+b}`, `\overbrace{a+b}`},
		{`\underbrace{ab}`, `\underbrace{ab}`},
		{`\cancel{x}`, `\cancel{x}`},
		{`\text{iff}`, `\text{iff}`},
		{`\sum_{i}^{n}`, `\sum _{i}^{n}`},
		{`\sum\limits_{i}`, `\sum\limits _{i}`},
		{`\begin{aligned}a&b\\c&d\end{aligned}`, `\begin{aligned}a&b\\c&d\end{aligned}`},
		// Math-mode whitespace is not significant.
		{"a + b", "a+b"},
	}
	for _, tt := range tests {
		f := mustDerive(t, tt.src)
		if got := f.Latex(LatexNoID); got != tt.want {
			t.Errorf("Derive(%q).Latex = %q, want %q", tt.src, got, tt.want)
		}
	}
}

// Canonical output must re-derive to itself: serializing and parsing the
// canonical form is a fixed point.
func TestDeriveRoundTrip(t *testing.T) {
	sources := []string{
		"a+b",
		"x_i^2",
		`\frac{\alpha +1}{\beta }`,
		`\textcolor{red}{\frac{a}{b}}`,
		`\sqrt[n]{\frac{1}{x}}`,
		`\overbrace{a+b}^{\text{sum}}`,
		`\begin{aligned}x&=1\\y&=2\end{aligned}`,
		`\sum_{i=0}^{n}i^{2}`,
	}
	for _, src := range sources {
		f := mustDerive(t, src)
		canonical := f.Latex(LatexNoID)
		again := mustDerive(t, canonical)
		if got := again.Latex(LatexNoID); got != canonical {
			t.Errorf("Round trip of %q: %q != %q", src, got, canonical)
		}
	}
}

func TestDeriveScriptMerging(t *testing.T) {
	f := mustDerive(t, "x_i^2")
	if len(f.Body) != 1 {
		t.Fatalf("Expected 1 top-level node, got %d", len(f.Body))
	}
	s, ok := f.Body[0].(*Script)
	if !ok {
		t.Fatalf("Expected *Script, got %T", f.Body[0])
	}
	if s.Sub == nil || s.Sup == nil {
		t.Error("Expected both sub and sup on the merged script")
	}
}

func TestDeriveTextKeepsSpaces(t *testing.T) {
	f := mustDerive(t, `\text{if and}`)
	if got := f.Latex(LatexNoID); got != `\text{if and}` {
		t.Errorf("Text body lost its spacing: %q", got)
	}
}

func TestDeriveColorboxMeansSameBorder(t *testing.T) {
	f := mustDerive(t, `\colorbox{yellow}{x}`)
	box, ok := f.Body[0].(*Box)
	if !ok {
		t.Fatalf("Expected *Box, got %T", f.Body[0])
	}
	if box.BorderColor != "yellow" || box.BackgroundColor != "yellow" {
		t.Errorf("colorbox colors: border=%q background=%q", box.BorderColor, box.BackgroundColor)
	}
}

func TestDeriveLimitsAttachesToOperator(t *testing.T) {
	f := mustDerive(t, `\sum\limits_{i}`)
	s, ok := f.Body[0].(*Script)
	if !ok {
		t.Fatalf("Expected *Script, got %T", f.Body[0])
	}
	op, ok := s.Base.(*Op)
	if !ok {
		t.Fatalf("Expected *Op base, got %T", s.Base)
	}
	if !op.Limits {
		t.Error("Expected Limits to be set")
	}
}

func TestDeriveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unknown command", `\unheardof`, ErrUnknownConstruct},
		{"unknown environment", `\begin{matrix}a\end{matrix}`, ErrUnknownConstruct},
		{"dangling sup", "^2", ErrDanglingScript},
		{"dangling limits", `\limits`, ErrUnknownConstruct},
		{"limits without operator", `x\limits`, ErrUnknownConstruct},
		{"empty numerator", `\frac{}{b}`, ErrInvariantViolation},
		{"command in text body", `\text{\alpha}`, ErrUnknownConstruct},
		{"group in text body", `\text{a{b}}`, ErrUnknownConstruct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DeriveAugmentedFormula(tt.src)
			if err == nil {
				t.Fatalf("Derive(%q) succeeded, expected error", tt.src)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Derive(%q): got %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestConstructionErrorReportsPosition(t *testing.T) {
	_, err := DeriveAugmentedFormula(`ab\unheardof`)
	var ce *ConstructionError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected *ConstructionError, got %v", err)
	}
	if ce.Construct != `\unheardof` {
		t.Errorf("Construct: got %q", ce.Construct)
	}
	if ce.Pos != 2 {
		t.Errorf("Pos: got %d, want 2", ce.Pos)
	}
}

func TestFindNode(t *testing.T) {
	f := mustDerive(t, `\frac{a}{b}+c`)
	if n := f.FindNode("0"); n == nil {
		t.Fatal("FindNode(\"0\") returned nil")
	} else if _, ok := n.(*Fraction); !ok {
		t.Errorf("Node 0: expected *Fraction, got %T", n)
	}
	num := f.FindNode("0.numerator")
	if num == nil {
		t.Fatal("FindNode(\"0.numerator\") returned nil")
	}
	if sym, ok := num.(*Symbol); !ok || sym.Value != "a" {
		t.Errorf("Numerator: got %T %v", num, num)
	}
	if f.FindNode("7") != nil {
		t.Error("FindNode of a missing id should return nil")
	}
}

func TestEqualsIgnoresConstruction(t *testing.T) {
	a := mustDerive(t, `x ^ 2`)
	b := mustDerive(t, `x^{2}`)
	if !a.Equals(b) {
		t.Errorf("Expected %q to equal %q", a.Latex(LatexNoID), b.Latex(LatexNoID))
	}
	c := mustDerive(t, `x^{3}`)
	if a.Equals(c) {
		t.Error("Distinct formulas compared equal")
	}
}
