package formula

import (
	"strings"
	"testing"
)

func TestMathMLClassifiesAtoms(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"2", "<mn>2</mn>"},
		{"x", "<mi>x</mi>"},
		{"+", "<mo>+</mo>"},
		{`\alpha`, "<mi>α</mi>"},
		{`\leq`, "<mo>≤</mo>"},
	}
	for _, tt := range tests {
		f := mustDerive(t, tt.src)
		if got := f.Body[0].MathML(); got != tt.want {
			t.Errorf("MathML(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestMathMLEscapesMarkup(t *testing.T) {
	f := mustDerive(t, "<")
	if got := f.Body[0].MathML(); got != "<mo>&lt;</mo>" {
		t.Errorf("got %q", got)
	}
}

func TestMathMLStructures(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{`\frac{a}{b}`, "<mfrac><mi>a</mi><mi>b</mi></mfrac>"},
		{"x^{2}", "<msup><mi>x</mi><mn>2</mn></msup>"},
		{"x_{i}", "<msub><mi>x</mi><mi>i</mi></msub>"},
		{"x_{i}^{2}", "<msubsup><mi>x</mi><mi>i</mi><mn>2</mn></msubsup>"},
		{`\sqrt{x}`, "<msqrt><mi>x</mi></msqrt>"},
		{`\sqrt[3]{x}`, "<mroot><mi>x</mi><mn>3</mn></mroot>"},
		{`\textcolor{red}{x}`, `<mstyle mathcolor="red"><mi>x</mi></mstyle>`},
		{`\cancel{x}`, `<menclose notation="horizontalstrike"><mi>x</mi></menclose>`},
		{`\fcolorbox{b}{w}{x}`, `<menclose notation="box"><mi>x</mi></menclose>`},
	}
	for _, tt := range tests {
		f := mustDerive(t, tt.src)
		if got := f.Body[0].MathML(); got != tt.want {
			t.Errorf("MathML(%q) = %q, want %q", tt.src, got, tt.want)
		}
	}
}

func TestMathMLGroupSlotBecomesRow(t *testing.T) {
	f := mustDerive(t, `\frac{ab}{c}`)
	want := "<mfrac><mrow><mi>a</mi><mi>b</mi></mrow><mi>c</mi></mfrac>"
	if got := f.Body[0].MathML(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMathMLBraces(t *testing.T) {
	f := mustDerive(t, `\overbrace{x}`)
	got := f.Body[0].MathML()
	if !strings.HasPrefix(got, "<mover>") || !strings.Contains(got, "&#x23DE;") {
		t.Errorf("Overbrace markup: %q", got)
	}
	f = mustDerive(t, `\underbrace{x}`)
	got = f.Body[0].MathML()
	if !strings.HasPrefix(got, "<munder>") || !strings.Contains(got, "&#x23DF;") {
		t.Errorf("Underbrace markup: %q", got)
	}
}

func TestMathMLTextRun(t *testing.T) {
	f := mustDerive(t, `\text{if and}`)
	if got := f.Body[0].MathML(); got != "<mtext>if and</mtext>" {
		t.Errorf("got %q", got)
	}
}

func TestMathMLAligned(t *testing.T) {
	f := mustDerive(t, `\begin{aligned}a&b\end{aligned}`)
	want := "<mtable><mtr><mtd><mi>a</mi></mtd><mtd><mi>b</mi></mtd></mtr></mtable>"
	if got := f.Body[0].MathML(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMathMLDocumentNamespace(t *testing.T) {
	f := mustDerive(t, "a+b")
	got := f.MathML()
	if !strings.HasPrefix(got, `<math xmlns="http://www.w3.org/1998/Math/MathML">`) {
		t.Errorf("Missing namespace: %q", got)
	}
	if !strings.Contains(got, "<mrow><mi>a</mi><mo>+</mo><mi>b</mi></mrow>") {
		t.Errorf("Body markup: %q", got)
	}
}

func TestMathMLSpace(t *testing.T) {
	f := mustDerive(t, `a\quad b`)
	got := f.MathML()
	if !strings.Contains(got, `<mspace width="1em"/>`) {
		t.Errorf("Missing space element: %q", got)
	}
}
