package formula

import (
	"errors"
	"testing"
)

func TestParseSymbols(t *testing.T) {
	nodes, err := ParseLatex("a+1")
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(nodes))
	}
	for i, want := range []string{"a", "+", "1"} {
		if nodes[i].Kind != ParseSymbol {
			t.Errorf("Node %d: expected ParseSymbol, got %v", i, nodes[i].Kind)
		}
		if nodes[i].Text != want {
			t.Errorf("Node %d: expected %q, got %q", i, want, nodes[i].Text)
		}
	}
}

func TestParseMacroArity(t *testing.T) {
	nodes, err := ParseLatex(`\frac{a}{b}`)
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("Expected 1 node, got %d", len(nodes))
	}
	n := nodes[0]
	if n.Kind != ParseCommand || n.Text != `\frac` {
		t.Fatalf("Expected \\frac command, got kind=%v text=%q", n.Kind, n.Text)
	}
	if len(n.Args) != 2 {
		t.Fatalf("Expected 2 arguments, got %d", len(n.Args))
	}
	if len(n.Args[0]) != 1 || n.Args[0][0].Text != "a" {
		t.Errorf("First argument: got %+v", n.Args[0])
	}
}

func TestParseUnbracedArgument(t *testing.T) {
	// \frac12 is legal: each argument is a single token.
	nodes, err := ParseLatex(`\frac12`)
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	n := nodes[0]
	if len(n.Args) != 2 {
		t.Fatalf("Expected 2 arguments, got %d", len(n.Args))
	}
	if n.Args[0][0].Text != "1" || n.Args[1][0].Text != "2" {
		t.Errorf("Arguments: got %q and %q", n.Args[0][0].Text, n.Args[1][0].Text)
	}
}

func TestParseScripts(t *testing.T) {
	nodes, err := ParseLatex("x^{2k}_i")
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("Expected 3 nodes, got %d", len(nodes))
	}
	if nodes[1].Kind != ParseSup {
		t.Errorf("Expected ParseSup, got %v", nodes[1].Kind)
	}
	if len(nodes[1].Children) != 2 {
		t.Errorf("Superscript children: expected 2, got %d", len(nodes[1].Children))
	}
	if nodes[2].Kind != ParseSub {
		t.Errorf("Expected ParseSub, got %v", nodes[2].Kind)
	}
}

func TestParseOptionalArg(t *testing.T) {
	nodes, err := ParseLatex(`\sqrt[3]{x}`)
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	n := nodes[0]
	if len(n.Opt) != 1 || n.Opt[0].Text != "3" {
		t.Errorf("Optional argument: got %+v", n.Opt)
	}
	if len(n.Args) != 1 {
		t.Errorf("Expected 1 braced argument, got %d", len(n.Args))
	}
}

func TestParseEnvironmentRows(t *testing.T) {
	nodes, err := ParseLatex(`\begin{aligned}a&b\\c&d\end{aligned}`)
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	n := nodes[0]
	if n.Kind != ParseEnvironment || n.Text != "aligned" {
		t.Fatalf("Expected aligned environment, got kind=%v text=%q", n.Kind, n.Text)
	}
	if len(n.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(n.Rows))
	}
	if len(n.Rows[0]) != 2 || len(n.Rows[1]) != 2 {
		t.Errorf("Expected 2 cells per row, got %d and %d", len(n.Rows[0]), len(n.Rows[1]))
	}
	if n.Rows[1][1][0].Text != "d" {
		t.Errorf("Last cell: got %q", n.Rows[1][1][0].Text)
	}
}

func TestParseEnvironmentNameMismatch(t *testing.T) {
	_, err := ParseLatex(`\begin{aligned}a\end{matrix}`)
	if err == nil {
		t.Fatal("Expected error for mismatched environment names")
	}
}

func TestParsePreservesSpaces(t *testing.T) {
	nodes, err := ParseLatex("a b")
	if err != nil {
		t.Fatalf("ParseLatex failed: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("Expected 3 nodes (space preserved), got %d", len(nodes))
	}
	if nodes[1].Text != " " {
		t.Errorf("Middle node: expected space, got %q", nodes[1].Text)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"unclosed group", "{a", ErrUnexpectedEOF},
		{"stray close", "a}", ErrUnbalancedBrace},
		{"missing argument", `\frac{a}`, ErrUnexpectedEOF},
		{"unclosed environment", `\begin{aligned}a`, ErrUnexpectedEOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLatex(tt.src)
			if err == nil {
				t.Fatalf("ParseLatex(%q) succeeded, expected error", tt.src)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("ParseLatex(%q): got %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestParseAmpOutsideEnvironment(t *testing.T) {
	if _, err := ParseLatex("a&b"); err == nil {
		t.Fatal("Expected error for '&' outside an environment")
	}
	if _, err := ParseLatex(`a\\b`); err == nil {
		t.Fatal("Expected error for row separator outside an environment")
	}
}
