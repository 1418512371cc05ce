package formula

import (
	"fmt"
	"strings"
	"unicode"
)

// ParseKind discriminates the generic parse-node shapes handed to the tree
// builder. The parser knows token shape and macro arity only; all semantic
// interpretation happens in build.go.
type ParseKind int

const (
	// ParseSymbol is a single character atom.
	ParseSymbol ParseKind = iota

	// ParseCommand is a macro with zero or more braced arguments and an
	// optional bracketed argument.
	ParseCommand

	// ParseGroup is an explicit {...} group.
	ParseGroup

	// ParseSup is a '^' with its argument.
	ParseSup

	// ParseSub is a '_' with its argument.
	ParseSub

	// ParseEnvironment is a \begin{...}...\end{...} block with rows of
	// '&'-separated cells.
	ParseEnvironment
)

// ParseNode is one node of the raw parse graph.
type ParseNode struct {
	Kind     ParseKind
	Text     string         // symbol text, command name, or environment name
	Pos      int            // rune offset in the source
	Opt      []*ParseNode   // optional [...] argument, nil when absent
	Args     [][]*ParseNode // braced arguments in order
	Children []*ParseNode   // group body or script argument
	Rows     [][][]*ParseNode
}

// macroArgs maps known macros to their braced-argument count and whether
// they accept a leading optional argument. Macros not listed here parse
// with zero arguments; the builder decides whether they mean anything.
var macroArgs = map[string]struct {
	count int
	opt   bool
}{
	`\frac`:       {count: 2},
	`\textcolor`:  {count: 2},
	`\fcolorbox`:  {count: 3},
	`\colorbox`:   {count: 2},
	`\overbrace`:  {count: 1},
	`\underbrace`: {count: 1},
	`\text`:       {count: 1},
	`\cancel`:     {count: 1},
	`\sqrt`:       {count: 1, opt: true},
}

type texScanner struct {
	src []rune
	pos int
}

type tokKind int

const (
	tokEOF tokKind = iota
	tokChar
	tokMacro
	tokLbrace
	tokRbrace
	tokSup
	tokSub
	tokAmp
	tokRowSep // \\
	tokSpace
)

type token struct {
	kind tokKind
	text string
	pos  int
}

func newScanner(src string) *texScanner {
	return &texScanner{src: []rune(src)}
}

func (s *texScanner) next() token {
	if s.pos >= len(s.src) {
		return token{kind: tokEOF, pos: s.pos}
	}
	start := s.pos
	r := s.src[s.pos]
	s.pos++
	switch r {
	case '{':
		return token{kind: tokLbrace, text: "{", pos: start}
	case '}':
		return token{kind: tokRbrace, text: "}", pos: start}
	case '^':
		return token{kind: tokSup, text: "^", pos: start}
	case '_':
		return token{kind: tokSub, text: "_", pos: start}
	case '&':
		return token{kind: tokAmp, text: "&", pos: start}
	case '\\':
		if s.pos < len(s.src) {
			n := s.src[s.pos]
			if n == '\\' {
				s.pos++
				return token{kind: tokRowSep, text: `\\`, pos: start}
			}
			if unicode.IsLetter(n) {
				var b strings.Builder
				b.WriteRune('\\')
				for s.pos < len(s.src) && unicode.IsLetter(s.src[s.pos]) {
					b.WriteRune(s.src[s.pos])
					s.pos++
				}
				return token{kind: tokMacro, text: b.String(), pos: start}
			}
			// Single-character control sequence: \; \, \{ etc.
			s.pos++
			return token{kind: tokMacro, text: `\` + string(n), pos: start}
		}
		return token{kind: tokChar, text: `\`, pos: start}
	}
	if unicode.IsSpace(r) {
		for s.pos < len(s.src) && unicode.IsSpace(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokSpace, text: " ", pos: start}
	}
	return token{kind: tokChar, text: string(r), pos: start}
}

func (s *texScanner) peek() token {
	saved := s.pos
	t := s.next()
	s.pos = saved
	return t
}

type latexParser struct {
	s *texScanner
}

// ParseLatex parses a LaTeX math string into the generic parse graph
// consumed by DeriveAugmentedFormula. Whitespace in math mode is not
// significant and is dropped.
func ParseLatex(src string) ([]*ParseNode, error) {
	p := &latexParser{s: newScanner(src)}
	nodes, stop, err := p.parseSequence(false)
	if err != nil {
		return nil, err
	}
	if stop.kind == tokRbrace {
		return nil, fmt.Errorf("%w at offset %d", ErrUnbalancedBrace, stop.pos)
	}
	return nodes, nil
}

// parseSequence parses nodes until EOF, or until a closing brace when
// inGroup is set. It returns the token that ended the sequence.
func (p *latexParser) parseSequence(inGroup bool) ([]*ParseNode, token, error) {
	var nodes []*ParseNode
	for {
		tok := p.s.next()
		switch tok.kind {
		case tokEOF:
			if inGroup {
				return nil, tok, fmt.Errorf("%w: unclosed group", ErrUnexpectedEOF)
			}
			return nodes, tok, nil
		case tokRbrace:
			if inGroup {
				return nodes, tok, nil
			}
			return nil, tok, fmt.Errorf("%w at offset %d", ErrUnbalancedBrace, tok.pos)
		case tokAmp, tokRowSep:
			// Only valid inside an environment; the environment parser
			// consumes these itself.
			return nil, tok, fmt.Errorf("unexpected %q at offset %d outside environment", tok.text, tok.pos)
		case tokSpace:
			// Preserved as a space atom so \text bodies keep their
			// whitespace; math-mode building drops it.
			nodes = append(nodes, &ParseNode{Kind: ParseSymbol, Text: " ", Pos: tok.pos})
		default:
			node, err := p.parseToken(tok)
			if err != nil {
				return nil, tok, err
			}
			if node != nil {
				nodes = append(nodes, node)
			}
		}
	}
}

func (p *latexParser) parseToken(tok token) (*ParseNode, error) {
	switch tok.kind {
	case tokChar:
		return &ParseNode{Kind: ParseSymbol, Text: tok.text, Pos: tok.pos}, nil
	case tokLbrace:
		body, _, err := p.parseSequence(true)
		if err != nil {
			return nil, err
		}
		return &ParseNode{Kind: ParseGroup, Pos: tok.pos, Children: body}, nil
	case tokSup, tokSub:
		arg, err := p.parseArg()
		if err != nil {
			return nil, err
		}
		kind := ParseSup
		if tok.kind == tokSub {
			kind = ParseSub
		}
		return &ParseNode{Kind: kind, Text: tok.text, Pos: tok.pos, Children: arg}, nil
	case tokMacro:
		if tok.text == `\begin` {
			return p.parseEnvironment(tok)
		}
		return p.parseMacro(tok)
	}
	return nil, fmt.Errorf("unexpected token %q at offset %d", tok.text, tok.pos)
}

// parseArg parses a single script or macro argument: a braced group, or a
// single following token (with its own arguments for macros).
func (p *latexParser) parseArg() ([]*ParseNode, error) {
	tok := p.s.next()
	for tok.kind == tokSpace {
		tok = p.s.next()
	}
	switch tok.kind {
	case tokEOF:
		return nil, fmt.Errorf("%w: missing argument", ErrUnexpectedEOF)
	case tokLbrace:
		body, _, err := p.parseSequence(true)
		if err != nil {
			return nil, err
		}
		return body, nil
	default:
		node, err := p.parseToken(tok)
		if err != nil {
			return nil, err
		}
		return []*ParseNode{node}, nil
	}
}

func (p *latexParser) parseMacro(tok token) (*ParseNode, error) {
	node := &ParseNode{Kind: ParseCommand, Text: tok.text, Pos: tok.pos}
	spec, known := macroArgs[tok.text]
	if !known {
		return node, nil
	}
	if spec.opt {
		opt, err := p.parseOptionalArg()
		if err != nil {
			return nil, err
		}
		node.Opt = opt
	}
	for i := 0; i < spec.count; i++ {
		arg, err := p.parseArg()
		if err != nil {
			return nil, fmt.Errorf("argument %d of %s: %w", i+1, tok.text, err)
		}
		node.Args = append(node.Args, arg)
	}
	return node, nil
}

// parseOptionalArg parses a [...] argument if one follows.
func (p *latexParser) parseOptionalArg() ([]*ParseNode, error) {
	next := p.s.peek()
	if next.kind != tokChar || next.text != "[" {
		return nil, nil
	}
	p.s.next()
	var nodes []*ParseNode
	for {
		tok := p.s.next()
		switch {
		case tok.kind == tokEOF:
			return nil, fmt.Errorf("%w: unclosed optional argument", ErrUnexpectedEOF)
		case tok.kind == tokChar && tok.text == "]":
			return nodes, nil
		case tok.kind == tokSpace:
			continue
		default:
			node, err := p.parseToken(tok)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, node)
		}
	}
}

// parseEnvironment parses \begin{name}...\end{name} into rows of cells.
func (p *latexParser) parseEnvironment(begin token) (*ParseNode, error) {
	name, err := p.parseBracedName()
	if err != nil {
		return nil, err
	}
	env := &ParseNode{Kind: ParseEnvironment, Text: name, Pos: begin.pos}

	var rows [][][]*ParseNode
	var row [][]*ParseNode
	var cell []*ParseNode
	for {
		tok := p.s.next()
		switch tok.kind {
		case tokEOF:
			return nil, fmt.Errorf("%w: unclosed environment %q", ErrUnexpectedEOF, name)
		case tokSpace:
			continue
		case tokAmp:
			row = append(row, cell)
			cell = nil
		case tokRowSep:
			row = append(row, cell)
			rows = append(rows, row)
			row = nil
			cell = nil
		case tokMacro:
			if tok.text == `\end` {
				endName, err := p.parseBracedName()
				if err != nil {
					return nil, err
				}
				if endName != name {
					return nil, fmt.Errorf("environment mismatch: \\begin{%s} closed by \\end{%s}", name, endName)
				}
				if len(cell) > 0 || len(row) > 0 {
					row = append(row, cell)
					rows = append(rows, row)
				}
				env.Rows = rows
				return env, nil
			}
			node, err := p.parseToken(tok)
			if err != nil {
				return nil, err
			}
			cell = append(cell, node)
		default:
			node, err := p.parseToken(tok)
			if err != nil {
				return nil, err
			}
			if node != nil {
				cell = append(cell, node)
			}
		}
	}
}

// parseBracedName reads a {name} of letter characters, as used by
// \begin, \end and \cssId.
func (p *latexParser) parseBracedName() (string, error) {
	tok := p.s.next()
	for tok.kind == tokSpace {
		tok = p.s.next()
	}
	if tok.kind != tokLbrace {
		return "", fmt.Errorf("expected '{' at offset %d", tok.pos)
	}
	var b strings.Builder
	for {
		tok = p.s.next()
		switch tok.kind {
		case tokEOF:
			return "", fmt.Errorf("%w: unclosed name", ErrUnexpectedEOF)
		case tokRbrace:
			return b.String(), nil
		default:
			b.WriteString(tok.text)
		}
	}
}
