package formula

import "strings"

// opCommands are macros built as Op nodes: big operators and named
// functions whose limits placement matters.
var opCommands = map[string]bool{
	`\sum`: true, `\prod`: true, `\coprod`: true, `\int`: true, `\oint`: true,
	`\lim`: true, `\limsup`: true, `\liminf`: true,
	`\sin`: true, `\cos`: true, `\tan`: true, `\cot`: true,
	`\log`: true, `\ln`: true, `\exp`: true,
	`\max`: true, `\min`: true, `\sup`: true, `\inf`: true,
	`\det`: true, `\gcd`: true, `\arg`: true,
}

// DeriveAugmentedFormula parses LaTeX source and builds the canonical
// augmented formula tree. A failed parse or build rejects the whole
// attempt; no partial tree is ever returned.
func DeriveAugmentedFormula(src string) (AugmentedFormula, error) {
	parsed, err := ParseLatex(src)
	if err != nil {
		return AugmentedFormula{}, err
	}
	return BuildAugmentedFormula(parsed)
}

// BuildAugmentedFormula constructs the augmented tree from a generic parse
// graph and runs the full canonicalization pipeline on the result.
func BuildAugmentedFormula(parsed []*ParseNode) (AugmentedFormula, error) {
	body, err := buildNodes(parsed)
	if err != nil {
		return AugmentedFormula{}, err
	}
	return Canonicalize(body)
}

// buildNodes converts a parse-node sequence, attaching scripts to the
// preceding base and \limits to the preceding operator.
func buildNodes(parsed []*ParseNode) ([]Node, error) {
	var out []Node
	for _, pn := range parsed {
		if pn.Kind == ParseSymbol && pn.Text == " " {
			continue // math-mode whitespace
		}
		switch pn.Kind {
		case ParseSup, ParseSub:
			if len(out) == 0 {
				return nil, ErrDanglingScript
			}
			arg, err := buildNodes(pn.Children)
			if err != nil {
				return nil, err
			}
			base := out[len(out)-1]
			out[len(out)-1] = attachScript(base, pn.Kind == ParseSup, nodeOrGroup(arg))
		case ParseCommand:
			if pn.Text == `\limits` {
				if len(out) == 0 {
					return nil, &ConstructionError{Construct: `\limits`, Pos: pn.Pos}
				}
				op, ok := out[len(out)-1].(*Op)
				if !ok {
					return nil, &ConstructionError{Construct: `\limits`, Pos: pn.Pos}
				}
				op.Limits = true
				continue
			}
			n, err := buildCommand(pn)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		default:
			n, err := buildNode(pn)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
	}
	return out, nil
}

func attachScript(base Node, sup bool, arg Node) Node {
	if s, ok := base.(*Script); ok {
		if sup && s.Sup == nil {
			s.Sup = arg
			return s
		}
		if !sup && s.Sub == nil {
			s.Sub = arg
			return s
		}
	}
	s := &Script{Base: base}
	if sup {
		s.Sup = arg
	} else {
		s.Sub = arg
	}
	return s
}

func buildNode(pn *ParseNode) (Node, error) {
	switch pn.Kind {
	case ParseSymbol:
		if pn.Text == "~" {
			return &Space{Text: "~"}, nil
		}
		return &Symbol{Value: pn.Text}, nil
	case ParseGroup:
		body, err := buildNodes(pn.Children)
		if err != nil {
			return nil, err
		}
		return &Group{Body: body}, nil
	case ParseCommand:
		return buildCommand(pn)
	case ParseEnvironment:
		return buildEnvironment(pn)
	}
	return nil, &ConstructionError{Construct: pn.Text, Pos: pn.Pos}
}

func buildCommand(pn *ParseNode) (Node, error) {
	cmd := pn.Text
	switch cmd {
	case `\frac`:
		num, err := buildArg(pn, 0)
		if err != nil {
			return nil, err
		}
		den, err := buildArg(pn, 1)
		if err != nil {
			return nil, err
		}
		return &Fraction{Numerator: num, Denominator: den}, nil
	case `\textcolor`:
		body, err := buildNodes(pn.Args[1])
		if err != nil {
			return nil, err
		}
		return &Color{Color: literalText(pn.Args[0]), Body: body}, nil
	case `\fcolorbox`:
		body, err := buildArg(pn, 2)
		if err != nil {
			return nil, err
		}
		return &Box{
			BorderColor:     literalText(pn.Args[0]),
			BackgroundColor: literalText(pn.Args[1]),
			Body:            body,
		}, nil
	case `\colorbox`:
		body, err := buildArg(pn, 1)
		if err != nil {
			return nil, err
		}
		bg := literalText(pn.Args[0])
		return &Box{BorderColor: bg, BackgroundColor: bg, Body: body}, nil
	case `\overbrace`, `\underbrace`:
		base, err := buildArg(pn, 0)
		if err != nil {
			return nil, err
		}
		return &Brace{Over: cmd == `\overbrace`, Base: base}, nil
	case `\text`:
		body, err := buildTextBody(pn.Args[0])
		if err != nil {
			return nil, err
		}
		return &TextRun{Body: body}, nil
	case `\cancel`:
		body, err := buildArg(pn, 0)
		if err != nil {
			return nil, err
		}
		return &Strikethrough{Body: body}, nil
	case `\sqrt`:
		body, err := buildArg(pn, 0)
		if err != nil {
			return nil, err
		}
		root := &Root{Body: body}
		if pn.Opt != nil {
			idx, err := buildNodes(pn.Opt)
			if err != nil {
				return nil, err
			}
			root.Index = nodeOrGroup(idx)
		}
		return root, nil
	}
	if opCommands[cmd] {
		return &Op{Operator: cmd}, nil
	}
	if _, ok := spaceWidths[cmd]; ok {
		text := cmd
		if endsWithLetter(text) {
			text += " "
		}
		return &Space{Text: text}, nil
	}
	if _, ok := greekLetters[cmd]; ok {
		return &Symbol{Value: cmd}, nil
	}
	if _, ok := operatorSymbols[cmd]; ok {
		return &Symbol{Value: cmd}, nil
	}
	return nil, &ConstructionError{Construct: cmd, Pos: pn.Pos}
}

func buildEnvironment(pn *ParseNode) (Node, error) {
	if pn.Text != "aligned" {
		return nil, &ConstructionError{Construct: `\begin{` + pn.Text + `}`, Pos: pn.Pos}
	}
	aligned := &Aligned{}
	for _, row := range pn.Rows {
		var cells []Node
		for _, cell := range row {
			body, err := buildNodes(cell)
			if err != nil {
				return nil, err
			}
			cells = append(cells, nodeOrGroup(body))
		}
		aligned.Body = append(aligned.Body, cells)
	}
	return aligned, nil
}

// buildArg builds a braced argument into a single slot node, grouping
// multi-node content.
func buildArg(pn *ParseNode, i int) (Node, error) {
	body, err := buildNodes(pn.Args[i])
	if err != nil {
		return nil, err
	}
	return nodeOrGroup(body), nil
}

// nodeOrGroup wraps a node list for a single-node slot. An empty list
// becomes an empty Group, left to canonicalization to judge.
func nodeOrGroup(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &Group{Body: nodes}
}

// buildTextBody keeps whitespace, unlike math mode. Text mode holds plain
// atoms only; anything else is an unknown construct, never dropped.
func buildTextBody(parsed []*ParseNode) ([]Node, error) {
	var out []Node
	for _, pn := range parsed {
		if pn.Kind != ParseSymbol {
			name := pn.Text
			if name == "" {
				name = "{"
			}
			return nil, &ConstructionError{Construct: name, Pos: pn.Pos}
		}
		out = append(out, &Symbol{Value: pn.Text})
	}
	return out, nil
}

func literalText(parsed []*ParseNode) string {
	var b strings.Builder
	for _, pn := range parsed {
		if pn.Kind == ParseSymbol && pn.Text != " " {
			b.WriteString(pn.Text)
		}
	}
	return b.String()
}
