package formula

import "strconv"

// Canonicalize runs the full pipeline on a freshly built or rewritten node
// sequence: removeEmptyGroups, then normalizeIDs, then fixParents, then
// fixSiblings. Every pass rebuilds or finalizes the whole spine; callers
// never see a non-canonical tree. If a required slot (fraction numerator,
// script base, box body, ...) collapses to nothing, the whole
// canonicalization fails and the caller must reject the edit.
func Canonicalize(body []Node) (AugmentedFormula, error) {
	cleaned, err := removeEmptyGroups(body)
	if err != nil {
		return AugmentedFormula{}, err
	}
	normalizeIDs(cleaned)
	fixParents(cleaned)
	fixSiblings(cleaned)
	return newAugmentedFormula(cleaned), nil
}

// finalizeConsolidated is the reduced pipeline used after group
// consolidation, which must not re-run removeEmptyGroups: that pass would
// immediately flatten the groups consolidation just added.
func finalizeConsolidated(body []Node) AugmentedFormula {
	normalizeIDs(body)
	fixParents(body)
	fixSiblings(body)
	return newAugmentedFormula(body)
}

// removeEmptyGroups rewrites bottom-up: empty Groups vanish, single-child
// Groups are replaced by their child, and a Group directly inside a Group
// has its children spliced into the outer body. Aligned cells and the top
// level keep their braces (a cell needs a placeholder even when empty, and
// a top-level group carries user-authored braces).
func removeEmptyGroups(body []Node) ([]Node, error) {
	out := make([]Node, 0, len(body))
	for _, n := range body {
		if g, ok := n.(*Group); ok {
			kept, err := cleanPreservedGroup(g)
			if err != nil {
				return nil, err
			}
			out = append(out, kept)
			continue
		}
		c, err := cleanNode(n)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// cleanSeq cleans a sibling list, dropping vanished nodes.
func cleanSeq(nodes []Node) ([]Node, error) {
	var out []Node
	for _, n := range nodes {
		c, err := cleanNode(n)
		if err != nil {
			return nil, err
		}
		if c != nil {
			out = append(out, c)
		}
	}
	return out, nil
}

// cleanRequired cleans a slot that must not become empty.
func cleanRequired(n Node, owner Node, slot string) (Node, error) {
	c, err := cleanNode(n)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, &PassError{
			Pass:   "removeEmptyGroups",
			NodeID: owner.ID() + "." + slot,
			Err:    ErrInvariantViolation,
		}
	}
	return c, nil
}

func cleanOptional(n Node) (Node, error) {
	if n == nil {
		return nil, nil
	}
	return cleanNode(n)
}

// cleanPreservedGroup cleans a group whose braces are structurally
// required: its body is cleaned and spliced but the group itself survives
// even empty or with a single child.
func cleanPreservedGroup(g *Group) (Node, error) {
	body, err := cleanSeq(g.Body)
	if err != nil {
		return nil, err
	}
	return &Group{Body: spliceGroups(body)}, nil
}

// spliceGroups flattens Group children directly into the surrounding
// group body. Applies only at Group/Group boundaries.
func spliceGroups(body []Node) []Node {
	var out []Node
	for _, c := range body {
		if inner, ok := c.(*Group); ok {
			out = append(out, inner.Body...)
			continue
		}
		out = append(out, c)
	}
	return out
}

// cleanNode rebuilds a node bottom-up, returning nil when the node
// vanishes entirely. Every surviving node is a fresh instance with zero
// links; the later passes finalize the new spine in place.
func cleanNode(n Node) (Node, error) {
	switch t := n.(type) {
	case *Symbol:
		return &Symbol{Value: t.Value}, nil
	case *Op:
		return &Op{Operator: t.Operator, Limits: t.Limits}, nil
	case *Space:
		return &Space{Text: t.Text}, nil
	case *Group:
		body, err := cleanSeq(t.Body)
		if err != nil {
			return nil, err
		}
		body = spliceGroups(body)
		switch len(body) {
		case 0:
			return nil, nil
		case 1:
			return body[0], nil
		}
		return &Group{Body: body}, nil
	case *Color:
		body, err := cleanSeq(t.Body)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, nil
		}
		return &Color{Color: t.Color, Body: body}, nil
	case *TextRun:
		body, err := cleanSeq(t.Body)
		if err != nil {
			return nil, err
		}
		if len(body) == 0 {
			return nil, nil
		}
		return &TextRun{Body: body}, nil
	case *Fraction:
		num, err := cleanRequired(t.Numerator, t, "numerator")
		if err != nil {
			return nil, err
		}
		den, err := cleanRequired(t.Denominator, t, "denominator")
		if err != nil {
			return nil, err
		}
		return &Fraction{Numerator: num, Denominator: den}, nil
	case *Script:
		base, err := cleanRequired(t.Base, t, "base")
		if err != nil {
			return nil, err
		}
		sub, err := cleanOptional(t.Sub)
		if err != nil {
			return nil, err
		}
		sup, err := cleanOptional(t.Sup)
		if err != nil {
			return nil, err
		}
		if sub == nil && sup == nil {
			// A script that lost both arguments is just its base.
			return base, nil
		}
		return &Script{Base: base, Sub: sub, Sup: sup}, nil
	case *Box:
		inner, err := cleanRequired(t.Body, t, "body")
		if err != nil {
			return nil, err
		}
		return &Box{BorderColor: t.BorderColor, BackgroundColor: t.BackgroundColor, Body: inner}, nil
	case *Brace:
		base, err := cleanRequired(t.Base, t, "base")
		if err != nil {
			return nil, err
		}
		return &Brace{Over: t.Over, Base: base}, nil
	case *Root:
		inner, err := cleanRequired(t.Body, t, "body")
		if err != nil {
			return nil, err
		}
		idx, err := cleanOptional(t.Index)
		if err != nil {
			return nil, err
		}
		return &Root{Index: idx, Body: inner}, nil
	case *Strikethrough:
		inner, err := cleanRequired(t.Body, t, "body")
		if err != nil {
			return nil, err
		}
		return &Strikethrough{Body: inner}, nil
	case *Aligned:
		rows := make([][]Node, len(t.Body))
		for i, row := range t.Body {
			cells := make([]Node, len(row))
			for j, cell := range row {
				cleaned, err := cleanCell(cell)
				if err != nil {
					return nil, err
				}
				cells[j] = cleaned
			}
			rows[i] = cells
		}
		return &Aligned{Body: rows}, nil
	}
	return nil, &PassError{Pass: "removeEmptyGroups", NodeID: n.ID(), Err: ErrInvariantViolation}
}

// cleanCell preserves an Aligned cell's placeholder group; a cell that
// vanishes entirely becomes an empty placeholder.
func cleanCell(cell Node) (Node, error) {
	if g, ok := cell.(*Group); ok {
		return cleanPreservedGroup(g)
	}
	c, err := cleanNode(cell)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return &Group{}, nil
	}
	return c, nil
}

// normalizeIDs re-derives every id top-down from structural position,
// discarding whatever ids the nodes carried before. Runs after all
// shape-changing passes; parent and sibling fixup do not depend on ids,
// but selection resolution does.
func normalizeIDs(body []Node) {
	for i, n := range body {
		assignIDs(n, strconv.Itoa(i))
	}
}

func assignIDs(n Node, id string) {
	n.links().id = id
	switch t := n.(type) {
	case *Fraction:
		assignIDs(t.Numerator, id+".numerator")
		assignIDs(t.Denominator, id+".denominator")
	case *Script:
		assignIDs(t.Base, id+".base")
		if t.Sub != nil {
			assignIDs(t.Sub, id+".sub")
		}
		if t.Sup != nil {
			assignIDs(t.Sup, id+".sup")
		}
	case *Group:
		for i, c := range t.Body {
			assignIDs(c, id+"."+strconv.Itoa(i))
		}
	case *Color:
		for i, c := range t.Body {
			assignIDs(c, id+"."+strconv.Itoa(i))
		}
	case *TextRun:
		for i, c := range t.Body {
			assignIDs(c, id+"."+strconv.Itoa(i))
		}
	case *Box:
		assignIDs(t.Body, id+".body")
	case *Brace:
		assignIDs(t.Base, id+".base")
	case *Root:
		if t.Index != nil {
			assignIDs(t.Index, id+".index")
		}
		assignIDs(t.Body, id+".body")
	case *Strikethrough:
		assignIDs(t.Body, id+".body")
	case *Aligned:
		for r, row := range t.Body {
			for c, cell := range row {
				assignIDs(cell, id+"."+strconv.Itoa(r)+"."+strconv.Itoa(c))
			}
		}
	}
}

// fixParents sets every parent link to match actual containment. Needed
// because rewrites build new instances whose links are zero.
func fixParents(body []Node) {
	for _, n := range body {
		n.links().par = nil
		setParents(n)
	}
}

func setParents(n Node) {
	for _, c := range n.Children() {
		c.links().par = n
		setParents(c)
	}
}

// fixSiblings chains leftSibling/rightSibling through every true adjacency
// sequence: the top level and Group/Color/Text bodies. Aligned cells,
// script slots and fraction slots are named structural positions, not
// adjacency lists, and stay unlinked. This pass mutates the freshly built
// nodes in place.
func fixSiblings(body []Node) {
	chainSiblings(body)
	for _, n := range body {
		walkNodes(n, func(n Node) {
			switch t := n.(type) {
			case *Group:
				chainSiblings(t.Body)
			case *Color:
				chainSiblings(t.Body)
			case *TextRun:
				chainSiblings(t.Body)
			}
		})
	}
}

func chainSiblings(nodes []Node) {
	for i, n := range nodes {
		l := n.links()
		l.left = nil
		l.right = nil
		if i > 0 {
			l.left = nodes[i-1]
			nodes[i-1].links().right = n
		}
	}
}
