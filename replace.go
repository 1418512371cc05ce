package formula

import "fmt"

// Replacer maps a node to its replacement during a structural rewrite. It
// is called post-order, so it always observes children that have already
// been transformed. Returning the input unchanged keeps the node; to drop
// a node, return an empty Group and let canonicalization remove it.
type Replacer func(Node) Node

// ReplaceNodes maps every node of the formula through the replacer and
// canonicalizes the result. Node ids are preserved through the rebuild so
// replacers can match nodes by id; the pipeline reassigns them afterward.
func ReplaceNodes(f AugmentedFormula, replacer Replacer) (AugmentedFormula, error) {
	body := make([]Node, len(f.Body))
	for i, n := range f.Body {
		body[i] = replaceNode(n, replacer)
	}
	return Canonicalize(body)
}

// replaceNode rebuilds the node with replaced children, then hands the
// reconstruction to the replacer.
func replaceNode(n Node, replacer Replacer) Node {
	var rebuilt Node
	switch t := n.(type) {
	case *Symbol:
		rebuilt = &Symbol{Value: t.Value}
	case *Op:
		rebuilt = &Op{Operator: t.Operator, Limits: t.Limits}
	case *Space:
		rebuilt = &Space{Text: t.Text}
	case *Group:
		rebuilt = &Group{Body: replaceList(t.Body, replacer)}
	case *Color:
		rebuilt = &Color{Color: t.Color, Body: replaceList(t.Body, replacer)}
	case *TextRun:
		rebuilt = &TextRun{Body: replaceList(t.Body, replacer)}
	case *Fraction:
		rebuilt = &Fraction{
			Numerator:   replaceNode(t.Numerator, replacer),
			Denominator: replaceNode(t.Denominator, replacer),
		}
	case *Script:
		s := &Script{Base: replaceNode(t.Base, replacer)}
		if t.Sub != nil {
			s.Sub = replaceNode(t.Sub, replacer)
		}
		if t.Sup != nil {
			s.Sup = replaceNode(t.Sup, replacer)
		}
		rebuilt = s
	case *Box:
		rebuilt = &Box{
			BorderColor:     t.BorderColor,
			BackgroundColor: t.BackgroundColor,
			Body:            replaceNode(t.Body, replacer),
		}
	case *Brace:
		rebuilt = &Brace{Over: t.Over, Base: replaceNode(t.Base, replacer)}
	case *Root:
		r := &Root{Body: replaceNode(t.Body, replacer)}
		if t.Index != nil {
			r.Index = replaceNode(t.Index, replacer)
		}
		rebuilt = r
	case *Strikethrough:
		rebuilt = &Strikethrough{Body: replaceNode(t.Body, replacer)}
	case *Aligned:
		rows := make([][]Node, len(t.Body))
		for i, row := range t.Body {
			cells := make([]Node, len(row))
			for j, cell := range row {
				cells[j] = replaceNode(cell, replacer)
			}
			rows[i] = cells
		}
		rebuilt = &Aligned{Body: rows}
	default:
		rebuilt = n
	}
	rebuilt.links().id = n.ID()
	return replacer(rebuilt)
}

func replaceList(nodes []Node, replacer Replacer) []Node {
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = replaceNode(n, replacer)
	}
	return out
}

type consolidateRun struct {
	ids   []string
	group *Group
}

// ConsolidateGroups wraps each given contiguous run of siblings in a new
// Group within their shared parent's child list (or at the top level).
// This is the precursor to applying a style to a multi-node selection,
// since style nodes take a single body. The result goes through id,
// parent, and sibling fixup only: re-running removeEmptyGroups here would
// immediately undo the grouping. Returns the ids of the new groups in
// input order.
func ConsolidateGroups(f AugmentedFormula, siblingIDGroups [][]string) (AugmentedFormula, []string, error) {
	runs := make(map[string]*consolidateRun, len(siblingIDGroups))
	ordered := make([]*consolidateRun, 0, len(siblingIDGroups))
	for _, ids := range siblingIDGroups {
		if len(ids) == 0 {
			continue
		}
		var prev Node
		for i, id := range ids {
			n := f.FindNode(id)
			if n == nil {
				return AugmentedFormula{}, nil, fmt.Errorf("%w: id %q not found", ErrNotSiblings, id)
			}
			if i > 0 && prev.RightSibling() != n {
				return AugmentedFormula{}, nil, fmt.Errorf("%w: %q does not follow %q", ErrNotSiblings, id, ids[i-1])
			}
			prev = n
		}
		run := &consolidateRun{ids: ids}
		runs[ids[0]] = run
		ordered = append(ordered, run)
	}

	body := consolidateList(f.Body, runs)
	result := finalizeConsolidated(body)

	groupIDs := make([]string, len(ordered))
	for i, run := range ordered {
		if run.group == nil {
			return AugmentedFormula{}, nil, fmt.Errorf("%w: run starting at %q was not grouped", ErrNotSiblings, run.ids[0])
		}
		groupIDs[i] = run.group.ID()
	}
	return result, groupIDs, nil
}

// consolidateList rebuilds a sibling list, replacing each marked run with
// a fresh Group around those nodes.
func consolidateList(children []Node, runs map[string]*consolidateRun) []Node {
	out := make([]Node, 0, len(children))
	for i := 0; i < len(children); {
		c := children[i]
		if run, ok := runs[c.ID()]; ok && i+len(run.ids) <= len(children) {
			g := &Group{Body: append([]Node(nil), children[i:i+len(run.ids)]...)}
			run.group = g
			out = append(out, g)
			i += len(run.ids)
			continue
		}
		out = append(out, consolidateNode(c, runs))
		i++
	}
	return out
}

// consolidateNode recurses toward nested sibling lists, mutating bodies in
// place; the instances are finalized immediately afterward. Named slots go
// through consolidateSlot so a run targeting the slot node itself still
// gets its group.
func consolidateNode(n Node, runs map[string]*consolidateRun) Node {
	switch t := n.(type) {
	case *Group:
		t.Body = consolidateList(t.Body, runs)
	case *Color:
		t.Body = consolidateList(t.Body, runs)
	case *TextRun:
		t.Body = consolidateList(t.Body, runs)
	case *Fraction:
		t.Numerator = consolidateSlot(t.Numerator, runs)
		t.Denominator = consolidateSlot(t.Denominator, runs)
	case *Script:
		t.Base = consolidateSlot(t.Base, runs)
		if t.Sub != nil {
			t.Sub = consolidateSlot(t.Sub, runs)
		}
		if t.Sup != nil {
			t.Sup = consolidateSlot(t.Sup, runs)
		}
	case *Box:
		t.Body = consolidateSlot(t.Body, runs)
	case *Brace:
		t.Base = consolidateSlot(t.Base, runs)
	case *Root:
		if t.Index != nil {
			t.Index = consolidateSlot(t.Index, runs)
		}
		t.Body = consolidateSlot(t.Body, runs)
	case *Strikethrough:
		t.Body = consolidateSlot(t.Body, runs)
	case *Aligned:
		for _, row := range t.Body {
			for j, cell := range row {
				row[j] = consolidateSlot(cell, runs)
			}
		}
	}
	return n
}

// consolidateSlot wraps a slot node that heads its own run. Slot nodes
// carry no sibling links, so such a run is always a singleton.
func consolidateSlot(n Node, runs map[string]*consolidateRun) Node {
	if run, ok := runs[n.ID()]; ok && len(run.ids) == 1 {
		consolidateNode(n, runs)
		g := &Group{Body: []Node{n}}
		run.group = g
		return g
	}
	return consolidateNode(n, runs)
}
