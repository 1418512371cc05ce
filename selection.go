package formula

import (
	"log/slog"
	"sort"
)

// Rect is an on-screen bounding box in the renderer's coordinate space.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Intersects reports whether the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.X+o.Width && o.X < r.X+r.Width &&
		r.Y < o.Y+o.Height && o.Y < r.Y+r.Height
}

// SelectionState tracks what the user has selected: explicitly interacted
// node ids plus active drag geometry over rendered leaf boxes. Selection
// state is best effort; ids may go stale whenever the tree is replaced.
type SelectionState struct {
	// Selected holds explicitly selected node ids.
	Selected []string

	// DragRect is the active rectangular drag region, nil when no drag is
	// in progress.
	DragRect *Rect

	// Targets maps leaf node ids to their rendered bounding boxes, as
	// reported back from hit-testing the typeset output.
	Targets map[string]Rect
}

// CurrentlyDragged returns the leaf node ids whose bounding box intersects
// the active drag region. Only leaves are directly drag-selectable;
// non-leaf nodes are reached through promotion.
func (s *SelectionState) CurrentlyDragged(f AugmentedFormula) []string {
	if s.DragRect == nil {
		return nil
	}
	var ids []string
	for _, n := range f.Body {
		walkNodes(n, func(n Node) {
			if len(n.Children()) != 0 {
				return
			}
			box, ok := s.Targets[n.ID()]
			if ok && box.Intersects(*s.DragRect) {
				ids = append(ids, n.ID())
			}
		})
	}
	sort.Strings(ids)
	return ids
}

// promotionBlocked reports whether selection may never bubble up into this
// parent: a brace's annotated base must stay separately selectable from
// its caption, and cells never merge across an alignment boundary.
func promotionBlocked(parent Node) bool {
	switch parent.(type) {
	case *Brace, *Aligned:
		return true
	}
	return false
}

// ResolveSelection computes the maximal structurally coherent selection
// from raw interacted ids plus drag-selected leaves. To a fixed point:
// when every child of a parent is selected, the children are replaced by
// the parent; when a selected node is the only child of a single-child
// wrapper, the selection moves up to the wrapper. Both promotions stop at
// braces and alignment boundaries. Stale ids are skipped with a
// diagnostic, never an error. The result is deterministic and independent
// of input order.
func ResolveSelection(f AugmentedFormula, state *SelectionState, logger *slog.Logger) []string {
	frontier := make(map[string]Node)
	add := func(id string) {
		n := f.FindNode(id)
		if n == nil {
			logStale(logger, "selection", id)
			return
		}
		frontier[n.ID()] = n
	}
	for _, id := range state.Selected {
		add(id)
	}
	for _, id := range state.CurrentlyDragged(f) {
		add(id)
	}

	for {
		promoted := false
		for _, id := range sortedKeys(frontier) {
			n, ok := frontier[id]
			if !ok {
				continue // removed by an earlier promotion this round
			}
			p := n.Parent()
			if p == nil || promotionBlocked(p) {
				continue
			}
			kids := p.Children()
			all := true
			for _, k := range kids {
				if _, sel := frontier[k.ID()]; !sel {
					all = false
					break
				}
			}
			// The single-child wrapper rule is the all-children rule in
			// the len(kids)==1 case; both promote to the parent.
			if !all {
				continue
			}
			for _, k := range kids {
				delete(frontier, k.ID())
			}
			frontier[p.ID()] = p
			promoted = true
		}
		if !promoted {
			return sortedKeys(frontier)
		}
	}
}

// SiblingSelections merges a resolved selection into maximal contiguous
// sibling runs grouped by shared parent, each suitable for
// ConsolidateGroups. Merging is driven purely by the sibling-pointer
// chains established during canonicalization, so nodes that merely look
// adjacent (across a slot or cell boundary) never merge.
func SiblingSelections(f AugmentedFormula, ids []string, logger *slog.Logger) [][]string {
	order := documentOrder(f)

	// Group by parent, synthetic root key for top-level nodes.
	byParent := make(map[string][]Node)
	var parentOrder []string
	for _, id := range ids {
		n := f.FindNode(id)
		if n == nil {
			logStale(logger, "sibling selection", id)
			continue
		}
		key := "root"
		if p := n.Parent(); p != nil {
			key = p.ID()
		}
		if _, seen := byParent[key]; !seen {
			parentOrder = append(parentOrder, key)
		}
		byParent[key] = append(byParent[key], n)
	}
	sort.Slice(parentOrder, func(i, j int) bool {
		return groupOrderKey(byParent[parentOrder[i]], order) < groupOrderKey(byParent[parentOrder[j]], order)
	})

	var out [][]string
	for _, key := range parentOrder {
		nodes := byParent[key]
		sort.Slice(nodes, func(i, j int) bool { return order[nodes[i].ID()] < order[nodes[j].ID()] })
		var run []string
		var last Node
		for _, n := range nodes {
			if last != nil && last.RightSibling() == n {
				run = append(run, n.ID())
			} else {
				if len(run) > 0 {
					out = append(out, run)
				}
				run = []string{n.ID()}
			}
			last = n
		}
		if len(run) > 0 {
			out = append(out, run)
		}
	}
	return out
}

// documentOrder assigns each id its position in a top-down walk.
func documentOrder(f AugmentedFormula) map[string]int {
	order := make(map[string]int)
	i := 0
	for _, n := range f.Body {
		walkNodes(n, func(n Node) {
			order[n.ID()] = i
			i++
		})
	}
	return order
}

func groupOrderKey(nodes []Node, order map[string]int) int {
	key := int(^uint(0) >> 1)
	for _, n := range nodes {
		if o := order[n.ID()]; o < key {
			key = o
		}
	}
	return key
}

func sortedKeys(m map[string]Node) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func logStale(logger *slog.Logger, op, id string) {
	if logger != nil {
		logger.Warn("stale node reference skipped", "op", op, "id", id)
	}
}
