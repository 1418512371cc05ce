package formula

import (
	"strings"

	"golang.org/x/net/html"
)

// RenderSpec is the plain serializable element tree handed to the
// rendering layer after the external typesetter lays out a render-mode
// LaTeX string. It carries no behavior, only data; the embedded ids
// correlate rendered elements back to tree nodes for hit-testing.
type RenderSpec struct {
	TagName   string            `json:"tagName"`
	ID        string            `json:"id,omitempty"`
	ClassName string            `json:"className,omitempty"`
	Style     map[string]string `json:"style,omitempty"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Children  []*RenderSpec     `json:"children,omitempty"`
}

// DeriveRenderSpec converts a typesetter-produced element node into a
// render spec, lifting id, class and style out of the generic attribute
// bag. Non-element children (text, comments) are dropped; the typeset
// output geometry, not its text, is what the core consumes back.
func DeriveRenderSpec(n *html.Node) *RenderSpec {
	if n == nil || n.Type != html.ElementNode {
		return nil
	}
	spec := &RenderSpec{TagName: n.Data}
	for _, attr := range n.Attr {
		switch attr.Key {
		case "id":
			spec.ID = attr.Val
		case "class":
			spec.ClassName = attr.Val
		case "style":
			spec.Style = parseInlineStyle(attr.Val)
		default:
			if spec.Attrs == nil {
				spec.Attrs = make(map[string]string)
			}
			spec.Attrs[attr.Key] = attr.Val
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := DeriveRenderSpec(c); child != nil {
			spec.Children = append(spec.Children, child)
		}
	}
	return spec
}

// ParseRenderedFragment parses typesetter output markup and derives the
// spec of its first element.
func ParseRenderedFragment(markup string) (*RenderSpec, error) {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, err
	}
	body := findElement(doc, "body")
	if body == nil {
		return nil, nil
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			return DeriveRenderSpec(c), nil
		}
	}
	return nil, nil
}

func findElement(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// parseInlineStyle splits "a: b; c: d" into a property map.
func parseInlineStyle(style string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(style, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CollectIDs walks a render spec and returns every element id in document
// order, the correlation set for hit-testing.
func (s *RenderSpec) CollectIDs() []string {
	if s == nil {
		return nil
	}
	var ids []string
	var walk func(*RenderSpec)
	walk = func(r *RenderSpec) {
		if r.ID != "" {
			ids = append(ids, r.ID)
		}
		for _, c := range r.Children {
			walk(c)
		}
	}
	walk(s)
	return ids
}
