// Package domsnap builds canonical trees from saved DOM snapshots of
// portal pages. The snapshot is plain HTML captured after render; there is
// no live-browser integration here.
package domsnap

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Elements that never contribute to the accessibility tree.
var skippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"template": true,
	"head":     true,
}

// Elements kept as nodes. Everything else is a transparent container whose
// children are lifted to the nearest kept ancestor.
var keptElements = map[string]string{
	"a":        "Link",
	"button":   "Button",
	"input":    "TextInput",
	"select":   "Dropdown",
	"textarea": "TextInput",
	"img":      "Image",
	"form":     "Form",
	"table":    "Table",
	"iframe":   "Frame",
	"main":     "Screen",
	"h1":       "Heading",
	"h2":       "Heading",
	"h3":       "Heading",
	"h4":       "Heading",
	"h5":       "Heading",
	"h6":       "Heading",
}

// Attributes copied into the property bag when present.
var keptAttributes = []string{
	"id", "role", "aria-label", "aria-labelledby", "aria-hidden",
	"alt", "title", "tabindex", "type", "href", "autocomplete",
}

// Build parses one HTML snapshot into a canonical tree. The page title
// names the app; body content becomes the node forest.
func Build(sourcePath string, data []byte, pageName string) (*apptree.Tree, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	title := findTitle(doc)
	if title == "" {
		title = pageName
	}

	b := &builder{sourcePath: sourcePath, screen: title}
	var roots []*apptree.Node
	body := findBody(doc)
	if body == nil {
		body = doc
	}
	for c := body.FirstChild; c != nil; c = c.NextSibling {
		roots = append(roots, b.collect(c)...)
	}

	return &apptree.Tree{
		Surface: apptree.SurfaceDomSnapshot,
		AppName: title,
		Roots:   roots,
	}, nil
}

type builder struct {
	sourcePath string
	screen     string
	seq        int
}

// collect turns one HTML node into zero or more canonical nodes. Kept
// elements become nodes owning their collected descendants; transparent
// elements pass their children through.
func (b *builder) collect(n *html.Node) []*apptree.Node {
	if n.Type != html.ElementNode {
		return nil
	}
	if skippedElements[n.Data] {
		return nil
	}

	typ, keep := keptElements[n.Data]
	if role := attr(n, "role"); role != "" {
		// An explicit ARIA role keeps any element.
		typ, keep = roleType(role), true
	}
	if !keep {
		var out []*apptree.Node
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			out = append(out, b.collect(c)...)
		}
		return out
	}

	node := &apptree.Node{
		ID:   b.nodeID(n),
		Type: typ,
		Name: accessibleName(n),
		Meta: apptree.Metadata{
			Surface:    apptree.SurfaceDomSnapshot,
			Screen:     b.screen,
			SourcePath: b.sourcePath,
		},
	}
	props := make(map[string]apptree.Value)
	for _, key := range keptAttributes {
		v := attr(n, key)
		if v == "" {
			continue
		}
		// Tab index is numeric in the canonical model.
		if key == "tabindex" {
			if idx, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				props["TabIndex"] = apptree.Number(float64(idx))
				continue
			}
		}
		props[propertyName(key)] = apptree.String(v)
	}
	if len(props) > 0 {
		node.Properties = props
	}
	if typ == "Heading" || n.Data == "a" || n.Data == "button" {
		node.Text = textContent(n)
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		node.Children = append(node.Children, b.collect(c)...)
	}
	return []*apptree.Node{node}
}

// nodeID prefers the element id, then falls back to a positional synthetic
// id so repeated scans of the same snapshot stay stable.
func (b *builder) nodeID(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return id
	}
	b.seq++
	return fmt.Sprintf("%s-%d", n.Data, b.seq)
}

// accessibleName follows the snapshot ordering: aria-label, alt, title,
// then visible text for naturally-labeled elements.
func accessibleName(n *html.Node) string {
	for _, key := range []string{"aria-label", "alt", "title"} {
		if v := strings.TrimSpace(attr(n, key)); v != "" {
			return v
		}
	}
	switch n.Data {
	case "a", "button", "h1", "h2", "h3", "h4", "h5", "h6":
		return textContent(n)
	}
	return ""
}

// roleType maps common ARIA roles onto canonical control types.
func roleType(role string) string {
	switch strings.ToLower(role) {
	case "button":
		return "Button"
	case "link":
		return "Link"
	case "textbox", "searchbox":
		return "TextInput"
	case "combobox", "listbox":
		return "Dropdown"
	case "checkbox":
		return "Checkbox"
	case "radio":
		return "Radio"
	case "img":
		return "Image"
	case "heading":
		return "Heading"
	case "dialog", "alertdialog":
		return "Screen"
	default:
		return "Control"
	}
}

// propertyName converts a DOM attribute to its bag key, e.g. "aria-label"
// becomes "AriaLabel" and "tabindex" becomes "TabIndex".
func propertyName(attrKey string) string {
	switch attrKey {
	case "tabindex":
		return "TabIndex"
	case "id":
		return "DomId"
	}
	parts := strings.Split(attrKey, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, "")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
