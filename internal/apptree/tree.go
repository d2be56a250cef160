// Package apptree defines the canonical UI tree shared between the
// extraction builders and the rule engine. Trees are built once by
// extraction and treated as immutable afterwards; every node is owned by
// exactly one parent.
package apptree

import "strings"

// Metadata carries structural context attached to a node at build time.
type Metadata struct {
	Surface    Surface `json:"surface"`
	Screen     string  `json:"screen,omitempty"`
	Form       string  `json:"form,omitempty"`
	Entity     string  `json:"entity,omitempty"`
	Tab        string  `json:"tab,omitempty"`
	Section    string  `json:"section,omitempty"`
	SourcePath string  `json:"source_path,omitempty"`
}

// Node is one UI control, screen, tab, or section in the canonical tree.
type Node struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Role       string           `json:"role,omitempty"`
	Name       string           `json:"name,omitempty"`
	Text       string           `json:"text,omitempty"`
	Properties map[string]Value `json:"properties,omitempty"`
	Children   []*Node          `json:"children,omitempty"`
	Meta       Metadata         `json:"metadata"`
}

// Property returns the named property and whether it is present.
func (n *Node) Property(key string) (Value, bool) {
	v, ok := n.Properties[key]
	return v, ok
}

// PropertyText returns the named property rendered as text, or "".
func (n *Node) PropertyText(key string) string {
	if v, ok := n.Properties[key]; ok {
		return v.Text()
	}
	return ""
}

// IsScreen reports whether the node's declared type denotes a screen.
func (n *Node) IsScreen() bool {
	return IsScreenType(n.Type)
}

// IsScreenType reports whether a declared type denotes a screen.
func IsScreenType(t string) bool {
	return strings.EqualFold(t, "Screen")
}

// Tree is one extracted UI surface: ordered root nodes plus grouping labels.
// AppName is the primary grouping name (canvas app name, or entity display
// name for model-driven forms); OwnerApp is the model-driven owning app.
type Tree struct {
	Surface  Surface `json:"surface"`
	AppName  string  `json:"app_name,omitempty"`
	OwnerApp string  `json:"owner_app,omitempty"`
	Roots    []*Node `json:"nodes"`
}

// NodeCount returns the total number of nodes in the tree.
func (t *Tree) NodeCount() int {
	count := 0
	var walk func(nodes []*Node)
	walk = func(nodes []*Node) {
		for _, n := range nodes {
			count++
			walk(n.Children)
		}
	}
	walk(t.Roots)
	return count
}
