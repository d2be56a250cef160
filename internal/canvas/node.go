package canvas

import (
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Ordered key list for resolving a control's id. First populated key wins.
var idKeys = []string{"Name", "ControlName", "name", "Id", "id", "ControlUniqueId"}

// Template/type labels that are wrappers rather than real control types.
// A source that declares one of these falls through to the next type source.
var genericTypeLabels = map[string]bool{
	"control":        true,
	"typeddatacard":  true,
	"datacard":       true,
	"group":          true,
	"groupcontainer": true,
}

// Top-level scalar keys merged into the property bag alongside the explicit
// property object.
var propertyAllowList = []string{
	"Text", "AccessibleLabel", "Tooltip", "Default", "Visible", "DisplayMode",
	"TabIndex", "X", "Y", "Width", "Height", "Fill", "Color",
}

type prefixType struct {
	match string
	typ   string
}

// Naming-convention tables for inferring a type from a control id. Prefixes
// are tried first, then substrings, in table order.
var idPrefixTypes = []prefixType{
	{"btn", "Button"},
	{"lbl", "Label"},
	{"txt", "TextInput"},
	{"img", "Image"},
	{"ico", "Icon"},
	{"gal", "Gallery"},
	{"scr", "Screen"},
	{"frm", "Form"},
	{"drp", "Dropdown"},
	{"cmb", "ComboBox"},
	{"chk", "Checkbox"},
	{"tgl", "Toggle"},
	{"sld", "Slider"},
	{"rad", "Radio"},
	{"dte", "DatePicker"},
	{"tmr", "Timer"},
	{"lst", "ListBox"},
}

var idSubstringTypes = []prefixType{
	{"button", "Button"},
	{"label", "Label"},
	{"screen", "Screen"},
	{"gallery", "Gallery"},
	{"image", "Image"},
	{"icon", "Icon"},
	{"toggle", "Toggle"},
	{"checkbox", "Checkbox"},
	{"dropdown", "Dropdown"},
	{"slider", "Slider"},
	{"input", "TextInput"},
	{"form", "Form"},
}

// resolveID returns the first populated id key, or "".
func resolveID(doc map[string]any) string {
	for _, key := range idKeys {
		if s, ok := doc[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Ordered type sources. Each returns a candidate label or "".
var typeSources = []func(map[string]any) string{
	func(doc map[string]any) string { // template name
		if tpl, ok := doc["Template"].(map[string]any); ok {
			if s, ok := tpl["Name"].(string); ok {
				return s
			}
		}
		return ""
	},
	func(doc map[string]any) string { // template id, e.g. ".../appmagic/button"
		if tpl, ok := doc["Template"].(map[string]any); ok {
			if s, ok := tpl["Id"].(string); ok {
				if i := strings.LastIndex(s, "/"); i >= 0 {
					return s[i+1:]
				}
				return s
			}
		}
		return ""
	},
	func(doc map[string]any) string { // explicit type key
		if s, ok := doc["ControlType"].(string); ok {
			return s
		}
		if s, ok := doc["Type"].(string); ok {
			return s
		}
		return ""
	},
	func(doc map[string]any) string {
		if s, ok := doc["TemplateName"].(string); ok {
			return s
		}
		return ""
	},
}

// resolveType walks the ordered type sources, rejects generic wrapper
// labels, and falls back to inferring from the id.
func resolveType(doc map[string]any, id string) string {
	for _, source := range typeSources {
		candidate := strings.TrimSpace(source(doc))
		if candidate == "" || genericTypeLabels[strings.ToLower(candidate)] {
			continue
		}
		return normalizeTypeLabel(candidate)
	}
	return inferTypeFromID(id)
}

// inferTypeFromID matches the id against the naming tables: prefixes first,
// then substrings, defaulting to "Control".
func inferTypeFromID(id string) string {
	lower := strings.ToLower(id)
	for _, p := range idPrefixTypes {
		if strings.HasPrefix(lower, p.match) {
			return p.typ
		}
	}
	for _, p := range idSubstringTypes {
		if strings.Contains(lower, p.match) {
			return p.typ
		}
	}
	return "Control"
}

func normalizeTypeLabel(label string) string {
	if label == strings.ToLower(label) {
		return strings.ToUpper(label[:1]) + label[1:]
	}
	return label
}

// resolveProperties merges, in order and without overwriting: the explicit
// nested property object, the allow-listed top-level scalars, and
// formula-rule definitions (property name -> expression text).
func resolveProperties(doc map[string]any) map[string]apptree.Value {
	props := make(map[string]apptree.Value)

	if nested, ok := doc["Properties"].(map[string]any); ok {
		for key, raw := range nested {
			if v, ok := apptree.FromAny(raw); ok {
				props[key] = v
			}
		}
	}

	for _, key := range propertyAllowList {
		raw, present := doc[key]
		if !present {
			continue
		}
		if _, taken := props[key]; taken {
			continue
		}
		if v, ok := apptree.FromAny(raw); ok {
			props[key] = v
		}
	}

	if rules, ok := doc["Rules"].([]any); ok {
		for _, raw := range rules {
			rule, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			name, _ := rule["Property"].(string)
			if name == "" {
				continue
			}
			if _, taken := props[name]; taken {
				continue
			}
			script, _ := rule["InvariantScript"].(string)
			props[name] = apptree.String(script)
		}
	}

	if len(props) == 0 {
		return nil
	}
	return props
}

// Ordered accessible-label sources: explicit field, property bag, Text
// field, Text property, Default field. First non-empty wins.
func resolveLabel(doc map[string]any, props map[string]apptree.Value) string {
	lookups := []func() (string, bool){
		func() (string, bool) { s, ok := doc["AccessibleLabel"].(string); return s, ok },
		func() (string, bool) { v, ok := props["AccessibleLabel"]; return v.Text(), ok },
		func() (string, bool) { s, ok := doc["Text"].(string); return s, ok },
		func() (string, bool) { v, ok := props["Text"]; return v.Text(), ok },
		func() (string, bool) { s, ok := doc["Default"].(string); return s, ok },
	}
	for _, lookup := range lookups {
		raw, ok := lookup()
		if !ok {
			continue
		}
		if text, ok := literalText(raw); ok && text != "" {
			return text
		}
	}
	return ""
}

// literalText applies the formula policy: plain strings pass through, a
// pure quoted-string formula (`="Submit"`) unwraps to its literal, and any
// other formula expression yields no label text.
func literalText(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "=") {
		return s, true
	}
	body := strings.TrimSpace(s[1:])
	if len(body) >= 2 && body[0] == '"' && body[len(body)-1] == '"' {
		inner := body[1 : len(body)-1]
		if !strings.Contains(inner, `"`) {
			return inner, true
		}
	}
	return "", false
}

// newNode builds one node from a decoded document, without children.
func newNode(doc map[string]any) *apptree.Node {
	id := resolveID(doc)
	if id == "" {
		return nil
	}
	props := resolveProperties(doc)
	node := &apptree.Node{
		ID:         id,
		Type:       resolveType(doc, id),
		Name:       resolveLabel(doc, props),
		Properties: props,
	}
	if text, ok := doc["Text"].(string); ok {
		if literal, ok := literalText(text); ok {
			node.Text = literal
		}
	}
	return node
}

// stampScreens assigns each node's screen name: the nearest ancestor (or
// self) whose type denotes a screen, defaulting to the node's own name when
// no screen anchors the subtree. Explicit screen names set by a builder are
// left alone.
func stampScreens(nodes []*apptree.Node, anchor string) {
	for _, n := range nodes {
		next := anchor
		if n.IsScreen() {
			next = n.ID
		}
		if n.Meta.Screen == "" {
			if next != "" {
				n.Meta.Screen = next
			} else {
				n.Meta.Screen = n.ID
			}
		}
		stampScreens(n.Children, next)
	}
}

// stampSource records the originating archive entry on a subtree.
func stampSource(nodes []*apptree.Node, path string) {
	for _, n := range nodes {
		if n.Meta.SourcePath == "" {
			n.Meta.SourcePath = path
		}
		stampSource(n.Children, path)
	}
}

func stampSurface(nodes []*apptree.Node, surface apptree.Surface) {
	for _, n := range nodes {
		n.Meta.Surface = surface
		stampSurface(n.Children, surface)
	}
}
