package canvas

import (
	"bufio"
	"bytes"
	"log/slog"
	"regexp"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Source-tree strategy: the blob carries one declarative source document per
// screen under Src/. A block header has the form "<name> As <type>"; nested
// headers become child nodes and plain keys become properties.

var sourceDocSuffixes = []string{".pa", ".pa.yaml", ".fx.yaml"}

// "Button1 As Button:" — optional trailing colon, dotted type tokens allowed.
var blockHeaderRe = regexp.MustCompile(`^([A-Za-z_][\w'\-]*)\s+As\s+([\w.]+)\s*:?\s*$`)

// "Text: =\"Submit\"" — property key and raw value text.
var propertyRe = regexp.MustCompile(`^([A-Za-z_][\w]*)\s*:\s*(.*)$`)

func isSourceDoc(path string) bool {
	lower := strings.ToLower(path)
	if !strings.HasPrefix(lower, "src/") && !strings.Contains(lower, "/src/") {
		return false
	}
	for _, suffix := range sourceDocSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}

func buildSourceTree(docs []document, log *slog.Logger) []*apptree.Node {
	var roots []*apptree.Node
	for _, doc := range docs {
		if !isSourceDoc(doc.path) {
			continue
		}
		nodes := parseSourceDoc(doc.data)
		if len(nodes) == 0 {
			log.Debug("source document yielded no blocks", "path", doc.path)
			continue
		}
		stampSource(nodes, doc.path)
		roots = append(roots, nodes...)
	}
	return roots
}

type sourceFrame struct {
	node   *apptree.Node
	indent int
}

// parseSourceDoc parses one declarative block document. Indentation defines
// nesting; a continuation line deeper than the current property appends to
// its value.
func parseSourceDoc(data []byte) []*apptree.Node {
	var roots []*apptree.Node
	var stack []sourceFrame
	lastPropKey := ""
	lastPropIndent := -1

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "//") {
			continue
		}
		indent := lineIndent(line)

		if m := blockHeaderRe.FindStringSubmatch(trimmed); m != nil {
			node := &apptree.Node{
				ID:   m[1],
				Type: normalizeTypeLabel(m[2]),
			}
			for len(stack) > 0 && stack[len(stack)-1].indent >= indent {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				roots = append(roots, node)
			} else {
				parent := stack[len(stack)-1].node
				parent.Children = append(parent.Children, node)
			}
			stack = append(stack, sourceFrame{node: node, indent: indent})
			lastPropKey = ""
			continue
		}

		if m := propertyRe.FindStringSubmatch(trimmed); m != nil && len(stack) > 0 {
			// A property at the same depth as a block header belongs to
			// that block's parent.
			for len(stack) > 1 && stack[len(stack)-1].indent >= indent {
				stack = stack[:len(stack)-1]
			}
			owner := stack[len(stack)-1].node
			if owner.Properties == nil {
				owner.Properties = make(map[string]apptree.Value)
			}
			if _, taken := owner.Properties[m[1]]; !taken {
				owner.Properties[m[1]] = apptree.String(m[2])
			}
			lastPropKey = m[1]
			lastPropIndent = indent
			continue
		}

		// Continuation of a multi-line formula value.
		if lastPropKey != "" && len(stack) > 0 && indent > lastPropIndent {
			owner := stack[len(stack)-1].node
			if prev, ok := owner.Properties[lastPropKey]; ok {
				if s, isStr := prev.AsString(); isStr {
					owner.Properties[lastPropKey] = apptree.String(s + "\n" + trimmed)
				}
			}
		}
	}

	finishSourceNodes(roots)
	return roots
}

// finishSourceNodes derives names and text once properties are complete.
func finishSourceNodes(nodes []*apptree.Node) {
	for _, n := range nodes {
		n.Name = resolveLabel(nil, n.Properties)
		if raw, ok := n.Properties["Text"]; ok {
			if s, isStr := raw.AsString(); isStr {
				if literal, ok := literalText(s); ok {
					n.Text = literal
				}
			}
		}
		finishSourceNodes(n.Children)
	}
}

func lineIndent(line string) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 4
		default:
			return indent
		}
	}
	return indent
}
