package canvas

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Editor-state strategy: newer exports keep one document per control under
// an EditorState folder. Documents are keyed by control id and optionally
// carry an explicit parent-screen field; no hierarchy is reconstructed.

func isEditorStateDoc(path string) bool {
	lower := strings.ToLower(path)
	return strings.HasPrefix(lower, "editorstate/") ||
		strings.Contains(lower, "/editorstate/") ||
		strings.HasSuffix(lower, ".editorstate.json")
}

func buildEditorState(docs []document, log *slog.Logger) []*apptree.Node {
	var nodes []*apptree.Node
	for _, doc := range docs {
		if !isEditorStateDoc(doc.path) {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(doc.data, &raw); err != nil {
			log.Debug("editor-state parse failed", "path", doc.path, "error", err)
			continue
		}
		for _, entry := range editorStateEntries(raw) {
			node := newNode(entry)
			if node == nil {
				continue
			}
			node.Meta.Screen = parentScreen(entry)
			node.Meta.SourcePath = doc.path
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// editorStateEntries unwraps the two observed document shapes: a
// ControlStates map of control docs, or a single control doc.
func editorStateEntries(raw map[string]any) []map[string]any {
	if states, ok := raw["ControlStates"].(map[string]any); ok {
		var entries []map[string]any
		for _, key := range sortedKeys(states) {
			if entry, ok := states[key].(map[string]any); ok {
				entries = append(entries, entry)
			}
		}
		return entries
	}
	return []map[string]any{raw}
}

func parentScreen(doc map[string]any) string {
	for _, key := range []string{"ParentScreen", "TopParentName"} {
		if s, ok := doc[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}
