package canvas

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Legacy monolithic strategy: one document holds the whole app. The
// document exposes, in priority order, a "Screens" array, a "TopParent"
// object, a "Controls" array, a "ControlStates" map, or is itself a bare
// control/screen object. Nested "Children"/"Controls" arrays are resolved
// inline; a child consumed into its parent is owned there and never
// re-appended at the root.

func buildLegacy(docs []document, log *slog.Logger) []*apptree.Node {
	for _, doc := range docs {
		// Inside an inner archive only root-level JSON documents are
		// monolith candidates; per-control fragments in folders belong to
		// the later strategies.
		if len(docs) > 1 {
			lower := strings.ToLower(doc.path)
			if strings.Contains(lower, "/") || !strings.HasSuffix(lower, ".json") {
				continue
			}
		}
		nodes, err := parseLegacyDoc(doc.data)
		if err != nil {
			log.Debug("legacy parse failed", "path", doc.path, "error", err)
			continue
		}
		if len(nodes) > 0 {
			stampSource(nodes, doc.path)
			return nodes
		}
	}
	return nil
}

func parseLegacyDoc(data []byte) ([]*apptree.Node, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	return legacyRoots(raw), nil
}

func legacyRoots(raw map[string]any) []*apptree.Node {
	if screens, ok := raw["Screens"].([]any); ok {
		return buildSubtrees(screens)
	}
	if top, ok := raw["TopParent"].(map[string]any); ok {
		if node := buildSubtree(top); node != nil {
			return []*apptree.Node{node}
		}
		return nil
	}
	if controls, ok := raw["Controls"].([]any); ok {
		return buildSubtrees(controls)
	}
	if states, ok := raw["ControlStates"].(map[string]any); ok {
		var nodes []*apptree.Node
		for _, key := range sortedKeys(states) {
			entry, ok := states[key].(map[string]any)
			if !ok {
				continue
			}
			if node := newNode(entry); node != nil {
				nodes = append(nodes, node)
			}
		}
		return nodes
	}
	// Bare control/screen object.
	if node := buildSubtree(raw); node != nil {
		return []*apptree.Node{node}
	}
	return nil
}

func buildSubtrees(entries []any) []*apptree.Node {
	var nodes []*apptree.Node
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if node := buildSubtree(entry); node != nil {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// buildSubtree constructs a node and recursively takes ownership of its
// nested children.
func buildSubtree(doc map[string]any) *apptree.Node {
	node := newNode(doc)
	if node == nil {
		return nil
	}
	for _, key := range []string{"Children", "Controls"} {
		children, ok := doc[key].([]any)
		if !ok {
			continue
		}
		node.Children = append(node.Children, buildSubtrees(children)...)
	}
	return node
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
