package canvas

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Loose-fragment strategy: per-control documents under the conventional
// Controls folder, parsed individually with no reconstructed hierarchy.

func isLooseFragment(path string) bool {
	lower := strings.ToLower(path)
	return (strings.HasPrefix(lower, "controls/") || strings.Contains(lower, "/controls/")) &&
		strings.HasSuffix(lower, ".json")
}

func buildLooseFragments(docs []document, log *slog.Logger) []*apptree.Node {
	var nodes []*apptree.Node
	for _, doc := range docs {
		if !isLooseFragment(doc.path) {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal(doc.data, &raw); err != nil {
			log.Debug("fragment parse failed", "path", doc.path, "error", err)
			continue
		}
		node := newNode(raw)
		if node == nil {
			continue
		}
		node.Meta.SourcePath = doc.path
		nodes = append(nodes, node)
	}
	return nodes
}
