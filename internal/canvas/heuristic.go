package canvas

import (
	"encoding/json"
	"log/slog"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Heuristic-scan strategy: last resort. Scan every remaining document for
// one exhibiting a known top-level marker and hand it to the legacy parser.

var heuristicMarkers = []string{"Screens", "TopParent", "Controls", "ControlStates"}

func buildHeuristicScan(docs []document, log *slog.Logger) []*apptree.Node {
	for _, doc := range docs {
		var raw map[string]any
		if err := json.Unmarshal(doc.data, &raw); err != nil {
			continue
		}
		if !hasMarker(raw) {
			continue
		}
		nodes := legacyRoots(raw)
		if len(nodes) > 0 {
			log.Debug("heuristic scan matched", "path", doc.path)
			stampSource(nodes, doc.path)
			return nodes
		}
	}
	return nil
}

func hasMarker(raw map[string]any) bool {
	for _, marker := range heuristicMarkers {
		if _, ok := raw[marker]; ok {
			return true
		}
	}
	return false
}
