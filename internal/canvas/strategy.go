// Package canvas reconstructs canonical UI trees from nested canvas-app
// blobs. The export format went through several generations that were never
// documented, so extraction tries a fixed priority order of parsing
// strategies and takes the first one that yields any nodes.
package canvas

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/a11ylab/appscan/internal/apptree"
)

// document is one file pulled out of an app blob.
type document struct {
	path string
	data []byte
}

// strategy attempts to reconstruct root nodes from a blob's documents.
// Strategies are pure: same documents in, same nodes out.
type strategy struct {
	name  string
	build func(docs []document, log *slog.Logger) []*apptree.Node
}

// Fixed priority order. The first strategy producing at least one node wins.
var strategies = []strategy{
	{"source-tree", buildSourceTree},
	{"editor-state", buildEditorState},
	{"legacy", buildLegacy},
	{"loose-fragment", buildLooseFragments},
	{"heuristic-scan", buildHeuristicScan},
}

// Build reconstructs the root nodes of one nested app blob. It returns an
// error only when no strategy recognizes the blob; individual document
// parse failures are skipped.
func Build(path string, data []byte, log *slog.Logger) ([]*apptree.Node, error) {
	if log == nil {
		log = slog.Default()
	}
	docs := readBlob(path, data)

	for _, s := range strategies {
		nodes := s.build(docs, log)
		if len(nodes) == 0 {
			continue
		}
		log.Debug("canvas strategy matched", "strategy", s.name, "path", path, "roots", len(nodes))
		stampSurface(nodes, apptree.SurfaceCanvasApp)
		stampScreens(nodes, "")
		stampSource(nodes, path)
		return nodes, nil
	}
	return nil, fmt.Errorf("no recognized canvas document shape in %s", path)
}

// readBlob opens the blob as an inner archive when possible. Blobs that are
// not archives are treated as a single standalone document so the legacy
// and heuristic strategies still get a chance.
func readBlob(path string, data []byte) []document {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return []document{{path: path, data: data}}
	}

	var docs []document
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		entryData, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		docs = append(docs, document{path: f.Name, data: entryData})
	}
	// Archive entry order is not part of any contract; sort for
	// deterministic output.
	sort.Slice(docs, func(i, j int) bool { return docs[i].path < docs[j].path })
	return docs
}
