package canvas

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/a11ylab/appscan/internal/apptree"
)

// makeInnerArchive builds an in-memory app blob from path -> content.
func makeInnerArchive(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for path, content := range entries {
		w, err := zw.Create(path)
		if err != nil {
			t.Fatalf("create %s: %v", path, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

// Scenario: legacy monolithic Screens array in a bare (non-archive) blob.
func TestBuild_LegacyScreensArray(t *testing.T) {
	blob := []byte(`{"Screens":[{"Name":"Screen1","Controls":[{"Name":"Button1","ControlType":"Button"}]}]}`)

	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.ID != "Screen1" || root.Type != "Screen" {
		t.Errorf("root = %s/%s, want Screen1/Screen", root.ID, root.Type)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	child := root.Children[0]
	if child.ID != "Button1" || child.Type != "Button" {
		t.Errorf("child = %s/%s, want Button1/Button", child.ID, child.Type)
	}
	if child.Meta.Screen != "Screen1" {
		t.Errorf("child screen = %q, want Screen1", child.Meta.Screen)
	}
}

// Scenario: source-tree DSL document inside the inner archive.
func TestBuild_SourceTreeDSL(t *testing.T) {
	src := "Screen1 As Screen:\n" +
		"    Button1 As Button:\n" +
		"        Text: =\"Submit\"\n"
	blob := makeInnerArchive(t, map[string]string{
		"Src/Screen1.pa": src,
	})

	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("expected 1 root, got %d", len(nodes))
	}
	root := nodes[0]
	if root.ID != "Screen1" || root.Type != "Screen" {
		t.Errorf("root = %s/%s, want Screen1/Screen", root.ID, root.Type)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	button := root.Children[0]
	if button.ID != "Button1" || button.Type != "Button" {
		t.Errorf("child = %s/%s, want Button1/Button", button.ID, button.Type)
	}
	// The raw formula text is preserved verbatim in the property bag.
	if got, _ := button.Properties["Text"].AsString(); got != `="Submit"` {
		t.Errorf("Text property = %q, want %q", got, `="Submit"`)
	}
	// Quoted-string formulas unwrap during name derivation.
	if button.Name != "Submit" {
		t.Errorf("accessible name = %q, want Submit", button.Name)
	}
	if button.Meta.Screen != "Screen1" {
		t.Errorf("screen = %q, want Screen1", button.Meta.Screen)
	}
}

func TestBuild_SourceTreeWinsOverLegacy(t *testing.T) {
	blob := makeInnerArchive(t, map[string]string{
		"Src/Screen1.pa": "Screen1 As Screen:\n",
		"Entities.json":  `{"Screens":[{"Name":"Other","Controls":[]}]}`,
	})
	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "Screen1" {
		t.Fatalf("source-tree strategy should win, got %+v", nodes)
	}
}

func TestBuild_EditorState(t *testing.T) {
	blob := makeInnerArchive(t, map[string]string{
		"EditorState/Button1.json": `{"Name":"Button1","ControlType":"Button","TopParentName":"HomeScreen"}`,
		"EditorState/States.json":  `{"ControlStates":{"Label1":{"Name":"Label1","Type":"Label","ParentScreen":"HomeScreen"}}}`,
	})
	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 flat nodes, got %d", len(nodes))
	}
	for _, n := range nodes {
		if len(n.Children) != 0 {
			t.Errorf("editor-state nodes must be flat, %s has children", n.ID)
		}
		if n.Meta.Screen != "HomeScreen" {
			t.Errorf("%s screen = %q, want HomeScreen", n.ID, n.Meta.Screen)
		}
	}
}

func TestBuild_LooseFragments(t *testing.T) {
	blob := makeInnerArchive(t, map[string]string{
		"Controls/1.json":   `{"Name":"btnGo"}`,
		"Controls/2.json":   `{"Name":"lblOut","Text":"Result"}`,
		"Controls/bad.json": `{not json`,
	})
	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes (bad fragment skipped), got %d", len(nodes))
	}
	if nodes[0].ID != "btnGo" || nodes[0].Type != "Button" {
		t.Errorf("fragment 1 = %s/%s", nodes[0].ID, nodes[0].Type)
	}
	if nodes[1].Meta.Screen != "lblOut" {
		t.Errorf("hierarchyless fragment should default screen to own name, got %q", nodes[1].Meta.Screen)
	}
}

func TestBuild_HeuristicScan(t *testing.T) {
	blob := makeInnerArchive(t, map[string]string{
		"data/whatever.dat": `{"TopParent":{"Name":"Screen9","Children":[{"Name":"txtName"}]}}`,
		"data/noise.dat":    `just text`,
	})
	nodes, err := Build("app.msapp", blob, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 1 || nodes[0].ID != "Screen9" {
		t.Fatalf("heuristic scan should find the marker document, got %+v", nodes)
	}
	if len(nodes[0].Children) != 1 || nodes[0].Children[0].ID != "txtName" {
		t.Error("nested children should be reconstructed")
	}
}

func TestBuild_NoShapeRecognized(t *testing.T) {
	if _, err := Build("app.msapp", []byte("garbage"), nil); err == nil {
		t.Error("expected error for unrecognizable blob")
	}
}

// Children consumed into a parent must never reappear as root siblings.
func TestLegacy_DuplicationGuard(t *testing.T) {
	doc := []byte(`{"Controls":[
		{"Name":"Gallery1","Children":[{"Name":"lblItem"}]},
		{"Name":"btnNext"}
	]}`)
	nodes, err := parseLegacyDoc(doc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(nodes) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(nodes))
	}
	seen := map[string]int{}
	total := 0
	var walk func(ns []*apptree.Node)
	walk = func(ns []*apptree.Node) {
		for _, n := range ns {
			seen[n.ID]++
			total++
			walk(n.Children)
		}
	}
	walk(nodes)
	if total != 3 {
		t.Errorf("expected 3 nodes total, got %d", total)
	}
	if seen["lblItem"] != 1 {
		t.Errorf("lblItem appeared %d times, want 1", seen["lblItem"])
	}
}
