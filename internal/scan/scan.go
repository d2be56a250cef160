// Package scan orchestrates a full package scan: open the archive, rebuild
// a canonical tree per nested app, run the rule catalog over each tree, and
// fold the results into per-app reports.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/a11ylab/appscan/internal/aggregate"
	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/archive"
	"github.com/a11ylab/appscan/internal/canvas"
	"github.com/a11ylab/appscan/internal/domsnap"
	"github.com/a11ylab/appscan/internal/engine"
	"github.com/a11ylab/appscan/internal/enrich"
	"github.com/a11ylab/appscan/internal/modeldriven"
	"github.com/a11ylab/appscan/internal/names"
	"github.com/a11ylab/appscan/internal/rules"
)

// Options tune a scan. The zero value scans with the built-in catalog, no
// enrichment, and a small parse pool.
type Options struct {
	Rules        []engine.Rule
	Enricher     enrich.Enricher
	ParseWorkers int
	Log          *slog.Logger
}

func (o *Options) defaults() {
	if o.Rules == nil {
		o.Rules = rules.Default()
	}
	if o.Enricher == nil {
		o.Enricher = enrich.Identity{}
	}
	if o.ParseWorkers <= 0 {
		o.ParseWorkers = 4
	}
	if o.Log == nil {
		o.Log = slog.Default()
	}
}

// Diagnostic records a nested entry that did not survive intake or parsing.
// Diagnostics never fail a scan.
type Diagnostic struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is everything a scan produced.
type Result struct {
	SolutionName string                `json:"solution_name"`
	Trees        []*apptree.Tree       `json:"trees"`
	Apps         []aggregate.AppResult `json:"apps"`
	Diagnostics  []Diagnostic          `json:"diagnostics,omitempty"`
}

// ParseSolution opens a package and rebuilds one tree per nested app. The
// only fatal failure is an unreadable outer archive; everything else
// becomes a diagnostic.
func ParseSolution(data []byte, opts Options) (*Result, error) {
	opts.defaults()

	pkg, err := archive.Open(data)
	if err != nil {
		return nil, err
	}

	res := &Result{SolutionName: pkg.SolutionName}
	for _, s := range pkg.Skipped {
		res.Diagnostics = append(res.Diagnostics, Diagnostic{Path: s.Path, Message: s.Message})
	}

	canvasTrees, canvasDiags := parseCanvasApps(pkg.CanvasApps, opts)
	res.Trees = append(res.Trees, canvasTrees...)
	res.Diagnostics = append(res.Diagnostics, canvasDiags...)

	if len(pkg.Customizations) > 0 {
		trees, err := modeldriven.Build(pkg.Customizations, opts.Log)
		if err != nil {
			opts.Log.Warn("customizations parse failed", "error", err)
			res.Diagnostics = append(res.Diagnostics, Diagnostic{
				Path:    "customizations.xml",
				Message: err.Error(),
			})
		} else {
			res.Trees = append(res.Trees, trees...)
		}
	}

	return res, nil
}

// parseCanvasApps rebuilds the canvas trees with bounded concurrency.
// Output order follows entry order regardless of which parse finishes
// first.
func parseCanvasApps(entries []archive.Entry, opts Options) ([]*apptree.Tree, []Diagnostic) {
	type parsed struct {
		idx  int
		tree *apptree.Tree
		err  error
	}
	results := make(chan parsed, len(entries))
	sem := make(chan struct{}, opts.ParseWorkers)

	for i, entry := range entries {
		sem <- struct{}{}
		go func(i int, entry archive.Entry) {
			defer func() { <-sem }()
			roots, err := canvas.Build(entry.Path, entry.Data, opts.Log)
			if err != nil {
				results <- parsed{idx: i, err: err}
				return
			}
			results <- parsed{idx: i, tree: &apptree.Tree{
				Surface: apptree.SurfaceCanvasApp,
				AppName: appNameFromPath(entry.Path),
				Roots:   roots,
			}}
		}(i, entry)
	}

	ordered := make([]parsed, len(entries))
	for range entries {
		r := <-results
		ordered[r.idx] = r
	}

	var trees []*apptree.Tree
	var diags []Diagnostic
	for i, r := range ordered {
		if r.err != nil {
			opts.Log.Warn("canvas app skipped", "path", entries[i].Path, "error", r.err)
			diags = append(diags, Diagnostic{Path: entries[i].Path, Message: r.err.Error()})
			continue
		}
		trees = append(trees, r.tree)
	}
	return trees, diags
}

// ScanPackage runs the full pipeline: parse, analyze every tree with the
// catalog, enrich, and aggregate per app.
func ScanPackage(ctx context.Context, data []byte, opts Options) (*Result, error) {
	opts.defaults()

	res, err := ParseSolution(data, opts)
	if err != nil {
		return nil, err
	}
	if err := analyzeTrees(ctx, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// ScanSnapshot runs the same analyze-enrich-aggregate pipeline over one
// saved DOM snapshot instead of a packaged solution. The snapshot path
// names the page when the document carries no title.
func ScanSnapshot(ctx context.Context, sourcePath string, data []byte, opts Options) (*Result, error) {
	opts.defaults()

	tree, err := domsnap.Build(sourcePath, data, pageNameFromPath(sourcePath))
	if err != nil {
		return nil, err
	}
	res := &Result{
		SolutionName: tree.AppName,
		Trees:        []*apptree.Tree{tree},
	}
	if err := analyzeTrees(ctx, res, opts); err != nil {
		return nil, err
	}
	return res, nil
}

// analyzeTrees runs the catalog over every parsed tree, enriches the
// findings, and folds them into per-app reports.
func analyzeTrees(ctx context.Context, res *Result, opts Options) error {
	var scans []aggregate.Scanned
	for _, tree := range res.Trees {
		scan := engine.Analyze(tree, opts.Rules, opts.Log)

		enriched, err := opts.Enricher.Enrich(ctx, tree, scan.Findings)
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("scan canceled: %w", err)
			}
			opts.Log.Warn("enrichment failed, keeping plain findings", "app", tree.AppName, "error", err)
		} else {
			scan.Findings = enriched
		}
		scans = append(scans, aggregate.Scanned{Tree: tree, Result: scan})
	}

	res.Apps = aggregate.PerApp(scans)
	return nil
}

// appNameFromPath derives a display name from a nested blob path, e.g.
// "CanvasApps/pub_expensetracker_document.msapp" becomes the formatted
// middle segment.
// pageNameFromPath derives a fallback page name from a snapshot path,
// e.g. "exports/support-portal.html" becomes "support-portal".
func pageNameFromPath(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func appNameFromPath(p string) string {
	base := path.Base(p)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	base = strings.TrimSuffix(base, "_document")
	if strings.Contains(base, "_") {
		return names.FormatDisplayName(base)
	}
	return base
}
