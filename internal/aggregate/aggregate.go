// Package aggregate groups independently-scanned trees from one package
// into per-app results.
package aggregate

import (
	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

// Scanned pairs a tree with the result of analyzing it.
type Scanned struct {
	Tree   *apptree.Tree
	Result findings.ScanResult
}

// AppResult is the merged result for one logical app.
type AppResult struct {
	App    string             `json:"app"`
	Result findings.ScanResult `json:"result"`
}

// PerApp groups canvas results by app name and model-driven results by
// owning-app label, concatenates each group's findings, and deduplicates
// by finding id with the first occurrence winning. Group order follows
// first appearance in the input.
func PerApp(scans []Scanned) []AppResult {
	var order []string
	grouped := make(map[string][]findings.Finding)

	for _, scan := range scans {
		key := groupKey(scan.Tree)
		if _, seen := grouped[key]; !seen {
			order = append(order, key)
		}
		grouped[key] = append(grouped[key], scan.Result.Findings...)
	}

	out := make([]AppResult, 0, len(order))
	for _, key := range order {
		out = append(out, AppResult{
			App:    key,
			Result: findings.NewScanResult(dedupe(grouped[key])),
		})
	}
	return out
}

func groupKey(tree *apptree.Tree) string {
	if tree.Surface == apptree.SurfaceModelDrivenApp && tree.OwnerApp != "" {
		return tree.OwnerApp
	}
	return tree.AppName
}

// dedupe keeps the first finding for each id. Later duplicates are
// dropped whole, never merged field by field.
func dedupe(fs []findings.Finding) []findings.Finding {
	seen := make(map[string]bool, len(fs))
	out := make([]findings.Finding, 0, len(fs))
	for _, f := range fs {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out
}
