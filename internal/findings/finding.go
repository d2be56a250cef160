// Package findings defines the accessibility finding model: severities,
// WCAG success criteria, deterministic finding ids and scan results.
package findings

import (
	"crypto/sha256"
	"fmt"

	"github.com/a11ylab/appscan/internal/apptree"
)

// Finding is one reported accessibility issue tied to a specific control.
type Finding struct {
	ID           string          `json:"id"`
	Severity     Severity        `json:"severity"`
	Surface      apptree.Surface `json:"surface"`
	App          string          `json:"app,omitempty"`
	Screen       string          `json:"screen,omitempty"`
	Entity       string          `json:"entity,omitempty"`
	Tab          string          `json:"tab,omitempty"`
	Section      string          `json:"section,omitempty"`
	ControlID    string          `json:"control_id"`
	ControlType  string          `json:"control_type,omitempty"`
	IssueType    string          `json:"issue_type"`
	Message      string          `json:"message"`
	WCAG         Criterion       `json:"wcag"`
	WCAGRef      string          `json:"wcag_ref"`
	Rationale    string          `json:"rationale,omitempty"`
	SuggestedFix string          `json:"suggested_fix,omitempty"`
}

// NewID derives the stable finding id from the identity triple. Identical
// reruns and cross-tree merges must produce identical ids so dedup works.
func NewID(surface apptree.Surface, controlID, issueType string) string {
	h := sha256.Sum256([]byte(string(surface) + "|" + controlID + "|" + issueType))
	return fmt.Sprintf("%x", h[:6])
}

// ScanResult is an ordered finding list plus its severity histogram.
type ScanResult struct {
	Findings  []Finding        `json:"findings"`
	Histogram map[Severity]int `json:"histogram"`
}

// NewScanResult builds a result and computes its histogram.
func NewScanResult(fs []Finding) ScanResult {
	hist := make(map[Severity]int)
	for _, f := range fs {
		hist[f.Severity]++
	}
	if fs == nil {
		fs = []Finding{}
	}
	return ScanResult{Findings: fs, Histogram: hist}
}
