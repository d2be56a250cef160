package findings

import (
	"testing"

	"github.com/a11ylab/appscan/internal/apptree"
)

func TestNewID_Deterministic(t *testing.T) {
	a := NewID(apptree.SurfaceCanvasApp, "Button1", "missing-accessible-label")
	b := NewID(apptree.SurfaceCanvasApp, "Button1", "missing-accessible-label")
	if a != b {
		t.Errorf("same inputs produced different ids: %s vs %s", a, b)
	}
	if a == NewID(apptree.SurfaceModelDrivenApp, "Button1", "missing-accessible-label") {
		t.Error("different surface must produce a different id")
	}
	if a == NewID(apptree.SurfaceCanvasApp, "Button2", "missing-accessible-label") {
		t.Error("different control must produce a different id")
	}
	if len(a) != 12 {
		t.Errorf("id length = %d, want 12", len(a))
	}
}

func TestCriterion_EveryCriterionHasOneLevel(t *testing.T) {
	for _, c := range Criteria() {
		level := c.ConformanceLevel()
		if level != LevelA && level != LevelAA && level != LevelAAA {
			t.Errorf("criterion %s has invalid level %q", c, level)
		}
		if c.Title() == "" {
			t.Errorf("criterion %s has no title", c)
		}
	}
}

func TestCriterion_Reference(t *testing.T) {
	got := WCAGNonTextContent.Reference()
	want := "WCAG 2.2 SC 1.1.1 Non-text Content (Level A)"
	if got != want {
		t.Errorf("Reference() = %q, want %q", got, want)
	}
	if !WCAGIdentifyInputPurpose.IsValid() {
		t.Error("1.3.5 should be valid")
	}
	if Criterion("9.9.9").IsValid() {
		t.Error("unknown criterion should be invalid")
	}
}

func TestSeverity_Rank(t *testing.T) {
	order := []Severity{SeverityInfo, SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank below %s", order[i-1], order[i])
		}
	}
	if Severity("bogus").IsValid() {
		t.Error("bogus severity should be invalid")
	}
}

func TestNewScanResult_Histogram(t *testing.T) {
	res := NewScanResult([]Finding{
		{ID: "a", Severity: SeverityHigh},
		{ID: "b", Severity: SeverityHigh},
		{ID: "c", Severity: SeverityLow},
	})
	if res.Histogram[SeverityHigh] != 2 || res.Histogram[SeverityLow] != 1 {
		t.Errorf("unexpected histogram: %#v", res.Histogram)
	}
	empty := NewScanResult(nil)
	if empty.Findings == nil || len(empty.Findings) != 0 {
		t.Error("nil findings should normalize to empty slice")
	}
}
