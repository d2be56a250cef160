package findings

import "fmt"

// Level is a WCAG conformance level.
type Level string

const (
	LevelA   Level = "A"
	LevelAA  Level = "AA"
	LevelAAA Level = "AAA"
)

// Criterion is one WCAG 2.2 success criterion, identified by its section
// number. Every criterion resolves to exactly one conformance level.
type Criterion string

const (
	WCAGNonTextContent       Criterion = "1.1.1"
	WCAGInfoAndRelationships Criterion = "1.3.1"
	WCAGIdentifyInputPurpose Criterion = "1.3.5"
	WCAGContrastMinimum      Criterion = "1.4.3"
	WCAGKeyboard             Criterion = "2.1.1"
	WCAGFocusOrder           Criterion = "2.4.3"
	WCAGHeadingsAndLabels    Criterion = "2.4.6"
	WCAGFocusVisible         Criterion = "2.4.7"
	WCAGLabelInName          Criterion = "2.5.3"
	WCAGTargetSizeMinimum    Criterion = "2.5.8"
	WCAGConsistentIdent      Criterion = "3.2.4"
	WCAGLabelsOrInstructions Criterion = "3.3.2"
	WCAGNameRoleValue        Criterion = "4.1.2"
)

type criterionInfo struct {
	Title string
	Level Level
}

// Criterion id -> title and level, per the WCAG 2.2 recommendation.
var criteria = map[Criterion]criterionInfo{
	WCAGNonTextContent:       {"Non-text Content", LevelA},
	WCAGInfoAndRelationships: {"Info and Relationships", LevelA},
	WCAGIdentifyInputPurpose: {"Identify Input Purpose", LevelAA},
	WCAGContrastMinimum:      {"Contrast (Minimum)", LevelAA},
	WCAGKeyboard:             {"Keyboard", LevelA},
	WCAGFocusOrder:           {"Focus Order", LevelA},
	WCAGHeadingsAndLabels:    {"Headings and Labels", LevelAA},
	WCAGFocusVisible:         {"Focus Visible", LevelAA},
	WCAGLabelInName:          {"Label in Name", LevelA},
	WCAGTargetSizeMinimum:    {"Target Size (Minimum)", LevelAA},
	WCAGConsistentIdent:      {"Consistent Identification", LevelAA},
	WCAGLabelsOrInstructions: {"Labels or Instructions", LevelA},
	WCAGNameRoleValue:        {"Name, Role, Value", LevelA},
}

// String returns the criterion's section number.
func (c Criterion) String() string {
	return string(c)
}

// IsValid returns true if the criterion is a recognized value.
func (c Criterion) IsValid() bool {
	_, ok := criteria[c]
	return ok
}

// Title returns the criterion's short title.
func (c Criterion) Title() string {
	return criteria[c].Title
}

// ConformanceLevel returns the criterion's level (A, AA or AAA).
func (c Criterion) ConformanceLevel() Level {
	return criteria[c].Level
}

// Reference returns the human reference string attached to findings, e.g.
// "WCAG 2.2 SC 1.1.1 Non-text Content (Level A)".
func (c Criterion) Reference() string {
	info, ok := criteria[c]
	if !ok {
		return fmt.Sprintf("WCAG 2.2 SC %s", string(c))
	}
	return fmt.Sprintf("WCAG 2.2 SC %s %s (Level %s)", string(c), info.Title, info.Level)
}

// Criteria returns all recognized criteria in unspecified order.
func Criteria() []Criterion {
	out := make([]Criterion, 0, len(criteria))
	for c := range criteria {
		out = append(out, c)
	}
	return out
}
