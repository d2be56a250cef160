// Package rules carries the built-in accessibility rule catalog. Every
// rule conforms to the engine's plugin interface; external catalogs can be
// appended alongside or instead of these.
package rules

import (
	"fmt"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/engine"
	"github.com/a11ylab/appscan/internal/findings"
)

// Default returns the built-in catalog in registration order.
func Default() []engine.Rule {
	return []engine.Rule{
		&MissingAccessibleLabel{},
		&ImageMissingAlt{},
		&KeyboardUnreachable{},
		&ExplicitTabOrder{},
		&RequiredWithoutLabel{},
		&MissingAutocomplete{},
		&DuplicateSiblingLabel{},
		&LowInformationName{},
	}
}

// Control types a user interacts with directly.
var interactiveTypes = map[string]bool{
	"Button":     true,
	"TextInput":  true,
	"Dropdown":   true,
	"ComboBox":   true,
	"Checkbox":   true,
	"Toggle":     true,
	"Slider":     true,
	"Radio":      true,
	"DatePicker": true,
	"ListBox":    true,
}

func isInteractive(node *apptree.Node) bool {
	return interactiveTypes[node.Type]
}

// newFinding fills the shared finding fields from the node and context.
func newFinding(node *apptree.Node, ctx *engine.Context, issueType string, sev findings.Severity, crit findings.Criterion, message, rationale, fix string) findings.Finding {
	screen := node.Meta.Screen
	if ctx.Screen != nil {
		screen = ctx.Screen.ID
	}
	return findings.Finding{
		ID:           findings.NewID(ctx.Tree.Surface, node.ID, issueType),
		Severity:     sev,
		Surface:      ctx.Tree.Surface,
		App:          ctx.Tree.AppName,
		Screen:       screen,
		Entity:       node.Meta.Entity,
		Tab:          node.Meta.Tab,
		Section:      node.Meta.Section,
		ControlID:    node.ID,
		ControlType:  node.Type,
		IssueType:    issueType,
		Message:      message,
		WCAG:         crit,
		WCAGRef:      crit.Reference(),
		Rationale:    rationale,
		SuggestedFix: fix,
	}
}

// MissingAccessibleLabel flags interactive controls without an accessible
// name.
type MissingAccessibleLabel struct{}

func (r *MissingAccessibleLabel) ID() string { return "missing-accessible-label" }
func (r *MissingAccessibleLabel) Description() string {
	return "Interactive controls must expose a non-empty accessible name"
}
func (r *MissingAccessibleLabel) Severity() findings.Severity { return findings.SeverityHigh }
func (r *MissingAccessibleLabel) Surfaces() []apptree.Surface { return nil }

func (r *MissingAccessibleLabel) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	if !isInteractive(node) || strings.TrimSpace(node.Name) != "" {
		return nil, nil
	}
	return []findings.Finding{newFinding(node, ctx,
		r.ID(), r.Severity(), findings.WCAGNameRoleValue,
		fmt.Sprintf("%s %q has no accessible name", node.Type, node.ID),
		"Assistive technology announces unnamed controls as their raw type, leaving users without a way to know what the control does.",
		"Set AccessibleLabel (or a text value) describing the control's action.",
	)}, nil
}

// ImageMissingAlt flags images and icons without alternative text.
type ImageMissingAlt struct{}

func (r *ImageMissingAlt) ID() string { return "image-missing-alt" }
func (r *ImageMissingAlt) Description() string {
	return "Images and icons must carry alternative text"
}
func (r *ImageMissingAlt) Severity() findings.Severity { return findings.SeverityHigh }
func (r *ImageMissingAlt) Surfaces() []apptree.Surface { return nil }

func (r *ImageMissingAlt) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	if node.Type != "Image" && node.Type != "Icon" {
		return nil, nil
	}
	if strings.TrimSpace(node.Name) != "" {
		return nil, nil
	}
	return []findings.Finding{newFinding(node, ctx,
		r.ID(), r.Severity(), findings.WCAGNonTextContent,
		fmt.Sprintf("%s %q has no alternative text", node.Type, node.ID),
		"Non-text content needs a text alternative so screen reader users receive the same information.",
		"Provide an AccessibleLabel describing the image, or mark it decorative.",
	)}, nil
}

// KeyboardUnreachable flags interactive controls removed from the tab
// order.
type KeyboardUnreachable struct{}

func (r *KeyboardUnreachable) ID() string { return "keyboard-unreachable" }
func (r *KeyboardUnreachable) Description() string {
	return "Interactive controls must stay reachable by keyboard"
}
func (r *KeyboardUnreachable) Severity() findings.Severity { return findings.SeverityHigh }
func (r *KeyboardUnreachable) Surfaces() []apptree.Surface {
	return []apptree.Surface{apptree.SurfaceCanvasApp, apptree.SurfaceDomSnapshot, apptree.SurfacePortalPage}
}

func (r *KeyboardUnreachable) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	if !isInteractive(node) {
		return nil, nil
	}
	v, ok := node.Property("TabIndex")
	if !ok {
		return nil, nil
	}
	if n, isNum := v.AsNumber(); isNum && n < 0 {
		return []findings.Finding{newFinding(node, ctx,
			r.ID(), r.Severity(), findings.WCAGKeyboard,
			fmt.Sprintf("%s %q is excluded from the tab order (TabIndex %g)", node.Type, node.ID, n),
			"A negative tab index removes the control from sequential keyboard navigation.",
			"Set TabIndex to 0 so keyboard users can reach the control.",
		)}, nil
	}
	return nil, nil
}

// ExplicitTabOrder flags positive tab indices, which create a parallel
// focus order that is hard to keep consistent.
type ExplicitTabOrder struct{}

func (r *ExplicitTabOrder) ID() string { return "explicit-tab-order" }
func (r *ExplicitTabOrder) Description() string {
	return "Avoid positive tab indices that override the natural focus order"
}
func (r *ExplicitTabOrder) Severity() findings.Severity { return findings.SeverityMedium }
func (r *ExplicitTabOrder) Surfaces() []apptree.Surface {
	return []apptree.Surface{apptree.SurfaceCanvasApp, apptree.SurfaceDomSnapshot, apptree.SurfacePortalPage}
}

func (r *ExplicitTabOrder) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	v, ok := node.Property("TabIndex")
	if !ok {
		return nil, nil
	}
	if n, isNum := v.AsNumber(); isNum && n > 0 {
		return []findings.Finding{newFinding(node, ctx,
			r.ID(), r.Severity(), findings.WCAGFocusOrder,
			fmt.Sprintf("%s %q sets an explicit tab index of %g", node.Type, node.ID, n),
			"Positive tab indices reorder focus away from the visual layout and break as screens evolve.",
			"Remove the explicit tab index and rely on control order.",
		)}, nil
	}
	return nil, nil
}

// RequiredWithoutLabel flags required form fields that carry no label.
type RequiredWithoutLabel struct{}

func (r *RequiredWithoutLabel) ID() string { return "required-without-label" }
func (r *RequiredWithoutLabel) Description() string {
	return "Required fields must have a visible label"
}
func (r *RequiredWithoutLabel) Severity() findings.Severity { return findings.SeverityMedium }
func (r *RequiredWithoutLabel) Surfaces() []apptree.Surface {
	return []apptree.Surface{apptree.SurfaceModelDrivenApp}
}

func (r *RequiredWithoutLabel) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	v, ok := node.Property("Required")
	if !ok {
		return nil, nil
	}
	if required, isBool := v.AsBool(); !isBool || !required {
		return nil, nil
	}
	if strings.TrimSpace(node.Name) != "" {
		return nil, nil
	}
	return []findings.Finding{newFinding(node, ctx,
		r.ID(), r.Severity(), findings.WCAGLabelsOrInstructions,
		fmt.Sprintf("required field %q has no label", node.ID),
		"Users must be told which input is expected, especially when the field blocks submission.",
		"Add a label describing the required value.",
	)}, nil
}

// MissingAutocomplete flags personal-data fields without an autocomplete
// purpose.
type MissingAutocomplete struct{}

var personalDataHints = []string{"email", "phone", "name", "address", "postal", "zip"}

func (r *MissingAutocomplete) ID() string { return "missing-autocomplete" }
func (r *MissingAutocomplete) Description() string {
	return "Fields collecting personal data should declare an input purpose"
}
func (r *MissingAutocomplete) Severity() findings.Severity { return findings.SeverityLow }
func (r *MissingAutocomplete) Surfaces() []apptree.Surface {
	return []apptree.Surface{apptree.SurfaceModelDrivenApp}
}

func (r *MissingAutocomplete) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	if node.Type != "Text" {
		return nil, nil
	}
	if _, ok := node.Property("Autocomplete"); ok {
		return nil, nil
	}
	field := strings.ToLower(node.PropertyText("DataField"))
	if field == "" {
		field = strings.ToLower(node.ID)
	}
	for _, hint := range personalDataHints {
		if strings.Contains(field, hint) {
			return []findings.Finding{newFinding(node, ctx,
				r.ID(), r.Severity(), findings.WCAGIdentifyInputPurpose,
				fmt.Sprintf("field %q appears to collect personal data but declares no input purpose", node.ID),
				"Declared input purposes let browsers and assistive tooling autofill and explain personal-data fields.",
				"Set the field's autocomplete attribute to the matching input purpose.",
			)}, nil
		}
	}
	return nil, nil
}

// LowInformationName flags interactive controls whose accessible name is
// just the designer default: the control's own id, or its type followed by
// digits ("Button1").
type LowInformationName struct{}

func (r *LowInformationName) ID() string { return "low-information-name" }
func (r *LowInformationName) Description() string {
	return "Accessible names should describe the control's purpose, not restate its type"
}
func (r *LowInformationName) Severity() findings.Severity { return findings.SeverityLow }
func (r *LowInformationName) Surfaces() []apptree.Surface { return nil }

func (r *LowInformationName) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	name := strings.TrimSpace(node.Name)
	if name == "" || !isInteractive(node) {
		return nil, nil
	}
	if !strings.EqualFold(name, node.ID) && !isTypeWithDigits(name, node.Type) {
		return nil, nil
	}
	return []findings.Finding{newFinding(node, ctx,
		r.ID(), r.Severity(), findings.WCAGHeadingsAndLabels,
		fmt.Sprintf("%s %q is named after its type, not its purpose", node.Type, node.ID),
		"Default names like the control id tell a screen reader user nothing about what the control does.",
		"Rename the control's accessible name to describe its action or content.",
	)}, nil
}

// isTypeWithDigits reports whether name is the control type plus an
// optional numeric suffix, e.g. "Button1" for a Button.
func isTypeWithDigits(name, typ string) bool {
	if typ == "" || !strings.EqualFold(name[:min(len(name), len(typ))], typ) {
		return false
	}
	rest := name[min(len(name), len(typ)):]
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// DuplicateSiblingLabel flags sibling controls that share the same
// accessible name, which makes them indistinguishable when listed by
// assistive technology.
type DuplicateSiblingLabel struct{}

func (r *DuplicateSiblingLabel) ID() string { return "duplicate-sibling-label" }
func (r *DuplicateSiblingLabel) Description() string {
	return "Sibling controls should not share an accessible name"
}
func (r *DuplicateSiblingLabel) Severity() findings.Severity { return findings.SeverityMedium }
func (r *DuplicateSiblingLabel) Surfaces() []apptree.Surface { return nil }

func (r *DuplicateSiblingLabel) Evaluate(node *apptree.Node, ctx *engine.Context) ([]findings.Finding, error) {
	name := strings.TrimSpace(node.Name)
	if name == "" || !isInteractive(node) {
		return nil, nil
	}
	for _, sib := range ctx.Siblings {
		if isInteractive(sib) && strings.EqualFold(strings.TrimSpace(sib.Name), name) {
			return []findings.Finding{newFinding(node, ctx,
				r.ID(), r.Severity(), findings.WCAGConsistentIdent,
				fmt.Sprintf("%s %q shares the accessible name %q with a sibling control", node.Type, node.ID, name),
				"Identically named controls in the same container cannot be told apart in a screen reader's element list.",
				"Give each control a name that states its distinct action.",
			)}, nil
		}
	}
	return nil, nil
}
