// Package modeldriven builds canonical trees from a solution's
// customizations document: one tree per (entity, form), with Tab ->
// Section -> Control nodes reconstructed from the form definitions.
package modeldriven

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/names"
)

const sourceDocName = "customizations.xml"

// Decoded shapes of the customizations document. Only the elements the
// builder consumes are mapped.

type customizations struct {
	XMLName    xml.Name    `xml:"ImportExportXml"`
	AppModules []appModule `xml:"AppModules>AppModule"`
	Entities   []entityDef `xml:"Entities>Entity"`
}

type appModule struct {
	UniqueName     string               `xml:"UniqueName"`
	LocalizedNames []localizedName      `xml:"LocalizedNames>LocalizedName"`
	Components     []appModuleComponent `xml:"AppModuleComponents>AppModuleComponent"`
}

type appModuleComponent struct {
	Type       string `xml:"type,attr"`
	SchemaName string `xml:"schemaName,attr"`
}

type localizedName struct {
	Description  string `xml:"description,attr"`
	LanguageCode string `xml:"languagecode,attr"`
}

type entityDef struct {
	Name     string    `xml:"Name"`
	FormSets []formSet `xml:"FormXml>forms"`
}

type formSet struct {
	Type  string       `xml:"type,attr"`
	Forms []systemForm `xml:"systemform"`
}

type systemForm struct {
	LocalizedNames []localizedName `xml:"LocalizedNames>LocalizedName"`
	Form           formDef         `xml:"form"`
}

type formDef struct {
	Tabs   []tabDef `xml:"tabs>tab"`
	Header *bandDef `xml:"header"`
	Footer *bandDef `xml:"footer"`
}

type tabDef struct {
	Name    string     `xml:"name,attr"`
	ID      string     `xml:"id,attr"`
	Labels  []labelDef `xml:"labels>label"`
	Columns []colDef   `xml:"columns>column"`
}

type colDef struct {
	Sections []sectionDef `xml:"sections>section"`
}

type sectionDef struct {
	Name   string     `xml:"name,attr"`
	ID     string     `xml:"id,attr"`
	Labels []labelDef `xml:"labels>label"`
	Rows   []rowDef   `xml:"rows>row"`
}

// bandDef is a form header or footer: rows of cells without a tab.
type bandDef struct {
	ID   string   `xml:"id,attr"`
	Rows []rowDef `xml:"rows>row"`
}

type rowDef struct {
	Cells []cellDef `xml:"cell"`
}

type cellDef struct {
	ID      string      `xml:"id,attr"`
	Control *controlDef `xml:"control"`
}

type controlDef struct {
	ID              string     `xml:"id,attr"`
	ClassID         string     `xml:"classid,attr"`
	DataFieldName   string     `xml:"datafieldname,attr"`
	UniqueID        string     `xml:"uniqueid,attr"`
	Disabled        string     `xml:"disabled,attr"`
	Visible         string     `xml:"visible,attr"`
	IsRequired      string     `xml:"isrequired,attr"`
	ReadOnly        string     `xml:"readonly,attr"`
	Autocomplete    string     `xml:"autocomplete,attr"`
	IsCustomControl string     `xml:"iscustomcontrol,attr"`
	Labels          []labelDef `xml:"labels>label"`
	Events          []eventDef `xml:"events>event"`
	CustomControl   *customCtl `xml:"customControl"`
	Parameters      *paramsDef `xml:"parameters"`
	VisibilityRule  string     `xml:"visibilityrule,attr"`
}

type paramsDef struct {
	Items []paramDef `xml:",any"`
}

type labelDef struct {
	Description  string `xml:"description,attr"`
	LanguageCode string `xml:"languagecode,attr"`
}

type eventDef struct {
	Name string `xml:"name,attr"`
}

type customCtl struct {
	Name string `xml:"name,attr"`
}

type paramDef struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// Parameter element names that mark a component-framework control host.
var customParameterMarkers = map[string]bool{
	"customcontrolid":      true,
	"controldescriptionid": true,
}

// Build parses one customizations document into one tree per (entity,
// form). Forms that yield zero nodes are omitted.
func Build(data []byte, log *slog.Logger) ([]*apptree.Tree, error) {
	if log == nil {
		log = slog.Default()
	}
	var doc customizations
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse customizations: %w", err)
	}

	index := buildAppIndex(doc)
	var trees []*apptree.Tree

	for _, entity := range doc.Entities {
		entityDisplay := names.FormatDisplayName(entity.Name)
		owner := index.ownerOf(entity.Name)

		for _, set := range entity.FormSets {
			for _, sf := range set.Forms {
				formName := formDisplayName(sf, set.Type)
				roots := buildForm(sf.Form, entityDisplay, formName)
				if len(roots) == 0 {
					log.Debug("empty form omitted", "entity", entity.Name, "form", formName)
					continue
				}
				trees = append(trees, &apptree.Tree{
					Surface:  apptree.SurfaceModelDrivenApp,
					AppName:  entityDisplay,
					OwnerApp: owner,
					Roots:    roots,
				})
			}
		}
	}
	return trees, nil
}

// appIndex resolves entity schema names to owning app display names.
type appIndex struct {
	entityOwner map[string]string
	firstApp    string
}

// buildAppIndex collects app-module display names and their entity
// component links. An entity without an explicit link falls back to the
// first known app — a heuristic that can misattribute entities in
// multi-app solutions, kept for parity with the export format's own
// grouping behavior.
func buildAppIndex(doc customizations) appIndex {
	index := appIndex{entityOwner: make(map[string]string)}
	for _, mod := range doc.AppModules {
		display := localizedOrFormatted(mod.LocalizedNames, mod.UniqueName)
		if index.firstApp == "" {
			index.firstApp = display
		}
		for _, comp := range mod.Components {
			if !strings.EqualFold(comp.Type, "entity") || comp.SchemaName == "" {
				continue
			}
			key := strings.ToLower(comp.SchemaName)
			if _, taken := index.entityOwner[key]; !taken {
				index.entityOwner[key] = display
			}
		}
	}
	return index
}

func (i appIndex) ownerOf(entityName string) string {
	if owner, ok := i.entityOwner[strings.ToLower(entityName)]; ok {
		return owner
	}
	return i.firstApp
}

func localizedOrFormatted(locs []localizedName, uniqueName string) string {
	for _, l := range locs {
		if strings.TrimSpace(l.Description) != "" {
			return strings.TrimSpace(l.Description)
		}
	}
	return names.FormatDisplayName(uniqueName)
}

func formDisplayName(sf systemForm, setType string) string {
	for _, l := range sf.LocalizedNames {
		if strings.TrimSpace(l.Description) != "" {
			return strings.TrimSpace(l.Description)
		}
	}
	if setType == "" {
		return "Form"
	}
	return strings.ToUpper(setType[:1]) + setType[1:] + " Form"
}

// buildForm reconstructs the node roots for one form: Tab nodes with their
// Section and Control descendants, plus optional header/footer sections.
func buildForm(form formDef, entityDisplay, formName string) []*apptree.Node {
	meta := apptree.Metadata{
		Surface:    apptree.SurfaceModelDrivenApp,
		Entity:     entityDisplay,
		Form:       formName,
		SourcePath: sourceDocName,
	}

	var roots []*apptree.Node
	for _, tab := range form.Tabs {
		if node := buildTab(tab, meta); node != nil {
			roots = append(roots, node)
		}
	}
	if form.Header != nil {
		if node := buildBand("Header", form.Header, meta); node != nil {
			roots = append(roots, node)
		}
	}
	if form.Footer != nil {
		if node := buildBand("Footer", form.Footer, meta); node != nil {
			roots = append(roots, node)
		}
	}
	return roots
}

func buildTab(tab tabDef, meta apptree.Metadata) *apptree.Node {
	id := firstNonEmpty(tab.Name, tab.ID)
	if id == "" {
		return nil
	}
	meta.Tab = id
	node := &apptree.Node{
		ID:   id,
		Type: "Tab",
		Name: labelText(tab.Labels),
		Meta: meta,
	}
	// Rows and cells are layout only; sections are the structural children.
	for _, col := range tab.Columns {
		for _, section := range col.Sections {
			if child := buildSection(section, meta); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
	if len(node.Children) == 0 {
		return nil
	}
	return node
}

func buildSection(section sectionDef, meta apptree.Metadata) *apptree.Node {
	id := firstNonEmpty(section.Name, section.ID)
	if id == "" {
		return nil
	}
	meta.Section = id
	node := &apptree.Node{
		ID:   id,
		Type: "Section",
		Name: labelText(section.Labels),
		Meta: meta,
	}
	for _, row := range section.Rows {
		for _, cell := range row.Cells {
			// The cell is a grid position, not a control; only its
			// contained control becomes a node.
			if cell.Control == nil {
				continue
			}
			if child := buildControl(*cell.Control, meta); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
	if len(node.Children) == 0 {
		return nil
	}
	return node
}

// buildBand turns a form header or footer into a synthetic section node.
func buildBand(kind string, band *bandDef, meta apptree.Metadata) *apptree.Node {
	meta.Section = kind
	node := &apptree.Node{
		ID:   firstNonEmpty(band.ID, kind),
		Type: "Section",
		Name: kind,
		Meta: meta,
	}
	for _, row := range band.Rows {
		for _, cell := range row.Cells {
			if cell.Control == nil {
				continue
			}
			if child := buildControl(*cell.Control, meta); child != nil {
				node.Children = append(node.Children, child)
			}
		}
	}
	if len(node.Children) == 0 {
		return nil
	}
	return node
}

func buildControl(ctl controlDef, meta apptree.Metadata) *apptree.Node {
	id := firstNonEmpty(ctl.ID, ctl.DataFieldName, ctl.UniqueID)
	if id == "" {
		return nil
	}

	typ := friendlyType(ctl.ClassID)
	manifest := ""
	if isCustomControl(ctl) {
		typ = "Custom Control"
		if ctl.CustomControl != nil {
			manifest = ctl.CustomControl.Name
		}
	}

	props := make(map[string]apptree.Value)
	setBoolProp(props, "Required", ctl.IsRequired, false)
	setBoolProp(props, "Visible", ctl.Visible, true)
	setBoolProp(props, "Disabled", ctl.Disabled, false)
	setBoolProp(props, "ReadOnly", ctl.ReadOnly, false)
	if ctl.DataFieldName != "" {
		props["DataField"] = apptree.String(ctl.DataFieldName)
	}
	if ctl.ClassID != "" {
		props["ClassId"] = apptree.String(normalizeClassID(ctl.ClassID))
	}
	if ctl.Autocomplete != "" {
		props["Autocomplete"] = apptree.String(ctl.Autocomplete)
	}
	if ctl.VisibilityRule != "" {
		props["ConditionalVisibility"] = apptree.String(ctl.VisibilityRule)
	}
	if manifest != "" {
		props["Manifest"] = apptree.String(manifest)
	}
	if len(ctl.Events) > 0 {
		handlers := make([]string, 0, len(ctl.Events))
		for _, e := range ctl.Events {
			if e.Name != "" {
				handlers = append(handlers, e.Name)
			}
		}
		if len(handlers) > 0 {
			props["EventHandlers"] = apptree.StringList(handlers)
		}
	}

	return &apptree.Node{
		ID:         id,
		Type:       typ,
		Name:       labelText(ctl.Labels),
		Properties: props,
		Meta:       meta,
	}
}

// isCustomControl detects component-framework (PCF) hosts: by class id, an
// explicit marker attribute, a customControl child element, or recognized
// custom-parameter markers.
func isCustomControl(ctl controlDef) bool {
	if normalizeClassID(ctl.ClassID) == pcfClassID {
		return true
	}
	if strings.EqualFold(ctl.IsCustomControl, "true") {
		return true
	}
	if ctl.CustomControl != nil {
		return true
	}
	if ctl.Parameters != nil {
		for _, p := range ctl.Parameters.Items {
			if customParameterMarkers[strings.ToLower(p.XMLName.Local)] {
				return true
			}
		}
	}
	return false
}

func setBoolProp(props map[string]apptree.Value, key, raw string, def bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true":
		props[key] = apptree.Bool(true)
	case "false":
		props[key] = apptree.Bool(false)
	case "":
		props[key] = apptree.Bool(def)
	}
}

func labelText(labels []labelDef) string {
	for _, l := range labels {
		if strings.TrimSpace(l.Description) != "" {
			return strings.TrimSpace(l.Description)
		}
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
