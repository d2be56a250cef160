package modeldriven

import (
	"encoding/xml"
	"testing"

	"github.com/a11ylab/appscan/internal/apptree"
)

func xmlName(local string) xml.Name {
	return xml.Name{Local: local}
}

const widgetCustomizations = `<?xml version="1.0" encoding="utf-8"?>
<ImportExportXml>
  <Entities>
    <Entity>
      <Name>new_widget</Name>
      <FormXml>
        <forms type="main">
          <systemform>
            <form>
              <tabs>
                <tab name="general">
                  <labels><label description="General" languagecode="1033" /></labels>
                  <columns>
                    <column>
                      <sections>
                        <section name="widget_details">
                          <labels><label description="Details" languagecode="1033" /></labels>
                          <rows>
                            <row>
                              <cell id="{c1}">
                                <control id="new_name" classid="{00000000-0000-0000-0000-000000000001}" datafieldname="new_name" isrequired="true">
                                  <labels><label description="Name" languagecode="1033" /></labels>
                                </control>
                              </cell>
                            </row>
                          </rows>
                        </section>
                      </sections>
                    </column>
                  </columns>
                </tab>
              </tabs>
            </form>
          </systemform>
        </forms>
      </FormXml>
    </Entity>
  </Entities>
</ImportExportXml>`

// Scenario: entity "new_widget", one main form, one tab -> section ->
// control, grouped under "Widget" with a Field-typed control.
func TestBuild_TabSectionControl(t *testing.T) {
	trees, err := Build([]byte(widgetCustomizations), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(trees))
	}
	tree := trees[0]
	if tree.Surface != apptree.SurfaceModelDrivenApp {
		t.Errorf("surface = %s", tree.Surface)
	}
	if tree.AppName != "Widget" {
		t.Errorf("app name = %q, want Widget", tree.AppName)
	}

	if len(tree.Roots) != 1 {
		t.Fatalf("expected 1 tab root, got %d", len(tree.Roots))
	}
	tab := tree.Roots[0]
	if tab.Type != "Tab" || tab.ID != "general" || tab.Name != "General" {
		t.Errorf("tab = %s/%s name %q", tab.ID, tab.Type, tab.Name)
	}
	if len(tab.Children) != 1 {
		t.Fatalf("expected 1 section, got %d", len(tab.Children))
	}
	section := tab.Children[0]
	if section.Type != "Section" || section.Name != "Details" {
		t.Errorf("section = %s name %q", section.Type, section.Name)
	}
	if len(section.Children) != 1 {
		t.Fatalf("expected 1 control, got %d", len(section.Children))
	}
	control := section.Children[0]
	if control.Type != "Field" {
		t.Errorf("unknown class id should map to Field, got %q", control.Type)
	}
	if control.ID != "new_name" || control.Name != "Name" {
		t.Errorf("control = %s name %q", control.ID, control.Name)
	}
	if v, ok := control.Property("Required"); !ok {
		t.Error("Required property missing")
	} else if b, _ := v.AsBool(); !b {
		t.Error("Required should be true")
	}
	if control.Meta.Entity != "Widget" || control.Meta.Tab != "general" || control.Meta.Section != "widget_details" {
		t.Errorf("control metadata = %+v", control.Meta)
	}
}

const multiAppCustomizations = `<?xml version="1.0" encoding="utf-8"?>
<ImportExportXml>
  <AppModules>
    <AppModule>
      <UniqueName>new_salesapp</UniqueName>
      <LocalizedNames><LocalizedName description="Sales Hub" languagecode="1033" /></LocalizedNames>
      <AppModuleComponents>
        <AppModuleComponent type="entity" schemaName="new_order" />
      </AppModuleComponents>
    </AppModule>
    <AppModule>
      <UniqueName>new_serviceapp</UniqueName>
      <AppModuleComponents />
    </AppModule>
  </AppModules>
  <Entities>
    <Entity>
      <Name>new_order</Name>
      <FormXml>
        <forms type="main">
          <systemform>
            <form>
              <tabs>
                <tab name="t1">
                  <columns><column><sections><section name="s1">
                    <rows><row><cell><control id="c1" /></cell></row></rows>
                  </section></sections></column></columns>
                </tab>
              </tabs>
            </form>
          </systemform>
        </forms>
      </FormXml>
    </Entity>
    <Entity>
      <Name>new_unmapped</Name>
      <FormXml>
        <forms type="main">
          <systemform>
            <form>
              <tabs>
                <tab name="t1">
                  <columns><column><sections><section name="s1">
                    <rows><row><cell><control id="c2" /></cell></row></rows>
                  </section></sections></column></columns>
                </tab>
              </tabs>
            </form>
          </systemform>
        </forms>
      </FormXml>
    </Entity>
  </Entities>
</ImportExportXml>`

func TestBuild_AppAttribution(t *testing.T) {
	trees, err := Build([]byte(multiAppCustomizations), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(trees) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(trees))
	}
	if trees[0].OwnerApp != "Sales Hub" {
		t.Errorf("mapped entity owner = %q, want Sales Hub", trees[0].OwnerApp)
	}
	// No component link: falls back to the first known app.
	if trees[1].OwnerApp != "Sales Hub" {
		t.Errorf("unmapped entity owner = %q, want first app fallback", trees[1].OwnerApp)
	}
	// The second app module's display name comes from the formatting rule.
	// (It owns nothing here, but the localized-name preference is covered
	// by the first module.)
}

func TestBuild_EmptyFormOmitted(t *testing.T) {
	doc := `<ImportExportXml>
  <Entities>
    <Entity>
      <Name>new_thing</Name>
      <FormXml>
        <forms type="main">
          <systemform><form><tabs><tab name="empty"><columns><column><sections>
            <section name="bare"><rows><row><cell id="x" /></row></rows></section>
          </sections></column></columns></tab></tabs></form></systemform>
        </forms>
      </FormXml>
    </Entity>
  </Entities>
</ImportExportXml>`
	trees, err := Build([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(trees) != 0 {
		t.Errorf("form with no controls should be omitted, got %d trees", len(trees))
	}
}

func TestBuild_HeaderFooterSections(t *testing.T) {
	doc := `<ImportExportXml>
  <Entities>
    <Entity>
      <Name>new_case</Name>
      <FormXml>
        <forms type="main">
          <systemform>
            <form>
              <tabs>
                <tab name="t1"><columns><column><sections><section name="s1">
                  <rows><row><cell><control id="main1" /></cell></row></rows>
                </section></sections></column></columns></tab>
              </tabs>
              <header id="{h}">
                <rows><row><cell><control id="hdr1" /></cell></row></rows>
              </header>
              <footer id="{f}">
                <rows><row><cell><control id="ftr1" /></cell></row></rows>
              </footer>
            </form>
          </systemform>
        </forms>
      </FormXml>
    </Entity>
  </Entities>
</ImportExportXml>`
	trees, err := Build([]byte(doc), nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(trees))
	}
	roots := trees[0].Roots
	if len(roots) != 3 {
		t.Fatalf("expected tab + header + footer, got %d roots", len(roots))
	}
	if roots[1].Name != "Header" || roots[2].Name != "Footer" {
		t.Errorf("bands = %q, %q", roots[1].Name, roots[2].Name)
	}
	if roots[1].Children[0].Meta.Section != "Header" {
		t.Errorf("header control section = %q", roots[1].Children[0].Meta.Section)
	}
}

func TestIsCustomControl(t *testing.T) {
	tests := []struct {
		name string
		ctl  controlDef
		want bool
	}{
		{"by class id", controlDef{ClassID: pcfClassID}, true},
		{"by marker attribute", controlDef{IsCustomControl: "true"}, true},
		{"by child element", controlDef{CustomControl: &customCtl{Name: "pub.Slider"}}, true},
		{
			"by parameter marker",
			controlDef{Parameters: &paramsDef{Items: []paramDef{{XMLName: xmlName("CustomControlId")}}}},
			true,
		},
		{"plain field", controlDef{ClassID: "{4273EDBD-2EF1-4278-BB2D-FE8E0E4BC4D6}"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCustomControl(tt.ctl); got != tt.want {
				t.Errorf("isCustomControl = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBuildControl_CustomControlManifest(t *testing.T) {
	ctl := controlDef{
		ID:            "pcf1",
		ClassID:       pcfClassID,
		CustomControl: &customCtl{Name: "contoso.RatingControl"},
	}
	node := buildControl(ctl, apptree.Metadata{Surface: apptree.SurfaceModelDrivenApp})
	if node.Type != "Custom Control" {
		t.Errorf("type = %q", node.Type)
	}
	if got := node.PropertyText("Manifest"); got != "contoso.RatingControl" {
		t.Errorf("manifest = %q", got)
	}
}

func TestFriendlyType(t *testing.T) {
	if got := friendlyType("{270BD3DB-D9AF-4782-9025-509E298DEC0A}"); got != "Lookup" {
		t.Errorf("lookup class = %q", got)
	}
	if got := friendlyType("270bd3db-d9af-4782-9025-509e298dec0a"); got != "Lookup" {
		t.Errorf("unbraced lowercase class = %q", got)
	}
	if got := friendlyType("{DEADBEEF-0000-0000-0000-000000000000}"); got != "Field" {
		t.Errorf("unknown class = %q, want Field", got)
	}
}
