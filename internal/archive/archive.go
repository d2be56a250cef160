// Package archive opens exported solution packages and enumerates the
// nested app payloads. The outer package must be readable; individual
// entries that fail to read are recorded and skipped.
package archive

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/a11ylab/appscan/internal/names"
)

// ErrUnreadableArchive marks a fatal intake failure: the outer package
// could not be opened at all.
var ErrUnreadableArchive = errors.New("unreadable solution package")

// Entry is one nested app blob pulled out of the package.
type Entry struct {
	Path string
	Data []byte
}

// Skipped records a nested entry that could not be read.
type Skipped struct {
	Path    string
	Message string
}

// Package is the enumerated content of one solution archive.
type Package struct {
	SolutionName   string
	CanvasApps     []Entry
	Customizations []byte
	Skipped        []Skipped
}

// solutionManifest is the slice of solution.xml the intake consumes.
type solutionManifest struct {
	XMLName    xml.Name `xml:"ImportExportXml"`
	UniqueName string   `xml:"SolutionManifest>UniqueName"`
	Localized  []struct {
		Description string `xml:"description,attr"`
	} `xml:"SolutionManifest>LocalizedNames>LocalizedName"`
}

// Open reads a solution package from raw bytes. Entry streams have no
// inherent random access, so each nested blob is copied to memory before
// any inner archive is reopened.
func Open(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableArchive, err)
	}

	pkg := &Package{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		switch classifyEntry(f.Name) {
		case entrySolution:
			entryData, err := readEntry(f)
			if err != nil {
				pkg.skip(f.Name, err)
				continue
			}
			pkg.SolutionName = solutionDisplayName(entryData)
		case entryCustomizations:
			entryData, err := readEntry(f)
			if err != nil {
				pkg.skip(f.Name, err)
				continue
			}
			pkg.Customizations = entryData
		case entryCanvasApp:
			entryData, err := readEntry(f)
			if err != nil {
				pkg.skip(f.Name, err)
				continue
			}
			pkg.CanvasApps = append(pkg.CanvasApps, Entry{Path: f.Name, Data: entryData})
		}
	}
	return pkg, nil
}

type entryKind int

const (
	entryOther entryKind = iota
	entrySolution
	entryCustomizations
	entryCanvasApp
)

// classifyEntry identifies nested app blobs by the .msapp extension or by
// the CanvasApps folder convention, plus the two well-known descriptor
// documents. The folder convention only matches extensionless blobs; the
// exporter drops .json and .xml sidecars next to each app, and those must
// not be mistaken for app payloads.
func classifyEntry(path string) entryKind {
	lower := strings.ToLower(path)
	base := lower
	if i := strings.LastIndex(lower, "/"); i >= 0 {
		base = lower[i+1:]
	}
	switch {
	case base == "solution.xml":
		return entrySolution
	case base == "customizations.xml":
		return entryCustomizations
	case strings.HasSuffix(lower, ".msapp"):
		return entryCanvasApp
	case strings.HasPrefix(lower, "canvasapps/") && !strings.Contains(base, "."):
		return entryCanvasApp
	default:
		return entryOther
	}
}

func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry: %w", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	return data, nil
}

// solutionDisplayName prefers the localized display name, falling back to
// the formatted unique name. An unparsable descriptor yields "".
func solutionDisplayName(data []byte) string {
	var manifest solutionManifest
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return ""
	}
	for _, l := range manifest.Localized {
		if strings.TrimSpace(l.Description) != "" {
			return strings.TrimSpace(l.Description)
		}
	}
	return names.FormatDisplayName(manifest.UniqueName)
}

func (p *Package) skip(path string, err error) {
	p.Skipped = append(p.Skipped, Skipped{Path: path, Message: err.Error()})
}
