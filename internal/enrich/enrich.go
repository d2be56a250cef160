// Package enrich adds remediation guidance to findings after the rule
// engine runs. Enrichment never changes what was found: the output carries
// the same findings, in the same order, with the same ids, and only the
// suggested-fix text may differ.
package enrich

import (
	"context"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

// Enricher rewrites suggested fixes for a tree's findings.
type Enricher interface {
	Enrich(ctx context.Context, tree *apptree.Tree, fs []findings.Finding) ([]findings.Finding, error)
}

// Identity performs no enrichment. It is the default when no API key is
// configured.
type Identity struct{}

func (Identity) Enrich(_ context.Context, _ *apptree.Tree, fs []findings.Finding) ([]findings.Finding, error) {
	return fs, nil
}
