package enrich

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

const remediationPrompt = `You are an accessibility remediation assistant for low-code applications. For each finding below, write a concrete fix the app maker can apply in the designer, referencing the actual control and property names from the finding.

Return a JSON array with one object per finding:

- "id": the finding id, copied exactly
- "suggested_fix": one or two sentences of actionable remediation (string, max 300 chars)

Rules:
- Keep every id exactly as given; do not add, drop, or merge findings
- Be specific to the control named in the finding, not generic WCAG advice
- Respond with ONLY the JSON array, no other text.`

// buildPrompt serializes one batch of findings with app context.
func buildPrompt(tree *apptree.Tree, batch []findings.Finding) (string, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("marshal findings: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(remediationPrompt)
	sb.WriteString("\n\n---\n")
	sb.WriteString(fmt.Sprintf("App: %q (surface: %s)\n", tree.AppName, tree.Surface))
	sb.WriteString("---\n")
	sb.Write(payload)
	return sb.String(), nil
}
