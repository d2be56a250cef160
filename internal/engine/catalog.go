package engine

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

// Catalog configuration: a YAML document that disables rules or overrides
// their severities. Rules not mentioned keep their declared behavior.
//
//	rules:
//	  - id: missing-accessible-label
//	    severity: Critical
//	  - id: explicit-tab-order
//	    enabled: false
type catalogFile struct {
	Rules []catalogRule `yaml:"rules"`
}

type catalogRule struct {
	ID       string `yaml:"id"`
	Enabled  *bool  `yaml:"enabled"`
	Severity string `yaml:"severity"`
}

// ApplyCatalog filters and adjusts the available rules according to a YAML
// catalog document. Registration order of the surviving rules is preserved.
func ApplyCatalog(r io.Reader, available []Rule) ([]Rule, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	byID := make(map[string]catalogRule, len(file.Rules))
	for _, cr := range file.Rules {
		if cr.ID == "" {
			return nil, fmt.Errorf("catalog entry without id")
		}
		byID[cr.ID] = cr
	}

	known := make(map[string]bool, len(available))
	out := make([]Rule, 0, len(available))
	for _, rule := range available {
		known[rule.ID()] = true
		cr, configured := byID[rule.ID()]
		if !configured {
			out = append(out, rule)
			continue
		}
		if cr.Enabled != nil && !*cr.Enabled {
			continue
		}
		if cr.Severity != "" {
			sev := findings.Severity(cr.Severity)
			if !sev.IsValid() {
				return nil, fmt.Errorf("rule %s: invalid severity %q", cr.ID, cr.Severity)
			}
			rule = &severityOverride{Rule: rule, severity: sev}
		}
		out = append(out, rule)
	}

	for id := range byID {
		if !known[id] {
			return nil, fmt.Errorf("catalog references unknown rule %q", id)
		}
	}
	return out, nil
}

// severityOverride rewraps a rule with a configured severity. Findings the
// wrapped rule emits are restamped before the engine sees them.
type severityOverride struct {
	Rule
	severity findings.Severity
}

func (o *severityOverride) Severity() findings.Severity {
	return o.severity
}

func (o *severityOverride) Surfaces() []apptree.Surface {
	return o.Rule.Surfaces()
}

func (o *severityOverride) Evaluate(node *apptree.Node, ctx *Context) ([]findings.Finding, error) {
	fs, err := o.Rule.Evaluate(node, ctx)
	for i := range fs {
		fs[i].Severity = o.severity
	}
	return fs, err
}
