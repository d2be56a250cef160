// Package engine runs rule sets over canonical trees. The traversal is a
// single synchronous pre-order depth-first walk; identical (tree, rule set)
// inputs always produce an identical, identically-ordered finding list.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

// Analyze evaluates every applicable rule against every node of the tree
// and returns the ordered findings plus their severity histogram. A rule
// failure is logged and skipped for that (node, rule) pair only.
func Analyze(tree *apptree.Tree, rules []Rule, log *slog.Logger) findings.ScanResult {
	if log == nil {
		log = slog.Default()
	}

	applicable := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if appliesTo(r, tree.Surface) {
			applicable = append(applicable, r)
		}
	}

	var all []findings.Finding
	var visit func(node *apptree.Node, ctx *Context)
	visit = func(node *apptree.Node, ctx *Context) {
		if node.IsScreen() {
			ctx.Screen = node
		}
		for _, rule := range applicable {
			fs, err := evaluate(rule, node, ctx)
			if err != nil {
				log.Warn("rule failed, skipping node",
					"rule", rule.ID(), "node", node.ID, "error", err)
				continue
			}
			all = append(all, fs...)
		}

		ancestors := append(ctx.Ancestors[:len(ctx.Ancestors):len(ctx.Ancestors)], node)
		for i, child := range node.Children {
			visit(child, &Context{
				Tree:      tree,
				Parent:    node,
				Siblings:  excluding(node.Children, i),
				Ancestors: ancestors,
				Screen:    ctx.Screen,
				Depth:     ctx.Depth + 1,
			})
		}
	}

	for i, root := range tree.Roots {
		visit(root, &Context{
			Tree:     tree,
			Siblings: excluding(tree.Roots, i),
		})
	}

	return findings.NewScanResult(all)
}

// evaluate isolates one (node, rule) pair: an error return or a panic in
// the rule body must not stop the traversal.
func evaluate(rule Rule, node *apptree.Node, ctx *Context) (fs []findings.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs = nil
			err = fmt.Errorf("rule panic: %v", r)
		}
	}()
	return rule.Evaluate(node, ctx)
}

// excluding returns nodes without the element at index i.
func excluding(nodes []*apptree.Node, i int) []*apptree.Node {
	if len(nodes) <= 1 {
		return nil
	}
	out := make([]*apptree.Node, 0, len(nodes)-1)
	out = append(out, nodes[:i]...)
	out = append(out, nodes[i+1:]...)
	return out
}
