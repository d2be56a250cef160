package engine

import (
	"github.com/a11ylab/appscan/internal/apptree"
	"github.com/a11ylab/appscan/internal/findings"
)

// Rule is one pluggable accessibility check. Implementations must be
// stateless: Evaluate reads the node and context and returns zero or more
// findings without touching shared mutable state, so independent subtrees
// could be evaluated concurrently.
type Rule interface {
	// ID is the stable rule identifier, also used as the finding issue type.
	ID() string
	// Description is a human-readable summary of what the rule checks.
	Description() string
	// Severity is the rule's declared severity.
	Severity() findings.Severity
	// Surfaces returns the surface-applicability filter; nil or empty
	// means the rule applies to every surface.
	Surfaces() []apptree.Surface
	// Evaluate runs the rule against one node.
	Evaluate(node *apptree.Node, ctx *Context) ([]findings.Finding, error)
}

// Context exposes a node's structural relationships during traversal. All
// fields are read-only views owned by the engine.
type Context struct {
	// Tree is the surface being analyzed.
	Tree *apptree.Tree
	// Parent is the owning node, nil at a root.
	Parent *apptree.Node
	// Siblings are the parent's other children in order, excluding self.
	Siblings []*apptree.Node
	// Ancestors is the chain from root down to the parent.
	Ancestors []*apptree.Node
	// Screen is the nearest ancestor (or self) whose type denotes a
	// screen; inherited when no screen enclosure exists.
	Screen *apptree.Node
	// Depth is the node's distance from its root.
	Depth int
}

func appliesTo(rule Rule, surface apptree.Surface) bool {
	surfaces := rule.Surfaces()
	if len(surfaces) == 0 {
		return true
	}
	for _, s := range surfaces {
		if s == surface {
			return true
		}
	}
	return false
}
