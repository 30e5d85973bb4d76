// Package optimize implements a bottom-up pass that hoists duplicate
// subtree entries as high as they can go without creating a name
// collision, shrinking the tree the linker has to walk.
//
// No library in the example pool models an ordered, mutable child-list
// tree well enough to build this on — the graph library one of the
// sibling example repos uses (dominikbraun/graph, in
// LegacyCodeHQ-sanity's resolver.go) is an edge-set graph meant for
// traversal and cycle detection, not an ordered-children structural copy
// with insertion-order-preserving hoist semantics. This stays on the
// standard library by necessity, not by default — see DESIGN.md.
package optimize

import "github.com/harborpm/spm/resolve"

// Optimize mutates root in place, hoisting grandchildren up one level at
// a time wherever doing so doesn't collide with an existing same-named,
// differently-versioned sibling. Children are optimized before the
// current node attempts to hoist its grandchildren, so a grandchild
// hoisted into this node's children list is itself eligible for
// hoisting when this node's parent is processed next.
func Optimize(root *resolve.Node) {
	optimizeNode(root)
}

func optimizeNode(n *resolve.Node) {
	for _, c := range n.Children {
		optimizeNode(c)
	}

	// Snapshot the child list before mutating it: newly hoisted
	// grandchildren get appended to n.Children during this loop, but
	// they must not be revisited as if they were n's own grandchildren
	// in this same pass — they get their turn when n's parent runs.
	originalChildren := append([]*resolve.Node(nil), n.Children...)

	for _, c := range originalChildren {
		grandchildren := append([]*resolve.Node(nil), c.Children...)
		for _, g := range grandchildren {
			sibling := findByName(n.Children, g.Name)
			switch {
			case sibling == nil:
				n.Children = append(n.Children, g)
				removeByName(&c.Children, g.Name)
			case sibling.Reference == g.Reference:
				removeByName(&c.Children, g.Name)
			default:
				// Version conflict: leave g nested under c.
			}
		}
	}
}

func findByName(children []*resolve.Node, name string) *resolve.Node {
	for _, c := range children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// removeByName deletes exactly the first entry named name from
// *children, using a name-based lookup to locate and delete exactly
// the matching entry.
func removeByName(children *[]*resolve.Node, name string) {
	for i, c := range *children {
		if c.Name == name {
			*children = append((*children)[:i], (*children)[i+1:]...)
			return
		}
	}
}
