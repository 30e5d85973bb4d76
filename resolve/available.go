package resolve

import "github.com/harborpm/spm/reference"

// scope is the resolver's available-set: a mapping from name to the
// currently-chosen reference for that name, threaded down through
// resolution to prune already-satisfied subtrees.
//
// A naive deep-copy-per-descent would be quadratic in graph depth, so
// scope is a persistent linked list keyed by name instead: with returns
// a new head node pointing at the parent scope, so a child branch's
// "copy" is a single allocation, and a name lookup walks toward the
// root shadowing as it goes — the most recently added (i.e. most deeply
// nested) entry for a name wins, so child scopes override parent
// scopes.
type scope struct {
	parent *scope
	name   string
	ref    reference.Reference
}

// emptyScope is the root call's starting available-set: nothing is
// satisfied yet.
var emptyScope *scope

// get looks up name, walking from the most deeply nested entry toward
// the root.
func (s *scope) get(name string) (reference.Reference, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.name == name {
			return cur.ref, true
		}
	}
	return reference.Reference{}, false
}

// with returns a child scope extending s with one more (name, ref)
// binding, shadowing any existing entry for that name without mutating s
// — concurrent siblings descending from the same scope each get their
// own chain and never observe each other's pins.
func (s *scope) with(name string, ref reference.Reference) *scope {
	return &scope{parent: s, name: name, ref: ref}
}
