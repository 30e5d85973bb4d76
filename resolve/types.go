// Package resolve pins version ranges, recursively discovers a
// package's transitive dependencies, and produces the
// deduplicated-by-availability tree the optimizer and linker consume
// next.
package resolve

import "github.com/harborpm/spm/reference"

// Descriptor is a dependency descriptor: a name plus a reference.
type Descriptor struct {
	Name      string
	Reference reference.Reference
}

// Node is a resolved node: a descriptor plus its resolved children.
// The root node (built by Resolve) carries reference.Root as its
// Reference.
type Node struct {
	Name      string
	Reference reference.Reference
	Children  []*Node
}

// Fetcher is the subset of registry.Client the resolver needs: fetching
// a tarball to read its manifest, and listing published versions to pin
// a range against.
type Fetcher interface {
	FetchTarball(name string, ref reference.Reference) ([]byte, error)
	FetchVersions(name string) ([]string, error)
}

// Tracker is the subset of progress.Tracker the resolver drives: one
// unit of work per descriptor it decides to resolve.
type Tracker interface {
	Add(n int)
	Tick()
}

type noopTracker struct{}

func (noopTracker) Add(int) {}
func (noopTracker) Tick()   {}
