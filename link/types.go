// Package link extracts each resolved node into its isolated directory,
// wires up executable shims for every dependency's declared bin
// entries, and runs lifecycle scripts — concurrently across siblings,
// sequentially within one dependency's three script phases.
package link

import (
	"github.com/harborpm/spm/reference"
)

// Fetcher is the subset of registry.Client the linker needs.
type Fetcher interface {
	FetchTarball(name string, ref reference.Reference) ([]byte, error)
}

// Tracker is the subset of the ProgressTracker the linker drives: one
// unit of work per node it extracts.
type Tracker interface {
	Add(n int)
	Tick()
}

type noopTracker struct{}

func (noopTracker) Add(int) {}
func (noopTracker) Tick()   {}

func stripNFor(ref reference.Reference) int {
	if ref.Kind == reference.KindPath {
		return 0
	}
	return 1
}
