package resolve

import (
	"context"
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"
	"golang.org/x/sync/errgroup"

	"github.com/harborpm/spm/archive"
	"github.com/harborpm/spm/pkgmeta"
	"github.com/harborpm/spm/reference"
)

// PinReference resolves a range to the highest published version that
// satisfies it, under standard semver precedence. Exact versions, URLs,
// and paths pass through untouched, and an exact version never triggers
// a network call.
func PinReference(f Fetcher, name string, ref reference.Reference) (reference.Reference, error) {
	if ref.Kind != reference.KindRange {
		return ref, nil
	}

	constraint, err := semver.NewConstraint(ref.Raw)
	if err != nil {
		return reference.Reference{}, fmt.Errorf("resolve: invalid range %q for %s: %w", ref.Raw, name, err)
	}

	versions, err := f.FetchVersions(name)
	if err != nil {
		return reference.Reference{}, err
	}

	best := highestSatisfying(versions, constraint)
	if best == nil {
		return reference.Reference{}, fmt.Errorf("%w: %s@%s", ErrUnsatisfiedRange, name, ref.Raw)
	}
	return reference.Reference{Kind: reference.KindExact, Raw: best.Original()}, nil
}

// highestSatisfying returns the highest semver.Version among raw that
// satisfies constraint, or nil if none do.
func highestSatisfying(raw []string, constraint *semver.Constraints) *semver.Version {
	var candidates []*semver.Version
	for _, v := range raw {
		parsed, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if constraint.Check(parsed) {
			candidates = append(candidates, parsed)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	sort.Sort(semver.Collection(candidates))
	return candidates[len(candidates)-1]
}

// ReadDependencies fetches the tarball, pulls package.json out of it
// (stripN=1 for the registry wrapper layout, stripN=0 for a path
// reference), and flattens its
// "dependencies" map into descriptors. A missing dependencies key
// yields the empty list.
func ReadDependencies(f Fetcher, name string, ref reference.Reference) ([]Descriptor, error) {
	meta, err := readMetadata(f, name, ref)
	if err != nil {
		return nil, err
	}
	descriptors := make([]Descriptor, 0, len(meta.Dependencies))
	for depName, depRef := range meta.Dependencies {
		descriptors = append(descriptors, Descriptor{Name: depName, Reference: reference.Parse(depRef)})
	}
	return descriptors, nil
}

func readMetadata(f Fetcher, name string, ref reference.Reference) (pkgmeta.Metadata, error) {
	tarball, err := f.FetchTarball(name, ref)
	if err != nil {
		return pkgmeta.Metadata{}, err
	}
	stripN := stripNFor(ref)
	raw, err := archive.ReadOneFile(tarball, "package.json", stripN)
	if err != nil {
		return pkgmeta.Metadata{}, fmt.Errorf("resolve: %s@%s: %w", name, ref, err)
	}
	return pkgmeta.Parse(raw)
}

// satisfied reports whether d is already covered by a pin in scope s,
// either exactly or because s's pinned exact version falls within d's
// range.
func satisfied(d Descriptor, s *scope) bool {
	chosen, ok := s.get(d.Name)
	if !ok {
		return false
	}
	if chosen == d.Reference {
		return true
	}
	if d.Reference.Kind != reference.KindRange {
		return false
	}
	constraint, err := semver.NewConstraint(d.Reference.Raw)
	if err != nil {
		return false
	}
	if chosen.Kind != reference.KindExact {
		return false
	}
	version, err := semver.NewVersion(chosen.Raw)
	if err != nil {
		return false
	}
	return constraint.Check(version)
}

// Resolve walks manifestDeps, pinning and recursively discovering
// transitive dependencies, and returns the root of the raw (not yet
// hoisted) resolved tree, rooted at the sentinel reference.Root node.
func Resolve(ctx context.Context, f Fetcher, manifestDeps []Descriptor, tracker Tracker) (*Node, error) {
	if tracker == nil {
		tracker = noopTracker{}
	}
	root := &Node{Reference: reference.Root}
	children, err := buildChildren(ctx, f, manifestDeps, emptyScope, tracker)
	if err != nil {
		return nil, err
	}
	root.Children = children
	return root, nil
}

// buildChildren resolves one node's direct dependencies, fanning out
// concurrently, with each branch carrying its own scope so concurrent
// siblings never observe each other's pins.
func buildChildren(ctx context.Context, f Fetcher, deps []Descriptor, s *scope, tracker Tracker) ([]*Node, error) {
	results := make([]*Node, len(deps))
	g, gctx := errgroup.WithContext(ctx)

	for i, d := range deps {
		i, d := i, d
		if satisfied(d, s) {
			continue
		}
		g.Go(func() error {
			node, err := resolveOne(gctx, f, d, s, tracker)
			if err != nil {
				return fmt.Errorf("%s@%s: %w", d.Name, d.Reference, err)
			}
			results[i] = node
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]*Node, 0, len(results))
	for _, n := range results {
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// resolveOne pins one descriptor, reads its transitive dependencies,
// extends the scope, and recurses.
func resolveOne(ctx context.Context, f Fetcher, d Descriptor, s *scope, tracker Tracker) (*Node, error) {
	tracker.Add(1)
	defer tracker.Tick()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pinned, err := PinReference(f, d.Name, d.Reference)
	if err != nil {
		return nil, err
	}

	childDeps, err := ReadDependencies(f, d.Name, pinned)
	if err != nil {
		return nil, err
	}

	childScope := s.with(d.Name, pinned)
	children, err := buildChildren(ctx, f, childDeps, childScope, tracker)
	if err != nil {
		return nil, err
	}

	return &Node{Name: d.Name, Reference: pinned, Children: children}, nil
}

func stripNFor(ref reference.Reference) int {
	if ref.Kind == reference.KindPath {
		return 0
	}
	return 1
}
