package resolve

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/harborpm/spm/reference"
)

// fakePackage describes one version of one package in the fake registry.
type fakePackage struct {
	deps map[string]string
}

// fakeFetcher is an in-memory Fetcher backing the resolver tests: no
// network, no disk, just a map of name@version -> fake package data.
type fakeFetcher struct {
	versions map[string][]string
	packages map[string]fakePackage // "name@version"
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		versions: map[string][]string{},
		packages: map[string]fakePackage{},
	}
}

func (f *fakeFetcher) addVersion(name, version string, deps map[string]string) {
	f.versions[name] = append(f.versions[name], version)
	f.packages[name+"@"+version] = fakePackage{deps: deps}
}

func (f *fakeFetcher) FetchVersions(name string) ([]string, error) {
	versions, ok := f.versions[name]
	if !ok {
		return nil, fmt.Errorf("no such package: %s", name)
	}
	return versions, nil
}

func (f *fakeFetcher) FetchTarball(name string, ref reference.Reference) ([]byte, error) {
	pkg, ok := f.packages[name+"@"+ref.Raw]
	if !ok {
		return nil, fmt.Errorf("no such version: %s@%s", name, ref.Raw)
	}
	return buildFakeTarball(pkg.deps), nil
}

// buildFakeTarball builds a registry-shaped (stripN=1) tarball containing
// just a package.json with the given dependencies.
func buildFakeTarball(deps map[string]string) []byte {
	var body bytes.Buffer
	body.WriteString(`{"dependencies":{`)
	first := true
	for name, ref := range deps {
		if !first {
			body.WriteString(",")
		}
		first = false
		fmt.Fprintf(&body, `"%s":"%s"`, name, ref)
	}
	body.WriteString("}}")

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	hdr := &tar.Header{Name: "package/package.json", Mode: 0o644, Size: int64(body.Len())}
	_ = tw.WriteHeader(hdr)
	_, _ = tw.Write(body.Bytes())
	_ = tw.Close()
	return buf.Bytes()
}

func TestPinReference_ExactVersionNoNetworkCall(t *testing.T) {
	f := newFakeFetcher() // no versions registered at all
	ref := reference.Parse("1.2.3")
	pinned, err := PinReference(f, "a", ref)
	if err != nil {
		t.Fatalf("PinReference: %v", err)
	}
	if pinned.Raw != "1.2.3" {
		t.Errorf("expected unchanged exact version, got %v", pinned)
	}
}

func TestPinReference_RangePicksHighest(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.2.0", nil)
	f.addVersion("a", "1.2.5", nil)
	f.addVersion("a", "1.3.0", nil)
	f.addVersion("a", "2.0.0", nil)

	pinned, err := PinReference(f, "a", reference.Parse("^1.2.0"))
	if err != nil {
		t.Fatalf("PinReference: %v", err)
	}
	if pinned.Raw != "1.3.0" {
		t.Errorf("expected 1.3.0, got %s", pinned.Raw)
	}
}

func TestPinReference_Unsatisfied(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.0.0", nil)

	_, err := PinReference(f, "a", reference.Parse("^2.0.0"))
	if err == nil {
		t.Fatal("expected unsatisfied-range error")
	}
}

func TestResolve_LeafInstall(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.0.0", nil)

	root, err := Resolve(context.Background(), f, []Descriptor{
		{Name: "a", Reference: reference.Parse("1.0.0")},
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(root.Children) != 1 || root.Children[0].Name != "a" {
		t.Fatalf("expected single child a, got %+v", root.Children)
	}
	if len(root.Children[0].Children) != 0 {
		t.Errorf("expected leaf, got children %+v", root.Children[0].Children)
	}
}

func TestResolve_RangePinning(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.2.0", nil)
	f.addVersion("a", "1.2.5", nil)
	f.addVersion("a", "1.3.0", nil)
	f.addVersion("a", "2.0.0", nil)

	root, err := Resolve(context.Background(), f, []Descriptor{
		{Name: "a", Reference: reference.Parse("^1.2.0")},
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if root.Children[0].Reference.Raw != "1.3.0" {
		t.Errorf("expected a@1.3.0, got %s", root.Children[0].Reference.Raw)
	}
}

func TestResolve_TransitiveAndAvailableShadowing(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.0.0", map[string]string{"c": "1.0.0"})
	f.addVersion("b", "1.0.0", map[string]string{"c": "1.0.0"})
	f.addVersion("c", "1.0.0", nil)

	root, err := Resolve(context.Background(), f, []Descriptor{
		{Name: "a", Reference: reference.Parse("1.0.0")},
		{Name: "b", Reference: reference.Parse("1.0.0")},
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(root.Children))
	}
	for _, top := range root.Children {
		if len(top.Children) != 1 || top.Children[0].Name != "c" {
			t.Errorf("expected %s to carry its own c child, got %+v", top.Name, top.Children)
		}
	}
}

func TestResolve_EveryReferenceIsExactAfterBuildTree(t *testing.T) {
	f := newFakeFetcher()
	f.addVersion("a", "1.0.0", map[string]string{"b": "^2.0.0"})
	f.addVersion("b", "2.0.0", nil)
	f.addVersion("b", "2.5.0", nil)

	root, err := Resolve(context.Background(), f, []Descriptor{
		{Name: "a", Reference: reference.Parse("1.0.0")},
	}, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Reference.Kind == reference.KindRange {
			t.Errorf("node %s still has an unresolved range %q", n.Name, n.Reference.Raw)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	walk(root)
}

func TestResolve_MissingDependencyPropagatesError(t *testing.T) {
	f := newFakeFetcher()
	// "a" is declared but never registered with any version.
	_, err := Resolve(context.Background(), f, []Descriptor{
		{Name: "a", Reference: reference.Parse("^1.0.0")},
	}, nil)
	if err == nil {
		t.Fatal("expected error for missing package")
	}
}
