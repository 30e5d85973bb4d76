package link

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/harborpm/spm/reference"
	"github.com/harborpm/spm/resolve"
)

type fakePkg struct {
	files map[string]string // relative path -> content
}

type fakeLinkFetcher struct {
	packages map[string]fakePkg // "name@version"
}

func (f *fakeLinkFetcher) FetchTarball(name string, ref reference.Reference) ([]byte, error) {
	pkg, ok := f.packages[name+"@"+ref.Raw]
	if !ok {
		return nil, fmt.Errorf("no such package: %s@%s", name, ref.Raw)
	}
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for relPath, content := range pkg.files {
		hdr := &tar.Header{Name: "package/" + relPath, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, err
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, err
		}
	}
	if err := tw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func TestInstall_ExtractsAndRunsScripts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh-flavored lifecycle scripts")
	}

	dir := t.TempDir()
	marker := filepath.Join(dir, "spm_node_modules", "leaf", "ran.txt")

	f := &fakeLinkFetcher{packages: map[string]fakePkg{
		"leaf@1.0.0": {files: map[string]string{
			"package.json": fmt.Sprintf(`{"name":"leaf","version":"1.0.0","scripts":{"postinstall":"echo hi > %s"}}`, marker),
		}},
	}}

	root := &resolve.Node{
		Reference: reference.Root,
		Children: []*resolve.Node{
			{Name: "leaf", Reference: reference.Reference{Kind: reference.KindExact, Raw: "1.0.0"}},
		},
	}

	if err := Install(context.Background(), f, nil, root, dir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "spm_node_modules", "leaf", "package.json")); err != nil {
		t.Fatalf("expected extracted package.json: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("expected postinstall script to have run: %v", err)
	}
}

func TestInstall_ScriptSeesOwnBinDirOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh-flavored lifecycle scripts")
	}

	dir := t.TempDir()
	pathDump := filepath.Join(dir, "path.txt")

	f := &fakeLinkFetcher{packages: map[string]fakePkg{
		"leaf@1.0.0": {files: map[string]string{
			"package.json": fmt.Sprintf(`{"name":"leaf","version":"1.0.0","scripts":{"postinstall":"echo \"$PATH\" > %s"}}`, pathDump),
		}},
	}}

	root := &resolve.Node{
		Reference: reference.Root,
		Children: []*resolve.Node{
			{Name: "leaf", Reference: reference.Reference{Kind: reference.KindExact, Raw: "1.0.0"}},
		},
	}

	if err := Install(context.Background(), f, nil, root, dir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	seen, err := os.ReadFile(pathDump)
	if err != nil {
		t.Fatalf("expected postinstall to have dumped PATH: %v", err)
	}

	wantPrefix := filepath.Join(dir, "spm_node_modules", "leaf", "spm_node_modules", ".bin") + string(filepath.ListSeparator)
	if !strings.HasPrefix(string(seen), wantPrefix) {
		t.Errorf("PATH = %q, want prefix %q", seen, wantPrefix)
	}
}

func TestInstall_ScriptSeesRenamedBinDirOnPath(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh-flavored lifecycle scripts")
	}

	t.Setenv("SPM_NODE_MODULES_DIR", "modules")

	dir := t.TempDir()
	pathDump := filepath.Join(dir, "path.txt")

	f := &fakeLinkFetcher{packages: map[string]fakePkg{
		"leaf@1.0.0": {files: map[string]string{
			"package.json": fmt.Sprintf(`{"name":"leaf","version":"1.0.0","scripts":{"postinstall":"echo \"$PATH\" > %s"}}`, pathDump),
		}},
	}}

	root := &resolve.Node{
		Reference: reference.Root,
		Children: []*resolve.Node{
			{Name: "leaf", Reference: reference.Reference{Kind: reference.KindExact, Raw: "1.0.0"}},
		},
	}

	if err := Install(context.Background(), f, nil, root, dir, false); err != nil {
		t.Fatalf("Install: %v", err)
	}

	seen, err := os.ReadFile(pathDump)
	if err != nil {
		t.Fatalf("expected postinstall to have dumped PATH: %v", err)
	}

	wantPrefix := filepath.Join(dir, "modules", "leaf", "modules", ".bin") + string(filepath.ListSeparator)
	if !strings.HasPrefix(string(seen), wantPrefix) {
		t.Errorf("PATH = %q, want prefix %q (SPM_NODE_MODULES_DIR should apply at every nesting level)", seen, wantPrefix)
	}
}

func TestInstall_IgnoreScriptsSkipsLifecycle(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "should-not-exist.txt")

	f := &fakeLinkFetcher{packages: map[string]fakePkg{
		"leaf@1.0.0": {files: map[string]string{
			"package.json": fmt.Sprintf(`{"name":"leaf","version":"1.0.0","scripts":{"postinstall":"echo hi > %s"}}`, marker),
		}},
	}}

	root := &resolve.Node{
		Reference: reference.Root,
		Children: []*resolve.Node{
			{Name: "leaf", Reference: reference.Reference{Kind: reference.KindExact, Raw: "1.0.0"}},
		},
	}

	if err := Install(context.Background(), f, nil, root, dir, true); err != nil {
		t.Fatalf("Install: %v", err)
	}
	if _, err := os.Stat(marker); err == nil {
		t.Error("expected postinstall script not to run when ignoreScripts is set")
	}
}

func TestInstall_BinShimIsCreated(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink semantics differ on windows")
	}

	dir := t.TempDir()

	f := &fakeLinkFetcher{packages: map[string]fakePkg{
		"tool@1.0.0": {files: map[string]string{
			"package.json": `{"name":"tool","version":"1.0.0","bin":"bin/tool.sh"}`,
			"bin/tool.sh":  "#!/bin/sh\necho tool\n",
		}},
	}}

	root := &resolve.Node{
		Reference: reference.Root,
		Children: []*resolve.Node{
			{Name: "tool", Reference: reference.Reference{Kind: reference.KindExact, Raw: "1.0.0"}},
		},
	}

	if err := Install(context.Background(), f, nil, root, dir, true); err != nil {
		t.Fatalf("Install: %v", err)
	}

	shim := filepath.Join(dir, "spm_node_modules", ".bin", "tool")
	info, err := os.Lstat(shim)
	if err != nil {
		t.Fatalf("expected bin shim at %s: %v", shim, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		t.Errorf("expected %s to be a symlink", shim)
	}
}
