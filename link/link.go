package link

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/harborpm/spm/archive"
	"github.com/harborpm/spm/internal/spmlog"
	"github.com/harborpm/spm/link/script"
	"github.com/harborpm/spm/pkgmeta"
	"github.com/harborpm/spm/reference"
	"github.com/harborpm/spm/registry"
	"github.com/harborpm/spm/resolve"
)

// Install walks root (typically the result of Resolve + Optimize),
// extracting it at cwd. Siblings at each level install concurrently;
// one dependency's preinstall/install/postinstall scripts run in that
// order but may overlap another dependency's scripts.
func Install(ctx context.Context, f Fetcher, tracker Tracker, root *resolve.Node, cwd string, ignoreScripts bool) error {
	if tracker == nil {
		tracker = noopTracker{}
	}
	return installNode(ctx, f, tracker, root, cwd, ignoreScripts)
}

func installNode(ctx context.Context, f Fetcher, tracker Tracker, n *resolve.Node, cwd string, ignoreScripts bool) error {
	if n.Reference.Kind != reference.KindRoot {
		tracker.Add(1)
		defer tracker.Tick()

		tarball, err := f.FetchTarball(n.Name, n.Reference)
		if err != nil {
			return fmt.Errorf("link: fetch %s@%s: %w", n.Name, n.Reference, err)
		}
		if err := archive.ExtractAll(tarball, cwd, stripNFor(n.Reference)); err != nil {
			return fmt.Errorf("link: extract %s@%s into %s: %w", n.Name, n.Reference, cwd, err)
		}
	}

	if len(n.Children) == 0 {
		return nil
	}

	storeDir := registry.LocalStoreDir(cwd)

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range n.Children {
		d := d
		g.Go(func() error {
			return installDependency(gctx, f, tracker, d, storeDir, ignoreScripts)
		})
	}
	return g.Wait()
}

// installDependency installs one child dependency D of the node whose
// spm_node_modules directory is storeDir: recurse into D at
// storeDir/D.Name, then — only once D and its own subtree are fully
// installed — wire up D's bin shims and run D's lifecycle scripts. This
// ordering guarantees a child is fully installed before that child's
// bin-symlinking and lifecycle scripts fire.
func installDependency(ctx context.Context, f Fetcher, tracker Tracker, d *resolve.Node, storeDir string, ignoreScripts bool) error {
	childCwd := filepath.Join(storeDir, d.Name)

	if err := installNode(ctx, f, tracker, d, childCwd, ignoreScripts); err != nil {
		return fmt.Errorf("link %s: %w", d.Name, err)
	}

	meta, err := readInstalledMetadata(childCwd)
	if err != nil {
		return fmt.Errorf("link: read manifest for %s: %w", d.Name, err)
	}

	bins, err := meta.Bins()
	if err != nil {
		return fmt.Errorf("link: parse bin entries for %s: %w", d.Name, err)
	}
	if len(bins) > 0 {
		binDir := filepath.Join(storeDir, ".bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			return fmt.Errorf("link: mkdir %s: %w", binDir, err)
		}
		for binName, binPath := range bins {
			source, err := filepath.Abs(filepath.Join(childCwd, binPath))
			if err != nil {
				return fmt.Errorf("link: resolve bin %s for %s: %w", binName, d.Name, err)
			}
			dest := filepath.Join(binDir, binName)
			if err := createShim(source, dest); err != nil {
				return fmt.Errorf("link: shim %s for %s: %w", binName, d.Name, err)
			}
		}
	}

	if !ignoreScripts {
		childBinDir := filepath.Join(registry.LocalStoreDir(childCwd), ".bin")
		if err := script.RunLifecycle(childCwd, childBinDir, meta.Scripts); err != nil {
			return fmt.Errorf("link: lifecycle scripts for %s: %w", d.Name, err)
		}
	}

	spmlog.Debugf("installed %s@%s", d.Name, d.Reference)
	return nil
}

func readInstalledMetadata(dir string) (pkgmeta.Metadata, error) {
	raw, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return pkgmeta.Metadata{}, err
	}
	return pkgmeta.Parse(raw)
}
