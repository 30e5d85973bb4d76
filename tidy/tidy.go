// Package tidy implements the supplemental "spm tidy" command: scanning
// a project's JS/TS source for bare imports and proposing them as new
// spm-package.json dependencies, pinned to the registry's latest
// version.
package tidy

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"

	"github.com/harborpm/spm/ignore"
	"github.com/harborpm/spm/internal/spmlog"
	"github.com/harborpm/spm/manifest"
)

// Fetcher is the subset of registry.Client tidy needs to pin a newly
// discovered import to a concrete version.
type Fetcher interface {
	FetchVersions(name string) ([]string, error)
}

var ignoredPackages = []string{
	"server-only",
}

// Run scans root for imports, adds any not already declared to the
// project manifest pinned at their latest published version, and saves
// the manifest. It reports how many new dependencies were added.
func Run(root string, f Fetcher) (int, error) {
	matcher, err := ignore.Load(root)
	if err != nil {
		return 0, fmt.Errorf("tidy: %w", err)
	}

	imports, err := collectImports(root, matcher)
	if err != nil {
		return 0, fmt.Errorf("tidy: %w", err)
	}
	if len(imports) == 0 {
		return 0, nil
	}

	doc, err := manifest.Load(root)
	if err != nil {
		return 0, fmt.Errorf("tidy: %w", err)
	}
	proj := doc.TypedData
	if proj.Dependencies == nil {
		proj.Dependencies = make(map[string]string)
	}

	added := 0
	for imp := range imports {
		if contains(ignoredPackages, imp) {
			continue
		}
		if _, ok := proj.Dependencies[imp]; ok {
			continue
		}
		versions, err := f.FetchVersions(imp)
		if err != nil {
			spmlog.Warnf("tidy: could not look up %s: %v", imp, err)
			continue
		}
		latest := latestOf(versions)
		if latest == "" {
			continue
		}
		proj.Dependencies[imp] = latest
		added++
		spmlog.Infof("tidy: adding %s@%s", imp, latest)
	}

	if added == 0 {
		return 0, nil
	}
	if err := manifest.Save(doc); err != nil {
		return 0, fmt.Errorf("tidy: save manifest: %w", err)
	}
	return added, nil
}

func collectImports(root string, matcher ignore.Matcher) (map[string]bool, error) {
	imports := make(map[string]bool)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if matcher.Skip(rel, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		parser, ok := parsers[filepath.Ext(path)]
		if !ok {
			return nil
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			found, err := parser.ParseImports(path)
			if err != nil {
				select {
				case errCh <- err:
				default:
				}
				return
			}
			for _, imp := range found {
				if strings.HasPrefix(imp, "node:") {
					continue
				}
				mu.Lock()
				imports[packageNameOf(imp)] = true
				mu.Unlock()
			}
		}()
		return nil
	})
	wg.Wait()
	close(errCh)
	if err != nil {
		return nil, err
	}
	if walkErr := <-errCh; walkErr != nil {
		return nil, walkErr
	}
	return imports, nil
}

// packageNameOf reduces an import specifier to its package name:
// "@scope/pkg/sub" -> "@scope/pkg", "pkg/sub" -> "pkg".
func packageNameOf(importPath string) string {
	if strings.HasPrefix(importPath, "@") {
		parts := strings.SplitN(importPath, "/", 3)
		if len(parts) >= 2 {
			return parts[0] + "/" + parts[1]
		}
		return importPath
	}
	if i := strings.Index(importPath, "/"); i != -1 {
		return importPath[:i]
	}
	return importPath
}

func contains(haystack []string, needle string) bool {
	for _, h := range haystack {
		if h == needle {
			return true
		}
	}
	return false
}

func latestOf(versions []string) string {
	var best *semver.Version
	var bestRaw string
	for _, raw := range versions {
		v, err := semver.NewVersion(raw)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestRaw = raw
		}
	}
	return bestRaw
}
