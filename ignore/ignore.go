// Package ignore wraps go-git's gitignore matcher so path-shaped
// dependencies that resolve to a directory can be packed into a tarball
// without dragging along build output, VCS metadata, or anything the
// directory's own .gitignore already excludes. The same matcher also
// decides which source files the tidy command should scan.
package ignore

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// alwaysIgnoredDirs are excluded from a packed directory dependency
// regardless of .gitignore content — they are never meant to ship.
var alwaysIgnoredDirs = []string{
	".git",
	"spm_node_modules",
	"node_modules",
}

// Matcher decides whether a path relative to some root should be skipped.
// It satisfies archive.Skip.
type Matcher struct {
	m gitignore.Matcher
}

// Skip implements archive.Skip.
func (mr Matcher) Skip(relPath string, isDir bool) bool {
	parts := strings.Split(relPath, "/")
	for _, dir := range alwaysIgnoredDirs {
		if parts[0] == dir {
			return true
		}
	}
	if mr.m == nil {
		return false
	}
	return mr.m.Match(parts, isDir)
}

// Load builds a Matcher from every .gitignore found by walking root, plus
// the always-ignored VCS/dependency directories above.
func Load(root string) (Matcher, error) {
	var patterns []gitignore.Pattern
	for _, dir := range alwaysIgnoredDirs {
		patterns = append(patterns, gitignore.ParsePattern(dir+"/", nil))
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			base := d.Name()
			for _, dir := range alwaysIgnoredDirs {
				if base == dir {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if d.Name() != ".gitignore" {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return err
		}
		relDir, err := filepath.Rel(root, filepath.Dir(path))
		if err != nil {
			return err
		}
		var domain []string
		if relDir != "." {
			domain = strings.Split(filepath.ToSlash(relDir), "/")
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimRight(line, "\r")
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, domain))
		}
		return nil
	})
	if err != nil {
		return Matcher{}, err
	}

	return Matcher{m: gitignore.NewMatcher(patterns)}, nil
}
