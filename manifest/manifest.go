// Package manifest loads a project's spm-package.json, the file an
// installation starts from.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	json "github.com/tsukinoko-kun/jsonedit"

	"github.com/harborpm/spm/pkgmeta"
	"github.com/harborpm/spm/reference"
	"github.com/harborpm/spm/resolve"
)

const fileName = "spm-package.json"

// Project is the typed projection of spm-package.json that jsonedit
// reads into and writes back from.
type Project struct {
	fileLocation string            `json:"-"`
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
	Scripts      pkgmeta.Scripts   `json:"scripts"`
}

// Load reads spm-package.json out of dir.
func Load(dir string) (*json.Document[*Project], error) {
	path := filepath.Join(dir, fileName)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	defer f.Close()

	proj := &Project{fileLocation: path}
	doc, err := json.Parse(f, proj)
	if err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", path, err)
	}
	return doc, nil
}

// Save writes doc back to its original file location, preserving
// whatever formatting jsonedit tracked when it was parsed.
func Save(doc *json.Document[*Project]) error {
	if doc.TypedData.fileLocation == "" {
		return fmt.Errorf("manifest: no file location set")
	}
	f, err := os.Create(doc.TypedData.fileLocation)
	if err != nil {
		return err
	}
	defer f.Close()
	return doc.Write(f)
}

// Descriptors flattens a project's declared dependencies into the
// (name, reference) pairs the resolver consumes.
func Descriptors(p *Project) []resolve.Descriptor {
	out := make([]resolve.Descriptor, 0, len(p.Dependencies))
	for name, raw := range p.Dependencies {
		out = append(out, resolve.Descriptor{Name: name, Reference: reference.Parse(raw)})
	}
	return out
}
