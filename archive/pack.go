package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Skip is implemented by callers of PackDir that want to exclude some
// entries — e.g. the gitignore matcher a directory-shaped path
// dependency is packed through (see the ignore package).
type Skip interface {
	// Skip reports whether the given slash-separated path, relative to
	// the root being packed, should be left out of the tarball.
	Skip(relPath string, isDir bool) bool
}

// PackDir walks root and writes an uncompressed tar (stripN=0 shape: no
// leading "package/" component) containing everything Skip doesn't
// reject. This gives a directory-shaped path dependency the same
// []byte-tar-shaped return value FetchTarball produces for every other
// reference kind.
func PackDir(root string, skip Skip) ([]byte, error) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		relSlash := filepath.ToSlash(rel)
		if skip != nil && skip.Skip(relSlash, d.IsDir()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		if d.IsDir() {
			hdr, err := tar.FileInfoHeader(info, "")
			if err != nil {
				return err
			}
			hdr.Name = relSlash + "/"
			return tw.WriteHeader(hdr)
		}

		if !info.Mode().IsRegular() {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = relSlash
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		if _, err := io.Copy(tw, f); err != nil {
			return fmt.Errorf("pack %s: %w", relSlash, err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("archive: pack %s: %w", root, err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("archive: close tar writer: %w", err)
	}
	return buf.Bytes(), nil
}
