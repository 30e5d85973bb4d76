// Package archive provides streaming access to a tar archive that may
// or may not be gzip-compressed, with the ability to pull one named
// file out of it or extract the whole thing to disk, both under a
// configurable leading-path-component strip.
//
// Tar extraction elsewhere in this ecosystem tends to bundle checksum
// verification, xz support, and atomic-rename staging into the same
// function. This installer has no integrity-checking story and a wire
// format fixed to gzip, so this package keeps only the streaming and
// path-stripping behavior those callers actually need.
package archive

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by ReadOneFile when no archive entry's stripped
// path matches the requested filename.
var ErrNotFound = errors.New("archive: file not found")

// gzipMagic is the two-byte gzip header a registry tarball begins with
// when it's gzip-compressed.
var gzipMagic = []byte{0x1f, 0x8b}

// reader returns a stream over buf's tar entries, transparently
// decompressing it first if it looks gzip-compressed. Uncompressed
// input passes through unchanged.
func reader(buf []byte) (io.Reader, error) {
	if len(buf) >= 2 && bytes.Equal(buf[:2], gzipMagic) {
		gz, err := gzip.NewReader(bytes.NewReader(buf))
		if err != nil {
			return nil, fmt.Errorf("archive: gzip: %w", err)
		}
		return gz, nil
	}
	return bytes.NewReader(buf), nil
}

// stripPath removes leading slashes, then removes exactly the first
// stripN '/'-delimited components. ok is false when the name has stripN
// or fewer components (nothing would be left after stripping), meaning
// the entry is unmatched/should be skipped.
func stripPath(name string, stripN int) (stripped string, ok bool) {
	name = strings.TrimLeft(name, "/")
	if stripN == 0 {
		return name, true
	}
	parts := strings.Split(name, "/")
	if len(parts) <= stripN {
		return "", false
	}
	return strings.Join(parts[stripN:], "/"), true
}

// ReadOneFile streams buf's tar entries and returns the bytes of the one
// whose stripped path equals filename. Every entry's data is read to
// completion even when it is not a match, so the underlying stream stays
// in sync entry to entry.
func ReadOneFile(buf []byte, filename string, stripN int) ([]byte, error) {
	r, err := reader(buf)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("archive: read entry: %w", err)
		}

		stripped, ok := stripPath(hdr.Name, stripN)
		if !ok || stripped == "" || stripped != filename {
			// Not a match; still drain the entry so the stream advances.
			if _, err := io.Copy(io.Discard, tr); err != nil {
				return nil, fmt.Errorf("archive: drain entry %q: %w", hdr.Name, err)
			}
			continue
		}

		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("archive: read %q: %w", hdr.Name, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, filename)
}

// ExtractAll streams buf's tar entries and writes each one under
// targetDir, applying the same stripN transform to its header name.
// Entries whose stripped name is empty are skipped silently, as are
// entries with fewer path components than stripN.
func ExtractAll(buf []byte, targetDir string, stripN int) error {
	r, err := reader(buf)
	if err != nil {
		return err
	}
	tr := tar.NewReader(r)

	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return fmt.Errorf("archive: mkdir %s: %w", targetDir, err)
	}

	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("archive: read entry: %w", err)
		}

		stripped, ok := stripPath(hdr.Name, stripN)
		if !ok || stripped == "" {
			continue
		}

		target, err := secureJoin(targetDir, stripped)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", target, err)
			}
		case tar.TypeReg, tar.TypeRegA:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", filepath.Dir(target), err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, hdr.FileInfo().Mode().Perm()|0o600)
			if err != nil {
				return fmt.Errorf("archive: create %s: %w", target, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("archive: write %s: %w", target, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("archive: close %s: %w", target, err)
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(hdr.Linkname) {
				return fmt.Errorf("archive: absolute symlink rejected: %s", hdr.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("archive: mkdir %s: %w", filepath.Dir(target), err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return fmt.Errorf("archive: symlink %s: %w", target, err)
			}
		default:
			// directories-implied-by-files, metadata headers, etc: ignore.
			continue
		}
	}
	return nil
}

// secureJoin joins name onto base the way filepath.Join would, but
// refuses to produce a path that escapes base — tar entries are
// untrusted input and "../../etc/passwd"-shaped names are a known attack
// against naive extractors.
func secureJoin(base, name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(clean) {
		return "", fmt.Errorf("absolute path in archive: %q", name)
	}
	full := filepath.Join(base, clean)

	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if absFull == absBase {
		return absFull, nil
	}
	sep := string(os.PathSeparator)
	if !strings.HasPrefix(absFull, absBase+sep) {
		return "", fmt.Errorf("path escapes destination: %q", name)
	}
	return absFull, nil
}
