//go:build !windows

package link

import (
	"os"
	"path/filepath"
)

// createShim symlinks dest -> source, replacing whatever is already at
// dest (a stale symlink, file, or directory from a previous install).
func createShim(source, dest string) error {
	if stat, err := os.Lstat(dest); err == nil {
		if stat.Mode()&os.ModeSymlink != 0 {
			if target, err := os.Readlink(dest); err == nil && filepath.Clean(target) == filepath.Clean(source) {
				return nil
			}
		}
		if err := os.RemoveAll(dest); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	if err := os.Symlink(source, dest); err != nil {
		return err
	}
	return os.Chmod(source, 0o755)
}
