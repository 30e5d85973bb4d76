// Package script runs a dependency's preinstall, install, and
// postinstall lifecycle scripts, one shell command each, with that
// dependency's own bin directory prepended to PATH.
package script

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/harborpm/spm/pkgmeta"
)

// RunLifecycle runs preinstall, then install, then postinstall, in that
// order, skipping any phase the package didn't declare. dir is the
// directory the dependency was extracted into; binDir is that
// dependency's own bin shim directory, prepended to PATH so its scripts
// see its dependencies' binaries first.
func RunLifecycle(dir, binDir string, scripts pkgmeta.Scripts) error {
	env := buildEnv(binDir)

	for _, phase := range []struct {
		name    string
		command string
	}{
		{"preinstall", scripts.Preinstall},
		{"install", scripts.Install},
		{"postinstall", scripts.Postinstall},
	} {
		if phase.command == "" {
			continue
		}
		if err := runShell(dir, phase.command, env); err != nil {
			return fmt.Errorf("%s: %w", phase.name, err)
		}
	}
	return nil
}

func buildEnv(binDir string) []string {
	env := os.Environ()
	for i, e := range env {
		if len(e) >= 5 && e[:5] == "PATH=" {
			env[i] = "PATH=" + binDir + string(filepath.ListSeparator) + e[5:]
			return env
		}
	}
	return append(env, "PATH="+binDir)
}
