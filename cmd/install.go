package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborpm/spm/internal/meta"
	"github.com/harborpm/spm/internal/spmlog"
	"github.com/harborpm/spm/link"
	"github.com/harborpm/spm/manifest"
	"github.com/harborpm/spm/optimize"
	"github.com/harborpm/spm/progress"
	"github.com/harborpm/spm/registry"
	"github.com/harborpm/spm/resolve"
)

// runInstall is the CLI entry point: resolve, optimize, link, in that
// order, rooted at projectDir and materialized into
// installDir/spm_node_modules.
func runInstall(cmd *cobra.Command, args []string) error {
	projectDir := meta.Pwd()
	if len(args) >= 1 {
		projectDir = args[0]
	}

	installDir := projectDir
	if len(args) >= 2 {
		installDir = args[1]
	}

	doc, err := manifest.Load(projectDir)
	if err != nil {
		return fmt.Errorf("spm: %w", err)
	}
	descriptors := manifest.Descriptors(doc.TypedData)

	tracker := progress.New()
	client := registry.Default()
	client.Tracker = tracker
	if err := tracker.Start(); err != nil {
		spmlog.Debugf("progress display unavailable: %v", err)
	}
	defer tracker.Stop()

	ctx := cmd.Context()
	root, err := resolve.Resolve(ctx, client, descriptors, tracker)
	if err != nil {
		return fmt.Errorf("spm: resolve: %w", err)
	}

	optimize.Optimize(root)

	if err := link.Install(ctx, client, tracker, root, installDir, flagIgnoreScripts); err != nil {
		return fmt.Errorf("spm: link: %w", err)
	}

	spmlog.Infof("installed %d packages", countNodes(root))
	return nil
}

func countNodes(n *resolve.Node) int {
	count := 0
	for _, c := range n.Children {
		count += 1 + countNodes(c)
	}
	return count
}
