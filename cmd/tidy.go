package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harborpm/spm/internal/meta"
	"github.com/harborpm/spm/internal/spmlog"
	"github.com/harborpm/spm/registry"
	"github.com/harborpm/spm/tidy"
)

var tidyCmd = &cobra.Command{
	Use:   "tidy",
	Short: "Scan source files for unresolved imports and add them to spm-package.json",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := meta.Pwd()
		if len(args) >= 1 {
			dir = args[0]
		}

		added, err := tidy.Run(dir, registry.Default())
		if err != nil {
			return fmt.Errorf("spm tidy: %w", err)
		}
		spmlog.Infof("tidy: added %d dependencies", added)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tidyCmd)
}
