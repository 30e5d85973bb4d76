// Package cmd wires spm's subcommands together with cobra.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harborpm/spm/internal/spmlog"
)

var rootCmd = &cobra.Command{
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	Use:               "spm [project-dir] [install-dir]",
	Short:             "A minimal package installer for a registry-backed module ecosystem",
	Args:              cobra.MaximumNArgs(2),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		spmlog.SetVerbose(flagVerbose)
	},
	RunE: runInstall,
}

var (
	flagVerbose       bool
	flagIgnoreScripts bool
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose output")
	rootCmd.Flags().BoolVar(&flagIgnoreScripts, "ignore-scripts", false, "skip preinstall/install/postinstall scripts")
}

// Execute runs the root command under ctx and returns the process exit
// code: 0 on success, 1 on any unrecovered error, printed to stdout.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stdout, err)
		return 1
	}
	return 0
}
