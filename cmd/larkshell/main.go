// Package main is the entry point of the larkshell console. The root
// command takes no arguments; it seeds the console with the launcher's
// ambient bindings and exits with the session's exit code.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"Larkshell/internal/builtin"
	"Larkshell/internal/larkshell"
)

var exitCode int

var rootCmd = &cobra.Command{
	Use:          "larkshell",
	Short:        "Interactive Starlark console with namespace completion",
	Long:         `larkshell starts an interactive Starlark read-eval-print loop. Tab completes names bound in the session. End the session with Ctrl-D or exit().`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitCode = larkshell.Run(builtin.Globals(), builtin.Locals())
		return nil
	},
}

// main starts the console and passes its exit code through.
func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(2)
	}
	os.Exit(exitCode)
}
