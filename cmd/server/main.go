// Command server runs the todo service: a REST API and an MCP tool surface
// over one SQLite store.
package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/yourorg/todoservice/pkg/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// rootCmd serves HTTP by default, or MCP over stdio with --stdio
var rootCmd = &cobra.Command{
	Use:   "todoservice",
	Short: "Todo REST API and MCP server",
	Long: `todoservice exposes a todo list over a REST API and as MCP tools.
Both surfaces share one SQLite store.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serverOpts.stdio {
			return runStdio(serverOpts.configFile)
		}
		return runHTTP(cmd.Context(), serverOpts.configFile)
	},
}

type serverFlags struct {
	stdio      bool
	configFile string
}

var serverOpts = &serverFlags{}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", version.ServiceName, version.Version, runtime.Version())
	},
}

func init() {
	rootCmd.Flags().BoolVar(&serverOpts.stdio, "stdio", false, "run in stdio mode for MCP communication")
	rootCmd.Flags().StringVar(&serverOpts.configFile, "config", "", "path to a YAML config file (default $CONFIG_FILE)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(healthcheckCmd)
}
