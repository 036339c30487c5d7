package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "wiesel",
		Short: "Script bridge engine",
		Long: `wiesel runs behavior scripts against scenes of native entities.

Scenes are YAML files listing entities, their transform, camera and light
components, and the scripts attached to them. The engine can run headless
with an optional websocket control endpoint, or in a window with a debug
inspector.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to the engine config file")
	rootCmd.PersistentFlags().String("log-level", "", "Override the configured log level")
	rootCmd.PersistentFlags().String("log-format", "", "Override the configured log format (console, json)")

	rootCmd.AddCommand(
		newRunCmd(),
		newPlayCmd(),
		newValidateCmd(),
		newScriptsCmd(),
	)

	return rootCmd
}
