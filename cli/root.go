// Package cli wires the radiantctl commands.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/safa0/radiantctl/config"
)

// Set at build time with -ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const defaultConfigPath = "radiantctl.yaml"

func NewRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "radiantctl",
		Short: "Display preset reconciliation daemon",
		Long: `radiantctl keeps display presets in sync with live device state.

It listens to a device bridge over MQTT, applies presets to displays, notices
when a display drifts away from the selected preset, and serves an HTTP API
with live WebSocket updates.

Examples:
  # Run the daemon
  radiantctl serve --config /etc/radiantctl/config.yaml

  # Inspect stored presets without a running daemon
  radiantctl presets list`,
		SilenceUsage: true,
	}

	defaultPath := os.Getenv("RADIANTCTL_CONFIG")
	if defaultPath == "" {
		defaultPath = defaultConfigPath
	}
	root.PersistentFlags().StringVar(&configPath, "config", defaultPath, "path to the YAML config file")

	load := func() (*config.Config, error) { return config.Load(configPath) }

	root.AddCommand(newServeCmd(load))
	root.AddCommand(newPresetsCmd(load))
	root.AddCommand(newVersionCmd())

	return root
}

// Execute runs the root command with os.Args.
func Execute() error {
	return NewRootCmd().Execute()
}

type configLoader func() (*config.Config, error)
