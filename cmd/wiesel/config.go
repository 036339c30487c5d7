package main

import (
	"github.com/spf13/cobra"

	"github.com/plus3/scriptbridge/engine"
)

// loadConfig reads --config, or the defaults when it is empty, and applies
// the command line overrides.
func loadConfig(cmd *cobra.Command) (*engine.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	config := engine.DefaultConfig()
	if path != "" {
		var err error
		if config, err = engine.LoadConfig(path); err != nil {
			return nil, err
		}
	}

	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		config.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		config.Logging.Format = v
	}
	if f := cmd.Flags().Lookup("listen"); f != nil && f.Changed {
		config.Remote.Listen = f.Value.String()
	}
	if f := cmd.Flags().Lookup("tick-rate"); f != nil && f.Changed {
		config.Loop.TickRate, _ = cmd.Flags().GetInt("tick-rate")
	}
	if f := cmd.Flags().Lookup("max-faults"); f != nil && f.Changed {
		config.Loop.MaxFaults, _ = cmd.Flags().GetInt("max-faults")
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
