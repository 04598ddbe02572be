package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/whirling/internal/config"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whirling",
		Short: "Select on-screen orbit targets by following them with your hand",
		Long: `whirling shows targets moving on small circular orbits and selects the
one whose motion the tracked hand follows most closely.`,
		Version:      version,
		SilenceUsage: true,
	}
	cmd.AddCommand(newRunCmd(), newSimulateCmd(), newPlotCmd())
	return cmd
}

// loadConfig reads path, or returns the defaults when path is empty.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}
