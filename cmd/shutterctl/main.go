// shutterctl is the operator CLI for the Gray Logic shutter service.
//
// It resolves schedule texts, simulates a day of decisions for a configured
// shutter, reads the decision history, manages the history schema and sends
// commands to a running shutterd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/gray-logic-shutter/internal/infrastructure/config"
)

const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "shutterctl",
		Short:         "Operate the Gray Logic shutter service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", configPathFromEnv(), "path to the service configuration")

	root.AddCommand(
		newResolveCmd(),
		newSimulateCmd(),
		newHistoryCmd(),
		newMigrateCmd(),
		newSendCmd(),
	)
	return root
}

// configPathFromEnv returns SHUTTER_CONFIG if set, otherwise the default path.
func configPathFromEnv() string {
	if path := os.Getenv("SHUTTER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// loadConfig reads the file named by the --config flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// shutterConfig loads the config and looks up one shutter.
func shutterConfig(cmd *cobra.Command, id string) (*config.Config, config.ShutterConfig, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, config.ShutterConfig{}, err
	}
	sc, ok := cfg.Shutter(id)
	if !ok {
		return nil, config.ShutterConfig{}, fmt.Errorf("shutter %q is not configured", id)
	}
	return cfg, sc, nil
}
