// Command catalogd serves the metadata catalog's HTTP API, following the
// teacher's cobra root-command shape (cmd/bd/main.go): persistent flags
// resolved once in PersistentPreRun, subcommands for the process's two
// operating modes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hdc-platform/metadata-catalog/internal/config"
)

var (
	configPath string
	settings   *config.Settings
)

var rootCmd = &cobra.Command{
	Use:   "catalogd",
	Short: "catalogd - metadata catalog service",
	Long:  "catalogd serves the hierarchical metadata catalog's HTTP API and owns its event publication.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		settings = s
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file (optional; env vars and defaults apply otherwise)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
