// Musikremote manages the connection preferences of a musikcube remote
// client and runs the daemon that applies them.
//
// The CLI edits the preference store (address, ports, password, SSL,
// transcoding and caching options) and notifies a running daemon so its
// streaming proxy, websocket connection and volume control pick up the new
// values. The daemon ('musikremote serve') hosts those components and a
// small HTTP control API on 127.0.0.1:7910 by default.
//
// Usage:
//
//	musikremote [command] [flags]
//
// See 'musikremote --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/musikremote/internal/config"
	"github.com/muurk/musikremote/internal/logging"
	"github.com/muurk/musikremote/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// Global flags
var (
	configPath   string
	storeBackend string
	logLevel     string
	offline      bool
)

// cfg is loaded before every command runs
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "musikremote",
	Short: "musikcube remote client settings and daemon",
	Long: `Manage the connection settings of a musikcube remote client.

Settings are validated and normalized before they are stored, and a running
daemon is told to reload its streaming proxy, drop its server connection and
reset the volume as needed. Start the daemon with 'musikremote serve'.`,
	Version:           version.Short(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default is the OS config dir)")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", "", "Preference store backend (file, sqlite, memory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Do not notify the daemon after saving")

	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file, applies flag overrides and starts logging
func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if storeBackend != "" {
		c.Store.Backend = storeBackend
		if err := c.Validate(); err != nil {
			return err
		}
	}

	level := logLevel
	if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
		level = c.LogLevel
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}

	cfg = c
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "musikremote %s\n", version.Full())
	},
}
