// Package cmd implements the relay CLI using cobra, shaped like the
// teacher's cmd/root.go: a rootCmd carrying persistent flags, subcommands
// registered in their own init().
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"firestige.xyz/relay/internal/log"
)

var (
	// Global flags
	configFile string
	logLevel   string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "relay - a source-routed overlay host runtime",
	Long: `relay boots a topology of drones, clients, and servers wired
together by point-to-point channels, each running in its own goroutine.

Commands:
  run      boot the demo topology and exchange ping/pong through it
  validate parse and validate a topology file without booting anything
  routes   dump a node's route table from a topology file`,
	PersistentPreRunE: configureLogging,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "topology.toml",
		"topology file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (trace, debug, info, warn, error)")
}

func configureLogging(cmd *cobra.Command, args []string) error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	log.Configure(level, log.NewMultiWriter(nil), true)
	return nil
}

// exitWithError prints an error message to stderr and exits with code 1.
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
