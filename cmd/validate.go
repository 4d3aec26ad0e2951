package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"firestige.xyz/relay/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a topology file",
	Long: `Validate parses the topology file named by --config and checks
its structural invariants (no duplicate node ids, every connection names
a node that actually exists) without booting anything.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runValidateCommand(cmd)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidateCommand(cmd *cobra.Command) error {
	topo, err := config.Load(configFile)
	if err != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "INVALID: %v\n", err)
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "VALID: %d drone(s), %d client(s), %d server(s)\n",
		len(topo.Drones), len(topo.Clients), len(topo.Servers))
	return nil
}
