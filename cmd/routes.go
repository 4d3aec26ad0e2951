package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"firestige.xyz/relay/internal/config"
	"firestige.xyz/relay/internal/harness"
	"firestige.xyz/relay/internal/protocol"
)

var routesNode uint8

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "Dump one node's route table as YAML",
	Long: `routes boots the topology named by --config just long enough to
run a flood and a route calculation, then prints --node's best known
route to every reachable destination.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoutesCommand(cmd)
	},
}

func init() {
	routesCmd.Flags().Uint8Var(&routesNode, "node", 0, "client node id to dump routes for")
	rootCmd.AddCommand(routesCmd)
}

// routeSnapshot is the YAML shape printed by cmd routes.
type routeSnapshot struct {
	Node   uint8                `yaml:"node"`
	Routes []routeSnapshotEntry `yaml:"routes"`
}

type routeSnapshotEntry struct {
	Destination uint8   `yaml:"destination"`
	Hops        []uint8 `yaml:"hops"`
}

func runRoutesCommand(cmd *cobra.Command) error {
	topo, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("loading topology: %w", err)
	}

	h, err := harness.BuildTopology(topo)
	if err != nil {
		return fmt.Errorf("building topology: %w", err)
	}
	h.Start()
	defer h.Shutdown()

	nodeId := protocol.NodeId(routesNode)
	client, ok := h.Client(nodeId)
	if !ok {
		return fmt.Errorf("no client with id %d in topology", routesNode)
	}

	client.InitiateFlood()
	// Flood propagation runs on the harness's own goroutines; give it a
	// few rounds to settle before reading back whatever routes it found.
	for i := 0; i < 20; i++ {
		time.Sleep(25 * time.Millisecond)
		client.CalculateRoutes()
	}

	snapshot := routeSnapshot{Node: routesNode}
	for _, dest := range client.Routes().ReachableDestinations() {
		route, ok := client.Routes().GetBestRoute(dest)
		if !ok {
			continue
		}
		hops := route.Hops()
		out := make([]uint8, len(hops))
		for i, hop := range hops {
			out[i] = uint8(hop)
		}
		snapshot.Routes = append(snapshot.Routes, routeSnapshotEntry{
			Destination: uint8(dest),
			Hops:        out,
		})
	}

	encoded, err := yaml.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encoding route snapshot: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(encoded))
	return nil
}
