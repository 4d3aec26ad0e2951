package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"firestige.xyz/relay/internal/config"
	"firestige.xyz/relay/internal/eventbus"
	"firestige.xyz/relay/internal/harness"
	"firestige.xyz/relay/internal/host"
	"firestige.xyz/relay/internal/log"
	"firestige.xyz/relay/internal/protocol"
)

var (
	pingClient  uint8
	pingServer  uint8
	pingPeriod  time.Duration
	watchReload bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Boot a topology and exchange ping/pong through it",
	Long: `run loads the topology named by --config, boots one goroutine
per drone/client/server, and periodically sends a ping from --client to
--server until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRunCommand(cmd)
	},
}

func init() {
	runCmd.Flags().Uint8Var(&pingClient, "client", 0, "node id of the client to drive")
	runCmd.Flags().Uint8Var(&pingServer, "server", 0, "node id of the server to ping")
	runCmd.Flags().DurationVar(&pingPeriod, "period", 2*time.Second, "interval between pings")
	runCmd.Flags().BoolVar(&watchReload, "watch", false, "reload the topology file on change")
	rootCmd.AddCommand(runCmd)
}

func runRunCommand(cmd *cobra.Command) error {
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

	if watchReload {
		if err := watchForReload(h, topo); err != nil {
			log.GetLogger().WithError(err).Warn("topology watch disabled")
		}
	}

	client, ok := h.Client(protocol.NodeId(pingClient))
	if !ok {
		return fmt.Errorf("no client with id %d in topology", pingClient)
	}
	behaviour, _ := h.ClientBehaviour(protocol.NodeId(pingClient))
	server := protocol.NodeId(pingServer)

	ctx, cancel := signalContext()
	defer cancel()

	if err := h.Bus().Subscribe(harness.EventTopic, logHostEvent); err != nil {
		log.GetLogger().WithError(err).Warn("event logging disabled")
	}

	client.InitiateFlood()
	drivePings(ctx, cmd, client, behaviour, server)
	return nil
}

func logHostEvent(evt *eventbus.Event) error {
	hostEvt, ok := evt.Payload.(host.Event)
	if !ok {
		return nil
	}
	log.GetLogger().WithField("kind", hostEvt.Kind).Debug("host event")
	return nil
}

func drivePings(ctx context.Context, cmd *cobra.Command, client *host.Client[harness.PingRequest, harness.PongResponse], behaviour *harness.PingClientBehaviour, server protocol.NodeId) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	seq := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			client.CalculateRoutes()
			seq++
			sent := client.SendRequest(protocol.NewMessage[harness.PingRequest](protocol.NodeId(pingClient), server, uint64(seq), harness.PingRequest{Seq: seq}))
			if !sent {
				fmt.Fprintf(cmd.OutOrStdout(), "seq %d: no route to %d yet\n", seq, server)
				continue
			}
			select {
			case resp := <-behaviour.Received:
				fmt.Fprintf(cmd.OutOrStdout(), "seq %d: pong from %d (seq %d)\n", seq, resp.SourceId, resp.Content.Seq)
			case <-time.After(pingPeriod):
				fmt.Fprintf(cmd.OutOrStdout(), "seq %d: timed out waiting for pong\n", seq)
			case <-ctx.Done():
				return
			}
		}
	}
}

func watchForReload(h *harness.Harness, initial *config.Topology) error {
	current := initial
	_, err := config.Watch(configFile, func(next *config.Topology, err error) {
		if err != nil {
			log.GetLogger().WithError(err).Warn("topology reload failed, keeping previous topology")
			return
		}
		h.Reload(current, next)
		current = next
		log.GetLogger().Info("topology reloaded")
	})
	return err
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, mirroring
// the teacher's boot.initShutdownListener.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		cancel()
	}()
	return ctx, cancel
}
