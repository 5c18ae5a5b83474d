package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobflow/internal/relay"
)

var (
	relaySource string
	relayPrefix string
)

var relayCmd = &cobra.Command{
	Use:   "relay",
	Short: "Forward stored CSV objects to the event stream",
}

var relayForwardCmd = &cobra.Command{
	Use:   "forward <key>...",
	Short: "Publish the given objects once",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRelayForward,
}

var relayWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Publish every new CSV object as it is created",
	Long:  "Watches the source's container and publishes each newly created .csv object; blocks until SIGINT/SIGTERM.",
	RunE:  runRelayWatch,
}

func init() {
	relayCmd.PersistentFlags().StringVarP(&relaySource, "source", "s", "", "source whose container is relayed (required)")
	relayWatchCmd.Flags().StringVar(&relayPrefix, "prefix", "", "only watch keys under this prefix")
	_ = relayCmd.MarkPersistentFlagRequired("source")

	rootCmd.AddCommand(relayCmd)
	relayCmd.AddCommand(relayForwardCmd, relayWatchCmd)
}

// openRelay wires a relay over the source's container and the event stream.
func openRelay(ctx context.Context) (*pipeline, *relay.Relay, watchableStore) {
	logger := setupLogger(debug)
	cfg := mustConfig(logger)

	src, ok := cfg.Source(relaySource)
	if !ok {
		die(nil, logger, "unknown source", fmt.Errorf("no source named %q", relaySource))
	}

	p := newPipeline(cfg, logger)
	blobs, err := p.blobStore(ctx, src.ContainerName)
	if err != nil {
		die(p, logger, "failed to open blob store", err, "container", src.ContainerName)
	}
	pub, err := p.streamPublisher(ctx)
	if err != nil {
		die(p, logger, "failed to connect event stream", err)
	}
	return p, relay.New(blobs, pub, cfg.Stream.Topic, cfg.Stream.MaxMessageBytes, logger), blobs
}

func runRelayForward(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	p, r, _ := openRelay(ctx)
	defer p.Close()

	var failed int
	for _, key := range args {
		ok, err := r.Forward(ctx, key)
		switch {
		case err != nil:
			p.logger.Error("forward failed", "key", key, "error", err)
			failed++
		case !ok:
			p.logger.Info("skipped non-csv object", "key", key)
		}
	}
	if failed > 0 {
		die(p, p.logger, "relay finished with failures", fmt.Errorf("%d of %d objects failed", failed, len(args)))
	}
	return nil
}

func runRelayWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p, r, blobs := openRelay(ctx)
	defer p.Close()

	if err := r.Watch(ctx, blobs, relayPrefix); err != nil {
		die(p, p.logger, "relay watch failed", err)
	}
	p.logger.Info("goodbye")
	return nil
}
