package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/willibrandon/datascope/internal/gateway"
	"github.com/willibrandon/datascope/internal/logger"
	"github.com/willibrandon/datascope/internal/orchestrator"
	"github.com/willibrandon/datascope/internal/ui/components"
)

const (
	pingGraphWidth  = 40
	pingGraphHeight = 6
)

var (
	compressFlag string
	pingCount    int
	pingInterval time.Duration
)

// newDownloadCmd creates the download subcommand
func newDownloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <file.db> <output>",
		Short: "Save the database as the data service holds it",
		Long: `Upload a database and save the service's copy to a local file.

With --compress the file is written gzip, lz4 or zstd compressed and the
matching extension (.gz, .lz4, .zst) is appended to the output path.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			compression, err := gateway.ParseCompression(compressFlag)
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			msg, err := s.run(s.orch.Download(args[1], compression))
			if err != nil {
				return err
			}
			res := msg.(orchestrator.DownloadDoneMsg).Result

			out := cmd.OutOrStdout()
			if res.Compression == gateway.CompressionNone {
				successColor.Fprintf(out, "Saved %s (%s)\n", res.Path, humanize.Bytes(uint64(res.Bytes)))
				return nil
			}
			successColor.Fprintf(out, "Saved %s (%s, %s compressed from %s)\n", res.Path,
				humanize.Bytes(uint64(res.StoredBytes)), res.Compression, humanize.Bytes(uint64(res.Bytes)))
			return nil
		},
	}
	cmd.Flags().StringVarP(&compressFlag, "compress", "c", "none", "compression: none, gzip, lz4 or zstd")
	return cmd
}

// newPingCmd creates the ping subcommand
func newPingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the data service is reachable",
		Long: `Send health checks to the data service and report the round-trip time.
With --count above 1 a latency graph is drawn at the end.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			initLogging(cfg)
			defer logger.Close()

			client := newClient(cfg)
			return runPing(cmd, client, pingCount, pingInterval)
		},
	}
	cmd.Flags().IntVarP(&pingCount, "count", "n", 1, "number of health checks")
	cmd.Flags().DurationVarP(&pingInterval, "interval", "i", time.Second, "wait between health checks")
	return cmd
}

// latencyPinger is the part of the client ping needs.
type latencyPinger interface {
	Ping(ctx context.Context) error
	BaseURL() string
	Latency() *gateway.LatencyTracker
}

// runPing checks the service count times. It fails when no check succeeded.
func runPing(cmd *cobra.Command, client latencyPinger, count int, interval time.Duration) error {
	if count < 1 {
		count = 1
	}
	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	var lastErr error
	ok := 0
	for i := 0; i < count; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		start := time.Now()
		err := client.Ping(ctx)
		elapsed := time.Since(start)
		if err != nil {
			lastErr = err
			fmt.Fprintf(out, "%s: %s\n", client.BaseURL(), gateway.Message(err))
			continue
		}
		ok++
		fmt.Fprintf(out, "%s: ok time=%s\n", client.BaseURL(), elapsed.Round(time.Microsecond))
	}

	if samples := client.Latency().Samples(); count > 1 && len(samples) > 1 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, components.LatencyGraph(samples, pingGraphWidth, pingGraphHeight))
		fmt.Fprintf(out, "trend %s\n", components.ClassifyLatency(samples).Arrow())
	}

	fmt.Fprintf(out, "%d/%d checks succeeded", ok, count)
	if ok > 0 {
		fmt.Fprintf(out, ", smoothed latency %s", client.Latency().Average(gateway.OpPing).Round(time.Microsecond))
	}
	fmt.Fprintln(out)
	if ok == 0 {
		return lastErr
	}
	return nil
}
