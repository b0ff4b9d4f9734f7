package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for iptvscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "iptvscan",
		Short: "Reachability prober for IPTV playlists",
		Long: `iptvscan checks which streams of an IPTV playlist are reachable.

It downloads (or reads) an M3U playlist, probes every stream link with
bounded concurrency, and writes the results as CSV, text, M3U, Markdown,
JSON or SQLite. Links with non-HTTP schemes (rtmp://, rtsp://, udp://, ...)
are reported as needing a manual check.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
