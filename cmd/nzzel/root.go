package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

const defaultServerURL = "http://localhost:8484"

var (
	serverURL   string
	jsonOutput  bool
	quietOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "nzzel",
	Short: "CLI client for the nzzel download server",
	Long: `nzzel - CLI client for the nzzel download server

Inspect videos and playlists, start and manage yt-dlp downloads,
and follow their progress.

Run 'nzzeld' to start the server daemon.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultServer() string {
	if s := os.Getenv("NZZEL_SERVER"); s != "" {
		return s
	}
	return defaultServerURL
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", defaultServer(), "Server URL (env NZZEL_SERVER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&quietOutput, "quiet", "q", false, "Suppress informational output")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("nzzel {{.Version}}\n")
}
