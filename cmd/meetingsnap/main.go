// Package main runs the Meeting Snap service and its command-line helpers.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ent0n29/meetingsnap/internal/config"
)

var (
	// configPath overrides MEETING_SNAP_CONFIG.
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "meetingsnap",
	Short: "Turn meeting transcripts into decision and action snapshots",
	Long: `meetingsnap extracts decisions, actions, open questions, risks and the
next check-in from a meeting transcript.

Run "meetingsnap serve" for the web form and JSON API, or "meetingsnap snap"
to process a file from the command line.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $MEETING_SNAP_CONFIG)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func loadConfig() (config.Config, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("MEETING_SNAP_CONFIG"))
	}
	return config.LoadFile(path)
}

// newLogger builds a production logger, or a development one when format is
// "console".
func newLogger(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zcfg := zap.NewProductionConfig()
	if format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(lvl)
	return zcfg.Build()
}
