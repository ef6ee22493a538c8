package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ent0n29/meetingsnap/internal/app"
	"github.com/ent0n29/meetingsnap/internal/config"
	"github.com/ent0n29/meetingsnap/internal/export"
	"github.com/ent0n29/meetingsnap/internal/extractor"
	"github.com/ent0n29/meetingsnap/internal/policy"
	"github.com/ent0n29/meetingsnap/internal/snapshot"
)

var (
	snapFormat   string
	snapProvider string
)

var snapCmd = &cobra.Command{
	Use:   "snap [file]",
	Short: "Extract a snapshot from a transcript file or stdin",
	Long: `Extract a snapshot from a transcript file or stdin and print it.

Examples:
  # Markdown from a file
  meetingsnap snap notes.txt

  # JSON from stdin using the fake provider
  cat notes.txt | meetingsnap snap --format json --provider fake -`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSnap,
}

func init() {
	snapCmd.Flags().StringVar(&snapFormat, "format", "markdown", "output format: markdown or json")
	snapCmd.Flags().StringVar(&snapProvider, "provider", "", "provider override (logic, fake, openai)")
}

type snapOutput struct {
	Path     string            `json:"path"`
	Fallback bool              `json:"fallback"`
	Digest   string            `json:"digest"`
	Snapshot snapshot.Snapshot `json:"snapshot"`
}

func runSnap(cmd *cobra.Command, args []string) error {
	var (
		content []byte
		err     error
	)
	if len(args) == 0 || args[0] == "-" {
		content, err = io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
	} else {
		content, err = os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if strings.TrimSpace(snapProvider) != "" {
		cfg.Provider = snapProvider
	}
	logger, err := newLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return writeSnap(cmd.Context(), cfg, string(content), snapFormat, cmd.OutOrStdout(), logger)
}

// writeSnap extracts a snapshot from text and writes it to out in format.
func writeSnap(ctx context.Context, cfg config.Config, text, format string, out io.Writer, logger *zap.Logger) error {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != "markdown" && format != "json" {
		return fmt.Errorf("unknown format %q (expected markdown or json)", format)
	}

	registry := app.NewRegistry(cfg, nil)
	if err := app.ProviderCheck(registry)(cfg); err != nil {
		return err
	}

	decision := policy.ReviewInput(text, cfg.MaxChars)
	if decision.Rejected {
		return fmt.Errorf("%s", decision.Message)
	}

	res := extractor.Result{Snapshot: snapshot.Empty(), Path: cfg.Provider}
	if !decision.Empty {
		res = extractor.New(registry, logger).Extract(ctx, policy.PlainText(text), cfg.Provider, cfg.Timeout)
	}

	if format == "markdown" {
		_, err := out.Write(export.Markdown(res.Snapshot))
		return err
	}

	digest, err := snapshot.Digest(res.Snapshot)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(snapOutput{
		Path:     res.Path,
		Fallback: res.Fallback(),
		Digest:   digest,
		Snapshot: res.Snapshot,
	})
}
