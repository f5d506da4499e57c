package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/lien-harvester/internal/cancel"
	"github.com/jonathan/lien-harvester/internal/checkpoint"
	"github.com/jonathan/lien-harvester/internal/crawl"
	"github.com/jonathan/lien-harvester/internal/observability"
)

var resumeCommand = &cobra.Command{
	Use:   "resume",
	Short: "Resume an interrupted crawl from its checkpoint",
	Long: `Continues extraction over the pending rows of an existing checkpoint
ledger. Discovery is skipped entirely; a fully processed checkpoint returns
without touching the portal at all.`,
	RunE: resumeCrawlCmd,
}

var (
	resumeConfigPath     string
	resumeCheckpointPath string
	resumeVerbose        bool
)

func init() {
	resumeCommand.Flags().StringVar(&resumeConfigPath, "config", "", "Path to config.json")
	resumeCommand.Flags().StringVarP(&resumeCheckpointPath, "checkpoint", "c", "", "Path to the checkpoint CSV (required)")
	resumeCommand.Flags().BoolVarP(&resumeVerbose, "verbose", "v", false, "Print detailed progress information")

	_ = resumeCommand.MarkFlagRequired("checkpoint")

	rootCmd.AddCommand(resumeCommand)
}

func resumeCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCrawlerConfig(cmd, resumeConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = resumeVerbose
	}

	if _, err := os.Stat(resumeCheckpointPath); err != nil {
		return fmt.Errorf("checkpoint not readable: %w", err)
	}

	printer := observability.NewPrinter(os.Stdout)
	opts := crawl.Options{
		Config:         cfg,
		CheckpointPath: resumeCheckpointPath,
	}
	if cfg.Verbose {
		store, err := checkpoint.Open(resumeCheckpointPath)
		if err != nil {
			return err
		}
		printer.PrintPendingRows(store.Pending())
		opts.OnRecord = printer.PrintRecord
	}

	flag := &cancel.Flag{}
	cancelOnInterrupt(flag)
	opts.Token = flag

	summary, err := crawl.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	printer.PrintRunSummary(summary)
	return nil
}
