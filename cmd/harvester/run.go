package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/lien-harvester/internal/cancel"
	"github.com/jonathan/lien-harvester/internal/config"
	"github.com/jonathan/lien-harvester/internal/crawl"
	"github.com/jonathan/lien-harvester/internal/observability"
	"github.com/jonathan/lien-harvester/internal/schemas"
)

var runCommand = &cobra.Command{
	Use:   "run",
	Short: "Run a fresh crawl from a search request",
	Long: `Logs in (reusing the saved session when still valid), submits the name
search described by --request, discovers every document URL into a checkpoint,
then extracts each document: detail fields, a captured PDF, and OCR-derived
total due, addresses and description.

Interrupting with Ctrl-C stops cleanly; re-running with "resume" picks up the
checkpoint where it left off.`,
	RunE: runCrawlCmd,
}

var (
	runConfigPath  string
	runRequestPath string
	runOutputDir   string
	runStateFile   string
	runHeadless    bool
	runVerbose     bool
)

func init() {
	runCommand.Flags().StringVar(&runConfigPath, "config", "", "Path to config.json (values can be overridden by other flags)")
	runCommand.Flags().StringVarP(&runRequestPath, "request", "r", "", "Path to the search request JSON (required)")
	runCommand.Flags().StringVarP(&runOutputDir, "output", "o", "", "Output directory root")
	runCommand.Flags().StringVar(&runStateFile, "state", "", "Browser session state file")
	runCommand.Flags().BoolVar(&runHeadless, "headless", false, "Run the browser headless")
	runCommand.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "Print detailed progress information")

	_ = runCommand.MarkFlagRequired("request")

	rootCmd.AddCommand(runCommand)
}

// loadCrawlerConfig merges config file, environment and explicit flags, in
// that order of increasing precedence.
func loadCrawlerConfig(cmd *cobra.Command, configPath string) (*config.Crawler, error) {
	cfg := config.FromEnv()
	if configPath != "" {
		fileCfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, err
		}
		// Credentials stay in the environment unless the file sets them.
		if fileCfg.Username == "" {
			fileCfg.Username = cfg.Username
		}
		if fileCfg.Password == "" {
			fileCfg.Password = cfg.Password
		}
		cfg = fileCfg
	}

	if cmd.Flags().Changed("output") {
		cfg.OutputDir = runOutputDir
	}
	if cmd.Flags().Changed("state") {
		cfg.StateFile = runStateFile
	}
	if cmd.Flags().Changed("headless") {
		cfg.Headless = runHeadless
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = runVerbose
	}
	return cfg, cfg.Validate()
}

// cancelOnInterrupt raises the stop flag on the first SIGINT/SIGTERM so the
// crawl unwinds at its next suspension point. A second signal kills the
// process the usual way.
func cancelOnInterrupt(flag *cancel.Flag) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		log.Printf("[CRAWL] Interrupt received, finishing current document")
		flag.Set()
		signal.Stop(ch)
	}()
}

func runCrawlCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCrawlerConfig(cmd, runConfigPath)
	if err != nil {
		return err
	}

	raw, err := os.ReadFile(runRequestPath)
	if err != nil {
		return fmt.Errorf("read search request: %w", err)
	}
	req, err := schemas.ValidateSearchRequest(raw)
	if err != nil {
		return err
	}

	printer := observability.NewPrinter(os.Stdout)
	if cfg.Verbose {
		printer.PrintSearchRequest(req)
	}

	flag := &cancel.Flag{}
	cancelOnInterrupt(flag)

	opts := crawl.Options{
		Config:  cfg,
		Request: req,
		Token:   flag,
	}
	if cfg.Verbose {
		opts.OnRecord = printer.PrintRecord
	}

	summary, err := crawl.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	printer.PrintRunSummary(summary)
	return nil
}
