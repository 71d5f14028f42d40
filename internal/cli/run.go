package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/ppiankov/rtrarchive/internal/logging"
	"github.com/ppiankov/rtrarchive/internal/model"
	"github.com/ppiankov/rtrarchive/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var noCache bool

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Reconcile the activity catalog and write the workbook",
	Long: `Run fetches every activity in the catalog for the given date, follows
its rule-management objects to their applicable rules and writes one
workbook row per activity with the last-change date per category.

Activities that cannot be fetched are skipped and leave an empty row.

Example:
  rtrarchive run
  rtrarchive run --env pre --date 01-03-2026
  rtrarchive run --sttr --location --catalog hdsr.yaml`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	f := runCmd.Flags()
	f.String("env", model.EnvProd, "API environment (prod, pre)")
	f.String("date", "", "reference date dd-mm-yyyy (default: today)")
	f.Bool("sttr", false, "download the STTR document of every indexed rule")
	f.Bool("location", false, "write the area map per activity description")
	f.String("catalog", "activities.yaml", "activity catalog file")
	f.String("base-url", "", "override the API base URL")
	f.String("key-dir", ".", "directory holding <env>_API_key.txt")
	f.String("out-dir", "output", "workbook output directory")
	f.String("log-dir", "log", "directory for the area map and archived documents")
	f.Duration("timeout", 30*time.Second, "per-request timeout")
	f.Float64("rps", 5, "maximum requests per second (0 disables pacing)")
	f.String("http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY)")
	f.String("https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY)")
	f.BoolVar(&noCache, "no-cache", false, "do not reuse responses within the run")

	bindings := map[string]string{
		"api.env":                        "env",
		"run.date":                       "date",
		"run.archive_documents":          "sttr",
		"run.track_locations":            "location",
		"run.catalog":                    "catalog",
		"api.base_url":                   "base-url",
		"api.key_dir":                    "key-dir",
		"output.dir":                     "out-dir",
		"output.log_dir":                 "log-dir",
		"http.timeout":                   "timeout",
		"rate_limit.requests_per_second": "rps",
		"http.http_proxy":                "http-proxy",
		"http.https_proxy":               "https-proxy",
	}
	for key, flag := range bindings {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(viper.GetViper(), time.Now())
	if err != nil {
		return err
	}
	if noCache {
		cfg.Cache.Enabled = false
	}

	logger, closeLog := logging.Configure(&cfg.Log)
	defer func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: close log output: %v\n", err)
		}
	}()

	apiKey, err := ResolveAPIKey(cfg)
	if err != nil {
		return err
	}

	catalog, err := model.LoadCatalog(cfg.Run.Catalog)
	if err != nil {
		return err
	}
	if err := catalog.Validate(); err != nil {
		return fmt.Errorf("invalid catalog %s: %w", cfg.Run.Catalog, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logging.WithLogger(ctx, &logger)

	logger.Info().
		Str("env", cfg.API.Env).
		Str("date", cfg.Run.Date).
		Int("activities", len(catalog.Activities)).
		Bool("sttr", cfg.Run.ArchiveDocuments).
		Bool("location", cfg.Run.TrackLocations).
		Msg("starting run")

	p, workbook, err := pipeline.Build(cfg, catalog, apiKey)
	if err != nil {
		return err
	}

	summary, runErr := p.Run(ctx, catalog.Activities)

	// Save whatever was reconciled, also after an interrupt.
	closeErr := workbook.Close()
	if closeErr != nil {
		closeErr = fmt.Errorf("save workbook: %w", closeErr)
	} else {
		logger.Info().Str("path", workbook.Path()).Msg("workbook saved")
	}

	if summary != nil {
		summary.Render(cmd.ErrOrStderr())
		logger.Info().Msg(summary.String())
	}

	return errors.Join(runErr, closeErr)
}
