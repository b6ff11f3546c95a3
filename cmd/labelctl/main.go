package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/baglabel/backend/config"
	"github.com/baglabel/backend/internal/domain"
	"github.com/baglabel/backend/internal/infrastructure/cache"
	"github.com/baglabel/backend/internal/infrastructure/dryingwiki"
	"github.com/baglabel/backend/internal/infrastructure/fetcher"
	"github.com/baglabel/backend/internal/infrastructure/logging"
	"github.com/baglabel/backend/internal/infrastructure/storefront"
	"github.com/baglabel/backend/internal/usecase"
	"github.com/baglabel/backend/internal/version"
)

// Command line flags
var (
	logLevel  string
	withImage bool
	syncOut   string
	syncURL   string
)

// Initialized in PersistentPreRunE
var (
	cfg    *config.Config
	logger *logrus.Logger
	closer io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "labelctl",
	Short: "Filament bag label tooling",
	Long: `labelctl resolves storefront product links into label records and
maintains the filament drying table.

Examples:
  labelctl extract "https://us.store.bambulab.com/products/pla-basic-filament?variant=123"
  labelctl drying lookup PETG-CF
  labelctl drying sync --out internal/usecase/data/drying_parameters.yaml`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}
		cfg = loaded

		logCfg := logging.Config{
			Level:      cfg.Log.Level,
			Format:     cfg.Log.Format,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
			Output:     os.Stderr,
		}
		if logLevel != "" {
			logCfg.Level = logLevel
		}

		logger, closer, err = logging.New(logCfg)
		if err != nil {
			return fmt.Errorf("initialize logging: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer != nil {
			closer.Close()
		}
	},
}

var extractCmd = &cobra.Command{
	Use:   "extract <product-url>",
	Short: "Resolve a product URL into a label record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drying, err := usecase.LoadDryingTable(cfg.Drying.TableFile)
		if err != nil {
			return err
		}

		service := usecase.NewProductService(
			cache.NewMemoryCache(cfg.Cache.MaxEntries, cfg.Cache.TTL),
			newFetcher(),
			storefront.NewExtractor(logger),
			drying,
			usecase.ProductServiceConfig{
				CacheTTL: cfg.Cache.TTL,
				URLPolicy: usecase.URLPolicy{
					AllowedHosts:      cfg.Storefront.AllowedHosts,
					ProductPathMarker: cfg.Storefront.ProductPathMarker,
				},
				EmbedImages: withImage,
			},
			logger,
		)

		result, err := service.ExtractProduct(cmd.Context(), &domain.ExtractRequest{URL: args[0]})
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), result.Record)
	},
}

var dryingCmd = &cobra.Command{
	Use:   "drying",
	Short: "Inspect or regenerate the drying table",
}

var dryingLookupCmd = &cobra.Command{
	Use:   "lookup <filament-type>",
	Short: "Show drying parameters for a filament type or product title",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		drying, err := usecase.LoadDryingTable(cfg.Drying.TableFile)
		if err != nil {
			return err
		}

		key, params, ok := drying.Resolve(args[0])
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownFilament, args[0])
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %s for %s\n", key, params.Temperature, params.Duration)
		if w := drying.WarningFor(key); w != nil {
			fmt.Fprintf(out, "warning: %s\n", w.FullText)
		}
		return nil
	},
}

var dryingListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the drying table",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		drying, err := usecase.LoadDryingTable(cfg.Drying.TableFile)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, e := range drying.Entries() {
			fmt.Fprintf(out, "%-24s %6s %4s\n", e.FilamentType, e.Temperature, e.Duration)
		}
		return nil
	},
}

var dryingSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Regenerate the drying table from the vendor wiki",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		wikiURL := syncURL
		if wikiURL == "" {
			wikiURL = cfg.Drying.WikiURL
		}

		scraper := dryingwiki.NewScraper(newFetcher(), wikiURL, logger)
		entries, err := scraper.Scrape(cmd.Context())
		if err != nil {
			return err
		}

		// Validate before writing so a broken page never replaces a good table.
		if _, err := usecase.NewDryingTable(entries); err != nil {
			return fmt.Errorf("scraped table is invalid: %w", err)
		}

		data, err := usecase.MarshalDryingTable(entries)
		if err != nil {
			return err
		}
		header := "# Recommended drying parameters per filament type (forced-air oven / dedicated dryer).\n" +
			"# Source: " + wikiURL + "\n" +
			"# Generated by labelctl drying sync. Do not edit by hand.\n"
		data = append([]byte(header), data...)

		if syncOut == "" || syncOut == "-" {
			_, err = cmd.OutOrStdout().Write(data)
			return err
		}
		if err := os.WriteFile(syncOut, data, 0o644); err != nil {
			return err
		}
		logger.WithFields(logrus.Fields{"entries": len(entries), "file": syncOut}).Info("drying table written")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Service, version.Version)
	},
}

func newFetcher() *fetcher.Client {
	c := cfg.Fetcher
	return fetcher.NewClient(fetcher.Config{
		Timeout:           c.Timeout,
		UserAgent:         c.UserAgent,
		Accept:            c.Accept,
		AcceptLanguage:    c.AcceptLanguage,
		RequestsPerSecond: c.RequestsPerSecond,
		Burst:             c.Burst,
		MaxBodyBytes:      c.MaxBodyBytes,
		MaxRetries:        c.MaxRetries,
	}, logger)
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace|debug|info|warn|error)")

	extractCmd.Flags().BoolVar(&withImage, "with-image", false, "download the product image into imageData")

	dryingSyncCmd.Flags().StringVarP(&syncOut, "out", "o", "", "output file (stdout when empty or -)")
	dryingSyncCmd.Flags().StringVar(&syncURL, "url", "", "wiki page URL (defaults to drying.wiki_url)")

	dryingCmd.AddCommand(dryingLookupCmd, dryingListCmd, dryingSyncCmd)
	rootCmd.AddCommand(extractCmd, dryingCmd, versionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "labelctl: %v\n", err)
		os.Exit(1)
	}
}
