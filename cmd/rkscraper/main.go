package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/config"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/logging"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/internal/sources"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/analyzer"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/browser"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/crawler"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/extractor"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/images"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/reporter"
	"github.com/studentzuraw/Rynek-Kolejowy-Webscraper/pkg/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "rkscraper",
	Short: "rkscraper - incremental news scraper for rynek-kolejowy.pl",
	Long: `rkscraper walks the Rynek Kolejowy topic pages, skips every article
already persisted and stores the new ones with their lead, byline and photo.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
}

var crawlCmd = &cobra.Command{
	Use:   "crawl",
	Short: "Crawl the topic pages and persist new articles",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")
		return runCrawl(cmd, format, output)
	},
}

var initdbCmd = &cobra.Command{
	Use:   "initdb",
	Short: "Create the database tables if they are missing",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInitDB(cmd)
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the persisted news archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return runStats(cmd, format)
	},
}

// setup loads the environment, the configuration and the logger shared by
// every subcommand.
func setup(cmd *cobra.Command) (*config.Config, logging.Logger, error) {
	// A missing .env is fine, the environment may be set directly.
	_ = godotenv.Load()

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	level := cfg.Logging.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	log, err := logging.New(level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return cfg, log, nil
}

func runCrawl(cmd *cobra.Command, format, output string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx := cmd.Context()

	srcs, err := sources.Load(cfg.Crawler.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	if err := ensureTables(ctx, st, log); err != nil {
		return err
	}

	downloader, err := images.New(cfg.Images.Dir, cfg.Images.DownloadTimeout)
	if err != nil {
		return fmt.Errorf("failed to prepare image dir: %w", err)
	}

	session, err := browser.NewSession(browser.Config{
		Headless:        cfg.Browser.Headless,
		UserAgent:       cfg.Browser.UserAgent,
		PageLoadTimeout: cfg.Browser.PageLoadTimeout,
		ElementWait:     cfg.Browser.ElementWait,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	var robots *crawler.RobotsGate
	if cfg.Crawler.FollowRobotsTxt {
		robots = crawler.NewRobotsGate("rkscraper")
	}

	ext := extractor.New(extractor.Config{
		Session:     session,
		Store:       st,
		Images:      downloader,
		Selectors:   srcs.Selectors,
		SettleDelay: cfg.Browser.SettleDelay,
		Logger:      log,
	})

	c, err := crawler.New(crawler.Config{
		Session:           session,
		Store:             st,
		Discoverer:        crawler.NewDiscoverer(session, srcs.Selectors, cfg.Browser.SettleDelay, log),
		Extractor:         ext,
		Robots:            robots,
		MainPageURL:       cfg.Crawler.MainPageURL,
		Pages:             srcs.Pages,
		Cookies:           sessionCookies(cfg.Browser.Cookies),
		RequestsPerSecond: float64(cfg.Crawler.RequestsPerSecond),
		Logger:            log,
	})
	if err != nil {
		return fmt.Errorf("failed to create crawler: %w", err)
	}

	// Run always returns statistics, even for an aborted crawl, so the
	// report covers whatever was processed before a failure.
	stats, runErr := c.Run(ctx)

	report, renderErr := reporter.New().Render(stats, format)
	if renderErr == nil {
		if output != "" {
			if err := os.WriteFile(output, []byte(report), 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Printf("Report saved to %s\n", output)
		} else {
			fmt.Println(report)
		}
	}

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return renderErr
}

func runInitDB(cmd *cobra.Command) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	exists, err := st.TablesExist(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to check tables: %w", err)
	}
	if exists {
		log.Info("tables already present", logging.String("path", cfg.Store.Path))
		return nil
	}
	if err := st.CreateTables(cmd.Context()); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	log.Info("tables created", logging.String("path", cfg.Store.Path))
	return nil
}

func runStats(cmd *cobra.Command, format string) error {
	cfg, log, err := setup(cmd)
	if err != nil {
		return err
	}
	defer log.Sync()

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	exists, err := st.TablesExist(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to check tables: %w", err)
	}
	if !exists {
		return fmt.Errorf("no tables in %s, run initdb first", cfg.Store.Path)
	}

	summary, err := analyzer.New(st).Summarize(cmd.Context())
	if err != nil {
		return err
	}

	report, err := reporter.New().RenderArchive(summary, format)
	if err != nil {
		return err
	}
	fmt.Println(report)
	return nil
}

func ensureTables(ctx context.Context, st *store.Store, log logging.Logger) error {
	exists, err := st.TablesExist(ctx)
	if err != nil {
		return fmt.Errorf("failed to check tables: %w", err)
	}
	if exists {
		return nil
	}
	log.Info("creating database tables")
	if err := st.CreateTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

func sessionCookies(cookies []config.Cookie) []browser.Cookie {
	out := make([]browser.Cookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, browser.Cookie{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   c.Path,
			Secure: c.Secure,
		})
	}
	return out
}

func init() {
	// Crawl command flags
	crawlCmd.Flags().String("format", "table", "Report format (table, markdown, json)")
	crawlCmd.Flags().String("output", "", "Output file for the run report")

	// Stats command flags
	statsCmd.Flags().String("format", "table", "Summary format (table, markdown, json)")

	// Add commands to root
	rootCmd.AddCommand(crawlCmd)
	rootCmd.AddCommand(initdbCmd)
	rootCmd.AddCommand(statsCmd)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Config file path")
	rootCmd.PersistentFlags().Bool("verbose", false, "Enable verbose output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
