package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	tiktok "github.com/RavensCloud/tiktok-metrics"
	"github.com/RavensCloud/tiktok-metrics/internal/config"
	"github.com/RavensCloud/tiktok-metrics/internal/logger"
)

type scrapeFlags struct {
	file          string
	combined      bool
	maxVideos     int
	engine        string
	headful       bool
	proxy         string
	outputDir     string
	lookupProfile bool
}

func newScrapeCmd() *cobra.Command {
	var f scrapeFlags
	cmd := &cobra.Command{
		Use:   "scrape [profile-url...]",
		Short: "Scrape engagement metrics for every video on one or more profiles",
		Example: `  # Scrape two profiles into one combined CSV
  tiktok scrape https://www.tiktok.com/@alice https://www.tiktok.com/@bob --combined

  # Read URLs from a file, at most 20 videos each, with a visible browser
  tiktok scrape --file profiles.txt --max-videos 20 --headful

  # Prompt for URLs
  tiktok scrape`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrape(cmd, args, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.file, "file", "f", "", "read profile URLs from a file, one per line")
	fl.BoolVar(&f.combined, "combined", false, "write all profiles to one combined CSV")
	fl.IntVarP(&f.maxVideos, "max-videos", "n", 0, "videos per profile, 0 for all")
	fl.StringVar(&f.engine, "engine", tiktok.EngineRod, "browser engine (rod, chromedp)")
	fl.BoolVar(&f.headful, "headful", false, "show the browser window")
	fl.StringVar(&f.proxy, "proxy", "", "proxy URL (http/https/socks5)")
	fl.StringVarP(&f.outputDir, "output-dir", "o", "", "directory for CSV files (default data)")
	fl.BoolVar(&f.lookupProfile, "lookup-profile", false, "check the loaded feed against the profile's declared video count")
	return cmd
}

// changedFlags returns only the flags the user actually set, so defaults
// never override the config file or environment.
func changedFlags(cmd *cobra.Command, f scrapeFlags) map[string]any {
	values := map[string]any{
		"combined":       f.combined,
		"max-videos":     f.maxVideos,
		"engine":         f.engine,
		"headful":        f.headful,
		"proxy":          f.proxy,
		"output-dir":     f.outputDir,
		"lookup-profile": f.lookupProfile,
		"log-level":      logLevel,
	}
	out := map[string]any{}
	for name, v := range values {
		if cmd.Flags().Changed(name) {
			out[name] = v
		}
	}
	return out
}

func runScrape(cmd *cobra.Command, args []string, f scrapeFlags) error {
	cfg, err := config.Load(configFile, changedFlags(cmd, f))
	if err != nil {
		return err
	}

	log, closeLog, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return err
	}
	defer closeLog()

	targets, mode, err := collectTargets(cmd, args, f, cfg.Mode())
	if err != nil {
		if errors.Is(err, errQuit) {
			fmt.Fprintln(cmd.OutOrStdout(), "Goodbye!")
			return nil
		}
		return err
	}

	launch, err := tiktok.NewLauncher(cfg.BrowserOptions(log))
	if err != nil {
		return err
	}

	opts := cfg.OrchestratorOptions(log)
	if cfg.Scrape.LookupProfile {
		lookup := tiktok.New().
			WithProfileDelay(cfg.Scrape.LookupDelay).
			WithUserAgent(cfg.Browser.UserAgent).
			WithLogger(log)
		if err := lookup.SetProxy(cfg.Browser.Proxy); err != nil {
			return fmt.Errorf("profile lookup: %w", err)
		}
		defer lookup.Close()
		opts.Lookup = lookup
	}

	batch := tiktok.NewBatch(
		tiktok.NewOrchestrator(launch, opts),
		tiktok.NewCSVSink(cfg.Output.Dir),
		tiktok.BatchOptions{
			Mode:            mode,
			BetweenProfiles: tiktok.Range(cfg.Pacing.BetweenProfiles),
			Logger:          log,
		},
	)
	sum, err := batch.Run(cmd.Context(), targets)
	printSummary(cmd.OutOrStdout(), sum)
	if err != nil {
		return err
	}
	if sum.Succeeded == 0 {
		log.Warn().Msg("no data was extracted from any profile")
	}
	return nil
}

// collectTargets gathers targets from args and --file, falling back to the
// interactive prompt when there are none and stdin is a terminal.
func collectTargets(cmd *cobra.Command, args []string, f scrapeFlags, mode tiktok.OutputMode) ([]tiktok.ProfileTarget, tiktok.OutputMode, error) {
	urls := append([]string{}, args...)
	if f.file != "" {
		fromFile, err := readURLFile(f.file)
		if err != nil {
			return nil, "", err
		}
		urls = append(urls, fromFile...)
	}

	if len(urls) > 0 {
		targets, err := parseTargets(urls)
		if err != nil {
			return nil, "", err
		}
		return targets, mode, nil
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return nil, "", errors.New("no profile URLs given; pass them as arguments or with --file")
	}

	p := newPrompter(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
	targets, err := p.targets()
	if err != nil {
		return nil, "", err
	}
	if !cmd.Flags().Changed("combined") {
		if mode, err = p.outputMode(); err != nil {
			return nil, "", err
		}
	}
	return targets, mode, nil
}

func printSummary(w io.Writer, sum tiktok.RunSummary) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Profiles queued:    %d\n", sum.Queued)
	fmt.Fprintf(w, "Succeeded:          %d\n", sum.Succeeded)
	fmt.Fprintf(w, "Failed:             %d\n", sum.Failed)
	for _, p := range sum.Profiles {
		fmt.Fprintf(w, "  @%s: %d videos, %d views, %d likes, %d bookmarks, %d comments\n",
			p.ProfileName, p.Videos, p.Views, p.Likes, p.Bookmarks, p.Comments)
	}
	if sum.Total.Videos > 0 {
		fmt.Fprintf(w, "Total: %d videos, %d views, %d likes, %d bookmarks, %d comments\n",
			sum.Total.Videos, sum.Total.Views, sum.Total.Likes, sum.Total.Bookmarks, sum.Total.Comments)
	}
	for _, file := range sum.Files {
		fmt.Fprintf(w, "Saved %s\n", file)
	}
}
