package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	tiktok "github.com/RavensCloud/tiktok-metrics"
	"github.com/RavensCloud/tiktok-metrics/internal/config"
	"github.com/RavensCloud/tiktok-metrics/internal/logger"
)

func newUserCmd() *cobra.Command {
	var proxyURL string
	cmd := &cobra.Command{
		Use:   "user <username>",
		Short: "Look up a profile's follower and video counts (plain HTTP, no browser)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := map[string]any{}
			if cmd.Flags().Changed("log-level") {
				flags["log-level"] = logLevel
			}
			if cmd.Flags().Changed("proxy") {
				flags["proxy"] = proxyURL
			}
			cfg, err := config.Load(configFile, flags)
			if err != nil {
				return err
			}
			log, closeLog, err := logger.New(logger.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
			if err != nil {
				return err
			}
			defer closeLog()

			s := tiktok.New().WithUserAgent(cfg.Browser.UserAgent).WithLogger(log)
			defer s.Close()
			if err := s.SetProxy(cfg.Browser.Proxy); err != nil {
				return fmt.Errorf("set proxy: %w", err)
			}

			author, err := s.LookupProfile(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("get user: %w", err)
			}
			printAuthor(cmd.OutOrStdout(), author)
			return nil
		},
	}
	cmd.Flags().StringVar(&proxyURL, "proxy", "", "proxy URL (http/https/socks5)")
	return cmd
}

// printAuthor shows what the profile declares, which is what the scrape
// cross-check compares the loaded feed against.
func printAuthor(w io.Writer, a tiktok.Author) {
	name := "@" + a.Username
	if a.Verified {
		name += " (verified)"
	}
	fmt.Fprintf(w, "%s  %s\n", name, a.Nickname)
	fmt.Fprintf(w, "  videos:    %d\n", a.VideoCount)
	fmt.Fprintf(w, "  followers: %d\n", a.FollowerCount)
	fmt.Fprintf(w, "  following: %d\n", a.FollowingCount)
	fmt.Fprintf(w, "  likes:     %d\n", a.LikeCount)
	if a.Bio != "" {
		fmt.Fprintf(w, "  bio:       %s\n", a.Bio)
	}
}
