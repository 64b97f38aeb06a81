package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"Mansoor88-6/session-tracker/internal/client"
	"Mansoor88-6/session-tracker/internal/config"
	"Mansoor88-6/session-tracker/internal/message"
	"Mansoor88-6/session-tracker/internal/models"
	"Mansoor88-6/session-tracker/internal/tray"
)

const clientTimeout = 10 * time.Second

type rootOptions struct {
	configPath string
	agentURL   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "session-tracker",
		Short:         "Focus session tracking agent",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "config/local.yaml", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.agentURL, "agent", "", "Agent base URL (default http://localhost:<server.port>)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newStartCmd(opts))
	root.AddCommand(newStopCmd(opts))
	root.AddCommand(newTodayCmd(opts))
	root.AddCommand(newSitesCmd(opts))
	root.AddCommand(newImportCmd(opts))
	root.AddCommand(newClearCmd(opts))
	return root
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the tracking agent",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runAgent(opts.configPath)
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			status, err := agent.Status(cmd.Context())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), tray.StatusLine(status))
			return nil
		},
	}
}

func newStartCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "start <type>",
		Short: "Start a session (work|study|break|personal or a custom type)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			req := message.StartSession{SessionType: models.SessionType(args[0])}
			if err := agent.Send(cmd.Context(), req, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "started %s session\n", args[0])
			return nil
		},
	}
}

func newStopCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the running session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			if err := agent.Send(cmd.Context(), message.StopSession{}, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "session stopped")
			return nil
		},
	}
}

func newTodayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "today",
		Short: "Show today's totals",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			stats, err := agent.TodayStats(cmd.Context())
			if err != nil {
				return err
			}
			topSite := "-"
			if stats.TopSite != nil {
				topSite = *stats.TopSite
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sessions=%d tracked=%s top=%s\n",
				stats.SessionCount,
				tray.FormatDuration(time.Duration(stats.TotalTime)*time.Millisecond),
				topSite,
			)
			return nil
		},
	}
}

func newSitesCmd(opts *rootOptions) *cobra.Command {
	var sortBy string
	var limit int

	cmd := &cobra.Command{
		Use:   "sites",
		Short: "Show per-site totals across history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			var stats message.SiteStats
			req := message.GetSiteStats{Sort: message.SiteSort(sortBy), Limit: limit}
			if err := agent.Send(cmd.Context(), req, &stats); err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(stats.Sites)
		},
	}
	cmd.Flags().StringVar(&sortBy, "sort", string(message.SortByTime), "sort order: time|visits|name")
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of sites (0 = all)")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Load schedules, session configs and settings from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bundle, err := loadBundle(args[0])
			if err != nil {
				return err
			}
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			for _, req := range bundle.Requests() {
				if err := agent.Send(cmd.Context(), req, nil); err != nil {
					return fmt.Errorf("%s: %w", req.Action(), err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", req.Action())
			}
			return nil
		},
	}
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	var timeframe string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete archived sessions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			agent, err := newAgentClient(opts)
			if err != nil {
				return err
			}
			req := message.ClearHistory{Timeframe: message.Timeframe(timeframe)}
			if err := agent.Send(cmd.Context(), req, nil); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "cleared history (%s)\n", timeframe)
			return nil
		},
	}
	cmd.Flags().StringVar(&timeframe, "timeframe", string(message.TimeframeAll), "week|month|all")
	return cmd
}

func newAgentClient(opts *rootOptions) (*client.AgentClient, error) {
	baseURL := opts.agentURL
	if baseURL == "" {
		cfg, err := config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Server.Port)
	}
	return client.NewAgentClient(baseURL, clientTimeout, zap.NewNop()), nil
}
