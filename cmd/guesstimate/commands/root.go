package commands

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"guesstimate/internal/analysis"
	"guesstimate/internal/cache"
	"guesstimate/internal/config"
	"guesstimate/internal/logging"
	"guesstimate/internal/mcp"
	"guesstimate/internal/simulation"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"

	verbose  bool
	fromFile string

	cfg       *config.AppConfig
	svc       *analysis.Service
	logCloser io.Closer
	memo      cache.Store
)

var rootCmd = &cobra.Command{
	Use:   "guesstimate",
	Short: "Guesstimate forecasts Jira backlogs with Monte-Carlo simulation",
	Long: `Guesstimate analyzes the issues selected by a JQL query: weekly arrivals and completions,
cycle time by story points, and a Monte-Carlo forecast of when the open backlog is cleared.

Without a subcommand it runs as an MCP server on stdio.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Keep pre-init debug lines of config loading quiet.
		zerolog.SetGlobalLevel(zerolog.InfoLevel)

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		if fromFile != "" {
			cfg.MockFile = fromFile
		}

		logCloser, err = logging.Init(logging.Options{Verbose: verbose, Dir: cfg.LogDir})
		if err != nil {
			return err
		}

		if err := cfg.Validate(); err != nil {
			return err
		}

		memo, err = newMemo(cmd.Context())
		if err != nil {
			return err
		}

		svc = analysis.NewService(cfg.Source(), cfg.Identity(), memo, simulation.NewEngine(cfg.Simulation), analysis.Options{
			CycleTime: cfg.CycleTime,
		})

		log.Info().
			Str("version", Version).
			Str("commit", Commit).
			Str("buildDate", BuildDate).
			Str("jira", cfg.Identity()).
			Msg("Guesstimate starting")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closer, ok := memo.(io.Closer); ok {
			_ = closer.Close()
		}
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(svc, cfg.FilterName, Version)
		return server.Serve(cmd.Context())
	},
}

func newMemo(ctx context.Context) (cache.Store, error) {
	if cfg.RedisAddr == "" {
		return cache.NewMemory(), nil
	}
	r, err := cache.NewRedis(ctx, cfg.RedisAddr, cfg.CacheTTL)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("Using Redis memo")
	return r, nil
}

func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&fromFile, "from-file", "", "read issues from a saved search dump instead of Jira (overrides JIRA_MOCK_FILE)")
}
