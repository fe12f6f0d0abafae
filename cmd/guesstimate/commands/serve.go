package commands

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"guesstimate/internal/api"
	"guesstimate/internal/jobs"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var openBrowser bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		router := api.NewRouter(svc, api.Options{
			Debug:      verbose,
			FilterName: cfg.FilterName,
			Connect:    api.JiraConnector(cfg.Jira),
			Version:    Version,
		})

		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           router,
			ReadHeaderTimeout: api.ReadHeaderTimeout,
		}

		if cfg.RefreshCron != "" && cfg.DefaultJQL != "" {
			cr, err := jobs.NewCron(cfg.RefreshCron, cfg.DefaultJQL, cfg.Jira.Location, svc)
			if err != nil {
				return err
			}
			cr.Start()
			defer cr.Stop()
			log.Info().Str("schedule", cfg.RefreshCron).Time("next", cr.Next()).Msg("Scheduled refresh of the default query")
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
			errCh <- srv.ListenAndServe()
		}()

		if openBrowser {
			url := localURL(cfg.HTTPAddr)
			if err := browser.OpenURL(url); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("Failed to open browser")
			}
		}

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-ctx.Done():
		}

		log.Info().Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func init() {
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "open the API index in the default browser")
	rootCmd.AddCommand(serveCmd)
}
