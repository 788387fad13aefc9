package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/buildstamp/internal/logger"
	"github.com/pandeptwidyaop/buildstamp/internal/router"
	"github.com/pandeptwidyaop/buildstamp/internal/version"
)

func (c *cli) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve version information and build history over HTTP",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, log, err := c.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if port != 0 {
				cfg.Server.Port = port
			}

			db, history, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
			srv := &http.Server{
				Addr:              addr,
				Handler:           router.New(cfg, history, log),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("buildstamp serving",
					logger.String("version", version.Version),
					logger.String("addr", "http://"+addr+cfg.Server.PathPrefix))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("failed to start server: %w", err)
			case <-cmd.Context().Done():
			}

			log.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
