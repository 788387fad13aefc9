package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pandeptwidyaop/buildstamp/internal/builder"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit  int
		offset int
		prune  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded builds",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, log, err := c.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
				builder.PrintHistory(c.stdout, nil)
				return nil
			}

			db, history, err := openHistory(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if prune > 0 {
				n, err := history.Prune(time.Now().Add(-prune))
				if err != nil {
					return fmt.Errorf("failed to prune history: %w", err)
				}
				_, _ = fmt.Fprintf(c.stdout, "Pruned %d build(s) older than %s\n", n, prune)
				return nil
			}

			builds, err := history.GetBuilds(limit, offset)
			if err != nil {
				return err
			}
			builder.PrintHistory(c.stdout, builds)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of builds to show")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of builds to skip")
	cmd.Flags().DurationVar(&prune, "prune-older-than", 0, "delete builds older than this duration (e.g. 720h) instead of listing")
	return cmd
}
