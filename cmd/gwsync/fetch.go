package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func fetchCmd() *cobra.Command {
	var (
		since uint64
		limit int
		pages int
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Page the historical events endpoint and print JSON lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			fetcher := newFetcher(cfg, logger)
			enc := json.NewEncoder(os.Stdout)

			total := 0
			for page := 0; pages == 0 || page < pages; page++ {
				result, err := fetcher.Fetch(ctx, since, limit)
				if err != nil {
					return fmt.Errorf("fetching since %d: %w", since, err)
				}
				for _, e := range result.Events {
					if err := enc.Encode(e); err != nil {
						return err
					}
				}
				total += len(result.Events)

				max := result.MaxID()
				if len(result.Events) < limit || max >= result.LastID {
					logger.Info("caught up",
						zap.Int("events", total),
						zap.Uint64("last_id", result.LastID),
					)
					return nil
				}
				since = max
			}

			logger.Info("page limit reached", zap.Int("events", total), zap.Uint64("since", since))
			return nil
		},
	}

	cmd.Flags().Uint64Var(&since, "since", 0, "only events with id greater than this")
	cmd.Flags().IntVar(&limit, "limit", 64, "page size (1-128)")
	cmd.Flags().IntVar(&pages, "pages", 0, "stop after this many pages (0 = until caught up)")

	return cmd
}
