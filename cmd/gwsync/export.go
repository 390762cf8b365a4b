package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/export"
	"github.com/dgnsrekt/gwsync/internal/store"
)

func exportCmd() *cobra.Command {
	var (
		output string
		since  uint64
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the local archive to a JSON lines file (.zst to compress)",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(cfg.Archive.Path)
			if err != nil {
				return fmt.Errorf("opening archive: %w", err)
			}
			defer db.Close()

			total, err := db.CountEvents(cmd.Context())
			if err != nil {
				return err
			}
			logger.Info("exporting archive",
				zap.String("archive", cfg.Archive.Path),
				zap.Int("archived", total),
				zap.String("output", output),
			)

			n, err := export.DumpFile(cmd.Context(), db, output, since)
			if err != nil {
				return fmt.Errorf("exporting: %w", err)
			}

			logger.Info("export complete", zap.Int("events", n), zap.String("output", output))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "events.jsonl.zst", "output file")
	cmd.Flags().Uint64Var(&since, "since", 0, "only events with id greater than this")

	return cmd
}
