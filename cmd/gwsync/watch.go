package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/notify"
	"github.com/dgnsrekt/gwsync/internal/server"
	"github.com/dgnsrekt/gwsync/internal/store"
	gwsync "github.com/dgnsrekt/gwsync/internal/sync"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

func watchCmd() *cobra.Command {
	var (
		printAll bool
		onlyNew  bool
		noServer bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Backfill, then follow the gateway's live event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), printAll, onlyNew, noServer)
		},
	}

	cmd.Flags().BoolVar(&printAll, "print", true, "print accepted events to stdout")
	cmd.Flags().BoolVar(&onlyNew, "only-new", false, "print only events that arrived after catch-up")
	cmd.Flags().BoolVar(&noServer, "no-server", false, "do not start the HTTP API even if enabled in config")

	return cmd
}

func runWatch(ctx context.Context, printAll, onlyNew, noServer bool) error {
	var archive *store.SQLite
	if cfg.Archive.Enabled {
		db, err := store.Open(cfg.Archive.Path)
		if err != nil {
			return fmt.Errorf("opening archive: %w", err)
		}
		defer db.Close()
		archive = db
		logger.Info("archive enabled", zap.String("path", cfg.Archive.Path))
	}

	checkpointer, closeCheckpointer, err := openCheckpointer(cfg, archive, logger)
	if err != nil {
		return err
	}
	defer closeCheckpointer()

	monitor := notify.NewMonitor(notify.New(cfg.Notify, logger), cfg.Gateway.BaseURL, cfg.Notify.AfterAttempts, logger)

	engine := gwsync.NewEngine(
		newFetcher(cfg, logger),
		func(sink ws.Sink) gwsync.LiveChannel {
			return ws.NewChannel(channelConfig(cfg), sink, logger)
		},
		gwsync.WithLogger(logger),
		gwsync.WithCapacity(cfg.Buffer.Capacity),
		gwsync.WithReconnectPolicy(newReconnectPolicy(cfg)),
		gwsync.WithBackfill(cfg.Backfill.Limit, cfg.Backfill.MaxPages),
		gwsync.WithCheckpointer(checkpointer, store.CheckpointName(cfg.Gateway.BaseURL), cfg.Checkpoint.Interval()),
		gwsync.WithStatusListener(monitor.Observe),
	)

	var (
		stream *server.Stream
		router http.Handler
	)
	if cfg.Server.Enabled && !noServer {
		stream = server.NewStream(engine, server.DefaultStatusInterval, logger)
		router, err = server.NewRouter(server.NewServer(engine, logger), stream, logger)
		if err != nil {
			return fmt.Errorf("creating router: %w", err)
		}
	}

	logger.Info("starting sync",
		zap.String("gateway", cfg.Gateway.BaseURL),
		zap.String("ws", cfg.Gateway.WSURL()),
		zap.Int("capacity", cfg.Buffer.Capacity),
		zap.String("checkpoint", cfg.Checkpoint.Backend),
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(ctx)
	})

	g.Go(func() error {
		return monitor.Run(ctx)
	})

	var archiver *store.Archiver
	if archive != nil {
		archiver = store.NewArchiver(archive, logger)
		g.Go(func() error {
			return archiver.Run(ctx)
		})
	}

	// Follow never drops, so the archive stays gap free.
	g.Go(func() error {
		err := engine.Follow(ctx, func(ctx context.Context, u gwsync.Update) error {
			if archiver != nil {
				if err := archiver.Add(ctx, u.Event); err != nil {
					return err
				}
			}
			if printAll && !u.Replayed && (u.New || !onlyNew) {
				printEvent(u.Event, u.New)
			}
			return nil
		})
		if err != nil && ctx.Err() == nil && !errors.Is(err, gwsync.ErrEngineStopped) {
			return fmt.Errorf("following updates: %w", err)
		}
		return nil
	})

	if router != nil {
		httpServer := &http.Server{
			Addr:        cfg.Server.Addr,
			Handler:     router,
			ReadTimeout: 30 * time.Second,
		}

		g.Go(func() error {
			stream.Run(ctx)
			return nil
		})
		g.Go(func() error {
			logger.Info("starting API server", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("API server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		if err := engine.Start(ctx); err != nil && ctx.Err() == nil {
			return fmt.Errorf("starting sync: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	logger.Info("sync stopped", zap.Uint64("cursor", engine.Cursor()))
	return nil
}

func printEvent(e data.Event, isNew bool) {
	marker := " "
	if isNew {
		marker = "*"
	}
	line := fmt.Sprintf("%s #%d %s %-22s %s", marker, e.ID, e.Uptime(), e.Type, e.Source)
	if e.Subject != "" {
		line += " " + e.Subject
	}
	if e.Msg != "" {
		line += " " + e.Msg
	}
	fmt.Println(line)
}
