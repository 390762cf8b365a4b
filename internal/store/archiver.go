package store

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/data"
)

const (
	archiveQueueSize     = 1024
	archiveBatchSize     = 128
	archiveFlushInterval = time.Second
)

// EventAppender is the archive sink.
type EventAppender interface {
	AppendEvents(ctx context.Context, events []data.Event) (int, error)
}

// Archiver batches events into an EventAppender from a single goroutine.
type Archiver struct {
	sink   EventAppender
	queue  chan data.Event
	logger *zap.Logger
}

func NewArchiver(sink EventAppender, logger *zap.Logger) *Archiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Archiver{
		sink:   sink,
		queue:  make(chan data.Event, archiveQueueSize),
		logger: logger,
	}
}

// Add queues e, waiting while the queue is full. It only fails when ctx is
// done first.
func (a *Archiver) Add(ctx context.Context, e data.Event) error {
	select {
	case a.queue <- e:
		return nil
	default:
	}
	select {
	case a.queue <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run flushes queued events until ctx is done, then flushes what is left.
func (a *Archiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(archiveFlushInterval)
	defer ticker.Stop()

	batch := make([]data.Event, 0, archiveBatchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		n, err := a.sink.AppendEvents(ctx, batch)
		if err != nil {
			// kept for the next flush; the insert is idempotent
			a.logger.Error("archive flush failed", zap.Int("events", len(batch)), zap.Error(err))
			return
		}
		a.logger.Debug("archived events", zap.Int("inserted", n), zap.Int("batch", len(batch)))
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
			for {
				select {
				case e := <-a.queue:
					batch = append(batch, e)
				default:
					flush(context.Background())
					return nil
				}
			}
		case e := <-a.queue:
			batch = append(batch, e)
			if len(batch)%archiveBatchSize == 0 {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
