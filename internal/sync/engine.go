package sync

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/dgnsrekt/gwsync/internal/api"
	"github.com/dgnsrekt/gwsync/internal/data"
	"github.com/dgnsrekt/gwsync/internal/store"
	"github.com/dgnsrekt/gwsync/internal/ws"
)

const (
	DefaultBackfillLimit      = 64
	DefaultBackfillMaxPages   = 4
	DefaultCheckpointInterval = time.Second

	ingestBufferSize     = 256
	subscriberBufferSize = 1024
)

var (
	ErrEngineStopped = errors.New("sync engine stopped")
	ErrNotStarted    = errors.New("sync engine not started")
)

// LiveChannel is the push transport the engine drives.
type LiveChannel interface {
	Open(ctx context.Context, since uint64) (uint64, error)
	Close()
	MarkLive(epoch uint64) error
	State() ws.ConnectionState
	Request(ctx context.Context, method string, params any) (*ws.Response, error)
}

// ChannelFactory builds the live channel around the engine's sink.
type ChannelFactory func(sink ws.Sink) LiveChannel

// Update is published for every event the buffer accepts. Seq counts
// accepted events over the engine's lifetime, so a gap in Seq means the
// subscriber missed updates. Replayed marks buffered events handed out again
// by Follow.
type Update struct {
	Event      data.Event `json:"event"`
	New        bool       `json:"new"`
	Generation uint64     `json:"generation"`
	Seq        uint64     `json:"seq"`
	Replayed   bool       `json:"replayed,omitempty"`
}

// Status is a read-only snapshot of the engine.
type Status struct {
	State      ws.ConnectionState `json:"state"`
	Message    string             `json:"message"`
	Cursor     uint64             `json:"cursor"`
	Generation uint64             `json:"generation"`
	Attempts   int                `json:"attempts"`
	Paused     bool               `json:"paused"`
	Buffered   int                `json:"buffered"`
	ServerLast *uint64            `json:"server_last,omitempty"`
	LastError  string             `json:"last_error,omitempty"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithCapacity(capacity int) Option {
	return func(e *Engine) {
		e.capacity = capacity
	}
}

func WithReconnectPolicy(policy *ReconnectPolicy) Option {
	return func(e *Engine) {
		e.policy = policy
	}
}

// WithBackfill sets the page size and the page bound of one backfill run.
func WithBackfill(limit, maxPages int) Option {
	return func(e *Engine) {
		e.limit = limit
		e.maxPages = maxPages
	}
}

// WithCheckpointer persists the cursor under name, at most once per interval.
func WithCheckpointer(checkpointer store.Checkpointer, name string, interval time.Duration) Option {
	return func(e *Engine) {
		e.checkpointer = checkpointer
		e.checkpointName = name
		e.checkpointInterval = interval
	}
}

// WithStatusListener is called from the engine loop on every status change.
// It must not block.
func WithStatusListener(fn func(Status)) Option {
	return func(e *Engine) {
		e.onStatus = fn
	}
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdPause
	cmdResume
	cmdClear
	cmdReset
	cmdRefresh
)

func (k commandKind) String() string {
	switch k {
	case cmdStart:
		return "start"
	case cmdPause:
		return "pause"
	case cmdResume:
		return "resume"
	case cmdClear:
		return "clear"
	case cmdReset:
		return "reset"
	case cmdRefresh:
		return "refresh"
	default:
		return "unknown"
	}
}

type command struct {
	kind  commandKind
	reply chan error
}

type channelMessage struct {
	msg ws.Message
}

type backfillResult struct {
	generation uint64
	thenOpen   bool
	events     []data.Event
	lastID     uint64
	pages      int
	err        error
}

type reconnectTick struct {
	seq uint64
}

// Engine merges backfill and live delivery into one ordered, deduplicated
// buffer. All state changes happen on the Run goroutine; other goroutines
// only post messages to it.
type Engine struct {
	fetcher api.Fetcher
	channel LiveChannel
	policy  *ReconnectPolicy
	cursor  *Cursor
	buffer  *Buffer
	logger  *zap.Logger

	capacity           int
	limit              int
	maxPages           int
	checkpointer       store.Checkpointer
	checkpointName     string
	checkpointInterval time.Duration
	onStatus           func(Status)

	ingest  chan any
	done    chan struct{}
	running chan struct{}

	// owned by the Run goroutine
	started      bool
	paused       bool
	generation   uint64
	epoch        uint64
	classifier   *Classifier
	reconnectSeq uint64
	retryTimer   *time.Timer
	dirty        bool
	awaitingOpen bool
	seq          uint64

	mu     gosync.RWMutex
	status Status

	subsMu    gosync.Mutex
	subs      map[chan Update]struct{}
	followers map[*follower]struct{}
}

func NewEngine(fetcher api.Fetcher, newChannel ChannelFactory, opts ...Option) *Engine {
	e := &Engine{
		fetcher:            fetcher,
		capacity:           DefaultCapacity,
		limit:              DefaultBackfillLimit,
		maxPages:           DefaultBackfillMaxPages,
		checkpointer:       &store.NoopCheckpointer{},
		checkpointName:     "default",
		checkpointInterval: DefaultCheckpointInterval,
		ingest:             make(chan any, ingestBufferSize),
		done:               make(chan struct{}),
		running:            make(chan struct{}),
		subs:               make(map[chan Update]struct{}),
		followers:          make(map[*follower]struct{}),
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.policy == nil {
		e.policy = NewReconnectPolicy(DefaultReconnectBase, DefaultReconnectCap, DefaultReconnectMaxShift, DefaultReconnectJitter)
	}
	if e.limit < 1 || e.limit > api.MaxLimit {
		e.limit = DefaultBackfillLimit
	}
	if e.maxPages < 1 {
		e.maxPages = 1
	}
	if e.checkpointInterval <= 0 {
		e.checkpointInterval = DefaultCheckpointInterval
	}

	e.cursor = NewCursor()
	e.buffer = NewBuffer(e.capacity, e.cursor)
	e.channel = newChannel(e.post)
	e.status = Status{State: ws.StateDisconnected, Message: "idle", UpdatedAt: time.Now()}
	return e
}

// post hands a connection message to the loop.
func (e *Engine) post(m ws.Message) {
	select {
	case e.ingest <- channelMessage{msg: m}:
	case <-e.done:
	}
}

func (e *Engine) send(msg any) {
	select {
	case e.ingest <- msg:
	case <-e.done:
	}
}

// Run drives the engine until ctx is done. It restores the persisted
// cursor first; it does not connect until Start.
func (e *Engine) Run(ctx context.Context) error {
	defer e.shutdown()

	if err := e.restoreCheckpoint(ctx); err != nil {
		e.logger.Warn("failed to restore checkpoint, starting from zero", zap.Error(err))
	}
	close(e.running)

	ticker := time.NewTicker(e.checkpointInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("sync engine stopping", zap.Uint64("cursor", e.cursor.Current()))
			return nil

		case msg := <-e.ingest:
			e.handle(ctx, msg)

		case <-ticker.C:
			e.flushCheckpoint(ctx)
		}
	}
}

func (e *Engine) shutdown() {
	e.cancelRetry()
	e.channel.Close()
	e.epoch = 0
	e.flushCheckpoint(context.Background())
	close(e.done)

	e.subsMu.Lock()
	for ch := range e.subs {
		close(ch)
		delete(e.subs, ch)
	}
	for f := range e.followers {
		f.wakeUp()
	}
	e.subsMu.Unlock()

	e.setStatus(func(s *Status) {
		s.State = ws.StateDisconnected
		s.Message = "stopped"
	})
}

func (e *Engine) handle(ctx context.Context, msg any) {
	switch m := msg.(type) {
	case *command:
		m.reply <- e.apply(ctx, m.kind)
	case channelMessage:
		e.handleChannel(ctx, m.msg)
	case backfillResult:
		e.handleBackfill(ctx, m)
	case reconnectTick:
		e.handleReconnect(ctx, m)
	}
}

func (e *Engine) do(ctx context.Context, kind commandKind) error {
	select {
	case <-e.running:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	cmd := &command{kind: kind, reply: make(chan error, 1)}
	select {
	case e.ingest <- cmd:
	case <-e.done:
		return ErrEngineStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-e.done:
		return ErrEngineStopped
	}
}

// Start backfills from the current cursor, then opens the live channel.
func (e *Engine) Start(ctx context.Context) error { return e.do(ctx, cmdStart) }

// Pause closes the live channel, cancels any pending reconnect and drops the
// result of an in-flight backfill. The buffer and cursor are kept.
func (e *Engine) Pause(ctx context.Context) error { return e.do(ctx, cmdPause) }

// Resume reopens the live channel from the current cursor without a backfill.
func (e *Engine) Resume(ctx context.Context) error { return e.do(ctx, cmdResume) }

// Clear empties the buffer and zeroes the cursor. The live channel is left
// as it is.
func (e *Engine) Clear(ctx context.Context) error { return e.do(ctx, cmdClear) }

// Reset clears and then starts again from zero.
func (e *Engine) Reset(ctx context.Context) error { return e.do(ctx, cmdReset) }

// Refresh backfills from the current cursor without touching the channel.
func (e *Engine) Refresh(ctx context.Context) error { return e.do(ctx, cmdRefresh) }

func (e *Engine) apply(ctx context.Context, kind commandKind) error {
	e.logger.Debug("applying command", zap.Stringer("command", kind))

	switch kind {
	case cmdStart:
		e.start(ctx)

	case cmdPause:
		e.generation++
		e.paused = true
		e.awaitingOpen = false
		e.cancelRetry()
		e.closeChannel()
		e.setStatus(func(s *Status) { s.Message = "paused" })

	case cmdResume:
		if !e.started {
			return ErrNotStarted
		}
		e.paused = false
		e.policy.Reset()
		e.openChannel(ctx)

	case cmdClear:
		e.clear(ctx)
		if e.awaitingOpen {
			// the start backfill just became stale; run it again from zero
			e.launchBackfill(ctx, true)
			e.setStatus(func(s *Status) { s.Message = "backfilling" })
			break
		}
		e.setStatus(func(s *Status) { s.Message = "cleared" })

	case cmdReset:
		e.clear(ctx)
		e.start(ctx)

	case cmdRefresh:
		e.launchBackfill(ctx, false)
		e.setStatus(func(s *Status) { s.Message = "refreshing" })
	}
	return nil
}

func (e *Engine) start(ctx context.Context) {
	e.generation++
	e.started = true
	e.paused = false
	e.cancelRetry()
	e.closeChannel()
	e.policy.Reset()
	e.awaitingOpen = true
	e.launchBackfill(ctx, true)
	e.setStatus(func(s *Status) { s.Message = "backfilling" })
}

func (e *Engine) clear(ctx context.Context) {
	e.generation++
	e.buffer.Clear()
	e.cursor.Reset()
	e.dirty = false
	if err := e.checkpointer.Delete(ctx, e.checkpointName); err != nil {
		e.logger.Warn("failed to delete checkpoint", zap.Error(err))
	}
	e.logger.Info("buffer cleared", zap.Uint64("generation", e.generation))
}

func (e *Engine) launchBackfill(ctx context.Context, thenOpen bool) {
	gen := e.generation
	since := e.cursor.Current()
	e.logger.Debug("backfill starting",
		zap.Uint64("since", since),
		zap.Uint64("generation", gen),
		zap.Bool("then_open", thenOpen),
	)
	go func() {
		e.send(e.backfill(ctx, gen, since, thenOpen))
	}()
}

// backfill pages the historical endpoint while pages come back full and the
// gateway still reports newer events, up to maxPages.
func (e *Engine) backfill(ctx context.Context, gen, since uint64, thenOpen bool) backfillResult {
	res := backfillResult{generation: gen, thenOpen: thenOpen}
	for res.pages < e.maxPages {
		page, err := e.fetcher.Fetch(ctx, since, e.limit)
		if err != nil {
			res.err = err
			return res
		}
		res.pages++
		res.events = append(res.events, page.Events...)
		if page.LastID > res.lastID {
			res.lastID = page.LastID
		}

		max := page.MaxID()
		if len(page.Events) < e.limit || max >= page.LastID {
			break
		}
		since = max
	}
	return res
}

func (e *Engine) handleBackfill(ctx context.Context, r backfillResult) {
	if r.generation != e.generation {
		e.logger.Debug("discarding stale backfill",
			zap.Uint64("generation", r.generation),
			zap.Uint64("current", e.generation),
			zap.Int("events", len(r.events)),
		)
		return
	}

	accepted := 0
	for _, ev := range r.events {
		if e.accept(ev, false) {
			accepted++
		}
	}

	if r.err != nil {
		e.logger.Warn("backfill failed", zap.Int("accepted", accepted), zap.Error(r.err))
		e.setStatus(func(s *Status) {
			s.Message = "backfill failed"
			s.LastError = r.err.Error()
		})
	} else {
		e.logger.Info("backfill complete",
			zap.Int("pages", r.pages),
			zap.Int("accepted", accepted),
			zap.Uint64("last_id", r.lastID),
			zap.Uint64("cursor", e.cursor.Current()),
		)
		e.setStatus(func(s *Status) {
			s.Message = fmt.Sprintf("backfilled %d events", accepted)
		})
	}

	if r.thenOpen && !e.paused {
		e.openChannel(ctx)
	}
}

func (e *Engine) openChannel(ctx context.Context) {
	if e.epoch != 0 || e.paused {
		return
	}
	e.awaitingOpen = false
	since := e.cursor.Current()
	epoch, err := e.channel.Open(ctx, since)
	if err != nil {
		e.logger.Warn("failed to open live channel", zap.Error(err))
		e.setStatus(func(s *Status) { s.LastError = err.Error() })
		e.scheduleReconnect()
		return
	}
	e.epoch = epoch
	e.classifier = nil
	e.setStatus(func(s *Status) {
		s.Message = fmt.Sprintf("connecting from %d", since)
	})
}

func (e *Engine) closeChannel() {
	e.channel.Close()
	e.epoch = 0
	e.classifier = nil
	e.setStatus(func(s *Status) { s.ServerLast = nil })
}

func (e *Engine) handleChannel(ctx context.Context, m ws.Message) {
	if m.Epoch != e.epoch || e.epoch == 0 {
		e.logger.Debug("discarding message from superseded connection",
			zap.Stringer("kind", m.Kind),
			zap.Uint64("epoch", m.Epoch),
			zap.Uint64("current", e.epoch),
		)
		return
	}

	switch m.Kind {
	case ws.MessageAck:
		e.classifier = NewClassifier(m.ServerLast, m.State == ws.StateCatchingUp)
		e.setStatus(func(s *Status) {
			s.ServerLast = m.ServerLast
			s.Message = "catching up"
		})
		if m.State == ws.StateLive {
			e.wentLive()
		}

	case ws.MessageEvent:
		if e.classifier == nil {
			e.classifier = NewClassifier(nil, false)
		}
		v := e.classifier.Classify(m.Event)
		if v.GoLive {
			if err := e.channel.MarkLive(m.Epoch); err != nil {
				e.logger.Debug("could not mark channel live", zap.Error(err))
			} else {
				e.wentLive()
			}
		}
		e.accept(m.Event, v.New)

	case ws.MessageDisconnected:
		e.epoch = 0
		e.classifier = nil
		errMsg := ""
		if m.Err != nil {
			errMsg = m.Err.Error()
		}
		e.logger.Warn("live channel disconnected", zap.Error(m.Err))
		e.setStatus(func(s *Status) {
			s.Message = "disconnected"
			s.LastError = errMsg
			s.ServerLast = nil
		})
		if !e.paused {
			e.scheduleReconnect()
		}
	}
}

func (e *Engine) wentLive() {
	e.policy.Reset()
	e.setStatus(func(s *Status) {
		s.Message = "live"
		s.LastError = ""
	})
}

func (e *Engine) scheduleReconnect() {
	e.cancelRetry()
	delay := e.policy.Next()
	seq := e.reconnectSeq
	e.retryTimer = time.AfterFunc(delay, func() {
		e.send(reconnectTick{seq: seq})
	})
	e.logger.Info("reconnect scheduled",
		zap.Duration("delay", delay),
		zap.Int("attempt", e.policy.Attempts()),
		zap.Uint64("cursor", e.cursor.Current()),
	)
	e.setStatus(func(s *Status) {
		s.Message = fmt.Sprintf("reconnecting in %s", delay.Round(time.Millisecond))
	})
}

// cancelRetry invalidates any scheduled reconnect, including ticks already
// queued.
func (e *Engine) cancelRetry() {
	e.reconnectSeq++
	if e.retryTimer != nil {
		e.retryTimer.Stop()
		e.retryTimer = nil
	}
}

func (e *Engine) handleReconnect(ctx context.Context, t reconnectTick) {
	if t.seq != e.reconnectSeq || e.paused {
		return
	}
	e.retryTimer = nil
	e.openChannel(ctx)
}

// accept merges ev into the buffer and publishes it when it was not a
// duplicate.
func (e *Engine) accept(ev data.Event, isNew bool) bool {
	if !e.buffer.Accept(ev) {
		return false
	}
	e.dirty = true
	e.seq++
	e.publish(Update{Event: ev, New: isNew, Generation: e.generation, Seq: e.seq})
	e.setStatus(func(*Status) {})
	return true
}

func (e *Engine) restoreCheckpoint(ctx context.Context) error {
	cp, err := e.checkpointer.Load(ctx, e.checkpointName)
	if err != nil {
		return err
	}
	if cp == nil {
		return nil
	}
	e.cursor.Restore(cp.Cursor)
	e.logger.Info("cursor restored", zap.Uint64("cursor", cp.Cursor))
	e.setStatus(func(*Status) {})
	return nil
}

func (e *Engine) flushCheckpoint(ctx context.Context) {
	if !e.dirty {
		return
	}
	cp := &store.Checkpoint{Name: e.checkpointName, Cursor: e.cursor.Current(), Timestamp: time.Now()}
	if err := e.checkpointer.Save(ctx, cp); err != nil {
		e.logger.Warn("failed to save checkpoint", zap.Error(err))
		return
	}
	e.dirty = false
}

func (e *Engine) setStatus(mutate func(*Status)) {
	e.mu.Lock()
	mutate(&e.status)
	e.status.State = e.channel.State()
	e.status.Cursor = e.cursor.Current()
	e.status.Generation = e.generation
	e.status.Attempts = e.policy.Attempts()
	e.status.Paused = e.paused
	e.status.Buffered = e.buffer.Len()
	e.status.UpdatedAt = time.Now()
	snapshot := e.status
	e.mu.Unlock()

	if e.onStatus != nil {
		e.onStatus(snapshot)
	}
}

func (e *Engine) publish(u Update) {
	e.subsMu.Lock()
	defer e.subsMu.Unlock()
	for f := range e.followers {
		f.push(u)
	}
	for ch := range e.subs {
		select {
		case ch <- u:
		default:
			e.logger.Warn("subscriber too slow, dropping update", zap.Uint64("id", u.Event.ID))
		}
	}
}

// Subscribe returns a stream of accepted events. The stream is closed when
// the engine stops or cancel is called. A subscriber that falls more than
// its buffer behind loses updates; use Follow when every event matters.
func (e *Engine) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBufferSize)

	e.subsMu.Lock()
	select {
	case <-e.done:
		close(ch)
		e.subsMu.Unlock()
		return ch, func() {}
	default:
	}
	e.subs[ch] = struct{}{}
	e.subsMu.Unlock()

	var once gosync.Once
	cancel := func() {
		once.Do(func() {
			e.subsMu.Lock()
			if _, ok := e.subs[ch]; ok {
				delete(e.subs, ch)
				close(ch)
			}
			e.subsMu.Unlock()
		})
	}
	return ch, cancel
}

// Events returns the buffered events in ascending id order.
func (e *Engine) Events() []data.Event {
	return e.buffer.Events()
}

// State returns the live channel state.
func (e *Engine) State() ws.ConnectionState {
	return e.channel.State()
}

func (e *Engine) Cursor() uint64 {
	return e.cursor.Current()
}

func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := e.status
	s.State = e.channel.State()
	return s
}

// Request issues a one-shot call over the live connection. Responses never
// enter the buffer.
func (e *Engine) Request(ctx context.Context, method string, params any) (*ws.Response, error) {
	return e.channel.Request(ctx, method, params)
}
