// Package watchman owns the live connection and the watch lifecycle: startup,
// full restarts after transport failures, per-mailbox polling and the event
// surface exposed to subscribers.
package watchman

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/pkg/errors"

	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/events"
	"github.com/mailwatch/mailwatch/pkg/extract"
	"github.com/mailwatch/mailwatch/pkg/models/registry"
	"github.com/mailwatch/mailwatch/pkg/utils"
)

const (
	defaultWatchInterval     = 60 * time.Second
	defaultReconnectInterval = 60 * time.Second
	defaultSettleDelay       = time.Second
)

// session is one connect-to-failure span. A full restart cancels the session
// context, which stops its poll loops and pending settle flush before the
// next session begins.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	settle *time.Timer
}

type Watchman struct {
	client   base.Client
	logger   *slog.Logger
	ctx      context.Context
	registry *registry.Registry
	bus      *events.Bus
	builder  *extract.Builder

	watchList         []string
	watchInterval     time.Duration
	reconnectInterval time.Duration
	settleDelay       time.Duration

	mu           sync.Mutex
	session      *session
	restartTimer *time.Timer
	inFlight     map[string]bool
}

type WatchmanOption func(*Watchman) error

func NewWatchman(opts ...WatchmanOption) (*Watchman, error) {
	w := Watchman{
		watchInterval:     defaultWatchInterval,
		reconnectInterval: defaultReconnectInterval,
		settleDelay:       defaultSettleDelay,
		inFlight:          make(map[string]bool),
	}
	for _, opt := range opts {
		if err := opt(&w); err != nil {
			return nil, err
		}
	}

	if w.client == nil {
		return nil, errors.New("requires client")
	}

	if w.logger == nil {
		return nil, errors.New("requires slogger")
	}

	if w.ctx == nil {
		w.ctx = context.Background()
	}

	if w.builder == nil {
		w.builder = extract.NewBuilder(w.logger)
	}

	if w.registry == nil {
		reg, err := registry.NewRegistry(
			registry.WithClient(w.client),
			registry.WithLogger(w.logger),
			registry.WithBuilder(w.builder),
		)
		if err != nil {
			return nil, err
		}
		w.registry = reg
	}

	if w.bus == nil {
		w.bus = events.NewBus()
	}

	return &w, nil
}

func WithClient(c base.Client) WatchmanOption {
	return func(w *Watchman) error {
		w.client = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) WatchmanOption {
	return func(w *Watchman) error {
		w.logger = logger
		return nil
	}
}

func WithCtx(ctx context.Context) WatchmanOption {
	return func(w *Watchman) error {
		w.ctx = ctx
		return nil
	}
}

func WithRegistry(reg *registry.Registry) WatchmanOption {
	return func(w *Watchman) error {
		w.registry = reg
		return nil
	}
}

func WithBus(bus *events.Bus) WatchmanOption {
	return func(w *Watchman) error {
		w.bus = bus
		return nil
	}
}

func WithBuilder(builder *extract.Builder) WatchmanOption {
	return func(w *Watchman) error {
		w.builder = builder
		return nil
	}
}

// WithWatchList names the mailboxes that get a poll loop. Mailboxes outside
// the list are still tracked by the initial scan but never polled.
func WithWatchList(paths []string) WatchmanOption {
	return func(w *Watchman) error {
		w.watchList = paths
		return nil
	}
}

func WithWatchInterval(interval time.Duration) WatchmanOption {
	return func(w *Watchman) error {
		if interval <= 0 {
			return errors.New("watch interval must be positive")
		}
		w.watchInterval = interval
		return nil
	}
}

func WithReconnectInterval(interval time.Duration) WatchmanOption {
	return func(w *Watchman) error {
		if interval <= 0 {
			return errors.New("reconnect interval must be positive")
		}
		w.reconnectInterval = interval
		return nil
	}
}

func WithSettleDelay(delay time.Duration) WatchmanOption {
	return func(w *Watchman) error {
		if delay <= 0 {
			return errors.New("settle delay must be positive")
		}
		w.settleDelay = delay
		return nil
	}
}

// OnArrived subscribes to messages discovered by polling.
func (w *Watchman) OnArrived(fn func(base.Message)) *events.Subscription {
	return w.bus.OnArrived(fn)
}

// OnLoaded subscribes to the initial backlog flushed once after startup.
func (w *Watchman) OnLoaded(fn func(base.Message)) *events.Subscription {
	return w.bus.OnLoaded(fn)
}

// OnRemoved subscribes to identifiers deleted through DeleteMails.
func (w *Watchman) OnRemoved(fn func(imap.UID)) *events.Subscription {
	return w.bus.OnRemoved(fn)
}

// GetMailboxes returns a snapshot of every tracked mailbox state.
func (w *Watchman) GetMailboxes() map[string]base.MailboxState {
	return w.registry.States()
}

// Run starts the watch session. It never reports an error to the caller:
// a failed startup is logged and retried indefinitely at the reconnect
// interval.
func (w *Watchman) Run() {
	w.startSession()
}

// Stop cancels the current session and closes the connection.
func (w *Watchman) Stop() {
	w.mu.Lock()
	if w.restartTimer != nil {
		w.restartTimer.Stop()
		w.restartTimer = nil
	}
	w.teardownSessionLocked()
	w.mu.Unlock()

	if err := w.client.Close(); err != nil {
		w.logger.Error("closing connection", slog.Any("error", utils.WrapError(err)))
	}
}

// startSession runs the full startup sequence from scratch. Any outstanding
// work from a superseded session is cancelled first, so repeated reconnects
// never stack duplicate pollers.
func (w *Watchman) startSession() {
	w.mu.Lock()
	w.teardownSessionLocked()
	sctx, cancel := context.WithCancel(w.ctx)
	current := &session{ctx: sctx, cancel: cancel}
	w.session = current
	w.mu.Unlock()

	// Drop the superseded connection before dialing again.
	_ = w.client.Close()

	if err := w.client.Connect(); err != nil {
		w.logger.Error("connect failed", slog.Any("error", utils.WrapError(err)))
		w.scheduleRestart()
		return
	}
	w.logger.Info("connected")

	w.client.OnError(func(err error) {
		w.logger.Error("transport error", slog.Any("error", utils.WrapError(err)))
		w.scheduleRestart()
	})

	pending, err := w.registry.LoadAll(sctx)
	if err != nil {
		w.logger.Error("initial scan failed", slog.Any("error", utils.WrapError(err)))
		w.scheduleRestart()
		return
	}

	for _, path := range w.watchList {
		go w.pollLoop(sctx, path)
	}

	// The initial backlog is held until startup settles, then flushed once.
	settle := time.AfterFunc(w.settleDelay, func() {
		select {
		case <-sctx.Done():
			return
		default:
		}
		for _, msg := range pending {
			w.bus.EmitLoaded(msg)
		}
		w.logger.Info("initial load flushed", slog.Int("messages", len(pending)))
	})

	w.mu.Lock()
	if w.session == current {
		current.settle = settle
	} else {
		settle.Stop()
	}
	w.mu.Unlock()
}

// scheduleRestart arranges one full restart after the reconnect interval.
// Multiple failures inside one session collapse into a single pending
// restart; there is no backoff growth and no retry limit.
func (w *Watchman) scheduleRestart() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.restartTimer != nil {
		return
	}
	w.logger.Info("restart scheduled", slog.Duration("delay", w.reconnectInterval))
	w.restartTimer = time.AfterFunc(w.reconnectInterval, func() {
		w.mu.Lock()
		w.restartTimer = nil
		w.mu.Unlock()
		w.startSession()
	})
}

func (w *Watchman) teardownSessionLocked() {
	if w.session == nil {
		return
	}
	w.session.cancel()
	if w.session.settle != nil {
		w.session.settle.Stop()
	}
	w.session = nil
}

// GetAllMails fetches every message in the mailbox with a fresh scan, not
// filtered by the watermark.
func (w *Watchman) GetAllMails(path string) ([]base.Message, error) {
	return w.readMails(path, func(ctx context.Context) ([]base.RawMessage, error) {
		return w.client.FetchAll(ctx, path)
	})
}

// GetSeenMails fetches the messages currently flagged as seen.
func (w *Watchman) GetSeenMails(path string) ([]base.Message, error) {
	return w.readMails(path, func(ctx context.Context) ([]base.RawMessage, error) {
		return w.client.SearchFlagged(ctx, path, imap.FlagSeen, false)
	})
}

// GetUnseenMails fetches the messages not flagged as seen.
func (w *Watchman) GetUnseenMails(path string) ([]base.Message, error) {
	return w.readMails(path, func(ctx context.Context) ([]base.RawMessage, error) {
		return w.client.SearchFlagged(ctx, path, imap.FlagSeen, true)
	})
}

func (w *Watchman) readMails(path string, fetch func(context.Context) ([]base.RawMessage, error)) ([]base.Message, error) {
	release, ok := w.registry.TryLock(path)
	if !ok {
		w.logger.Warn("mailbox lock unavailable", slog.String("mailbox", path))
		return nil, nil
	}
	defer release()

	raws, err := fetch(w.ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "reading mailbox %q", path)
	}

	msgs := make([]base.Message, 0, len(raws))
	for _, raw := range raws {
		msgs = append(msgs, w.builder.Build(path, raw))
	}
	return msgs, nil
}
