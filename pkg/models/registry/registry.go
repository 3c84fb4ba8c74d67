// Package registry owns the set of known mailboxes, their watermarks and the
// per-mailbox locks that serialize protocol operations.
package registry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/pkg/errors"

	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/extract"
)

// EmptyMailboxWatermark seeds the watermark of a mailbox with no messages.
const EmptyMailboxWatermark = imap.UID(1)

type mailboxEntry struct {
	state base.MailboxState
	lock  sync.Mutex
}

// Registry tracks MailboxState per path. States are mutated only by the
// initial scan and by Advance; both run under the mailbox lock.
type Registry struct {
	client  base.Client
	logger  *slog.Logger
	builder *extract.Builder

	mu      sync.RWMutex
	entries map[string]*mailboxEntry
}

type RegistryOption func(*Registry) error

func NewRegistry(opts ...RegistryOption) (*Registry, error) {
	reg := Registry{entries: make(map[string]*mailboxEntry)}
	for _, opt := range opts {
		if err := opt(&reg); err != nil {
			return nil, err
		}
	}

	if reg.client == nil {
		return nil, errors.New("requires client")
	}

	if reg.logger == nil {
		return nil, errors.New("requires slogger")
	}

	if reg.builder == nil {
		reg.builder = extract.NewBuilder(reg.logger)
	}

	return &reg, nil
}

func WithClient(c base.Client) RegistryOption {
	return func(reg *Registry) error {
		reg.client = c
		return nil
	}
}

func WithLogger(logger *slog.Logger) RegistryOption {
	return func(reg *Registry) error {
		reg.logger = logger
		return nil
	}
}

func WithBuilder(builder *extract.Builder) RegistryOption {
	return func(reg *Registry) error {
		reg.builder = builder
		return nil
	}
}

// LoadAll lists every mailbox on the store and performs one full scan per
// mailbox, seeding watermarks. Every message found is parsed and returned as
// the pending initial-load batch; the caller flushes that batch exactly once
// after startup settles. Scans are sequential because all mailboxes share one
// connection; each scan holds its mailbox lock for the duration.
func (reg *Registry) LoadAll(ctx context.Context) ([]base.Message, error) {
	paths, err := reg.client.ListMailboxes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing mailboxes")
	}

	var pending []base.Message
	for _, path := range paths {
		loaded, err := reg.scanMailbox(ctx, path)
		if err != nil {
			return nil, errors.Wrapf(err, "scanning mailbox %q", path)
		}
		pending = append(pending, loaded...)
	}

	return pending, nil
}

func (reg *Registry) scanMailbox(ctx context.Context, path string) ([]base.Message, error) {
	release, ok := reg.TryLock(path)
	if !ok {
		return nil, errors.Errorf("mailbox %q is locked", path)
	}
	defer release()

	raws, err := reg.client.FetchAll(ctx, path)
	if err != nil {
		return nil, err
	}

	watermark := EmptyMailboxWatermark
	loaded := make([]base.Message, 0, len(raws))
	for _, raw := range raws {
		if raw.UID > watermark {
			watermark = raw.UID
		}
		loaded = append(loaded, reg.builder.Build(path, raw))
	}

	reg.Advance(path, watermark)
	reg.logger.Info("mailbox scanned",
		slog.String("mailbox", path),
		slog.Int("messages", len(raws)),
		slog.Uint64("watermark", uint64(watermark)),
	)

	return loaded, nil
}

// TryLock acquires the mailbox lock without blocking. The returned release
// function must be called exactly once; ok is false when the lock is held
// elsewhere.
func (reg *Registry) TryLock(path string) (release func(), ok bool) {
	entry := reg.entry(path)
	if !entry.lock.TryLock() {
		return nil, false
	}
	var once sync.Once
	return func() { once.Do(entry.lock.Unlock) }, true
}

// Watermark returns the last-seen identifier for a path.
func (reg *Registry) Watermark(path string) (imap.UID, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	entry, ok := reg.entries[path]
	if !ok {
		return 0, false
	}
	return entry.state.Watermark, true
}

// Advance raises the watermark for a path. A lower or equal identifier is
// ignored; the watermark never decreases.
func (reg *Registry) Advance(path string, uid imap.UID) {
	entry := reg.entry(path)
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if uid > entry.state.Watermark {
		entry.state.Watermark = uid
	}
}

// States returns a snapshot of every tracked mailbox keyed by path.
func (reg *Registry) States() map[string]base.MailboxState {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	states := make(map[string]base.MailboxState, len(reg.entries))
	for path, entry := range reg.entries {
		states[path] = entry.state
	}
	return states
}

// entry returns the tracked entry for path, creating it on first use.
func (reg *Registry) entry(path string) *mailboxEntry {
	reg.mu.RLock()
	entry, ok := reg.entries[path]
	reg.mu.RUnlock()
	if ok {
		return entry
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()
	if entry, ok = reg.entries[path]; ok {
		return entry
	}
	entry = &mailboxEntry{state: base.MailboxState{Path: path}}
	reg.entries[path] = entry
	return entry
}
