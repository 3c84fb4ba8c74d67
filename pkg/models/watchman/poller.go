package watchman

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/utils"
)

// pollLoop runs one immediate poll and then polls on every tick until the
// session is cancelled. Poll errors never stop the loop.
func (w *Watchman) pollLoop(ctx context.Context, path string) {
	w.pollOnce(ctx, path)

	ticker := time.NewTicker(w.watchInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pollOnce(ctx, path)
		}
	}
}

// pollOnce diffs one mailbox against its watermark and emits an arrived
// event for each message beyond it, oldest first. The strict greater-than
// filter plus ascending emission keeps delivery duplicate-free and ordered
// across polls.
func (w *Watchman) pollOnce(ctx context.Context, path string) {
	if !w.beginPoll(path) {
		w.logger.Debug("poll still in progress, skipping tick", slog.String("mailbox", path))
		return
	}
	defer w.endPoll(path)

	release, ok := w.registry.TryLock(path)
	if !ok {
		w.logger.Warn("mailbox lock unavailable", slog.String("mailbox", path))
		return
	}

	raws, err := w.client.FetchAll(ctx, path)
	if err != nil {
		release()
		w.logger.Error("poll failed",
			slog.String("mailbox", path),
			slog.Any("error", utils.WrapError(err)),
		)
		return
	}

	watermark, _ := w.registry.Watermark(path)
	fresh := make([]base.RawMessage, 0, len(raws))
	for _, raw := range raws {
		if raw.UID > watermark {
			fresh = append(fresh, raw)
		}
	}

	if len(fresh) == 0 {
		release()
		return
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].UID < fresh[j].UID })
	w.registry.Advance(path, fresh[len(fresh)-1].UID)
	release()

	for _, raw := range fresh {
		w.bus.EmitArrived(w.builder.Build(path, raw))
	}

	w.logger.Info("new mail detected",
		slog.String("mailbox", path),
		slog.Int("messages", len(fresh)),
		slog.Uint64("watermark", uint64(fresh[len(fresh)-1].UID)),
	)
}

func (w *Watchman) beginPoll(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.inFlight[path] {
		return false
	}
	w.inFlight[path] = true
	return true
}

func (w *Watchman) endPoll(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.inFlight, path)
}
