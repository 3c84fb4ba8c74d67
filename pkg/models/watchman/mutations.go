package watchman

import (
	"log/slog"

	"github.com/emersion/go-imap/v2"

	"github.com/mailwatch/mailwatch/pkg/selector"
	"github.com/mailwatch/mailwatch/pkg/utils"
)

// DeleteMails deletes the selected messages. On success a removed event is
// emitted per identifier, in input order, after the mailbox lock has been
// released. Returns false when the lock is unavailable or the store rejects
// the operation.
func (w *Watchman) DeleteMails(path string, sel selector.Selector) bool {
	uids := sel.Resolve()

	release, ok := w.registry.TryLock(path)
	if !ok {
		w.logger.Warn("mailbox lock unavailable", slog.String("mailbox", path))
		return false
	}

	err := w.client.Delete(w.ctx, path, uids)
	release()
	if err != nil {
		w.logger.Error("delete failed",
			slog.String("mailbox", path),
			slog.Any("error", utils.WrapError(err)),
		)
		return false
	}

	for _, uid := range uids {
		w.bus.EmitRemoved(uid)
	}
	return true
}

// SeeMails adds the seen flag to the selected messages. No event is emitted.
func (w *Watchman) SeeMails(path string, sel selector.Selector) bool {
	uids := sel.Resolve()

	release, ok := w.registry.TryLock(path)
	if !ok {
		w.logger.Warn("mailbox lock unavailable", slog.String("mailbox", path))
		return false
	}
	defer release()

	if err := w.client.AddFlags(w.ctx, path, uids, []imap.Flag{imap.FlagSeen}); err != nil {
		w.logger.Error("marking seen failed",
			slog.String("mailbox", path),
			slog.Any("error", utils.WrapError(err)),
		)
		return false
	}
	return true
}

// UnseeMails removes the seen flag from the selected messages. An empty
// selection returns false without contacting the store. No event is emitted.
func (w *Watchman) UnseeMails(path string, sel selector.Selector) bool {
	uids := sel.Resolve()
	if len(uids) == 0 {
		return false
	}

	release, ok := w.registry.TryLock(path)
	if !ok {
		w.logger.Warn("mailbox lock unavailable", slog.String("mailbox", path))
		return false
	}
	defer release()

	if err := w.client.RemoveFlags(w.ctx, path, uids, []imap.Flag{imap.FlagSeen}); err != nil {
		w.logger.Error("marking unseen failed",
			slog.String("mailbox", path),
			slog.Any("error", utils.WrapError(err)),
		)
		return false
	}
	return true
}
