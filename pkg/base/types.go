package base

import (
	"context"

	"github.com/emersion/go-imap/v2"
)

// MailboxState tracks the highest message identifier already observed for a
// mailbox. The watermark never decreases once set; an empty mailbox is seeded
// with watermark 1.
type MailboxState struct {
	Path      string   `json:"path"`
	Watermark imap.UID `json:"watermark"`
}

// RawMessage is what the protocol client hands back for one message: fetch
// metadata plus the raw RFC 822 bytes when a body section was requested.
type RawMessage struct {
	UID      imap.UID
	SeqNum   uint32
	Envelope *imap.Envelope
	Flags    []imap.Flag
	Body     []byte
}

// Message is the normalized form delivered to event subscribers. Immutable
// once built; construction never fails (a malformed body degrades to an empty
// BodyText).
type Message struct {
	UID      imap.UID
	SeqNum   uint32
	Subject  string
	Sender   string
	BodyText string
	Mailbox  string

	// Envelope is the parsed metadata the message was built from.
	Envelope *imap.Envelope
}

// Client is an interface to abstract the IMAP client methods used. All calls
// share one underlying connection; callers serialize access per mailbox
// through the registry lock.
type Client interface {
	Connect() error
	Close() error

	// OnError registers a handler invoked when the transport reports a
	// connection-level failure. At most one handler is kept.
	OnError(handler func(error))

	ListMailboxes(ctx context.Context) ([]string, error)
	FetchAll(ctx context.Context, mailbox string) ([]RawMessage, error)
	SearchFlagged(ctx context.Context, mailbox string, flag imap.Flag, negate bool) ([]RawMessage, error)
	AddFlags(ctx context.Context, mailbox string, uids []imap.UID, flags []imap.Flag) error
	RemoveFlags(ctx context.Context, mailbox string, uids []imap.UID, flags []imap.Flag) error
	Delete(ctx context.Context, mailbox string, uids []imap.UID) error
}
