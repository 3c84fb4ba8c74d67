// Package selector normalizes the heterogeneous "which messages" input of the
// mutation surface into a canonical identifier list.
package selector

import (
	"github.com/emersion/go-imap/v2"

	"github.com/mailwatch/mailwatch/pkg/base"
)

// Selector names a set of messages either by explicit identifier or by the
// message values a subscriber was handed earlier. Build one with FromUIDs or
// FromMessages.
type Selector struct {
	uids     []imap.UID
	messages []base.Message
}

func FromUIDs(uids ...imap.UID) Selector {
	return Selector{uids: uids}
}

func FromMessages(messages ...base.Message) Selector {
	return Selector{messages: messages}
}

// Resolve returns the selector's identifiers in input order with duplicates
// removed. Explicit identifiers come before identifiers taken from messages
// when both were supplied.
func (s Selector) Resolve() []imap.UID {
	seen := make(map[imap.UID]struct{}, len(s.uids)+len(s.messages))
	resolved := make([]imap.UID, 0, len(s.uids)+len(s.messages))

	add := func(uid imap.UID) {
		if _, ok := seen[uid]; ok {
			return
		}
		seen[uid] = struct{}{}
		resolved = append(resolved, uid)
	}

	for _, uid := range s.uids {
		add(uid)
	}
	for _, msg := range s.messages {
		add(msg.UID)
	}
	return resolved
}

// IsEmpty reports whether the selector names no messages at all.
func (s Selector) IsEmpty() bool {
	return len(s.uids) == 0 && len(s.messages) == 0
}
