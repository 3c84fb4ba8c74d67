// Package extract builds normalized messages from raw fetch results.
package extract

import (
	"bytes"
	"io"
	"log/slog"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-message/mail"

	"github.com/mailwatch/mailwatch/pkg/base"
)

// Builder turns raw fetch data into base.Message values. Construction never
// fails: a body that cannot be parsed degrades to an empty BodyText.
type Builder struct {
	logger *slog.Logger
}

func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{logger: logger}
}

// Build assembles a Message from fetch metadata and the raw body bytes.
// Subject and sender come from the envelope; fields parsed out of the body
// take precedence when both are present.
func (b *Builder) Build(mailboxPath string, raw base.RawMessage) base.Message {
	msg := base.Message{
		UID:      raw.UID,
		SeqNum:   raw.SeqNum,
		Mailbox:  mailboxPath,
		Envelope: raw.Envelope,
	}

	if raw.Envelope != nil {
		msg.Subject = raw.Envelope.Subject
		msg.Sender = senderFromEnvelope(raw.Envelope)
	}

	if len(raw.Body) == 0 {
		return msg
	}

	subject, sender, text := b.parseBody(raw.Body)
	if subject != "" {
		msg.Subject = subject
	}
	if sender != "" {
		msg.Sender = sender
	}
	msg.BodyText = stripFooter(text)

	return msg
}

func senderFromEnvelope(envelope *imap.Envelope) string {
	if len(envelope.From) == 0 {
		return ""
	}
	from := envelope.From[0]
	if from.Name != "" {
		return from.Name
	}
	return from.Addr()
}

// parseBody walks the MIME structure for the text/plain part. An unparsable
// body is treated as plain text wholesale.
func (b *Builder) parseBody(raw []byte) (subject, sender, text string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		b.logger.Debug("body parse failed, treating as plain text", slog.Any("error", err))
		return "", "", string(raw)
	}
	defer mr.Close()

	if s, err := mr.Header.Subject(); err == nil && s != "" {
		subject = s
	}
	if addrs, err := mr.Header.AddressList("From"); err == nil && len(addrs) > 0 {
		if addrs[0].Name != "" {
			sender = addrs[0].Name
		} else {
			sender = addrs[0].Address
		}
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}
		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := header.ContentType()
		if !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, readErr := io.ReadAll(part.Body)
		if readErr != nil {
			continue
		}
		text = string(body)
		break
	}

	return subject, sender, text
}

// stripFooter removes the trailing transport boundary and anything after it.
// The marker is the second-to-last line (ignoring one trailing blank) with
// its final two characters dropped; the text is cut at the marker's first
// occurrence. Anything the heuristic cannot handle yields "".
func stripFooter(text string) string {
	if text == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 2 {
		return ""
	}

	markerLine := lines[len(lines)-2]
	if len(markerLine) < 2 {
		return ""
	}
	marker := markerLine[:len(markerLine)-2]
	if marker == "" {
		return ""
	}

	idx := strings.Index(text, marker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[:idx])
}
