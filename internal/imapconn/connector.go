// Package imapconn implements base.Client on top of go-imap v2.
package imapconn

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/pkg/errors"

	"github.com/mailwatch/mailwatch/pkg/base"
)

type Option func(*Connector)

// Connector holds the single live IMAP connection shared by every mailbox
// operation.
type Connector struct {
	addr      string
	username  string
	password  string
	tlsConfig *tls.Config
	insecure  bool
	logger    *slog.Logger

	mu      sync.Mutex
	client  *imapclient.Client
	onError func(error)
}

func WithAddr(addr string) Option {
	return func(c *Connector) {
		c.addr = addr
	}
}

func WithCreds(username string, password string) Option {
	return func(c *Connector) {
		c.username = username
		c.password = password
	}
}

func WithTLSConfig(config *tls.Config) Option {
	return func(c *Connector) {
		c.tlsConfig = config
	}
}

// WithInsecure dials without TLS. Meant for test servers only.
func WithInsecure() Option {
	return func(c *Connector) {
		c.insecure = true
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Connector) {
		c.logger = logger
	}
}

func NewConnector(opts ...Option) *Connector {
	c := &Connector{}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Connect establishes the IMAP connection and logs in.
func (c *Connector) Connect() error {
	if err := c.validate(); err != nil {
		return err
	}

	var options *imapclient.Options
	if c.tlsConfig != nil {
		options = &imapclient.Options{TLSConfig: c.tlsConfig}
	}

	var client *imapclient.Client
	var err error
	if c.insecure {
		client, err = imapclient.DialInsecure(c.addr, options)
	} else {
		client, err = imapclient.DialTLS(c.addr, options)
	}
	if err != nil {
		return errors.Wrapf(err, "dialing %s", c.addr)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return errors.Wrapf(err, "logging in as %s", c.username)
	}

	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	c.logger.Debug("logged in", slog.String("addr", c.addr), slog.String("user", c.username))
	return nil
}

// Close logs out and clears the connection.
func (c *Connector) Close() error {
	c.mu.Lock()
	client := c.client
	c.client = nil
	c.mu.Unlock()

	if client == nil {
		return nil
	}
	return client.Logout().Wait()
}

// OnError registers the transport-error handler. Operations that fail with a
// connection-level error invoke it after returning.
func (c *Connector) OnError(handler func(error)) {
	c.mu.Lock()
	c.onError = handler
	c.mu.Unlock()
}

// ListMailboxes returns the paths of every mailbox on the store.
func (c *Connector) ListMailboxes(ctx context.Context) ([]string, error) {
	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	list, err := client.List("", "*", nil).Collect()
	if err != nil {
		return nil, c.reportIfTransport(errors.Wrap(err, "listing mailboxes"))
	}

	paths := make([]string, 0, len(list))
	for _, data := range list {
		paths = append(paths, data.Mailbox)
	}
	return paths, nil
}

// FetchAll selects the mailbox and fetches every message with envelope,
// flags and a peeked raw body.
func (c *Connector) FetchAll(ctx context.Context, mailbox string) ([]base.RawMessage, error) {
	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	selection, err := client.Select(mailbox, nil).Wait()
	if err != nil {
		return nil, c.reportIfTransport(errors.Wrapf(err, "selecting %s", mailbox))
	}
	if selection.NumMessages == 0 {
		return nil, nil
	}

	var uidSet imap.UIDSet
	uidSet.AddRange(1, 0) // 1:*
	return c.fetch(client, mailbox, uidSet)
}

// SearchFlagged selects the mailbox and fetches the messages matching (or
// not matching, when negate is set) the given flag.
func (c *Connector) SearchFlagged(ctx context.Context, mailbox string, flag imap.Flag, negate bool) ([]base.RawMessage, error) {
	client, err := c.conn()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return nil, c.reportIfTransport(errors.Wrapf(err, "selecting %s", mailbox))
	}

	criteria := &imap.SearchCriteria{}
	if negate {
		criteria.NotFlag = []imap.Flag{flag}
	} else {
		criteria.Flag = []imap.Flag{flag}
	}

	data, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, c.reportIfTransport(errors.Wrapf(err, "searching %s", mailbox))
	}

	uids := data.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}

	return c.fetch(client, mailbox, imap.UIDSetNum(uids...))
}

// AddFlags adds flags to the given messages with a silent store.
func (c *Connector) AddFlags(ctx context.Context, mailbox string, uids []imap.UID, flags []imap.Flag) error {
	return c.storeFlags(ctx, mailbox, uids, flags, imap.StoreFlagsAdd)
}

// RemoveFlags removes flags from the given messages with a silent store.
func (c *Connector) RemoveFlags(ctx context.Context, mailbox string, uids []imap.UID, flags []imap.Flag) error {
	return c.storeFlags(ctx, mailbox, uids, flags, imap.StoreFlagsDel)
}

// Delete marks the messages deleted and expunges them.
func (c *Connector) Delete(ctx context.Context, mailbox string, uids []imap.UID) error {
	if len(uids) == 0 {
		return nil
	}
	if err := c.storeFlags(ctx, mailbox, uids, []imap.Flag{imap.FlagDeleted}, imap.StoreFlagsAdd); err != nil {
		return err
	}

	client, err := c.conn()
	if err != nil {
		return err
	}

	uidSet := imap.UIDSetNum(uids...)
	if client.Caps().Has(imap.CapUIDPlus) {
		if _, err := client.UIDExpunge(uidSet).Collect(); err != nil {
			return c.reportIfTransport(errors.Wrapf(err, "expunging %s", mailbox))
		}
		return nil
	}

	if _, err := client.Expunge().Collect(); err != nil {
		return c.reportIfTransport(errors.Wrapf(err, "expunging %s", mailbox))
	}
	return nil
}

func (c *Connector) storeFlags(ctx context.Context, mailbox string, uids []imap.UID, flags []imap.Flag, op imap.StoreFlagsOp) error {
	if len(uids) == 0 {
		return nil
	}

	client, err := c.conn()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := client.Select(mailbox, nil).Wait(); err != nil {
		return c.reportIfTransport(errors.Wrapf(err, "selecting %s", mailbox))
	}

	store := imap.StoreFlags{
		Op:     op,
		Silent: true,
		Flags:  flags,
	}
	if err := client.Store(imap.UIDSetNum(uids...), &store, nil).Close(); err != nil {
		return c.reportIfTransport(errors.Wrapf(err, "storing flags on %s", mailbox))
	}
	return nil
}

func (c *Connector) fetch(client *imapclient.Client, mailbox string, uidSet imap.UIDSet) ([]base.RawMessage, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOptions := &imap.FetchOptions{
		UID:         true,
		Envelope:    true,
		Flags:       true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	buffers, err := client.Fetch(uidSet, fetchOptions).Collect()
	if err != nil {
		return nil, c.reportIfTransport(errors.Wrapf(err, "fetching %s", mailbox))
	}

	raws := make([]base.RawMessage, 0, len(buffers))
	for _, buf := range buffers {
		raws = append(raws, base.RawMessage{
			UID:      buf.UID,
			SeqNum:   buf.SeqNum,
			Envelope: buf.Envelope,
			Flags:    buf.Flags,
			Body:     buf.FindBodySection(bodySection),
		})
	}
	return raws, nil
}

func (c *Connector) conn() (*imapclient.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil, errors.New("IMAP client is not connected")
	}
	return c.client, nil
}

func (c *Connector) validate() error {
	if strings.TrimSpace(c.addr) == "" {
		return errors.New("IMAP address is required")
	}
	if strings.TrimSpace(c.username) == "" || strings.TrimSpace(c.password) == "" {
		return errors.New("IMAP credentials are required")
	}
	return nil
}

// reportIfTransport passes the error through, notifying the registered
// handler when it looks like a dead connection rather than a protocol-level
// refusal.
func (c *Connector) reportIfTransport(err error) error {
	if err == nil {
		return nil
	}
	if !isTransportError(err) {
		return err
	}
	c.logger.Warn("transport failure", slog.Any("error", err))

	c.mu.Lock()
	handler := c.onError
	c.mu.Unlock()
	if handler != nil {
		handler(err)
	}
	return err
}

func isTransportError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := err.Error()
	for _, marker := range []string{
		"use of closed network connection",
		"connection reset by peer",
		"broken pipe",
		"unexpected EOF",
		"imapclient: connection closed",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
