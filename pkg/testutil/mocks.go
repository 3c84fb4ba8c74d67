// Package testutil provides testing utilities and mocks shared across test
// files. It centralizes mock implementations of the watch surface so handler
// and command tests do not duplicate them.
package testutil

import (
	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/selector"
)

// Watcher defines the watch surface consumed by the status handlers and CLI
// commands.
type Watcher interface {
	Run()
	Stop()
	GetMailboxes() map[string]base.MailboxState
	GetAllMails(mailbox string) ([]base.Message, error)
	GetSeenMails(mailbox string) ([]base.Message, error)
	GetUnseenMails(mailbox string) ([]base.Message, error)
	DeleteMails(mailbox string, sel selector.Selector) bool
	SeeMails(mailbox string, sel selector.Selector) bool
	UnseeMails(mailbox string, sel selector.Selector) bool
}

// MockWatcher provides a mock implementation of Watcher for testing.
// It allows injection of custom behavior through function fields and tracks
// method calls for verification.
type MockWatcher struct {
	RunFunc            func()
	StopFunc           func()
	GetMailboxesFunc   func() map[string]base.MailboxState
	GetAllMailsFunc    func(mailbox string) ([]base.Message, error)
	GetSeenMailsFunc   func(mailbox string) ([]base.Message, error)
	GetUnseenMailsFunc func(mailbox string) ([]base.Message, error)
	DeleteMailsFunc    func(mailbox string, sel selector.Selector) bool
	SeeMailsFunc       func(mailbox string, sel selector.Selector) bool
	UnseeMailsFunc     func(mailbox string, sel selector.Selector) bool

	// Track method calls for verification
	RunCalled          bool
	StopCalled         bool
	GetMailboxesCalled bool
}

// NewMockWatcher creates a new MockWatcher with default implementations.
func NewMockWatcher() *MockWatcher {
	return &MockWatcher{}
}

// Run implements Watcher.Run for testing.
func (m *MockWatcher) Run() {
	m.RunCalled = true
	if m.RunFunc != nil {
		m.RunFunc()
	}
}

// Stop implements Watcher.Stop for testing.
func (m *MockWatcher) Stop() {
	m.StopCalled = true
	if m.StopFunc != nil {
		m.StopFunc()
	}
}

// GetMailboxes implements Watcher.GetMailboxes for testing.
func (m *MockWatcher) GetMailboxes() map[string]base.MailboxState {
	m.GetMailboxesCalled = true
	if m.GetMailboxesFunc != nil {
		return m.GetMailboxesFunc()
	}
	return make(map[string]base.MailboxState)
}

// GetAllMails implements Watcher.GetAllMails for testing.
func (m *MockWatcher) GetAllMails(mailbox string) ([]base.Message, error) {
	if m.GetAllMailsFunc != nil {
		return m.GetAllMailsFunc(mailbox)
	}
	return nil, nil
}

// GetSeenMails implements Watcher.GetSeenMails for testing.
func (m *MockWatcher) GetSeenMails(mailbox string) ([]base.Message, error) {
	if m.GetSeenMailsFunc != nil {
		return m.GetSeenMailsFunc(mailbox)
	}
	return nil, nil
}

// GetUnseenMails implements Watcher.GetUnseenMails for testing.
func (m *MockWatcher) GetUnseenMails(mailbox string) ([]base.Message, error) {
	if m.GetUnseenMailsFunc != nil {
		return m.GetUnseenMailsFunc(mailbox)
	}
	return nil, nil
}

// DeleteMails implements Watcher.DeleteMails for testing.
func (m *MockWatcher) DeleteMails(mailbox string, sel selector.Selector) bool {
	if m.DeleteMailsFunc != nil {
		return m.DeleteMailsFunc(mailbox, sel)
	}
	return true
}

// SeeMails implements Watcher.SeeMails for testing.
func (m *MockWatcher) SeeMails(mailbox string, sel selector.Selector) bool {
	if m.SeeMailsFunc != nil {
		return m.SeeMailsFunc(mailbox, sel)
	}
	return true
}

// UnseeMails implements Watcher.UnseeMails for testing.
func (m *MockWatcher) UnseeMails(mailbox string, sel selector.Selector) bool {
	if m.UnseeMailsFunc != nil {
		return m.UnseeMailsFunc(mailbox, sel)
	}
	return true
}

// Reset clears all call tracking flags.
func (m *MockWatcher) Reset() {
	m.RunCalled = false
	m.StopCalled = false
	m.GetMailboxesCalled = false
}
