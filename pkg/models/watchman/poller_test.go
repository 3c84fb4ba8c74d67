package watchman

import (
	"context"
	"testing"

	"github.com/emersion/go-imap/v2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/mock"
)

func newTestWatchman(t *testing.T, mockClient *mock.MockClient) *Watchman {
	t.Helper()
	w, err := NewWatchman(
		WithClient(mockClient),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestPollEmitsOnlyBeyondWatermark(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	w := newTestWatchman(t, mockClient)
	w.registry.Advance("INBOX", 1)

	var arrived []imap.UID
	w.OnArrived(func(m base.Message) { arrived = append(arrived, m.UID) })

	firstScan := []base.RawMessage{{UID: 3}, {UID: 1}, {UID: 2}}
	secondScan := []base.RawMessage{{UID: 1}, {UID: 2}, {UID: 3}, {UID: 5}, {UID: 4}}

	gomock.InOrder(
		mockClient.EXPECT().FetchAll(gomock.Any(), "INBOX").Return(firstScan, nil),
		mockClient.EXPECT().FetchAll(gomock.Any(), "INBOX").Return(secondScan, nil),
	)

	w.pollOnce(context.Background(), "INBOX")
	assert.Equal(t, []imap.UID{2, 3}, arrived)
	mark, _ := w.registry.Watermark("INBOX")
	assert.Equal(t, imap.UID(3), mark)

	w.pollOnce(context.Background(), "INBOX")
	assert.Equal(t, []imap.UID{2, 3, 4, 5}, arrived)
	mark, _ = w.registry.Watermark("INBOX")
	assert.Equal(t, imap.UID(5), mark)
}

func TestPollWithNothingNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	w := newTestWatchman(t, mockClient)
	w.registry.Advance("INBOX", 9)

	emitted := false
	w.OnArrived(func(base.Message) { emitted = true })

	mockClient.EXPECT().
		FetchAll(gomock.Any(), "INBOX").
		Return([]base.RawMessage{{UID: 4}, {UID: 9}}, nil)

	w.pollOnce(context.Background(), "INBOX")

	assert.False(t, emitted)
	mark, _ := w.registry.Watermark("INBOX")
	assert.Equal(t, imap.UID(9), mark)
}

func TestPollErrorIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	w := newTestWatchman(t, mockClient)
	w.registry.Advance("INBOX", 2)

	mockClient.EXPECT().
		FetchAll(gomock.Any(), "INBOX").
		Return(nil, errors.New("FETCH failed"))

	assert.NotPanics(t, func() {
		w.pollOnce(context.Background(), "INBOX")
	})

	// Watermark untouched, lock released for the next tick.
	mark, _ := w.registry.Watermark("INBOX")
	assert.Equal(t, imap.UID(2), mark)
	release, ok := w.registry.TryLock("INBOX")
	assert.True(t, ok)
	release()
}

func TestPollSkipsWhenLockHeld(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	w := newTestWatchman(t, mockClient)

	release, ok := w.registry.TryLock("INBOX")
	assert.True(t, ok)
	defer release()

	// No FetchAll expectation: the poll must not reach the client.
	w.pollOnce(context.Background(), "INBOX")
}

func TestPollSkipsWhenAlreadyInProgress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	w := newTestWatchman(t, mockClient)

	assert.True(t, w.beginPoll("INBOX"))
	defer w.endPoll("INBOX")

	// Overlapping tick is skipped entirely.
	w.pollOnce(context.Background(), "INBOX")
}
