package registry

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

func TestNewRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	logger := mock.SetupLogger(t)

	t.Run("Successful Creation", func(t *testing.T) {
		reg, err := NewRegistry(
			WithClient(mockClient),
			WithLogger(logger),
		)
		assert.NoError(t, err)
		assert.NotNil(t, reg)
	})

	t.Run("Missing Client", func(t *testing.T) {
		_, err := NewRegistry(WithLogger(logger))
		assert.Error(t, err)
	})

	t.Run("Missing Logger", func(t *testing.T) {
		_, err := NewRegistry(WithClient(mockClient))
		assert.Error(t, err)
	})
}

func TestLoadAllSeedsWatermarks(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)
	ctx := context.Background()

	reg, err := NewRegistry(
		WithClient(mockClient),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}

	mockClient.EXPECT().
		ListMailboxes(gomock.Any()).
		Return([]string{"INBOX", "Archive"}, nil)

	mockClient.EXPECT().
		FetchAll(gomock.Any(), "INBOX").
		Return([]base.RawMessage{
			{UID: 3, SeqNum: 1, Envelope: &imap.Envelope{Subject: "a"}},
			{UID: 7, SeqNum: 2, Envelope: &imap.Envelope{Subject: "b"}},
		}, nil)

	mockClient.EXPECT().
		FetchAll(gomock.Any(), "Archive").
		Return(nil, nil)

	pending, err := reg.LoadAll(ctx)
	assert.NoError(t, err)
	assert.Len(t, pending, 2)
	assert.Equal(t, "INBOX", pending[0].Mailbox)

	inbox, ok := reg.Watermark("INBOX")
	assert.True(t, ok)
	assert.Equal(t, imap.UID(7), inbox)

	// Empty mailboxes are seeded with the sentinel minimum.
	archive, ok := reg.Watermark("Archive")
	assert.True(t, ok)
	assert.Equal(t, EmptyMailboxWatermark, archive)
}

func TestLoadAllPropagatesFetchError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockClient := mock.NewMockClient(ctrl)

	reg, err := NewRegistry(
		WithClient(mockClient),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}

	mockClient.EXPECT().
		ListMailboxes(gomock.Any()).
		Return([]string{"INBOX"}, nil)

	mockClient.EXPECT().
		FetchAll(gomock.Any(), "INBOX").
		Return(nil, errors.New("connection reset"))

	_, err = reg.LoadAll(context.Background())
	assert.Error(t, err)
}

func TestAdvanceIsMonotonic(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg, err := NewRegistry(
		WithClient(mock.NewMockClient(ctrl)),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}

	reg.Advance("INBOX", 5)
	reg.Advance("INBOX", 3)

	mark, ok := reg.Watermark("INBOX")
	assert.True(t, ok)
	assert.Equal(t, imap.UID(5), mark)

	reg.Advance("INBOX", 9)
	mark, _ = reg.Watermark("INBOX")
	assert.Equal(t, imap.UID(9), mark)
}

func TestTryLock(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg, err := NewRegistry(
		WithClient(mock.NewMockClient(ctrl)),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}

	release, ok := reg.TryLock("INBOX")
	assert.True(t, ok)

	_, ok = reg.TryLock("INBOX")
	assert.False(t, ok)

	// Locks are per path.
	releaseOther, ok := reg.TryLock("Archive")
	assert.True(t, ok)
	releaseOther()

	release()
	release() // releasing twice is harmless

	release2, ok := reg.TryLock("INBOX")
	assert.True(t, ok)
	release2()
}

func TestStatesSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	reg, err := NewRegistry(
		WithClient(mock.NewMockClient(ctrl)),
		WithLogger(mock.SetupLogger(t)),
	)
	if err != nil {
		t.Fatal(err)
	}

	reg.Advance("INBOX", 4)

	states := reg.States()
	assert.Equal(t, imap.UID(4), states["INBOX"].Watermark)

	// Mutating the snapshot does not touch the registry.
	states["INBOX"] = base.MailboxState{Path: "INBOX", Watermark: 99}
	mark, _ := reg.Watermark("INBOX")
	assert.Equal(t, imap.UID(4), mark)
}
