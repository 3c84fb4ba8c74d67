package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/mailwatch/mailwatch/pkg/base"
	"github.com/mailwatch/mailwatch/pkg/mock"
)

func TestListMailboxStatesTableDriven(t *testing.T) {
	tests := []struct {
		name           string
		mockMailboxes  []string
		mockMessages   map[string][]base.RawMessage
		mockListError  error
		expectedError  string
		expectedStates map[string]base.MailboxState
	}{
		{
			name:          "successful execution with multiple mailboxes",
			mockMailboxes: []string{"INBOX", "Archive"},
			mockMessages: map[string][]base.RawMessage{
				"INBOX":   {{UID: 3}, {UID: 7}},
				"Archive": {},
			},
			expectedStates: map[string]base.MailboxState{
				"INBOX":   {Path: "INBOX", Watermark: 7},
				"Archive": {Path: "Archive", Watermark: 1},
			},
		},
		{
			name:           "successful execution with empty mailbox list",
			mockMailboxes:  []string{},
			expectedStates: map[string]base.MailboxState{},
		},
		{
			name:          "error when listing fails",
			mockListError: errors.New("connection dropped"),
			expectedError: "scanning mailboxes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			client := mock.NewMockClient(ctrl)
			client.EXPECT().
				ListMailboxes(gomock.Any()).
				Return(tt.mockMailboxes, tt.mockListError)
			for path, raws := range tt.mockMessages {
				client.EXPECT().
					FetchAll(gomock.Any(), path).
					Return(raws, nil)
			}

			var out bytes.Buffer
			err := listMailboxStates(context.Background(), client, mock.SetupLogger(t), &out)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
				return
			}

			assert.NoError(t, err)

			var states map[string]base.MailboxState
			assert.NoError(t, json.Unmarshal(out.Bytes(), &states))
			assert.Equal(t, tt.expectedStates, states)
		})
	}
}

func TestValidateActionWithConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	contents := `
watch:
  mailboxes:
    - INBOX
status:
  enabled: true
`
	assert.NoError(t, os.WriteFile(path, []byte(contents), 0o600))

	err := run([]string{"mailwatch", "--config", path, "validate"})
	assert.NoError(t, err)
}

func TestValidateActionMissingConfigFile(t *testing.T) {
	err := run([]string{"mailwatch", "--config", "/nonexistent/config.yaml", "validate"})
	assert.Error(t, err)
}
