package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/inbox-triage/internal/common"
)

func TestReadMessages(t *testing.T) {
	tests := []struct {
		wantErr error
		name    string
		input   string
		wantIDs []string
	}{
		{
			name:    "array",
			input:   `[{"id":"1","subject":"a"},{"id":"2"}]`,
			wantIDs: []string{"1", "2"},
		},
		{
			name:    "graph page",
			input:   `{"value":[{"id":"g1","from":{"address":"a@b.com"}}]}`,
			wantIDs: []string{"g1"},
		},
		{
			name:    "messages envelope",
			input:   `{"messages":[{"id":"m1"}]}`,
			wantIDs: []string{"m1"},
		},
		{
			name:    "empty array",
			input:   `[]`,
			wantIDs: []string{},
		},
		{
			name:    "blank",
			input:   "  \n",
			wantErr: common.ErrNoMessages,
		},
		{
			name:    "object without messages",
			input:   `{"other":1}`,
			wantErr: common.ErrNoMessages,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, err := ReadMessages(strings.NewReader(tt.input))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)

			ids := make([]string, 0, len(msgs))
			for _, m := range msgs {
				ids = append(ids, m.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestReadMessages_Malformed(t *testing.T) {
	_, err := ReadMessages(strings.NewReader(`[{"id":`))
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidMessages)
}

func TestReadMessagesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "messages.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"x","isRead":true}]`), 0o600))

	msgs, err := ReadMessagesFile(path)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].IsRead)

	_, err = ReadMessagesFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"tasks": 1}))
	assert.Equal(t, "{\n  \"tasks\": 1\n}\n", buf.String())
}
