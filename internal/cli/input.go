package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Veraticus/inbox-triage/internal/common"
	"github.com/Veraticus/inbox-triage/internal/model"
)

// graphPage is the envelope mail APIs return a page of messages in.
type graphPage struct {
	Value    []model.Message `json:"value"`
	Messages []model.Message `json:"messages"`
}

// ReadMessages decodes a message collection. The input is either a JSON
// array of messages or an object holding them under "value" or "messages".
func ReadMessages(r io.Reader) ([]model.Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, common.ErrNoMessages
	}

	if data[0] == '[' {
		var msgs []model.Message
		if err := json.Unmarshal(data, &msgs); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidMessages, err)
		}
		return msgs, nil
	}

	var page graphPage
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidMessages, err)
	}
	switch {
	case page.Value != nil:
		return page.Value, nil
	case page.Messages != nil:
		return page.Messages, nil
	default:
		return nil, common.ErrNoMessages
	}
}

// ReadMessagesFile reads a message collection from path, or stdin for "-".
func ReadMessagesFile(path string) ([]model.Message, error) {
	if path == "-" {
		return ReadMessages(os.Stdin)
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	return ReadMessages(f)
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
