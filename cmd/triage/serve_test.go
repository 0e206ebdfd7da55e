package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_StopsOnCancel(t *testing.T) {
	useTestConfig(t)
	inbox := writeInbox(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var out bytes.Buffer
	cmd := serveCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--input", inbox, "--addr", "127.0.0.1:0"})

	done := make(chan error, 1)
	go func() {
		done <- cmd.ExecuteContext(ctx)
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not stop after cancellation")
	}
}

func TestServeCmd_MissingInput(t *testing.T) {
	useTestConfig(t)

	var out bytes.Buffer
	cmd := serveCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--input", "/nonexistent/inbox.json", "--addr", "127.0.0.1:0"})

	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not read messages")
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := serveCmd()
	for _, name := range []string{"input", "addr", "print", "tls"} {
		assert.NotNil(t, cmd.Flag(name), "missing flag %s", name)
	}
}
