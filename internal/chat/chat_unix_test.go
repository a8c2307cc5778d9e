//go:build unix

package chat

import (
	"context"
	"io"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A blocking descriptor is what stdin is on a terminal: closing the file
// does not wake a pending Read.
func TestLoopStopsOnCancelWithBlockingInput(t *testing.T) {
	var fds [2]int
	require.NoError(t, syscall.Pipe(fds[:]))
	in := os.NewFile(uintptr(fds[0]), "chat-in")
	writer := os.NewFile(uintptr(fds[1]), "chat-in-writer")

	responder := &recordingResponder{}
	loop := NewLoop(in, io.Discard, responder, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel while input was blocked")
	}
	assert.Empty(t, responder.Calls())

	// EOF releases the reader.
	require.NoError(t, writer.Close())
}
