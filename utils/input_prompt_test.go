package utils

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meysamhadeli/dappai/apperrors"
)

func TestAskReadsTrimmedLines(t *testing.T) {
	p := NewTerminalPrompter(strings.NewReader("  add a pause function \nlast"), io.Discard)

	first, err := p.Ask(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "add a pause function", first)

	second, err := p.Ask(context.Background(), "again?")
	require.NoError(t, err)
	assert.Equal(t, "last", second)

	_, err = p.Ask(context.Background(), "")
	assert.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.ErrorIs(t, err, io.EOF)
}

func TestAskInterruptKeepsPendingLine(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()
	p := NewTerminalPrompter(reader, io.Discard)

	assert.False(t, p.Interrupt())

	go func() {
		for !p.Interrupt() {
			time.Sleep(time.Millisecond)
		}
	}()
	_, err := p.Ask(context.Background(), "")
	require.ErrorIs(t, err, apperrors.ErrCancelled)
	assert.NotErrorIs(t, err, io.EOF)

	go func() {
		_, _ = writer.Write([]byte("deploy it\n"))
	}()
	line, err := p.Ask(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "deploy it", line)
}

func TestAskCancelledContext(t *testing.T) {
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewTerminalPrompter(reader, io.Discard).Ask(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrCancelled)
}

func TestConfirmAndSelectRespectCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewTerminalPrompter(strings.NewReader(""), io.Discard)

	_, err := p.Confirm(ctx, "apply?", true)
	assert.ErrorIs(t, err, apperrors.ErrCancelled)

	_, err = p.Select(ctx, "pick", []string{"a"})
	assert.ErrorIs(t, err, apperrors.ErrCancelled)
}
