package cli

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "yes", input: "y\n", want: true},
		{name: "full yes mixed case", input: "Yes\n", want: true},
		{name: "no", input: "n\n", want: false},
		{name: "empty defaults to no", input: "\n", want: false},
		{name: "anything else is no", input: "sure\n", want: false},
		{name: "windows line ending", input: "yes\r\n", want: true},
		{name: "answer without newline", input: "y", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm(context.Background(), "Delete goal?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Delete goal? [y/N]")
		})
	}
}

func TestPrompter_Confirm_Terminated(t *testing.T) {
	p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
	_, err := p.Confirm(context.Background(), "Continue?")
	assert.ErrorIs(t, err, ErrInputTerminated)
}

func TestPrompter_PromptAmount(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("\nabc\n-5\n12,5\n"), &out)

	amount, err := p.PromptAmount(context.Background(), "Amount")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("12.5").Equal(amount))

	output := out.String()
	assert.Contains(t, output, "Amount cannot be empty")
	assert.Contains(t, output, "Please enter a valid amount")
	assert.Contains(t, output, "Amount must be greater than zero")
}

func TestPrompter_PromptText(t *testing.T) {
	t.Run("required", func(t *testing.T) {
		var out bytes.Buffer
		p := NewPrompter(strings.NewReader("\n  New bike  \n"), &out)

		text, err := p.PromptText(context.Background(), "Title", false)
		require.NoError(t, err)
		assert.Equal(t, "New bike", text)
		assert.Contains(t, out.String(), "Title cannot be empty")
	})

	t.Run("optional", func(t *testing.T) {
		p := NewPrompter(strings.NewReader("\n"), &bytes.Buffer{})

		text, err := p.PromptText(context.Background(), "Notes", true)
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestPrompter_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewPrompter(strings.NewReader("y\n"), &bytes.Buffer{})
	_, err := p.PromptAmount(ctx, "Amount")
	assert.ErrorIs(t, err, ErrInputCancelled)
}

func TestPrompter_CanceledWhileWaiting(t *testing.T) {
	pr, pw := io.Pipe()
	t.Cleanup(func() { _ = pw.Close() })

	p := NewPrompter(pr, &bytes.Buffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := p.PromptText(ctx, "Title", false)
	require.ErrorIs(t, err, ErrInputCancelled)

	// The next prompt still gets the line typed after the cancellation.
	go func() { _, _ = pw.Write([]byte("late answer\n")) }()

	text, err := p.PromptText(context.Background(), "Title", false)
	require.NoError(t, err)
	assert.Equal(t, "late answer", text)
}

func TestPrompter_SequentialAnswers(t *testing.T) {
	p := NewPrompter(strings.NewReader("first\n  second  \nlast"), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"first", "second", "last"} {
		got, err := p.PromptText(ctx, "Answer", false)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := p.PromptText(ctx, "Answer", false)
	assert.ErrorIs(t, err, ErrInputTerminated)
}
