package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/joshsymonds/greenstash/internal/model"
	"github.com/shopspring/decimal"
)

// Prompt errors.
var (
	ErrInputTerminated = errors.New("input terminated")
	ErrInputCancelled  = errors.New("input canceled")
)

type inputLine struct {
	err  error
	text string
}

// Prompter asks the user for confirmations, amounts and free text.
//
// Input is read line by line on a single background goroutine, so a prompt
// abandoned through its context does not swallow the answer meant for the
// next one.
type Prompter struct {
	input  io.Reader
	writer io.Writer
	lines  chan inputLine
	start  sync.Once
}

// NewPrompter creates a prompter over the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &Prompter{
		input:  reader,
		writer: writer,
		lines:  make(chan inputLine),
	}
}

// Confirm asks a y/N question. Anything other than y or yes is a no.
func (p *Prompter) Confirm(ctx context.Context, question string) (bool, error) {
	if _, err := fmt.Fprint(p.writer, FormatPrompt(question+" [y/N]")); err != nil {
		return false, fmt.Errorf("failed to write prompt: %w", err)
	}

	answer, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// PromptAmount keeps asking until the user enters a valid positive amount.
func (p *Prompter) PromptAmount(ctx context.Context, label string) (decimal.Decimal, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
			return decimal.Zero, fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return decimal.Zero, err
		}

		amount, err := model.ParseAmount(input)
		if err == nil {
			return amount, nil
		}

		if _, werr := fmt.Fprintln(p.writer, FormatError(amountMessage(err))); werr != nil {
			slog.Warn("Failed to write amount error", "error", werr)
		}
	}
}

// PromptText asks for a line of text. Empty answers are re-asked unless
// optional is set.
func (p *Prompter) PromptText(ctx context.Context, label string, optional bool) (string, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(label)); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.readLine(ctx)
		if err != nil {
			return "", err
		}
		if input != "" || optional {
			return input, nil
		}

		if _, err := fmt.Fprintln(p.writer, FormatError(label+" cannot be empty. Please try again.")); err != nil {
			slog.Warn("Failed to write empty input error", "error", err)
		}
	}
}

// readLine waits for the next trimmed line of input or for ctx to end.
func (p *Prompter) readLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	p.start.Do(func() { go p.scan() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case line, ok := <-p.lines:
		if !ok {
			return "", ErrInputTerminated
		}
		if line.err != nil {
			return "", fmt.Errorf("failed to read input: %w", line.err)
		}
		return strings.TrimSpace(line.text), nil
	}
}

func (p *Prompter) scan() {
	defer close(p.lines)

	scanner := bufio.NewScanner(p.input)
	for scanner.Scan() {
		p.lines <- inputLine{text: scanner.Text()}
	}
	if err := scanner.Err(); err != nil {
		p.lines <- inputLine{err: err}
	}
}

func amountMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrEmptyAmount):
		return "Amount cannot be empty. Please try again."
	case errors.Is(err, model.ErrNonPositiveAmount):
		return "Amount must be greater than zero. Please try again."
	default:
		return "Please enter a valid amount."
	}
}
