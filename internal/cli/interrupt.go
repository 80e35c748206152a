package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// InterruptHandler turns Ctrl-C during a long running command into a
// canceled context and a friendly message.
type InterruptHandler struct {
	writer      io.Writer
	cancelFunc  context.CancelFunc
	done        chan struct{}
	exited      chan struct{}
	operation   string
	atomic      bool
	interrupted bool
	mu          sync.Mutex
}

// NewInterruptHandler creates a new interrupt handler.
func NewInterruptHandler(writer io.Writer) *InterruptHandler {
	if writer == nil {
		writer = os.Stdout
	}
	return &InterruptHandler{
		writer:    writer,
		operation: "Operation",
	}
}

// HandleInterrupts sets up signal handling and returns a context that is
// canceled on interrupt. The operation name is used in the message; atomic
// reports that the command writes everything in one database transaction.
func (h *InterruptHandler) HandleInterrupts(ctx context.Context, operation string, atomic bool) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	h.cancelFunc = cancel
	if operation != "" {
		h.operation = operation
	}
	h.atomic = atomic
	h.done = make(chan struct{})
	h.exited = make(chan struct{})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer close(h.exited)
		defer signal.Stop(sigChan)
		select {
		case <-sigChan:
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		if !h.interrupted {
			h.interrupted = true
			h.showInterruptMessage()
		}
		h.mu.Unlock()
		cancel()
	}()

	return ctx
}

// Stop releases the signal handler once the command has finished.
func (h *InterruptHandler) Stop() {
	if h.done == nil {
		return
	}
	close(h.done)
	<-h.exited
	h.cancelFunc()
	h.done = nil
}

func (h *InterruptHandler) showInterruptMessage() {
	msg := "\n\n" + FormatWarning(h.operation+" interrupted!")

	if h.atomic {
		msg += "\n" + FormatInfo("Nothing was written. Your goals are unchanged.")
	}

	msg += "\n" + FormatInfo("See you later! "+StashIcon) + "\n"

	if _, err := fmt.Fprint(h.writer, msg); err != nil {
		// Best effort - we're shutting down anyway
		fmt.Fprintf(os.Stderr, "Failed to write interrupt message: %v\n", err)
	}
}

// WasInterrupted returns true if the process was interrupted.
func (h *InterruptHandler) WasInterrupted() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.interrupted
}
