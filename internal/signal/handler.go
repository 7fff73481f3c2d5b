// Package signal translates process interrupts into context cancellation
// for cadence CLI commands.
//
// Import rules:
//   - CAN import: standard library only
//   - MUST NOT import: internal packages
package signal

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler listens for SIGINT and SIGTERM and translates the first signal
// into a context cancellation plus a one-time notification. The run command
// uses the cancellation to stop the pipeline at the next stage boundary and
// the notification to tell the user the stop is underway.
type Handler struct {
	ctx         context.Context //nolint:containedctx // the handler owns this context's lifecycle
	cancel      context.CancelFunc
	interrupted chan struct{}
	done        chan struct{} // signals listen() to exit cleanly
	once        sync.Once
	stopOnce    sync.Once
	sigs        chan os.Signal
}

// NewHandler starts listening for interrupt signals on top of parent.
//
// Usage:
//
//	h := signal.NewHandler(ctx)
//	defer h.Stop()
//	ctx = h.Context()
//
//	// ... follow the run with ctx ...
//
//	select {
//	case <-h.Interrupted():
//	    // tell the user the run is stopping
//	default:
//	}
func NewHandler(parent context.Context) *Handler {
	ctx, cancel := context.WithCancel(parent)
	h := &Handler{
		ctx:         ctx,
		cancel:      cancel,
		interrupted: make(chan struct{}),
		done:        make(chan struct{}),
		// Buffer of 1 so signal.Notify never drops a signal while the
		// listener is busy. See: https://pkg.go.dev/os/signal#Notify
		sigs: make(chan os.Signal, 1),
	}

	signal.Notify(h.sigs, syscall.SIGINT, syscall.SIGTERM)
	go h.listen()

	return h
}

// Context returns the cancellable context. Work that must stop on Ctrl+C
// runs under this context.
func (h *Handler) Context() context.Context {
	return h.ctx
}

// Interrupted returns a channel that closes when the first interrupt arrives.
func (h *Handler) Interrupted() <-chan struct{} {
	return h.interrupted
}

// Stop unregisters the signal listener and cancels the context.
// Idempotent; call it when the command finishes.
func (h *Handler) Stop() {
	h.stopOnce.Do(func() {
		signal.Stop(h.sigs)
		close(h.done) // stops listen() before the channel is abandoned
		h.cancel()
	})
}

// interrupt cancels the context and closes the notification channel.
// Only the first signal has an effect.
func (h *Handler) interrupt() {
	h.once.Do(func() {
		h.cancel()
		close(h.interrupted)
	})
}

// listen consumes signals until Stop is called or the context ends. It keeps
// draining after the first signal so repeated Ctrl+C never blocks delivery.
func (h *Handler) listen() {
	for {
		select {
		case <-h.ctx.Done():
			return
		case <-h.done:
			return
		case <-h.sigs:
			h.interrupt()
		}
	}
}
