package generation

import (
	"context"
	"sync"
)

// Callbacks are optional. At most one of them fires per Call.
type Callbacks struct {
	OnComplete func(*Result)
	OnError    func(error)
	OnCancel   func()
}

// Call is an in-flight generation. It settles exactly once: with a result,
// an error, or ErrCancelled. Anything arriving after that is dropped.
type Call struct {
	mu      sync.Mutex
	settled bool
	result  *Result
	err     error
	done    chan struct{}
	cancel  context.CancelFunc
	cb      Callbacks
}

func newCall(cancel context.CancelFunc, cb Callbacks) *Call {
	return &Call{
		done:   make(chan struct{}),
		cancel: cancel,
		cb:     cb,
	}
}

// Start dispatches in the background and returns immediately
func (d *Dispatcher) Start(ctx context.Context, message, sessionID string, opts Options, cb Callbacks) *Call {
	callCtx, cancel := context.WithCancel(ctx)
	call := newCall(cancel, cb)

	go func() {
		defer cancel()
		result, err := d.Generate(callCtx, message, sessionID, opts)
		if !call.resolve(result, err) {
			d.logger.Debug(logModule, "Dropping late generation outcome", map[string]interface{}{
				"session_id": sessionID,
			})
		}
	}()

	return call
}

// resolve settles the call once and reports whether this invocation won
func (c *Call) resolve(result *Result, err error) bool {
	c.mu.Lock()
	if c.settled {
		c.mu.Unlock()
		return false
	}
	c.settled = true
	c.result = result
	c.err = err
	c.mu.Unlock()
	defer close(c.done)

	switch {
	case err == ErrCancelled:
		if c.cb.OnCancel != nil {
			c.cb.OnCancel()
		}
	case err != nil:
		if c.cb.OnError != nil {
			c.cb.OnError(err)
		}
	default:
		if c.cb.OnComplete != nil {
			c.cb.OnComplete(result)
		}
	}
	return true
}

// Cancel aborts the call. Returns false if it had already settled.
func (c *Call) Cancel() bool {
	won := c.resolve(nil, ErrCancelled)
	c.cancel()
	return won
}

// Wait blocks until the call settles or ctx ends
func (c *Call) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.result, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Call) Done() <-chan struct{} {
	return c.done
}

func (c *Call) Settled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}
