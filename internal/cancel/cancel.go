// Package cancel provides the cooperative stop token polled by the crawl pipeline.
package cancel

import "sync/atomic"

// Token is polled at the pipeline's suspension points: between checkpoint
// rows, between pagination steps, and before each OCR invocation. Raising it
// causes an orderly unwind, never a preemptive kill.
type Token interface {
	Cancelled() bool
}

// Flag is the standard Token implementation, set by the control layer and
// safe for concurrent use.
type Flag struct {
	stopped atomic.Bool
}

// NewFlag returns an unraised flag.
func NewFlag() *Flag {
	return &Flag{}
}

// Set raises the flag. There is no way to lower it; a raised flag ends the run.
func (f *Flag) Set() {
	f.stopped.Store(true)
}

// Cancelled reports whether the flag has been raised.
func (f *Flag) Cancelled() bool {
	return f.stopped.Load()
}

// none is a Token that never cancels.
type none struct{}

func (none) Cancelled() bool { return false }

// None returns a Token that is never cancelled, for callers without a control
// layer (tests, one-shot CLI runs).
func None() Token {
	return none{}
}
