// Package engine runs JavaScript scripts in process on goja.
package engine

import (
	"net/http"
	"time"
)

const (
	// DefaultTimeout bounds one whole run, across every target range.
	DefaultTimeout = 5 * time.Second
	// DefaultFetchTimeout bounds a single state.fetch() call.
	DefaultFetchTimeout = 10 * time.Second
)

// Options configures an Executor. Zero values select the defaults.
type Options struct {
	Timeout      time.Duration
	FetchTimeout time.Duration
	HTTPClient   *http.Client
}

// Executor runs JavaScript scripts. Each Execute call builds a fresh goja
// runtime, so no script state survives between runs. It is safe to call
// from any goroutine.
type Executor struct {
	timeout      time.Duration
	fetchTimeout time.Duration
	client       *http.Client
}

// New returns an Executor configured by opts.
func New(opts Options) *Executor {
	e := &Executor{
		timeout:      opts.Timeout,
		fetchTimeout: opts.FetchTimeout,
		client:       opts.HTTPClient,
	}
	if e.timeout <= 0 {
		e.timeout = DefaultTimeout
	}
	if e.fetchTimeout <= 0 {
		e.fetchTimeout = DefaultFetchTimeout
	}
	if e.client == nil {
		e.client = http.DefaultClient
	}
	return e
}

// Timeout is the effective run timeout.
func (e *Executor) Timeout() time.Duration { return e.timeout }
