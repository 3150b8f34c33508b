// Package recorder provides an in-memory engine that records every option
// write. It backs dry runs and tests.
package recorder

import (
	"errors"
	"sync"

	ffopts "github.com/goliatone/go-ffoptions"
)

// ErrClosed is reported by Ready after Close.
var ErrClosed = errors.New("recorder: engine closed")

type rejectKey struct {
	category ffopts.Category
	key      string
}

// Recorder implements ffopts.Engine and ffopts.ReadyChecker. It is safe for
// concurrent use.
type Recorder struct {
	mu      sync.Mutex
	name    string
	calls   []ffopts.Option
	config  map[ffopts.Category]map[string]ffopts.Value
	rejects map[rejectKey]error
	closed  bool
}

// New returns an empty, open Recorder.
func New() *Recorder {
	return &Recorder{name: "recorder"}
}

// Named returns an empty Recorder reporting name in logs.
func Named(name string) *Recorder {
	r := New()
	if name != "" {
		r.name = name
	}
	return r
}

func (r *Recorder) Name() string {
	return r.name
}

// Reject makes writes to (category, key) fail with err. The attempt is still
// recorded in Calls but does not reach Config.
func (r *Recorder) Reject(category ffopts.Category, key string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejects == nil {
		r.rejects = map[rejectKey]error{}
	}
	r.rejects[rejectKey{category: category, key: key}] = err
}

func (r *Recorder) SetString(category ffopts.Category, key, value string) error {
	return r.write(category, key, ffopts.StringValue(value))
}

func (r *Recorder) SetInt(category ffopts.Category, key string, value int64) error {
	return r.write(category, key, ffopts.IntValue(value))
}

func (r *Recorder) write(category ffopts.Category, key string, value ffopts.Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, ffopts.Option{Category: category, Key: key, Value: value})
	if err := r.rejects[rejectKey{category: category, key: key}]; err != nil {
		return err
	}
	if r.config == nil {
		r.config = map[ffopts.Category]map[string]ffopts.Value{}
	}
	bucket, ok := r.config[category]
	if !ok {
		bucket = map[string]ffopts.Value{}
		r.config[category] = bucket
	}
	bucket[key] = value
	return nil
}

// Ready fails after Close.
func (r *Recorder) Ready() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// Close marks the handle unusable.
func (r *Recorder) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

// Calls returns every write attempt in order.
func (r *Recorder) Calls() []ffopts.Option {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ffopts.Option(nil), r.calls...)
}

// Config returns a copy of the accepted configuration of category.
func (r *Recorder) Config(category ffopts.Category) map[string]ffopts.Value {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]ffopts.Value, len(r.config[category]))
	for key, value := range r.config[category] {
		out[key] = value
	}
	return out
}

// Value returns the accepted value for (category, key).
func (r *Recorder) Value(category ffopts.Category, key string) (ffopts.Value, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	value, ok := r.config[category][key]
	return value, ok
}

// Reset forgets recorded calls and configuration. Rejections and the closed
// state are kept.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
	r.config = nil
}
