// Package hydrate decodes JSON-with-comments documents into typed values,
// running optional hooks on the raw payload and on the decoded result.
package hydrate

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/tailscale/hujson"
)

// Context identifies the document being decoded in errors and hooks.
type Context struct {
	Source string
	Scope  string
}

// PreHook may rewrite the raw payload before it is decoded.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook may adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts JSONC payloads into T.
type Decoder[T any] struct {
	preHooks        []PreHook
	postHooks       []PostHook[T]
	disallowUnknown bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDisallowUnknownFields rejects payload fields T does not declare.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.disallowUnknown = true
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeBytes standardises data (comments and trailing commas are allowed)
// and decodes it. Numbers reach hooks as json.Number.
func (d *Decoder[T]) DecodeBytes(ctx Context, data []byte) (T, error) {
	var zero T
	standard, err := hujson.Standardize(data)
	if err != nil {
		return zero, fmt.Errorf("hydrate: parse %s: %w", ctx.label(), err)
	}
	dec := json.NewDecoder(bytes.NewReader(standard))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return zero, fmt.Errorf("hydrate: parse %s: %w", ctx.label(), err)
	}
	return d.Decode(ctx, payload)
}

// Decode converts payload into T applying the configured hooks. payload is
// not modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var zero T

	if payload == nil {
		return zero, fmt.Errorf("hydrate: payload is nil for %s", ctx.label())
	}

	current, err := clonePayload(payload)
	if err != nil {
		return zero, fmt.Errorf("hydrate: clone payload for %s: %w", ctx.label(), err)
	}

	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.label(), err)
		}
		if next != nil {
			current = next
		}
	}

	buffer, err := json.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("hydrate: marshal payload for %s: %w", ctx.label(), err)
	}
	decoder := json.NewDecoder(bytes.NewReader(buffer))
	decoder.UseNumber()
	if d.disallowUnknown {
		decoder.DisallowUnknownFields()
	}
	var result T
	if err := decoder.Decode(&result); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx.label(), err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.label(), err)
		}
	}

	return result, nil
}

func (c Context) label() string {
	if c.Source == "" {
		return "<inline>"
	}
	return fmt.Sprintf("%q", c.Source)
}

func clonePayload(payload map[string]any) (map[string]any, error) {
	buffer, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(buffer))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
