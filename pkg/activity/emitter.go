package activity

import (
	"context"
	"strings"
)

// DefaultChannel is stamped on events emitted without a channel.
const DefaultChannel = "ffoptions"

// Config controls emitter defaults.
type Config struct {
	Enabled bool
	Channel string
	// Metadata is copied into every event; keys the event already sets win.
	Metadata map[string]any
}

// Emitter stamps defaults on events before handing them to hooks.
type Emitter struct {
	hooks    Hooks
	enabled  bool
	channel  string
	metadata map[string]any
}

// NewEmitter constructs an emitter from hooks and configuration. Nil hooks are
// dropped; an emitter without hooks is disabled.
func NewEmitter(hooks Hooks, cfg Config) *Emitter {
	channel := strings.TrimSpace(cfg.Channel)
	if channel == "" {
		channel = DefaultChannel
	}
	usable := make(Hooks, 0, len(hooks))
	for _, hook := range hooks {
		if hook != nil {
			usable = append(usable, hook)
		}
	}
	return &Emitter{
		hooks:    usable,
		enabled:  cfg.Enabled && len(usable) > 0,
		channel:  channel,
		metadata: cloneMap(cfg.Metadata),
	}
}

// Enabled reports whether emissions should be attempted.
func (e *Emitter) Enabled() bool {
	return e != nil && e.enabled
}

// Emit applies the channel and metadata defaults and notifies every hook.
func (e *Emitter) Emit(ctx context.Context, event Event) error {
	if !e.Enabled() {
		return nil
	}
	if strings.TrimSpace(event.Channel) == "" {
		event.Channel = e.channel
	}
	if len(e.metadata) > 0 {
		merged := cloneMap(e.metadata)
		for key, value := range event.Metadata {
			merged[key] = value
		}
		event.Metadata = merged
	}
	return e.hooks.Notify(ctx, event)
}
