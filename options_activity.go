package ffopts

import "github.com/goliatone/go-ffoptions/pkg/activity"

// WithActivityHooks attaches activity hooks notified after every Apply.
// Hooks are cloned and nil entries dropped.
func WithActivityHooks(hooks activity.Hooks) StoreOption {
	normalized := cloneActivityHooks(hooks)
	return func(cfg *storeConfig) {
		cfg.activityHooks = normalized
	}
}

// ActivityHooks returns a cloned slice of the configured activity hooks. The
// returned slice can be safely mutated by the caller.
func (s *Store) ActivityHooks() activity.Hooks {
	if s == nil {
		return nil
	}
	return cloneActivityHooks(s.cfg.activityHooks)
}

func cloneActivityHooks(hooks activity.Hooks) activity.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]activity.ActivityHook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return activity.Hooks(normalized)
}
