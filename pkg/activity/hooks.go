package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Hook receives runtime events. Hooks run synchronously inside a step, so
// they should return quickly.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc adapts a function to Hook.
type HookFunc func(ctx context.Context, event Event) error

func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks notifies several hooks in order.
type Hooks []Hook

// Compact returns h without nil entries, or nil when nothing is left.
func (h Hooks) Compact() Hooks {
	var out Hooks
	for _, hook := range h {
		if hook != nil {
			out = append(out, hook)
		}
	}
	return out
}

// Notify delivers event to every hook. Events without a verb are dropped.
// A failing or panicking hook does not stop the others; their errors are
// joined.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	event = Normalize(event)
	if event.Verb == "" {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := notifyOne(ctx, hook, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func notifyOne(ctx context.Context, hook Hook, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("activity: hook panicked on %s: %v", event.Verb, r)
		}
	}()
	return hook.Notify(ctx, event)
}

// Match wraps hook so it only sees events whose verb matches one of
// patterns. A pattern is an exact verb or a namespace wildcard such as
// "timer.*".
func Match(hook Hook, patterns ...string) Hook {
	return HookFunc(func(ctx context.Context, event Event) error {
		for _, pattern := range patterns {
			if verbMatches(pattern, event.Verb) {
				return hook.Notify(ctx, event)
			}
		}
		return nil
	})
}

func verbMatches(pattern, verb string) bool {
	if namespace, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(verb, namespace+".")
	}
	return pattern == verb
}
