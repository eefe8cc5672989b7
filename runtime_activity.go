package autosplit

import "github.com/goliatone/go-autosplit/pkg/activity"

// WithActivityHooks attaches hooks notified for every bridged timer action
// and every module fault. Nil entries are dropped.
func WithActivityHooks(hooks activity.Hooks) Option {
	compact := hooks.Compact()
	return func(cfg *runtimeConfig) {
		cfg.activityHooks = append(cfg.activityHooks, compact...)
	}
}

// ActivityHooks returns a copy of the hooks configured on the runtime.
func (r *Runtime) ActivityHooks() activity.Hooks {
	if r == nil {
		return nil
	}
	return r.cfg.activityHooks.Compact()
}

func newActivityEmitter(hooks activity.Hooks) *activity.Emitter {
	return activity.NewEmitter(hooks)
}
