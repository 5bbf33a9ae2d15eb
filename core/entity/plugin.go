package entity

import (
	"context"
)

// Committed describes one successful commit: the events just persisted and
// the state they produced. State is typed any so plugins stay reusable
// across entity types.
type Committed struct {
	EntityName string
	EntityID   string
	Events     []Event
	State      any
}

// Plugin is a post-commit side-effect consumer. OnCommitted is invoked only
// after the batch is durably persisted; a failing plugin never affects the
// committed log, sibling plugins, or the caller of Commit. Plugins for one
// commit run concurrently and may complete in any order.
type Plugin interface {
	Name() string
	OnCommitted(ctx context.Context, c Committed) error
}

// PluginErrorHook receives each isolated plugin failure. Plugin errors are
// never retried by the runtime.
type PluginErrorHook func(err error, p Plugin)

type pluginFunc struct {
	name string
	fn   func(ctx context.Context, c Committed) error
}

func (p *pluginFunc) Name() string { return p.name }
func (p *pluginFunc) OnCommitted(ctx context.Context, c Committed) error {
	return p.fn(ctx, c)
}

// PluginFunc wraps a function as a named Plugin.
func PluginFunc(name string, fn func(ctx context.Context, c Committed) error) Plugin {
	return &pluginFunc{name: name, fn: fn}
}
