package types

import (
	"context"
)

// HookFunc is a before, finally or global hook. ctx is cancelled when the run
// is killed. A non-nil returned context is merged into the shared context;
// nil leaves it unchanged.
type HookFunc func(ctx context.Context, shared Context) (Context, error)

// Thunk adapts a hook that does not read the shared context
func Thunk(fn func() (Context, error)) HookFunc {
	return func(context.Context, Context) (Context, error) {
		return fn()
	}
}

// Hook is a named before or finally hook
type Hook struct {
	Name string
	Fn   HookFunc
}

// LetFunc computes the value of a let
type LetFunc func(env *Env) (any, error)

// Let is a named, lazily memoized accessor. Eager lets are evaluated right
// after the before hooks.
type Let struct {
	Name  string
	Fn    LetFunc
	Eager bool
}

// LetResolver evaluates lets for one example run
type LetResolver interface {
	Resolve(env *Env, name string) (any, error)
	Names() []string
}

// Env is what an example body and its lets see of the current run
type Env struct {
	ctx  context.Context
	view Context
	lets LetResolver
}

// NewEnv creates an Env over the given context view. ctx is cancelled when
// the run is abandoned.
func NewEnv(ctx context.Context, view Context, lets LetResolver) *Env {
	if view == nil {
		view = Context{}
	}
	return &Env{ctx: ctx, view: view, lets: lets}
}

// Sync replaces the context view used by lets and the body
func (e *Env) Sync(view Context) {
	e.view = view.Clone()
}

// Context returns a snapshot of the shared context
func (e *Env) Context() Context {
	return e.view.Clone()
}

// Get returns a single value of the shared context
func (e *Env) Get(key string) (any, bool) {
	return e.view.Get(key)
}

// Let returns the memoized value of the named let
func (e *Env) Let(name string) (any, error) {
	if e.lets == nil {
		return nil, Failf("let %q is not defined", name)
	}
	return e.lets.Resolve(e, name)
}

// MustLet is like Let but panics with the error, which the runner records
// like a returned one
func (e *Env) MustLet(name string) any {
	v, err := e.Let(name)
	if err != nil {
		panic(err)
	}
	return v
}

// LetNames returns the names of the lets visible to this run
func (e *Env) LetNames() []string {
	if e.lets == nil {
		return nil
	}
	return e.lets.Names()
}

// Ctx returns a context that is cancelled when the run is killed
func (e *Env) Ctx() context.Context {
	return e.ctx
}

// Done is closed when the run is killed
func (e *Env) Done() <-chan struct{} {
	return e.ctx.Done()
}
