// Package suite declares example trees and resolves, for each example, the
// ordered hook chain inherited from its enclosing scopes.
package suite

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// Option configures the static options of a scope or an example
type Option func(*types.Options)

// Skip marks a scope or example as skipped. An empty reason skips without one.
func Skip(reason string) Option {
	return func(o *types.Options) {
		o.Skip = types.Mark{Enabled: true, Reason: reason}
	}
}

// Pending marks a scope or example as pending
func Pending(reason string) Option {
	return func(o *types.Options) {
		o.Pending = types.Mark{Enabled: true, Reason: reason}
	}
}

// Tag attaches a static value that seeds the shared context
func Tag(key string, value any) Option {
	return func(o *types.Options) {
		if o.Tags == nil {
			o.Tags = make(map[string]any)
		}
		o.Tags[key] = value
	}
}

// Scope is a describe/context block: a named group of examples and nested
// scopes sharing hooks
type Scope struct {
	Name    string
	Options types.Options

	parent    *Scope
	befores   []types.Hook
	finallies []types.Hook
	lets      []types.Let
	entries   []entry
	examples  int
}

type entry struct {
	scope   *Scope
	example *types.Example
}

// Describe declares a root scope and populates it with fn
func Describe(name string, fn func(s *Scope), opts ...Option) *Scope {
	s := &Scope{Name: name}
	for _, opt := range opts {
		opt(&s.Options)
	}
	if fn != nil {
		fn(s)
	}
	return s
}

// Describe declares a nested scope
func (s *Scope) Describe(name string, fn func(s *Scope), opts ...Option) *Scope {
	child := Describe(name, nil, opts...)
	child.parent = s
	s.entries = append(s.entries, entry{scope: child})
	if fn != nil {
		fn(child)
	}
	return child
}

// Context is an alias of Describe that reads better for conditions
func (s *Scope) Context(name string, fn func(s *Scope), opts ...Option) *Scope {
	return s.Describe(name, fn, opts...)
}

// Before appends an anonymous before hook
func (s *Scope) Before(fn types.HookFunc) {
	s.BeforeNamed(fmt.Sprintf("before_%d", len(s.befores)+1), fn)
}

// BeforeNamed appends a named before hook
func (s *Scope) BeforeNamed(name string, fn types.HookFunc) {
	s.befores = append(s.befores, types.Hook{Name: name, Fn: fn})
}

// Finally appends an anonymous finally hook
func (s *Scope) Finally(fn types.HookFunc) {
	s.FinallyNamed(fmt.Sprintf("finally_%d", len(s.finallies)+1), fn)
}

// FinallyNamed appends a named finally hook
func (s *Scope) FinallyNamed(name string, fn types.HookFunc) {
	s.finallies = append(s.finallies, types.Hook{Name: name, Fn: fn})
}

// Let declares a lazily evaluated accessor
func (s *Scope) Let(name string, fn types.LetFunc) {
	s.addLet(types.Let{Name: name, Fn: fn})
}

// LetNow declares an accessor evaluated right after the before hooks
func (s *Scope) LetNow(name string, fn types.LetFunc) {
	s.addLet(types.Let{Name: name, Fn: fn, Eager: true})
}

func (s *Scope) addLet(let types.Let) {
	for i, existing := range s.lets {
		if existing.Name == let.Name {
			s.lets[i] = let
			return
		}
	}
	s.lets = append(s.lets, let)
}

// It declares an example. A nil body declares a pending example.
func (s *Scope) It(description string, body types.BodyFunc, opts ...Option) *types.Example {
	ex := &types.Example{
		ID:          s.Path() + "/" + strconv.Itoa(s.examples),
		Description: description,
		Body:        body,
		Scope:       s,
		Status:      types.ExampleStatusNotRun,
	}
	s.examples++
	if body == nil {
		ex.Options.Pending = types.Marked
	}
	for _, opt := range opts {
		opt(&ex.Options)
	}
	s.entries = append(s.entries, entry{example: ex})
	return ex
}

// Parent returns the enclosing scope, nil for a root scope
func (s *Scope) Parent() *Scope {
	return s.parent
}

// Path returns the names of the enclosing scopes joined by '/'
func (s *Scope) Path() string {
	return strings.Join(s.names(), "/")
}

func (s *Scope) names() []string {
	var names []string
	for cur := s; cur != nil; cur = cur.parent {
		names = append([]string{cur.Name}, names...)
	}
	return names
}

// Examples returns every example of the tree in declaration order
func (s *Scope) Examples() []*types.Example {
	var out []*types.Example
	for _, e := range s.entries {
		if e.example != nil {
			out = append(out, e.example)
			continue
		}
		out = append(out, e.scope.Examples()...)
	}
	return out
}
