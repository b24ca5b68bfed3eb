package runner

import (
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

var _ types.LetResolver = (*letSet)(nil)

// letSet memoizes let values for one example run. It is not safe for
// concurrent use; a run evaluates lets from a single goroutine.
type letSet struct {
	defs       map[string]types.Let
	order      []string
	cache      map[string]any
	evaluating map[string]bool
}

func newLetSet(lets []types.Let) *letSet {
	l := &letSet{
		defs: make(map[string]types.Let, len(lets)),
	}
	for _, let := range lets {
		if _, seen := l.defs[let.Name]; !seen {
			l.order = append(l.order, let.Name)
		}
		l.defs[let.Name] = let
	}
	l.Reset()
	return l
}

// Reset drops every memoized value
func (l *letSet) Reset() {
	l.cache = make(map[string]any, len(l.defs))
	l.evaluating = make(map[string]bool)
}

// Resolve returns the memoized value of name, evaluating it on first use
func (l *letSet) Resolve(env *types.Env, name string) (any, error) {
	if v, ok := l.cache[name]; ok {
		return v, nil
	}
	def, ok := l.defs[name]
	if !ok {
		return nil, types.Failf("let %q is not defined", name)
	}
	if l.evaluating[name] {
		return nil, types.Failf("let %q depends on itself", name)
	}

	l.evaluating[name] = true
	defer delete(l.evaluating, name)

	v, err := def.Fn(env)
	if err != nil {
		return nil, err
	}
	l.cache[name] = v
	return v, nil
}

// Names returns the let names in declaration order
func (l *letSet) Names() []string {
	return append([]string(nil), l.order...)
}

// eager returns the lets evaluated right after the before hooks
func (l *letSet) eager() []types.Let {
	var out []types.Let
	for _, name := range l.order {
		if def := l.defs[name]; def.Eager {
			out = append(out, def)
		}
	}
	return out
}
