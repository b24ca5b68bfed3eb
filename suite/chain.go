package suite

import (
	"github.com/ethereum-optimism/infra/op-bdd/types"
)

// Chain is the resolved hook sequence of one example
type Chain struct {
	// Scopes lists the enclosing scopes, innermost last
	Scopes    []*Scope
	Skip      types.Mark
	Pending   types.Mark
	Tags      types.Context
	Befores   []types.Hook
	Lets      []types.Let
	Finallies []types.Hook
}

// Extract resolves the hook chain of ex.
//
// Before hooks and lets run from the outermost scope inwards, so inner scopes
// can rely on outer setup. Finally hooks run from the innermost scope
// outwards. An inner let shadows an outer let of the same name. A skip or
// pending mark on any enclosing scope applies to the example; the innermost
// reason wins.
func Extract(ex *types.Example) Chain {
	var scopes []*Scope
	if s, ok := ex.Scope.(*Scope); ok && s != nil {
		for cur := s; cur != nil; cur = cur.parent {
			scopes = append([]*Scope{cur}, scopes...)
		}
	}

	chain := Chain{
		Scopes: scopes,
		Tags:   types.Context{},
	}

	for _, s := range scopes {
		chain.Befores = append(chain.Befores, s.befores...)
		for _, let := range s.lets {
			chain.Lets = shadow(chain.Lets, let)
		}
		chain.Tags.Merge(s.Options.Tags)
		chain.Skip = mergeMark(chain.Skip, s.Options.Skip)
		chain.Pending = mergeMark(chain.Pending, s.Options.Pending)
	}
	for i := len(scopes) - 1; i >= 0; i-- {
		chain.Finallies = append(chain.Finallies, scopes[i].finallies...)
	}

	chain.Tags.Merge(ex.Options.Tags)
	chain.Skip = mergeMark(chain.Skip, ex.Options.Skip)
	chain.Pending = mergeMark(chain.Pending, ex.Options.Pending)
	return chain
}

func shadow(lets []types.Let, let types.Let) []types.Let {
	out := make([]types.Let, 0, len(lets)+1)
	for _, existing := range lets {
		if existing.Name != let.Name {
			out = append(out, existing)
		}
	}
	return append(out, let)
}

// mergeMark combines an outer mark with an inner one
func mergeMark(outer, inner types.Mark) types.Mark {
	if !inner.Enabled {
		return outer
	}
	if inner.Reason == "" && outer.Enabled {
		return outer
	}
	return inner
}
