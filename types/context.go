package types

import (
	"maps"
	"slices"
)

// Context is the shared key/value accumulator threaded through the hooks of
// one example run. Later writes to a key overwrite earlier ones.
type Context map[string]any

// Merge writes every entry of contribution into c. A nil contribution leaves
// c unchanged.
func (c Context) Merge(contribution Context) {
	for k, v := range contribution {
		c[k] = v
	}
}

// Clone returns a copy of c that can be handed to a hook without exposing
// the shared map
func (c Context) Clone() Context {
	cp := make(Context, len(c))
	maps.Copy(cp, c)
	return cp
}

// Get returns the value stored under key
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// Keys returns the keys of c in sorted order
func (c Context) Keys() []string {
	return slices.Sorted(maps.Keys(c))
}
