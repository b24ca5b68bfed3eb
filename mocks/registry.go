// Package mocks keeps track of values patched by examples so they can all be
// restored once an example finishes.
package mocks

import (
	"sync"
)

// Registry records restore functions for patched values
type Registry struct {
	mu       sync.Mutex
	restores []func()
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds a restore function, run by the next UnloadAll
func (r *Registry) Register(restore func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.restores = append(r.restores, restore)
}

// Patch replaces *target with value until the next UnloadAll
func Patch[T any](r *Registry, target *T, value T) {
	original := *target
	*target = value
	r.Register(func() {
		*target = original
	})
}

// Len returns the number of pending restores
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.restores)
}

// UnloadAll restores every patched value, most recent first
func (r *Registry) UnloadAll() {
	r.mu.Lock()
	restores := r.restores
	r.restores = nil
	r.mu.Unlock()

	for i := len(restores) - 1; i >= 0; i-- {
		restores[i]()
	}
}
