package query

import "context"

// Mutator performs a write, typically through the request facade.
type Mutator func(ctx context.Context) (any, error)

// Mutation binds a write to the cache keys that depend on it. On success
// the dependent keys are invalidated so their next read refetches; a
// failed mutation leaves every cache entry untouched.
type Mutation struct {
	cache       *Cache
	invalidates []string
}

// NewMutation declares a mutation invalidating the given keys.
func NewMutation(cache *Cache, invalidates ...string) *Mutation {
	return &Mutation{cache: cache, invalidates: invalidates}
}

// Run executes the write and applies the invalidation policy.
func (m *Mutation) Run(ctx context.Context, mutate Mutator) (any, error) {
	result, err := mutate(ctx)
	if err != nil {
		return nil, err
	}
	m.cache.Invalidate(m.invalidates...)
	return result, nil
}
