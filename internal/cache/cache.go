package cache

import (
	"context"

	"OptionsFlowMap/internal/model"
)

// Cache stores recently fetched snapshots so repeated selections can skip the
// provider. Lookups that fail for any reason behave as misses; a miss never
// fails the interaction.
type Cache interface {
	Get(ctx context.Context, key string) (*model.OiSnapshot, bool)
	Put(ctx context.Context, key string, snap *model.OiSnapshot) error
	Close() error
}

// NoopCache is the default when no cache backend is configured: every lookup
// misses, so every selection re-fetches from the provider.
type NoopCache struct{}

func NewNoopCache() *NoopCache { return &NoopCache{} }

func (n *NoopCache) Get(_ context.Context, _ string) (*model.OiSnapshot, bool) { return nil, false }
func (n *NoopCache) Put(_ context.Context, _ string, _ *model.OiSnapshot) error {
	return nil
}
func (n *NoopCache) Close() error { return nil }
