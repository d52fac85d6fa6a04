package repositorycache

import "context"

type cacheBypassContextKey struct{}

// WithCacheBypass marks ctx so Find skips the cache probe, reads the
// persistent store and refreshes the cache entry with the result.
func WithCacheBypass(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, cacheBypassContextKey{}, true)
}

func cacheBypassFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	bypass, _ := ctx.Value(cacheBypassContextKey{}).(bool)
	return bypass
}
