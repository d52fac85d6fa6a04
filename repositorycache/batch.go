package repositorycache

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// FindMany looks up every distinct key with Find, running at most
// WithBatchConcurrency lookups at a time. Absent keys are left out of the
// result. The first persistent store error cancels the remaining lookups.
func (c *CachedRepository[E, K]) FindMany(ctx context.Context, keys []K) (map[K]E, error) {
	result := make(map[K]E, len(keys))
	if len(keys) == 0 {
		return result, nil
	}

	var mu sync.Mutex
	seen := make(map[K]struct{}, len(keys))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.batchConcurrency)

	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		key := key
		g.Go(func() error {
			entity, found, err := c.Find(gctx, key)
			if err != nil {
				return err
			}
			if !found {
				return nil
			}

			mu.Lock()
			result[key] = entity
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("requested", len(keys)).Int("found", len(result)).Msg("batch lookup")
	return result, nil
}
