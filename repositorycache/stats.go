package repositorycache

import "sync/atomic"

// Stats is a point-in-time snapshot of cache activity for one repository.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Backfills   uint64
	StoreReads  uint64
	CacheErrors uint64
}

type counters struct {
	hits        atomic.Uint64
	misses      atomic.Uint64
	backfills   atomic.Uint64
	storeReads  atomic.Uint64
	cacheErrors atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Backfills:   c.backfills.Load(),
		StoreReads:  c.storeReads.Load(),
		CacheErrors: c.cacheErrors.Load(),
	}
}

// HitRatio returns Hits / (Hits + Misses), or 0 before any lookup.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
