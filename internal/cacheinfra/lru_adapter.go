package cacheinfra

import (
	"context"
	"strings"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUService is a size-bounded, expiring in-process backend built on hashicorp's expirable LRU.
type LRUService struct {
	lru *expirable.LRU[string, any]
}

// NewLRUService creates an LRU backend holding at most cfg.Capacity entries for cfg.TTL each.
func NewLRUService(cfg Config) (*LRUService, error) {
	cfg.Driver = DriverLRU
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LRUService{
		lru: expirable.NewLRU[string, any](cfg.Capacity, nil, cfg.TTL),
	}, nil
}

// Get returns the value stored under key and marks it as recently used.
func (s *LRUService) Get(ctx context.Context, key string) (any, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	value, ok := s.lru.Get(key)
	return value, ok, nil
}

// Set stores value under key, evicting the least recently used entry when full.
func (s *LRUService) Set(ctx context.Context, key string, value any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lru.Add(key, value)
	return nil
}

// Delete removes key if present.
func (s *LRUService) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lru.Remove(key)
	return nil
}

// DeletePrefix removes all entries whose keys start with prefix.
func (s *LRUService) DeletePrefix(ctx context.Context, prefix string) error {
	for _, key := range s.lru.Keys() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if strings.HasPrefix(key, prefix) {
			s.lru.Remove(key)
		}
	}
	return nil
}

// Size returns the number of entries currently held.
func (s *LRUService) Size() int {
	return s.lru.Len()
}
