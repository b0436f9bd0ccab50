package application

import (
	"context"
	"sync"
)

// mergeBaseKey identifies one merge-base computation.
type mergeBaseKey struct {
	baseSHA string
	headSHA string
}

// MergeBaseCache memoizes merge-base lookups for the lifetime of the process.
// The merge base of two fixed commits never changes, and computing it walks
// commit history, so repeated lookups during polling are pure waste.
type MergeBaseCache struct {
	mu sync.RWMutex
	m  map[mergeBaseKey]string
}

// NewMergeBaseCache creates an empty cache.
func NewMergeBaseCache() *MergeBaseCache {
	return &MergeBaseCache{m: make(map[mergeBaseKey]string)}
}

// GetOrCompute returns the cached merge base for (baseSHA, headSHA), calling
// compute on a miss and caching its result. Errors are not cached; a failed
// lookup is retried on the next call.
func (c *MergeBaseCache) GetOrCompute(
	ctx context.Context,
	baseSHA, headSHA string,
	compute func(ctx context.Context, baseSHA, headSHA string) (string, error),
) (string, error) {
	key := mergeBaseKey{baseSHA: baseSHA, headSHA: headSHA}

	c.mu.RLock()
	sha, ok := c.m[key]
	c.mu.RUnlock()
	if ok {
		return sha, nil
	}

	sha, err := compute(ctx, baseSHA, headSHA)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.m[key] = sha
	c.mu.Unlock()

	return sha, nil
}
