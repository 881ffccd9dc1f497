package cache

import (
	"context"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// LRUScoreCache keeps credit scores in process, bounded by size and expiring
// entries after ttl.
type LRUScoreCache struct {
	lru *expirable.LRU[string, models.CreditScoreData]
}

func NewLRUScoreCache(size int, ttl time.Duration) *LRUScoreCache {
	return &LRUScoreCache{lru: expirable.NewLRU[string, models.CreditScoreData](size, nil, ttl)}
}

// Get returns a copy so callers cannot mutate the cached entry
func (c *LRUScoreCache) Get(_ context.Context, userID string) (*models.CreditScoreData, bool) {
	data, ok := c.lru.Get(userID)
	if !ok {
		return nil, false
	}
	data.Recommendations = append([]string(nil), data.Recommendations...)
	return &data, true
}

func (c *LRUScoreCache) Set(_ context.Context, userID string, data *models.CreditScoreData) {
	if data == nil {
		return
	}
	c.lru.Add(userID, *data)
}

func (c *LRUScoreCache) Delete(_ context.Context, userID string) {
	c.lru.Remove(userID)
}

func (c *LRUScoreCache) Len() int {
	return c.lru.Len()
}
