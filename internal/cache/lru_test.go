package cache

import (
	"context"
	"testing"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
)

func TestLRUScoreCache(t *testing.T) {
	ctx := context.Background()
	c := NewLRUScoreCache(2, time.Minute)

	if _, ok := c.Get(ctx, "usr-001"); ok {
		t.Fatal("expected miss on empty cache")
	}

	c.Set(ctx, "usr-001", &models.CreditScoreData{Score: 700, Recommendations: []string{"keep going"}})
	got, ok := c.Get(ctx, "usr-001")
	if !ok || got.Score != 700 {
		t.Fatalf("expected cached 700, got %v %v", got, ok)
	}
	got.Recommendations[0] = "mutated"
	again, _ := c.Get(ctx, "usr-001")
	if again.Recommendations[0] != "keep going" {
		t.Errorf("cached entry was mutated through a returned copy: %q", again.Recommendations[0])
	}

	c.Delete(ctx, "usr-001")
	if _, ok := c.Get(ctx, "usr-001"); ok {
		t.Error("expected miss after delete")
	}
}

func TestLRUScoreCache_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewLRUScoreCache(2, time.Minute)
	c.Set(ctx, "a", &models.CreditScoreData{Score: 600})
	c.Set(ctx, "b", &models.CreditScoreData{Score: 650})
	c.Set(ctx, "c", &models.CreditScoreData{Score: 700})

	if c.Len() != 2 {
		t.Errorf("expected size bound 2, got %d", c.Len())
	}
	if _, ok := c.Get(ctx, "a"); ok {
		t.Error("expected oldest entry to be evicted")
	}
	if got, ok := c.Get(ctx, "c"); !ok || got.Score != 700 {
		t.Errorf("expected newest entry present, got %v %v", got, ok)
	}
}

func TestLRUScoreCache_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewLRUScoreCache(10, 20*time.Millisecond)
	c.Set(ctx, "usr-001", &models.CreditScoreData{Score: 700})
	time.Sleep(60 * time.Millisecond)
	if _, ok := c.Get(ctx, "usr-001"); ok {
		t.Error("expected entry to expire")
	}
}
