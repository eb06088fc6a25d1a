package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"loan-service/internal/domain/loan"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

func newCache(t *testing.T, ttl time.Duration) (*LoanCache, *miniredis.Miniredis) {
	t.Helper()
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewLoanCache(rdb, ttl), s
}

func TestLoanCache_PutGetInvalidate(t *testing.T) {
	c, s := newCache(t, 10*time.Minute)
	ctx := context.Background()

	next := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	l := &loan.Loan{
		ID:                 12,
		LoanNumber:         "LOAN-2026-000012",
		Status:             loan.StatusActive,
		OutstandingBalance: decimal.RequireFromString("24481.16"),
		NextPaymentDate:    &next,
	}
	if err := c.Put(ctx, l); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if !s.Exists("loans:12") {
		t.Fatalf("expected key loans:12 in redis")
	}
	if ttl := s.TTL("loans:12"); ttl != 10*time.Minute {
		t.Fatalf("ttl = %v, want 10m", ttl)
	}

	got, err := c.Get(ctx, 12)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LoanNumber != l.LoanNumber || !got.OutstandingBalance.Equal(l.OutstandingBalance) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.NextPaymentDate == nil || !got.NextPaymentDate.Equal(next) {
		t.Fatalf("next payment date = %v, want %v", got.NextPaymentDate, next)
	}

	if err := c.Invalidate(ctx, 12); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if _, err := c.Get(ctx, 12); !errors.Is(err, loan.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after invalidate, got %v", err)
	}
}

func TestLoanCache_PutAfterInvalidateIsSkipped(t *testing.T) {
	c, s := newCache(t, 10*time.Minute)
	c.WithEvictionGuard(5 * time.Second)
	ctx := context.Background()

	before := &loan.Loan{ID: 7, Status: loan.StatusActive, OutstandingBalance: decimal.RequireFromString("25000")}
	if err := c.Put(ctx, before); err != nil {
		t.Fatalf("Put: %v", err)
	}
	// a payment commits and evicts; a reader that loaded the old row writes it back late
	if err := c.Invalidate(ctx, 7); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	if err := c.Put(ctx, before); err != nil {
		t.Fatalf("late Put: %v", err)
	}
	if _, err := c.Get(ctx, 7); !errors.Is(err, loan.ErrCacheMiss) {
		t.Fatalf("stale copy cached after eviction: err = %v", err)
	}
	if ttl := s.TTL("loans:7:evicted"); ttl <= 0 || ttl > 5*time.Second {
		t.Fatalf("marker ttl = %v", ttl)
	}

	s.FastForward(6 * time.Second)
	after := &loan.Loan{ID: 7, Status: loan.StatusActive, OutstandingBalance: decimal.RequireFromString("24668.45")}
	if err := c.Put(ctx, after); err != nil {
		t.Fatalf("Put after guard: %v", err)
	}
	got, err := c.Get(ctx, 7)
	if err != nil || !got.OutstandingBalance.Equal(after.OutstandingBalance) {
		t.Fatalf("Get after guard = %+v, %v", got, err)
	}
}

func TestLoanCache_MissAndCorrupt(t *testing.T) {
	c, s := newCache(t, time.Minute)
	ctx := context.Background()

	if _, err := c.Get(ctx, 1); !errors.Is(err, loan.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}

	if err := s.Set("loans:2", "{not json"); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get(ctx, 2); !errors.Is(err, loan.ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss for corrupt entry, got %v", err)
	}
}

func TestLoanCache_StoreDown(t *testing.T) {
	c, s := newCache(t, time.Minute)
	s.Close()

	_, err := c.Get(context.Background(), 1)
	if err == nil || errors.Is(err, loan.ErrCacheMiss) {
		t.Fatalf("expected transport error, got %v", err)
	}
}
