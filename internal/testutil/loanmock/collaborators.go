package loanmock

import (
	"context"
	"sync"

	domain "loan-service/internal/domain/loan"
)

var (
	_ domain.SequenceRepository = (*Sequence)(nil)
	_ domain.Cache              = (*Cache)(nil)
	_ domain.EventPublisher     = (*Publisher)(nil)
)

// Sequence counts up from 1 per year unless NextFn is set.
type Sequence struct {
	NextFn func(ctx context.Context, year int) (int64, error)

	mu   sync.Mutex
	last map[int]int64
}

func (m *Sequence) Next(ctx context.Context, year int) (int64, error) {
	if m.NextFn != nil {
		return m.NextFn(ctx, year)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = map[int]int64{}
	}
	m.last[year]++
	return m.last[year], nil
}

// Cache is an in-memory domain.Cache with call counters and optional
// error injection.
type Cache struct {
	GetErr, PutErr, InvalidateErr error

	mu          sync.Mutex
	items       map[uint64]domain.Loan
	Gets        int
	Puts        int
	Invalidated []uint64
}

func (m *Cache) Get(_ context.Context, id uint64) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	l, ok := m.items[id]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	return &l, nil
}

func (m *Cache) Put(_ context.Context, l *domain.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Puts++
	if m.PutErr != nil {
		return m.PutErr
	}
	if m.items == nil {
		m.items = map[uint64]domain.Loan{}
	}
	m.items[l.ID] = *l
	return nil
}

func (m *Cache) Invalidate(_ context.Context, id uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, id)
	if m.InvalidateErr != nil {
		return m.InvalidateErr
	}
	delete(m.items, id)
	return nil
}

// Publisher records every event it is handed.
type Publisher struct {
	Err error

	mu     sync.Mutex
	Events []domain.Disbursed
}

func (m *Publisher) PublishDisbursed(_ context.Context, evt domain.Disbursed) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, evt)
	return m.Err
}
