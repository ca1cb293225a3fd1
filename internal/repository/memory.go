package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/mmeshcher/silkroad-booking/internal/model"
)

// MemoryRepository хранит журнал заказов в памяти процесса. Используется, если БД не настроена.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries map[int64]model.JournalEntry
	now     func() time.Time
}

// NewMemoryRepository создаёт пустой журнал.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[int64]model.JournalEntry),
		now:     time.Now,
	}
}

// RecordOrder сохраняет заказ. Повторная запись того же заказа обновляет статус.
func (m *MemoryRepository) RecordOrder(_ context.Context, e model.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if existing, ok := m.entries[e.OrderID]; ok {
		existing.Status = e.Status
		existing.UpdatedAt = now
		m.entries[e.OrderID] = existing
		return nil
	}

	e.CreatedAt = now
	e.UpdatedAt = now
	m.entries[e.OrderID] = e
	return nil
}

// UpdateStatus меняет статус заказа в журнале.
func (m *MemoryRepository) UpdateStatus(_ context.Context, orderID int64, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[orderID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrOrderNotFound, orderID)
	}
	e.Status = status
	e.UpdatedAt = m.now()
	m.entries[orderID] = e
	return nil
}

// ListOrders возвращает записи журнала, новые первыми. Пустой статус означает все записи.
func (m *MemoryRepository) ListOrders(_ context.Context, status model.OrderStatus) ([]model.JournalEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make([]model.JournalEntry, 0, len(m.entries))
	for _, e := range m.entries {
		if status != "" && e.Status != status {
			continue
		}
		res = append(res, e)
	}

	sort.Slice(res, func(i, j int) bool {
		if !res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].CreatedAt.After(res[j].CreatedAt)
		}
		return res[i].OrderID > res[j].OrderID
	})
	return res, nil
}

// Close ничего не делает.
func (m *MemoryRepository) Close() error {
	return nil
}
