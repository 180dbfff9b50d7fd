package services

import (
	"context"
	"fmt"
	"sync"

	"raffle/internal/models"
)

// MemoryStore keeps lotteries and journals in process memory.
type MemoryStore struct {
	mu        sync.Mutex
	lotteries []models.LotteryRecord
	entries   map[string][]models.Entry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]models.Entry)}
}

func (m *MemoryStore) CreateLottery(_ context.Context, rec models.LotteryRecord, genesis models.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.entries[rec.ID]; exists {
		return fmt.Errorf("lottery %s already exists", rec.ID)
	}
	if genesis.Seq != 1 {
		return fmt.Errorf("lottery %s: genesis sequence %d", rec.ID, genesis.Seq)
	}
	m.lotteries = append(m.lotteries, rec)
	m.entries[rec.ID] = []models.Entry{genesis}
	return nil
}

func (m *MemoryStore) Append(ctx context.Context, entry models.Entry, effect func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	chain, exists := m.entries[entry.LotteryID]
	if !exists {
		return fmt.Errorf("lottery %s not found", entry.LotteryID)
	}
	if want := uint64(len(chain)) + 1; entry.Seq != want {
		return fmt.Errorf("lottery %s: expected sequence %d, got %d", entry.LotteryID, want, entry.Seq)
	}
	if head := chain[len(chain)-1].Hash; entry.PrevHash != head {
		return fmt.Errorf("lottery %s: entry %d does not link to %s", entry.LotteryID, entry.Seq, head)
	}
	if effect != nil {
		if err := effect(ctx); err != nil {
			return err
		}
	}
	m.entries[entry.LotteryID] = append(chain, entry)
	return nil
}

func (m *MemoryStore) LoadLotteries(context.Context) ([]models.LotteryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.LotteryRecord(nil), m.lotteries...), nil
}

func (m *MemoryStore) Entries(_ context.Context, lotteryID string) ([]models.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Entry(nil), m.entries[lotteryID]...), nil
}
