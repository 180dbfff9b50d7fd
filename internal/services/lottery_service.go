package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"raffle/internal/models"

	"github.com/google/logger"
	"github.com/google/uuid"
)

// LotteryService hosts every lottery known to the process.
type LotteryService struct {
	mu        sync.RWMutex
	lotteries map[string]*Ledger // Key: lottery ID
	store     Store
	opts      []Option
}

// NewLotteryService creates a LotteryService backed by store. opts are
// applied to every ledger it creates or restores.
func NewLotteryService(store Store, opts ...Option) *LotteryService {
	return &LotteryService{
		lotteries: make(map[string]*Ledger),
		store:     store,
		opts:      opts,
	}
}

// ledgerOptions returns the options for a new ledger; the store is always
// its journal.
func (s *LotteryService) ledgerOptions(extra ...Option) []Option {
	opts := make([]Option, 0, len(s.opts)+len(extra)+1)
	opts = append(opts, s.opts...)
	opts = append(opts, WithJournal(s.store))
	return append(opts, extra...)
}

// Create opens a new lottery with admin as its administrator.
func (s *LotteryService) Create(ctx context.Context, admin models.Address, cfg models.LotteryConfig) (*Ledger, error) {
	ledger, err := NewLedger(uuid.NewString(), admin, cfg, s.ledgerOptions()...)
	if err != nil {
		return nil, err
	}
	genesis := ledger.genesis()
	if err := s.store.CreateLottery(ctx, ledger.record(), genesis); err != nil {
		return nil, fmt.Errorf("create lottery: %w", err)
	}
	ledger.advance(genesis)

	s.mu.Lock()
	s.lotteries[ledger.ID()] = ledger
	s.mu.Unlock()

	logger.Infof("Created lottery %s administered by %s", ledger.ID(), admin)
	return ledger, nil
}

// Get returns the lottery with the given ID.
func (s *LotteryService) Get(id string) (*Ledger, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ledger, exists := s.lotteries[id]
	if !exists {
		return nil, newError(CodeNotFound, fmt.Sprintf("lottery %s not found", id), map[string]string{"lottery": id})
	}
	return ledger, nil
}

// List returns every lottery, oldest first.
func (s *LotteryService) List() []*Ledger {
	s.mu.RLock()
	out := make([]*Ledger, 0, len(s.lotteries))
	for _, l := range s.lotteries {
		out = append(out, l)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].ID() < out[j].ID()
		}
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	return out
}

// Journal returns the committed entries of a lottery.
func (s *LotteryService) Journal(ctx context.Context, id string) ([]models.Entry, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, id)
}

// Restore loads every stored lottery and replays its journal. It returns
// the number of lotteries restored.
func (s *LotteryService) Restore(ctx context.Context) (int, error) {
	records, err := s.store.LoadLotteries(ctx)
	if err != nil {
		return 0, fmt.Errorf("load lotteries: %w", err)
	}

	restored := make(map[string]*Ledger, len(records))
	for _, rec := range records {
		ledger, err := NewLedger(rec.ID, rec.Admin, rec.Config, s.ledgerOptions(withCreatedAt(rec.CreatedAt))...)
		if err != nil {
			return 0, &Error{Code: CodeJournalCorrupt, Message: fmt.Sprintf("lottery %s: stored configuration is invalid", rec.ID), Cause: err}
		}
		entries, err := s.store.Entries(ctx, rec.ID)
		if err != nil {
			return 0, fmt.Errorf("load journal of %s: %w", rec.ID, err)
		}
		if err := ledger.replay(entries); err != nil {
			return 0, err
		}
		restored[rec.ID] = ledger
	}

	s.mu.Lock()
	for id, l := range restored {
		s.lotteries[id] = l
	}
	s.mu.Unlock()

	logger.Infof("Restored %d lotteries", len(restored))
	return len(restored), nil
}
