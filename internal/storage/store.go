// Package storage persists lotteries and their journals in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"raffle/internal/models"

	"github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Lottery is the lotteries table. SQLite integers are signed, so uint64
// values are stored as their int64 bit pattern.
type Lottery struct {
	ID                  string `gorm:"primaryKey;type:varchar(36)"`
	Admin               string `gorm:"type:varchar(42);not null"`
	CreatedUnixNano     int64  `gorm:"not null;index"`
	TicketPrice         int64  `gorm:"not null"`
	StartTime           int64  `gorm:"not null"`
	EndTime             int64  `gorm:"not null"`
	RaffleItems         string `gorm:"type:text;not null"` // JSON array
	RaffleDescriptions  string `gorm:"type:text;not null"` // JSON array
	PurchasePeriod      int64  `gorm:"not null"`
	MinimumParticipants int64  `gorm:"not null"`
	MaxTicketsPerUser   int64  `gorm:"not null"`
}

// JournalEntry is the journal_entries table.
type JournalEntry struct {
	ID        int64  `gorm:"primaryKey"`
	LotteryID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_journal_lottery_seq"`
	Seq       int64  `gorm:"not null;uniqueIndex:idx_journal_lottery_seq"`
	Kind      string `gorm:"type:varchar(16);not null"`
	Caller    string `gorm:"type:varchar(42);not null"`
	Quantity  int64
	Amount    int64
	Winner    string `gorm:"type:varchar(42)"`
	At        int64  `gorm:"not null"` // Unix nanoseconds
	PrevHash  string `gorm:"type:varchar(64);not null"`
	Hash      string `gorm:"type:varchar(64);not null"`
}

// Store is a SQLite-backed lottery store.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&Lottery{}, &JournalEntry{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// CreateLottery stores the lottery and its genesis entry in one transaction.
func (s *Store) CreateLottery(ctx context.Context, rec models.LotteryRecord, genesis models.Entry) error {
	row, err := toLottery(rec)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert lottery: %w", err)
		}
		entry := toJournalEntry(genesis)
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("insert genesis entry: %w", err)
		}
		return nil
	})
}

// Append records entry and then runs effect. The entry must directly follow
// the last stored entry of its lottery. effect only runs once the entry is
// committed; if it fails the entry is deleted again.
func (s *Store) Append(ctx context.Context, entry models.Entry, effect func(context.Context) error) error {
	row := toJournalEntry(entry)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last JournalEntry
		err := tx.Where("lottery_id = ?", entry.LotteryID).Order("seq desc").First(&last).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("lottery %s has no journal", entry.LotteryID)
			}
			return err
		}
		if row.Seq != last.Seq+1 || entry.PrevHash != last.Hash {
			return fmt.Errorf("lottery %s: entry %d does not follow %d", entry.LotteryID, entry.Seq, last.Seq)
		}
		if err := tx.Create(&row).Error; err != nil {
			return fmt.Errorf("insert entry: %w", err)
		}
		return nil
	})
	if err != nil || effect == nil {
		return err
	}

	if err := effect(ctx); err != nil {
		if derr := s.db.WithContext(context.WithoutCancel(ctx)).Delete(&JournalEntry{}, row.ID).Error; derr != nil {
			return fmt.Errorf("lottery %s: entry %d was recorded but its effect failed (%v) and it could not be removed: %w",
				entry.LotteryID, entry.Seq, err, derr)
		}
		return err
	}
	return nil
}

// LoadLotteries returns every stored lottery, oldest first.
func (s *Store) LoadLotteries(ctx context.Context) ([]models.LotteryRecord, error) {
	var rows []Lottery
	if err := s.db.WithContext(ctx).Order("created_unix_nano asc, id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.LotteryRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Entries returns the journal of a lottery in sequence order.
func (s *Store) Entries(ctx context.Context, lotteryID string) ([]models.Entry, error) {
	var rows []JournalEntry
	if err := s.db.WithContext(ctx).Where("lottery_id = ?", lotteryID).Order("seq asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toEntry())
	}
	return out, nil
}

func toLottery(rec models.LotteryRecord) (Lottery, error) {
	items, err := json.Marshal(rec.Config.RaffleItems)
	if err != nil {
		return Lottery{}, fmt.Errorf("encode raffle items: %w", err)
	}
	descriptions, err := json.Marshal(rec.Config.RaffleDescriptions)
	if err != nil {
		return Lottery{}, fmt.Errorf("encode raffle descriptions: %w", err)
	}
	return Lottery{
		ID:                  rec.ID,
		Admin:               string(rec.Admin),
		CreatedUnixNano:     rec.CreatedAt.UnixNano(),
		TicketPrice:         int64(rec.Config.TicketPrice),
		StartTime:           rec.Config.StartTime,
		EndTime:             rec.Config.EndTime,
		RaffleItems:         string(items),
		RaffleDescriptions:  string(descriptions),
		PurchasePeriod:      rec.Config.PurchasePeriod,
		MinimumParticipants: int64(rec.Config.MinimumParticipants),
		MaxTicketsPerUser:   int64(rec.Config.MaxTicketsPerUser),
	}, nil
}

func (l Lottery) toRecord() (models.LotteryRecord, error) {
	cfg := models.LotteryConfig{
		TicketPrice:         uint64(l.TicketPrice),
		StartTime:           l.StartTime,
		EndTime:             l.EndTime,
		PurchasePeriod:      l.PurchasePeriod,
		MinimumParticipants: uint64(l.MinimumParticipants),
		MaxTicketsPerUser:   uint64(l.MaxTicketsPerUser),
	}
	if err := json.Unmarshal([]byte(l.RaffleItems), &cfg.RaffleItems); err != nil {
		return models.LotteryRecord{}, fmt.Errorf("lottery %s: decode raffle items: %w", l.ID, err)
	}
	if err := json.Unmarshal([]byte(l.RaffleDescriptions), &cfg.RaffleDescriptions); err != nil {
		return models.LotteryRecord{}, fmt.Errorf("lottery %s: decode raffle descriptions: %w", l.ID, err)
	}
	return models.LotteryRecord{
		ID:        l.ID,
		Admin:     models.Address(l.Admin),
		CreatedAt: time.Unix(0, l.CreatedUnixNano).UTC(),
		Config:    cfg,
	}, nil
}

func toJournalEntry(e models.Entry) JournalEntry {
	return JournalEntry{
		LotteryID: e.LotteryID,
		Seq:       int64(e.Seq),
		Kind:      string(e.Kind),
		Caller:    string(e.Caller),
		Quantity:  int64(e.Quantity),
		Amount:    int64(e.Amount),
		Winner:    string(e.Winner),
		At:        e.At.UnixNano(),
		PrevHash:  e.PrevHash,
		Hash:      e.Hash,
	}
}

func (j JournalEntry) toEntry() models.Entry {
	return models.Entry{
		LotteryID: j.LotteryID,
		Seq:       uint64(j.Seq),
		Kind:      models.EntryKind(j.Kind),
		Caller:    models.Address(j.Caller),
		Quantity:  uint64(j.Quantity),
		Amount:    uint64(j.Amount),
		Winner:    models.Address(j.Winner),
		At:        time.Unix(0, j.At).UTC(),
		PrevHash:  j.PrevHash,
		Hash:      j.Hash,
	}
}
