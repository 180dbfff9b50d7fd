package services

import (
	"context"
	"time"

	"raffle/internal/models"

	"github.com/google/logger"
)

// Clock supplies the current time.
type Clock func() time.Time

// Treasury moves custody value to an external account.
type Treasury interface {
	Transfer(ctx context.Context, to models.Address, amount uint64) error
}

// LogTreasury is a Treasury that only records transfers in the log. It is
// what the server uses when no settlement backend is configured.
type LogTreasury struct{}

func (LogTreasury) Transfer(_ context.Context, to models.Address, amount uint64) error {
	logger.Infof("treasury: transferred %d to %s", amount, to)
	return nil
}

// WinnerSelector picks the winner when a lottery is terminated. It receives
// the participants in first-purchase order and returns one of their
// addresses, or models.ZeroAddress for no winner.
type WinnerSelector interface {
	SelectWinner(ctx context.Context, participants []models.Participant) (models.Address, error)
}

// NoWinner never selects anyone.
type NoWinner struct{}

func (NoWinner) SelectWinner(context.Context, []models.Participant) (models.Address, error) {
	return models.ZeroAddress, nil
}

// Journal durably records committed operations. Append persists entry and
// then runs effect (when non-nil); effect must not run for an entry that
// was not persisted. If either fails, nothing stays recorded and the error
// is returned.
type Journal interface {
	Append(ctx context.Context, entry models.Entry, effect func(context.Context) error) error
}

// Store is a Journal that also keeps lottery configurations.
type Store interface {
	Journal
	// CreateLottery persists a new lottery together with its first journal entry.
	CreateLottery(ctx context.Context, rec models.LotteryRecord, genesis models.Entry) error
	LoadLotteries(ctx context.Context) ([]models.LotteryRecord, error)
	Entries(ctx context.Context, lotteryID string) ([]models.Entry, error)
}
