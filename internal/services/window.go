package services

import (
	"math"
	"time"

	"raffle/internal/models"
)

// PurchaseWindow is the time range, in Unix seconds, during which tickets
// can be bought. A purchase at t is allowed when Start <= t < End and, if
// Deadline is non-zero, t < Deadline.
type PurchaseWindow struct {
	Start    int64
	End      int64
	Deadline int64
}

// windowFor derives the window from the configured bounds and the purchase
// period, which counts from the moment the lottery was created.
func windowFor(cfg models.LotteryConfig, createdAt time.Time) PurchaseWindow {
	w := PurchaseWindow{Start: cfg.StartTime, End: cfg.EndTime}
	if cfg.PurchasePeriod > 0 {
		created := createdAt.Unix()
		if created <= math.MaxInt64-cfg.PurchasePeriod {
			w.Deadline = created + cfg.PurchasePeriod
		}
	}
	return w
}

// Contains reports whether a purchase at now is eligible.
func (w PurchaseWindow) Contains(now time.Time) bool {
	t := now.Unix()
	if t < w.Start || t >= w.End {
		return false
	}
	return w.Deadline == 0 || t < w.Deadline
}

// Closes returns the first second at which purchases stop being eligible.
func (w PurchaseWindow) Closes() int64 {
	if w.Deadline != 0 && w.Deadline < w.End {
		return w.Deadline
	}
	return w.End
}
