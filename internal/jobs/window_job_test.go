package jobs

import (
	"context"
	"testing"
	"time"

	"raffle/internal/models"
	"raffle/internal/services"

	"github.com/robfig/cron/v3"
)

const admin models.Address = "0x00000000000000000000000000000000000000aa"

func TestWindowJob_Transitions(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	clock := func() time.Time { return now }
	service := services.NewLotteryService(services.NewMemoryStore(), services.WithClock(clock))

	ledger, err := service.Create(ctx, admin, models.LotteryConfig{
		TicketPrice:         1,
		StartTime:           now.Unix() + 10,
		EndTime:             now.Unix() + 20,
		MinimumParticipants: 2,
		MaxTicketsPerUser:   5,
	})
	if err != nil {
		t.Fatalf("Expected no error, but got %v", err)
	}
	job := NewWindowJob(service)

	t.Run("Test closed window is not reported before it opens", func(t *testing.T) {
		if got := job.check(); len(got) != 0 {
			t.Errorf("Expected no transitions, but got %+v", got)
		}
	})

	t.Run("Test opening is reported once", func(t *testing.T) {
		now = now.Add(10 * time.Second)
		got := job.check()
		if len(got) != 1 || !got[0].Open || got[0].LotteryID != ledger.ID() || got[0].Closes != ledger.Window().End {
			t.Fatalf("Expected one open transition, but got %+v", got)
		}
		if again := job.check(); len(again) != 0 {
			t.Errorf("Expected no repeated transition, but got %+v", again)
		}
	})

	t.Run("Test closing reports viability", func(t *testing.T) {
		if err := ledger.PurchaseTickets(ctx, "0x00000000000000000000000000000000000000a1", 1, 1); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		now = now.Add(10 * time.Second)
		got := job.check()
		if len(got) != 1 || got[0].Open {
			t.Fatalf("Expected one close transition, but got %+v", got)
		}
		if got[0].Viable || got[0].Participants != 1 || got[0].Minimum != 2 {
			t.Errorf("Expected a non-viable close with 1 of 2 participants, but got %+v", got[0])
		}
	})

	t.Run("Test job runs on a cron schedule", func(t *testing.T) {
		c := cron.New()
		if _, err := Schedule(c, "@every 1s", job); err != nil {
			t.Fatalf("Expected no error, but got %v", err)
		}
		if len(c.Entries()) != 1 {
			t.Errorf("Expected 1 cron entry, but got %d", len(c.Entries()))
		}
		if _, err := Schedule(c, "not a schedule", job); err == nil {
			t.Error("Expected an error for an invalid schedule")
		}
	})
}
