// Package jobs holds the background work scheduled by the server.
package jobs

import (
	"sync"

	"raffle/internal/services"

	"github.com/google/logger"
	"github.com/robfig/cron/v3"
)

// Transition is a purchase window opening or closing.
type Transition struct {
	LotteryID    string
	Open         bool
	Closes       int64
	Participants uint64
	Minimum      uint64
	Viable       bool
}

// WindowJob watches the purchase window of every lottery and logs when it
// opens or closes. At close it reports whether the lottery is viable.
type WindowJob struct {
	service *services.LotteryService

	mu   sync.Mutex
	open map[string]bool // last observed state per lottery
}

// NewWindowJob creates a WindowJob for the lotteries hosted by service.
func NewWindowJob(service *services.LotteryService) *WindowJob {
	return &WindowJob{
		service: service,
		open:    make(map[string]bool),
	}
}

// Run is the cron.Job interface method.
func (j *WindowJob) Run() {
	for _, t := range j.check() {
		switch {
		case t.Open:
			logger.Infof("Lottery %s: purchase window open until %d", t.LotteryID, t.Closes)
		case t.Viable:
			logger.Infof("Lottery %s: purchase window closed with %d participant(s)", t.LotteryID, t.Participants)
		default:
			logger.Warningf("Lottery %s: purchase window closed with %d participant(s), below the minimum of %d",
				t.LotteryID, t.Participants, t.Minimum)
		}
	}
}

// check compares every lottery's window with the last observation. A
// lottery seen for the first time only reports if its window is open.
func (j *WindowJob) check() []Transition {
	j.mu.Lock()
	defer j.mu.Unlock()

	var out []Transition
	for _, l := range j.service.List() {
		now := l.WindowOpen() && !l.IsTerminated()
		was, seen := j.open[l.ID()]
		j.open[l.ID()] = now
		if now == was && seen || !now && !seen {
			continue
		}
		out = append(out, Transition{
			LotteryID:    l.ID(),
			Open:         now,
			Closes:       l.Window().Closes(),
			Participants: l.ViewTotalParticipants(),
			Minimum:      l.Config().MinimumParticipants,
			Viable:       l.IsViable(),
		})
	}
	return out
}

// Schedule registers job on c at schedule, e.g. "@every 30s".
func Schedule(c *cron.Cron, schedule string, job cron.Job) (cron.EntryID, error) {
	return c.AddJob(schedule, job)
}
