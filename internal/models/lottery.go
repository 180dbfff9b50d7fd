package models

import (
	"fmt"
	"strings"
	"time"
)

// Address identifies an admin or a participant.
type Address string

// ZeroAddress is the "no winner" sentinel.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress lower-cases s and checks it is 0x followed by 40 hex digits.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("invalid address %q", s)
	}
	for _, r := range s[2:] {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return "", fmt.Errorf("invalid address %q", s)
		}
	}
	return Address(s), nil
}

// IsZero reports whether a is empty or the zero address.
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

// LotteryConfig is fixed when a lottery is created and never changes.
// Field order is the canonical creation order.
type LotteryConfig struct {
	TicketPrice         uint64   `json:"ticketPrice" toml:"ticket_price"`
	StartTime           int64    `json:"startTime" toml:"start_time"`
	EndTime             int64    `json:"endTime" toml:"end_time"`
	RaffleItems         []string `json:"raffleItems" toml:"raffle_items"`
	RaffleDescriptions  []string `json:"raffleDescriptions" toml:"raffle_descriptions"`
	PurchasePeriod      int64    `json:"purchasePeriod" toml:"purchase_period"`
	MinimumParticipants uint64   `json:"minimumParticipants" toml:"minimum_participants"`
	MaxTicketsPerUser   uint64   `json:"maxTicketsPerUser" toml:"max_tickets_per_user"`
}

// LotteryDetails is the fixed-order projection returned by the details view.
type LotteryDetails struct {
	TicketPrice         uint64  `json:"ticketPrice"`
	StartTime           int64   `json:"startTime"`
	EndTime             int64   `json:"endTime"`
	PurchasePeriod      int64   `json:"purchasePeriod"`
	MinimumParticipants uint64  `json:"minimumParticipants"`
	MaxTicketsPerUser   uint64  `json:"maxTicketsPerUser"`
	TotalRaised         uint64  `json:"totalRaised"`
	IsTerminated        bool    `json:"isTerminated"`
	Winner              Address `json:"winner"`
}

// Tuple returns the details in their fixed order.
func (d LotteryDetails) Tuple() []any {
	return []any{
		d.TicketPrice,
		d.StartTime,
		d.EndTime,
		d.PurchasePeriod,
		d.MinimumParticipants,
		d.MaxTicketsPerUser,
		d.TotalRaised,
		d.IsTerminated,
		d.Winner,
	}
}

// Participant is one row of the ledger: what an identity paid and holds.
type Participant struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
	Tickets uint64  `json:"tickets"`
}

// LotterySummary is what listings show about a hosted lottery.
type LotterySummary struct {
	ID        string         `json:"id"`
	Admin     Address        `json:"admin"`
	CreatedAt time.Time      `json:"createdAt"`
	Details   LotteryDetails `json:"details"`
}

// LotteryRecord is what is persisted about a lottery besides its journal.
type LotteryRecord struct {
	ID        string
	Admin     Address
	CreatedAt time.Time
	Config    LotteryConfig
}
