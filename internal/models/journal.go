package models

import "time"

// EntryKind names the operation a journal entry records.
type EntryKind string

const (
	EntryCreate    EntryKind = "create"
	EntryPurchase  EntryKind = "purchase"
	EntryWithdraw  EntryKind = "withdraw"
	EntryTerminate EntryKind = "terminate"
)

// Entry is one committed operation in a lottery's journal.
// Entries are chained: PrevHash is the Hash of the entry before it.
type Entry struct {
	LotteryID string    `json:"lotteryId"`
	Seq       uint64    `json:"seq"`
	Kind      EntryKind `json:"kind"`
	Caller    Address   `json:"caller"`
	Quantity  uint64    `json:"quantity,omitempty"`
	Amount    uint64    `json:"amount,omitempty"`
	Winner    Address   `json:"winner,omitempty"`
	At        time.Time `json:"at"`
	PrevHash  string    `json:"prevHash"`
	Hash      string    `json:"hash"`
}
