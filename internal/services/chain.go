package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"raffle/internal/models"

	"github.com/goccy/go-json"
)

// genesisPrevHash is the PrevHash of the first entry of every journal.
const genesisPrevHash = "0"

// entryDigest is the part of an entry covered by its hash. Time is kept as
// Unix nanoseconds so a round trip through storage does not change it.
type entryDigest struct {
	LotteryID string           `json:"lotteryId"`
	Seq       uint64           `json:"seq"`
	Kind      models.EntryKind `json:"kind"`
	Caller    models.Address   `json:"caller"`
	Quantity  uint64           `json:"quantity"`
	Amount    uint64           `json:"amount"`
	Winner    models.Address   `json:"winner"`
	At        int64            `json:"at"`
	PrevHash  string           `json:"prevHash"`
}

// HashEntry computes the SHA-256 of the entry's canonical JSON form.
func HashEntry(e models.Entry) string {
	data, _ := json.Marshal(entryDigest{
		LotteryID: e.LotteryID,
		Seq:       e.Seq,
		Kind:      e.Kind,
		Caller:    e.Caller,
		Quantity:  e.Quantity,
		Amount:    e.Amount,
		Winner:    e.Winner,
		At:        e.At.UnixNano(),
		PrevHash:  e.PrevHash,
	})
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// VerifyChain checks that entries form an unbroken chain for lotteryID,
// starting at sequence 1 with a create entry.
func VerifyChain(lotteryID string, entries []models.Entry) error {
	prev := genesisPrevHash
	for i, e := range entries {
		meta := map[string]string{"lottery": lotteryID, "seq": strconv.FormatUint(e.Seq, 10)}
		switch {
		case e.LotteryID != lotteryID:
			return newError(CodeJournalCorrupt, fmt.Sprintf("entry %d belongs to lottery %s", e.Seq, e.LotteryID), meta)
		case e.Seq != uint64(i+1):
			return newError(CodeJournalCorrupt, fmt.Sprintf("invalid sequence: expected %d, got %d", i+1, e.Seq), meta)
		case i == 0 && e.Kind != models.EntryCreate:
			return newError(CodeJournalCorrupt, fmt.Sprintf("first entry is %s, not create", e.Kind), meta)
		case i > 0 && e.Kind == models.EntryCreate:
			return newError(CodeJournalCorrupt, "create entry after genesis", meta)
		case e.PrevHash != prev:
			return newError(CodeJournalCorrupt, fmt.Sprintf("invalid prev hash: expected %s, got %s", prev, e.PrevHash), meta)
		}
		if want := HashEntry(e); e.Hash != want {
			return newError(CodeJournalCorrupt, fmt.Sprintf("invalid hash: expected %s, got %s", want, e.Hash), meta)
		}
		prev = e.Hash
	}
	return nil
}
