package services

import (
	"context"
	"fmt"
	"math/bits"
	"strconv"
	"sync"
	"time"

	"raffle/internal/models"

	"github.com/google/logger"
)

// Ledger is a single lottery: its fixed configuration and the record of who
// bought how many tickets. All operations are serialized by mu; a mutation
// is applied in memory only after its journal entry has been committed.
type Ledger struct {
	mu sync.RWMutex

	id        string
	admin     models.Address
	config    models.LotteryConfig
	createdAt time.Time
	window    PurchaseWindow

	balances    map[models.Address]uint64
	tickets     map[models.Address]uint64
	order       []models.Address // first-purchase order
	totalRaised uint64
	custody     uint64
	terminated  bool
	winner      models.Address

	seq  uint64
	head string

	clock    Clock
	treasury Treasury
	journal  Journal
	selector WinnerSelector
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock sets the time source used for the purchase window.
func WithClock(c Clock) Option {
	return func(l *Ledger) { l.clock = c }
}

// WithTreasury sets where withdrawn funds are sent.
func WithTreasury(t Treasury) Option {
	return func(l *Ledger) { l.treasury = t }
}

// WithJournal sets where committed operations are recorded.
func WithJournal(j Journal) Option {
	return func(l *Ledger) { l.journal = j }
}

// WithWinnerSelector sets the strategy used at termination.
func WithWinnerSelector(s WinnerSelector) Option {
	return func(l *Ledger) { l.selector = s }
}

// withCreatedAt is used when restoring a lottery from storage.
func withCreatedAt(t time.Time) Option {
	return func(l *Ledger) { l.createdAt = t }
}

// NewLedger creates an open lottery administered by admin.
func NewLedger(id string, admin models.Address, cfg models.LotteryConfig, opts ...Option) (*Ledger, error) {
	if err := validateConfig(admin, cfg); err != nil {
		return nil, err
	}
	cfg.RaffleItems = append([]string(nil), cfg.RaffleItems...)
	cfg.RaffleDescriptions = append([]string(nil), cfg.RaffleDescriptions...)

	l := &Ledger{
		id:       id,
		admin:    admin,
		config:   cfg,
		balances: make(map[models.Address]uint64),
		tickets:  make(map[models.Address]uint64),
		winner:   models.ZeroAddress,
		head:     genesisPrevHash,
		clock:    time.Now,
		treasury: LogTreasury{},
		journal:  discardJournal{},
		selector: NoWinner{},
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.createdAt.IsZero() {
		l.createdAt = l.clock()
	}
	l.createdAt = l.createdAt.UTC()
	l.window = windowFor(cfg, l.createdAt)
	return l, nil
}

func validateConfig(admin models.Address, cfg models.LotteryConfig) error {
	fail := func(msg string) error {
		return newError(CodeConfiguration, msg, nil)
	}
	switch {
	case admin.IsZero():
		return fail("admin address is required")
	case len(cfg.RaffleItems) != len(cfg.RaffleDescriptions):
		return newError(CodeConfiguration, "raffle items and descriptions differ in length", map[string]string{
			"items":        strconv.Itoa(len(cfg.RaffleItems)),
			"descriptions": strconv.Itoa(len(cfg.RaffleDescriptions)),
		})
	case cfg.StartTime < 0:
		return fail("start time must not be negative")
	case cfg.PurchasePeriod < 0:
		return fail("purchase period must not be negative")
	case cfg.EndTime <= cfg.StartTime:
		return fail("end time must be after start time")
	}
	return nil
}

// PurchaseTickets buys quantity tickets for caller, who pays payment.
func (l *Ledger) PurchaseTickets(ctx context.Context, caller models.Address, quantity, payment uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller.IsZero() {
		return ErrInvalidCaller
	}
	if l.terminated {
		return ErrLotteryTerminated
	}
	if quantity == 0 {
		return newError(CodeInvalidQuantity, "quantity must be positive", nil)
	}
	hi, cost := bits.Mul64(quantity, l.config.TicketPrice)
	if hi != 0 {
		return newError(CodeInvalidQuantity, "ticket cost overflows", nil)
	}
	if payment != cost {
		return newError(CodePaymentMismatch, fmt.Sprintf("payment %d does not match cost %d", payment, cost), map[string]string{
			"payment": strconv.FormatUint(payment, 10),
			"cost":    strconv.FormatUint(cost, 10),
		})
	}
	now := l.clock()
	if !l.window.Contains(now) {
		return newError(CodeOutsideWindow, fmt.Sprintf("purchases are not accepted at %d", now.Unix()), nil)
	}
	held, carry := bits.Add64(l.tickets[caller], quantity, 0)
	if carry != 0 || held > l.config.MaxTicketsPerUser {
		return newError(CodeTicketLimit, fmt.Sprintf("%s would hold more than %d tickets", caller, l.config.MaxTicketsPerUser), map[string]string{
			"held":      strconv.FormatUint(l.tickets[caller], 10),
			"requested": strconv.FormatUint(quantity, 10),
			"max":       strconv.FormatUint(l.config.MaxTicketsPerUser, 10),
		})
	}
	if _, carry := bits.Add64(l.totalRaised, payment, 0); carry != 0 {
		return newError(CodeInvalidQuantity, "total raised overflows", nil)
	}

	entry := l.nextEntry(models.EntryPurchase, caller, now)
	entry.Quantity = quantity
	entry.Amount = payment
	if err := l.commit(ctx, entry, nil); err != nil {
		return err
	}
	l.applyPurchase(caller, quantity, payment)
	logger.Infof("lottery %s: %s bought %d ticket(s) for %d", l.id, caller, quantity, payment)
	return nil
}

// WithdrawFunds sends everything held in custody to the admin and returns
// the amount moved. Ledger totals are not affected.
func (l *Ledger) WithdrawFunds(ctx context.Context, caller models.Address) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return 0, ErrNotAdmin
	}
	if l.terminated {
		return 0, ErrLotteryTerminated
	}

	amount := l.custody
	entry := l.nextEntry(models.EntryWithdraw, caller, l.clock())
	entry.Amount = amount
	err := l.commit(ctx, entry, func(ctx context.Context) error {
		if amount == 0 {
			return nil
		}
		return l.treasury.Transfer(ctx, l.admin, amount)
	})
	if err != nil {
		return 0, err
	}
	l.custody = 0
	logger.Infof("lottery %s: withdrew %d to %s", l.id, amount, l.admin)
	return amount, nil
}

// TerminateLottery closes the lottery for good and records the winner
// chosen by the configured WinnerSelector.
func (l *Ledger) TerminateLottery(ctx context.Context, caller models.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if caller != l.admin {
		return ErrNotAdmin
	}
	if l.terminated {
		return ErrAlreadyTerminated
	}

	winner, err := l.selector.SelectWinner(ctx, l.participantsLocked())
	if err != nil {
		return fmt.Errorf("select winner: %w", err)
	}
	if winner == "" {
		winner = models.ZeroAddress
	}
	if _, ok := l.balances[winner]; !winner.IsZero() && !ok {
		return newError(CodeInvalidWinner, fmt.Sprintf("%s is not a participant", winner), nil)
	}

	entry := l.nextEntry(models.EntryTerminate, caller, l.clock())
	entry.Winner = winner
	if err := l.commit(ctx, entry, nil); err != nil {
		return err
	}
	l.terminated = true
	l.winner = winner
	logger.Infof("lottery %s: terminated with %d participant(s), winner %s", l.id, len(l.order), winner)
	return nil
}

func (l *Ledger) nextEntry(kind models.EntryKind, caller models.Address, at time.Time) models.Entry {
	return models.Entry{
		LotteryID: l.id,
		Seq:       l.seq + 1,
		Kind:      kind,
		Caller:    caller,
		At:        at.UTC(),
		PrevHash:  l.head,
	}
}

// commit seals entry and hands it to the journal. On success the ledger
// head advances; on failure nothing changes.
func (l *Ledger) commit(ctx context.Context, entry models.Entry, effect func(context.Context) error) error {
	entry.Hash = HashEntry(entry)
	if err := l.journal.Append(ctx, entry, effect); err != nil {
		return fmt.Errorf("lottery %s: record %s: %w", l.id, entry.Kind, err)
	}
	l.advance(entry)
	return nil
}

func (l *Ledger) advance(entry models.Entry) {
	l.seq = entry.Seq
	l.head = entry.Hash
}

// applyPurchase records a purchase. Only a non-zero payment creates a
// balance entry, so a buyer becomes a participant with their first paid
// ticket.
func (l *Ledger) applyPurchase(caller models.Address, quantity, payment uint64) {
	if payment > 0 {
		if _, ok := l.balances[caller]; !ok {
			l.order = append(l.order, caller)
		}
		l.balances[caller] += payment
	}
	l.tickets[caller] += quantity
	l.totalRaised += payment
	l.custody += payment
}

// genesis returns the sealed create entry that opens the journal.
func (l *Ledger) genesis() models.Entry {
	e := l.nextEntry(models.EntryCreate, l.admin, l.createdAt)
	e.Hash = HashEntry(e)
	return e
}

// replay rebuilds the ledger state from its journal.
func (l *Ledger) replay(entries []models.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(entries) == 0 {
		return newError(CodeJournalCorrupt, fmt.Sprintf("lottery %s has no journal", l.id), nil)
	}
	if err := VerifyChain(l.id, entries); err != nil {
		return err
	}
	for _, e := range entries {
		switch e.Kind {
		case models.EntryCreate:
			if e.Caller != l.admin {
				return newError(CodeJournalCorrupt, fmt.Sprintf("create entry names admin %s, want %s", e.Caller, l.admin), nil)
			}
		case models.EntryPurchase:
			l.applyPurchase(e.Caller, e.Quantity, e.Amount)
		case models.EntryWithdraw:
			if e.Amount > l.custody {
				return newError(CodeJournalCorrupt, fmt.Sprintf("withdrawal of %d exceeds custody %d", e.Amount, l.custody), nil)
			}
			l.custody -= e.Amount
		case models.EntryTerminate:
			l.terminated = true
			l.winner = e.Winner
		default:
			return newError(CodeJournalCorrupt, fmt.Sprintf("unknown entry kind %q", e.Kind), nil)
		}
		l.advance(e)
	}
	return nil
}

// ID returns the lottery identifier.
func (l *Ledger) ID() string { return l.id }

// Admin returns the identity allowed to withdraw and terminate.
func (l *Ledger) Admin() models.Address { return l.admin }

// CreatedAt returns when the lottery was created.
func (l *Ledger) CreatedAt() time.Time { return l.createdAt }

// Window returns the purchase window.
func (l *Ledger) Window() PurchaseWindow { return l.window }

// WindowOpen reports whether a purchase made now would be inside the window.
func (l *Ledger) WindowOpen() bool { return l.window.Contains(l.clock()) }

// Config returns a copy of the configuration.
func (l *Ledger) Config() models.LotteryConfig {
	cfg := l.config
	cfg.RaffleItems = append([]string(nil), l.config.RaffleItems...)
	cfg.RaffleDescriptions = append([]string(nil), l.config.RaffleDescriptions...)
	return cfg
}

func (l *Ledger) record() models.LotteryRecord {
	return models.LotteryRecord{ID: l.id, Admin: l.admin, CreatedAt: l.createdAt, Config: l.Config()}
}

func (l *Ledger) ViewUserTickets(caller models.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.tickets[caller]
}

func (l *Ledger) ViewUserBalance(caller models.Address) uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[caller]
}

func (l *Ledger) ViewTotalRaised() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalRaised
}

func (l *Ledger) ViewTotalParticipants() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.order))
}

func (l *Ledger) ViewRaffleItems() []string {
	return append([]string(nil), l.config.RaffleItems...)
}

func (l *Ledger) ViewRaffleDescriptions() []string {
	return append([]string(nil), l.config.RaffleDescriptions...)
}

func (l *Ledger) ViewPurchasePeriod() int64 {
	return l.config.PurchasePeriod
}

// ViewLotteryDetails returns configuration and totals in their fixed order.
func (l *Ledger) ViewLotteryDetails() models.LotteryDetails {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return models.LotteryDetails{
		TicketPrice:         l.config.TicketPrice,
		StartTime:           l.config.StartTime,
		EndTime:             l.config.EndTime,
		PurchasePeriod:      l.config.PurchasePeriod,
		MinimumParticipants: l.config.MinimumParticipants,
		MaxTicketsPerUser:   l.config.MaxTicketsPerUser,
		TotalRaised:         l.totalRaised,
		IsTerminated:        l.terminated,
		Winner:              l.winner,
	}
}

func (l *Ledger) IsTerminated() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.terminated
}

func (l *Ledger) Winner() models.Address {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.winner
}

// Custody returns the value received but not yet withdrawn.
func (l *Ledger) Custody() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.custody
}

// IsViable reports whether enough distinct participants have bought tickets.
func (l *Ledger) IsViable() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return uint64(len(l.order)) >= l.config.MinimumParticipants
}

// Participants returns every participant in first-purchase order.
func (l *Ledger) Participants() []models.Participant {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.participantsLocked()
}

func (l *Ledger) participantsLocked() []models.Participant {
	out := make([]models.Participant, 0, len(l.order))
	for _, a := range l.order {
		out = append(out, models.Participant{Address: a, Balance: l.balances[a], Tickets: l.tickets[a]})
	}
	return out
}

// Summary returns the listing view of the lottery.
func (l *Ledger) Summary() models.LotterySummary {
	return models.LotterySummary{
		ID:        l.id,
		Admin:     l.admin,
		CreatedAt: l.createdAt,
		Details:   l.ViewLotteryDetails(),
	}
}

// discardJournal accepts every entry; effects still run.
type discardJournal struct{}

func (discardJournal) Append(ctx context.Context, _ models.Entry, effect func(context.Context) error) error {
	if effect == nil {
		return nil
	}
	return effect(ctx)
}
