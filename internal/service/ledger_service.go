// internal/service/ledger_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cardledger/internal/domain"
	"cardledger/internal/idgen"
	"cardledger/internal/notify"
	"cardledger/internal/persistence"
	"cardledger/internal/repository"
	"cardledger/internal/util"
)

// LedgerService defines the card ledger operations exposed to the host integration.
//
// Mutations that were applied in memory but could not be persisted return
// the updated record together with a *util.PersistenceError; the business
// effect stands and the next save flushes it.
type LedgerService interface {
	CreateCard(ctx context.Context, ownerID, ownerName string, bypassCooldown bool) (domain.Card, error)
	CreateCardWithID(ctx context.Context, ownerID, ownerName, requestedID string) (domain.Card, error)
	Deposit(ctx context.Context, cardID string, amount int64) (domain.Card, error)
	Withdraw(ctx context.Context, cardID string, amount int64) (domain.Card, error)
	Transfer(ctx context.Context, fromCardID, toCardID string, amount int64) (from domain.Card, to domain.Card, err error)
	Destroy(ctx context.Context, cardID string) (domain.Card, error)
	// Touch refreshes last-used and, when ownerName is not empty, the cached owner name.
	Touch(ctx context.Context, cardID, ownerName string) (domain.Card, error)

	Get(cardID string) (domain.Card, bool)
	Exists(cardID string) bool
	IsOwner(ownerID, cardID string) bool
	UsedIDs() []string
	ListByOwner(ownerID string) []domain.Card

	CooldownActive(ownerID string) bool
	CooldownRemaining(ownerID string) time.Duration
	SetCooldown(ctx context.Context, ownerID string, expiresAt time.Time) error

	// Load fills the stores from the persisted snapshots. Call it once before serving.
	Load(ctx context.Context) error
	// SaveAll writes the cards and cooldowns documents.
	SaveAll(ctx context.Context) error
}

// IDGenerator issues card ids and colors.
type IDGenerator interface {
	GenerateUniqueID(used idgen.Reserver) (string, error)
	RandomColor() int
}

// LedgerSnapshots is the part of the persistence layer the ledger uses.
type LedgerSnapshots interface {
	LoadCards(ctx context.Context) (persistence.CardsSnapshot, error)
	LoadCooldowns(ctx context.Context) (map[string]time.Time, error)
	SaveCards(ctx context.Context, version uint64, snap persistence.CardsSnapshot) error
	SaveCooldowns(ctx context.Context, version uint64, expires map[string]time.Time) error
}

// LedgerConfig holds the ledger business rules.
type LedgerConfig struct {
	Cooldown             time.Duration    // time between card creations per owner
	DestroyRequiresEmpty bool             // refuse to destroy cards holding a balance
	Clock                func() time.Time // defaults to time.Now
}

// ledgerService implements LedgerService.
// One mutex covers every read-modify-write and the snapshot capture that
// follows it; disk IO happens after the lock is released.
type ledgerService struct {
	mu        sync.Mutex
	version   uint64
	cards     repository.CardRepository
	cooldowns repository.CooldownRepository
	ids       IDGenerator
	snapshots LedgerSnapshots
	publisher notify.Publisher
	cfg       LedgerConfig
	logger    *slog.Logger
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	cards repository.CardRepository,
	cooldowns repository.CooldownRepository,
	ids IDGenerator,
	snapshots LedgerSnapshots,
	publisher notify.Publisher,
	cfg LedgerConfig,
	logger *slog.Logger,
) LedgerService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if publisher == nil {
		publisher = notify.Nop{}
	}
	return &ledgerService{
		cards:     cards,
		cooldowns: cooldowns,
		ids:       ids,
		snapshots: snapshots,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// pending is state captured under the lock, waiting to be written.
type pending struct {
	version   uint64
	cards     *persistence.CardsSnapshot
	cooldowns map[string]time.Time
}

// captureLocked bumps the version and copies the requested documents.
// Callers must hold s.mu.
func (s *ledgerService) captureLocked(cards, cooldowns bool) pending {
	s.version++
	p := pending{version: s.version}
	if cards {
		p.cards = &persistence.CardsSnapshot{
			Cards:      s.cards.AllRecords(),
			RetiredIDs: s.cards.RetiredIDs(),
		}
	}
	if cooldowns {
		p.cooldowns = s.cooldowns.All()
	}
	return p
}

func (s *ledgerService) flush(ctx context.Context, p pending) error {
	var errs []error
	if p.cards != nil {
		if err := s.snapshots.SaveCards(ctx, p.version, *p.cards); err != nil {
			errs = append(errs, err)
		}
	}
	if p.cooldowns != nil {
		if err := s.snapshots.SaveCooldowns(ctx, p.version, p.cooldowns); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *ledgerService) publish(ctx context.Context, e notify.Event) {
	e.At = s.cfg.Clock()
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Warn("Failed to publish ledger event", "type", e.Type, "card_id", e.CardID, "error", err)
	}
}

func (s *ledgerService) CreateCard(ctx context.Context, ownerID, ownerName string, bypassCooldown bool) (domain.Card, error) {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("create card: %w", err)
	}
	now := s.cfg.Clock()

	s.mu.Lock()
	if !bypassCooldown && s.cooldowns.IsActive(owner, now) {
		remaining := s.cooldowns.RemainingDuration(owner, now)
		s.mu.Unlock()
		return domain.Card{}, &util.CooldownError{Remaining: remaining}
	}
	id, err := s.ids.GenerateUniqueID(s.cards)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Card id space exhausted", "owner_id", owner, "error", err)
		return domain.Card{}, fmt.Errorf("create card: %w", err)
	}
	card := domain.NewCard(id, owner, displayName(ownerName), s.ids.RandomColor(), now)
	s.cards.Put(card)
	s.cooldowns.Set(owner, now.Add(s.cfg.Cooldown))
	p := s.captureLocked(true, true)
	s.mu.Unlock()

	s.logger.Info("Card created", "card_id", id, "owner_id", owner, "bypass_cooldown", bypassCooldown)
	err = s.flush(ctx, p)
	s.publish(ctx, notify.Event{Type: notify.EventCardCreated, CardID: id, OwnerID: owner})
	return card, err
}

func (s *ledgerService) CreateCardWithID(ctx context.Context, ownerID, ownerName, requestedID string) (domain.Card, error) {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("fabricate card: %w", err)
	}
	id, err := domain.NormalizeCardID(requestedID)
	if err != nil {
		return domain.Card{}, fmt.Errorf("fabricate card %q: %w", requestedID, err)
	}

	s.mu.Lock()
	if !s.cards.Reserve(id) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("fabricate card %s: %w", id, util.ErrAlreadyExists)
	}
	card := domain.NewCard(id, owner, displayName(ownerName), s.ids.RandomColor(), s.cfg.Clock())
	s.cards.Put(card)
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	s.logger.Info("Card fabricated", "card_id", id, "owner_id", owner)
	err = s.flush(ctx, p)
	s.publish(ctx, notify.Event{Type: notify.EventCardCreated, CardID: id, OwnerID: owner})
	return card, err
}

func (s *ledgerService) Deposit(ctx context.Context, cardID string, amount int64) (domain.Card, error) {
	cardID = cardKey(cardID)
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Card{}, fmt.Errorf("deposit: %w", err)
	}

	s.mu.Lock()
	if !s.cards.Exists(cardID) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("deposit %s: %w", cardID, util.ErrCardNotFound)
	}
	if !s.cards.AddBalance(cardID, amount) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("deposit %d to %s: %w", amount, cardID, util.ErrBalanceOverflow)
	}
	s.cards.UpdateLastUsed(cardID, s.cfg.Clock())
	card, _ := s.cards.Get(cardID)
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	err := s.flush(ctx, p)
	s.publish(ctx, notify.Event{Type: notify.EventDeposit, CardID: cardID, OwnerID: card.OwnerID, Amount: amount, Balance: card.Balance})
	return card, err
}

func (s *ledgerService) Withdraw(ctx context.Context, cardID string, amount int64) (domain.Card, error) {
	cardID = cardKey(cardID)
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Card{}, fmt.Errorf("withdraw: %w", err)
	}

	s.mu.Lock()
	if !s.cards.Exists(cardID) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("withdraw %s: %w", cardID, util.ErrCardNotFound)
	}
	if !s.cards.RemoveBalance(cardID, amount) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("withdraw %d from %s: %w", amount, cardID, util.ErrInsufficientFunds)
	}
	s.cards.UpdateLastUsed(cardID, s.cfg.Clock())
	card, _ := s.cards.Get(cardID)
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	err := s.flush(ctx, p)
	s.publish(ctx, notify.Event{Type: notify.EventWithdraw, CardID: cardID, OwnerID: card.OwnerID, Amount: amount, Balance: card.Balance})
	return card, err
}

func (s *ledgerService) Transfer(ctx context.Context, fromCardID, toCardID string, amount int64) (domain.Card, domain.Card, error) {
	fromCardID, toCardID = cardKey(fromCardID), cardKey(toCardID)
	if err := domain.ValidateAmount(amount); err != nil {
		return domain.Card{}, domain.Card{}, fmt.Errorf("transfer: %w", err)
	}
	if fromCardID == toCardID {
		return domain.Card{}, domain.Card{}, fmt.Errorf("transfer %s: %w", fromCardID, util.ErrSelfTransfer)
	}

	s.mu.Lock()
	from, to, err := s.cards.Transfer(fromCardID, toCardID, amount, s.cfg.Clock())
	if err != nil {
		s.mu.Unlock()
		if errors.Is(err, util.ErrInsufficientFunds) {
			return domain.Card{}, domain.Card{}, fmt.Errorf("transfer %d from %s: %w", amount, fromCardID, err)
		}
		return domain.Card{}, domain.Card{}, fmt.Errorf("transfer: %w", err)
	}
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	s.logger.Info("Transfer completed", "from", fromCardID, "to", toCardID, "amount", amount)
	err = s.flush(ctx, p)
	s.publish(ctx, notify.Event{
		Type:                notify.EventTransfer,
		CardID:              fromCardID,
		OwnerID:             from.OwnerID,
		CounterpartyCardID:  toCardID,
		CounterpartyOwnerID: to.OwnerID,
		Amount:              amount,
		Balance:             from.Balance,
	})
	return from, to, err
}

func (s *ledgerService) Destroy(ctx context.Context, cardID string) (domain.Card, error) {
	cardID = cardKey(cardID)
	s.mu.Lock()
	card, ok := s.cards.Get(cardID)
	if !ok {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("destroy %s: %w", cardID, util.ErrCardNotFound)
	}
	if s.cfg.DestroyRequiresEmpty && card.Balance > 0 {
		s.mu.Unlock()
		return card, fmt.Errorf("destroy %s: %w", cardID, util.ErrCardNotEmpty)
	}
	s.cards.Remove(cardID)
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	s.logger.Info("Card destroyed", "card_id", cardID, "owner_id", card.OwnerID, "balance", card.Balance)
	err := s.flush(ctx, p)
	s.publish(ctx, notify.Event{Type: notify.EventCardDestroyed, CardID: cardID, OwnerID: card.OwnerID, Balance: card.Balance})
	return card, err
}

func (s *ledgerService) Touch(ctx context.Context, cardID, ownerName string) (domain.Card, error) {
	cardID = cardKey(cardID)
	s.mu.Lock()
	if !s.cards.UpdateLastUsed(cardID, s.cfg.Clock()) {
		s.mu.Unlock()
		return domain.Card{}, fmt.Errorf("touch %s: %w", cardID, util.ErrCardNotFound)
	}
	if ownerName != "" {
		s.cards.SetOwnerName(cardID, ownerName)
	}
	card, _ := s.cards.Get(cardID)
	p := s.captureLocked(true, false)
	s.mu.Unlock()

	return card, s.flush(ctx, p)
}

func (s *ledgerService) Get(cardID string) (domain.Card, bool) {
	return s.cards.Get(cardKey(cardID))
}

func (s *ledgerService) Exists(cardID string) bool {
	return s.cards.Exists(cardKey(cardID))
}

func (s *ledgerService) IsOwner(ownerID, cardID string) bool {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return false
	}
	card, ok := s.cards.Get(cardKey(cardID))
	return ok && card.IsOwnedBy(owner)
}

func (s *ledgerService) UsedIDs() []string {
	return s.cards.UsedIDs()
}

func (s *ledgerService) ListByOwner(ownerID string) []domain.Card {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return nil
	}
	return s.cards.ListByOwner(owner)
}

func (s *ledgerService) CooldownActive(ownerID string) bool {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return false
	}
	return s.cooldowns.IsActive(owner, s.cfg.Clock())
}

func (s *ledgerService) CooldownRemaining(ownerID string) time.Duration {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return 0
	}
	return s.cooldowns.RemainingDuration(owner, s.cfg.Clock())
}

func (s *ledgerService) SetCooldown(ctx context.Context, ownerID string, expiresAt time.Time) error {
	owner, err := domain.NormalizeOwnerID(ownerID)
	if err != nil {
		return fmt.Errorf("set cooldown: %w", err)
	}

	s.mu.Lock()
	s.cooldowns.Set(owner, expiresAt)
	p := s.captureLocked(false, true)
	s.mu.Unlock()

	return s.flush(ctx, p)
}

func (s *ledgerService) Load(ctx context.Context) error {
	cards, err := s.snapshots.LoadCards(ctx)
	if err != nil {
		return fmt.Errorf("load cards: %w", err)
	}
	cooldowns, err := s.snapshots.LoadCooldowns(ctx)
	if err != nil {
		return fmt.Errorf("load cooldowns: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range cards.RetiredIDs {
		s.cards.Retire(id)
	}
	for _, c := range cards.Cards {
		s.cards.Put(c)
	}
	for owner, t := range cooldowns {
		s.cooldowns.Set(owner, t)
	}
	s.logger.Info("Ledger loaded", "cards", s.cards.Len(), "used_ids", len(s.cards.UsedIDs()), "cooldowns", s.cooldowns.Len())
	return nil
}

func (s *ledgerService) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	p := s.captureLocked(true, true)
	s.mu.Unlock()

	if err := s.flush(ctx, p); err != nil {
		return err
	}
	s.logger.Info("Ledger saved", "cards", len(p.cards.Cards), "cooldowns", len(p.cooldowns))
	return nil
}

func displayName(name string) string {
	if name == "" {
		return domain.DefaultOwnerName
	}
	return name
}

// cardKey accepts "12345678" as well as "1234-5678". Anything else is
// looked up verbatim and simply will not be found.
func cardKey(raw string) string {
	if id, err := domain.NormalizeCardID(raw); err == nil {
		return id
	}
	return raw
}
