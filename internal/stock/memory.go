package stock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

// MemoryLedger is an in-process Ledger with the same semantics as the
// SQL one: per-tier exclusive locks with a bounded wait, atomic
// decrement + order append, conservation always intact. It doubles as
// a Journal over its own orders and backs tests and local development.
type MemoryLedger struct {
	mu          sync.Mutex
	tiers       map[uuid.UUID]*models.Tier
	orders      []models.Order
	locks       map[uuid.UUID]chan struct{}
	lockTimeout time.Duration
}

func NewMemoryLedger(lockTimeout time.Duration) *MemoryLedger {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &MemoryLedger{
		tiers:       make(map[uuid.UUID]*models.Tier),
		locks:       make(map[uuid.UUID]chan struct{}),
		lockTimeout: lockTimeout,
	}
}

// AddTier seeds the ledger with a tier row.
func (l *MemoryLedger) AddTier(tier models.Tier) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	l.tiers[tier.ID] = &tier
}

// rowLock returns the tier's lock channel, creating it on first use.
// A buffered channel of capacity one behaves like a mutex that can be
// acquired with a timeout.
func (l *MemoryLedger) rowLock(tierID uuid.UUID) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock, ok := l.locks[tierID]
	if !ok {
		lock = make(chan struct{}, 1)
		l.locks[tierID] = lock
	}
	return lock
}

// acquire takes the tier's row lock, waiting at most lockTimeout or
// until ctx is done.
func (l *MemoryLedger) acquire(ctx context.Context, tierID uuid.UUID) (chan struct{}, error) {
	lock := l.rowLock(tierID)
	timer := time.NewTimer(l.lockTimeout)
	defer timer.Stop()

	select {
	case lock <- struct{}{}:
		return lock, nil
	case <-timer.C:
		return nil, ErrBusy
	case <-ctx.Done():
		return nil, ErrBusy
	}
}

// LockTier grabs a tier's row lock out of band and returns its release
// function. Used by tests to simulate a slow competing reserver.
func (l *MemoryLedger) LockTier(tierID uuid.UUID) func() {
	lock := l.rowLock(tierID)
	lock <- struct{}{}
	return func() { <-lock }
}

func (l *MemoryLedger) Reserve(ctx context.Context, eventID, tierID uuid.UUID, qty int, order *models.Order) (int, error) {
	lock, err := l.acquire(ctx, tierID)
	if err != nil {
		return 0, err
	}
	defer func() { <-lock }()

	l.mu.Lock()
	defer l.mu.Unlock()

	tier, ok := l.tiers[tierID]
	if !ok {
		return 0, ErrTierNotFound
	}
	if tier.EventID != eventID {
		return 0, ErrEventNotFound
	}

	if tier.AvailableStock < qty {
		return 0, ErrInsufficientStock
	}

	tier.AvailableStock -= qty

	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	order.EventID = tier.EventID
	order.TierID = tier.ID
	order.TierName = tier.Name
	order.UnitPrice = tier.Price
	order.Total = tier.Price * order.Quantity
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	l.orders = append(l.orders, *order)

	return tier.AvailableStock, nil
}

func (l *MemoryLedger) Resync(ctx context.Context, eventID, tierID uuid.UUID, amount int) error {
	lock, err := l.acquire(ctx, tierID)
	if err != nil {
		return err
	}
	defer func() { <-lock }()

	l.mu.Lock()
	defer l.mu.Unlock()

	tier, ok := l.tiers[tierID]
	if !ok {
		return ErrTierNotFound
	}
	if tier.EventID != eventID {
		return ErrEventNotFound
	}
	tier.AvailableStock = amount
	return nil
}

func (l *MemoryLedger) Tier(ctx context.Context, eventID, tierID uuid.UUID) (models.Tier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tier, ok := l.tiers[tierID]
	if !ok {
		return models.Tier{}, ErrTierNotFound
	}
	if tier.EventID != eventID {
		return models.Tier{}, ErrEventNotFound
	}
	return *tier, nil
}

func (l *MemoryLedger) Tiers(ctx context.Context) ([]models.Tier, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	tiers := make([]models.Tier, 0, len(l.tiers))
	for _, tier := range l.tiers {
		tiers = append(tiers, *tier)
	}
	return tiers, nil
}

// ByBuyer implements Journal.
func (l *MemoryLedger) ByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders := make([]models.Order, 0)
	for _, order := range l.orders {
		if order.BuyerID == buyerID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}

// ByEvent implements Journal.
func (l *MemoryLedger) ByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	orders := make([]models.Order, 0)
	for _, order := range l.orders {
		if order.EventID == eventID {
			orders = append(orders, order)
		}
	}
	return orders, nil
}
