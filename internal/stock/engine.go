package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

// purchaseState tracks a reservation attempt through its lifecycle.
// LockAcquired, StockChecked and Decremented happen inside the ledger
// transaction and collapse into OrderPersisted (or Rejected) from the
// engine's point of view. Terminal states are Committed and Rejected.
type purchaseState string

const (
	stateReceived       purchaseState = "Received"
	stateRejected       purchaseState = "Rejected"
	stateOrderPersisted purchaseState = "OrderPersisted"
	stateCacheSynced    purchaseState = "CacheSynced"
	stateBroadcast      purchaseState = "Broadcast"
	stateCommitted      purchaseState = "Committed"
)

// Result is the outcome of a reservation attempt. Declines (Reason set,
// Accepted false) are expected business outcomes, not errors; the
// engine returns a non-nil error only for system faults.
type Result struct {
	Accepted  bool      `json:"accepted"`
	Remaining int       `json:"remaining"`
	Reason    Reason    `json:"reason,omitempty"`
	OrderID   uuid.UUID `json:"order_id,omitempty"`
}

// Engine is the arbiter orchestrating purchases: ledger mutation inside
// one atomic unit, then best-effort cache sync and broadcast. One
// stateless instance per process; all collaborators are injected.
type Engine struct {
	logger    *logrus.Logger
	ledger    Ledger
	journal   Journal
	cache     Cache
	publisher Publisher
}

func NewEngine(logger *logrus.Logger, ledger Ledger, journal Journal, cache Cache, publisher Publisher) *Engine {
	return &Engine{
		logger:    logger,
		ledger:    ledger,
		journal:   journal,
		cache:     cache,
		publisher: publisher,
	}
}

// Reserve attempts to buy qty tickets of a tier on behalf of buyerID.
// The ledger serializes concurrent reservers of the same tier; cache
// and publisher updates happen only after the ledger has committed and
// never affect the outcome.
func (e *Engine) Reserve(ctx context.Context, eventID, tierID uuid.UUID, buyerID string, qty int) (Result, error) {
	log := e.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id": eventID,
		"tier_id":  tierID,
		"buyer_id": buyerID,
		"quantity": qty,
	})
	log.WithField("state", stateReceived).Debug("reservation received")

	if qty < 1 {
		return Result{}, ErrInvalidQuantity
	}

	order := models.Order{
		ID:       uuid.New(),
		BuyerID:  buyerID,
		Quantity: qty,
	}

	remaining, err := e.ledger.Reserve(ctx, eventID, tierID, qty, &order)
	if err != nil {
		if reason, declined := reasonFor(err); declined {
			log.WithFields(logrus.Fields{"state": stateRejected, "reason": reason}).Info("reservation rejected")
			return Result{Accepted: false, Reason: reason}, nil
		}
		log.WithError(err).Error("reservation aborted, ledger transaction rolled back")
		return Result{}, fmt.Errorf("reserving stock: %w", err)
	}

	log.WithField("state", stateOrderPersisted).WithField("order_id", order.ID).Debug("stock decremented and order persisted")

	// Post-commit side effects are best-effort: the order is already
	// safe, so failures here are logged and swallowed.
	if err := e.cache.Set(ctx, eventID, tierID, remaining); err != nil {
		log.WithError(err).Warn("stock cache sync failed after commit")
	} else {
		log.WithField("state", stateCacheSynced).Debug("cache synced")
	}

	if err := e.publisher.Publish(ctx, eventID, StockUpdate{TierID: tierID, Remaining: remaining}); err != nil {
		log.WithError(err).Warn("stock broadcast failed after commit")
	} else {
		log.WithField("state", stateBroadcast).Debug("stock update broadcast")
	}

	log.WithField("state", stateCommitted).WithField("remaining", remaining).Info("reservation committed")

	return Result{
		Accepted:  true,
		Remaining: remaining,
		OrderID:   order.ID,
	}, nil
}

// Remaining returns a tier's remaining stock, cache-first with a
// ledger fallback. A miss backfills the cache best-effort.
func (e *Engine) Remaining(ctx context.Context, eventID, tierID uuid.UUID) (int, error) {
	value, ok, err := e.cache.Get(ctx, eventID, tierID)
	if err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("stock cache read failed, falling back to ledger")
	}
	if ok {
		return value, nil
	}

	tier, err := e.ledger.Tier(ctx, eventID, tierID)
	if err != nil {
		return 0, err
	}

	if err := e.cache.Set(ctx, eventID, tierID, tier.AvailableStock); err != nil {
		e.logger.WithContext(ctx).WithError(err).Warn("stock cache backfill failed")
	}

	return tier.AvailableStock, nil
}

// ResyncTier sets a tier's stock to an absolute value in the ledger,
// then forces the cache and subscribers to match. Idempotent.
func (e *Engine) ResyncTier(ctx context.Context, eventID, tierID uuid.UUID, amount int) error {
	if amount < 0 {
		return ErrInvalidQuantity
	}

	if err := e.ledger.Resync(ctx, eventID, tierID, amount); err != nil {
		return err
	}

	e.syncTier(ctx, eventID, tierID, amount)
	return nil
}

// ResyncAll rewrites the cache from the ledger for every tier and
// rebroadcasts the counts. Used at boot and by admin tooling after a
// cache flush.
func (e *Engine) ResyncAll(ctx context.Context) (int, error) {
	tiers, err := e.ledger.Tiers(ctx)
	if err != nil {
		return 0, err
	}

	for _, tier := range tiers {
		e.syncTier(ctx, tier.EventID, tier.ID, tier.AvailableStock)
	}

	e.logger.WithContext(ctx).WithField("tiers", len(tiers)).Info("stock cache resynced from ledger")
	return len(tiers), nil
}

// SyncTiers hydrates the cache for freshly created or updated tiers.
func (e *Engine) SyncTiers(ctx context.Context, tiers []models.Tier) {
	for _, tier := range tiers {
		e.syncTier(ctx, tier.EventID, tier.ID, tier.AvailableStock)
	}
}

// SwapTiers reconciles the cache after an event's tier set has been
// replaced: entries for the retired tiers are dropped before the new
// ones are hydrated, so no stale key stays readable.
func (e *Engine) SwapTiers(ctx context.Context, eventID uuid.UUID, oldTierIDs []uuid.UUID, tiers []models.Tier) {
	e.Forget(ctx, eventID, oldTierIDs)
	e.SyncTiers(ctx, tiers)
}

// Forget drops the cache entries for an event's tiers, typically after
// the event has been deleted.
func (e *Engine) Forget(ctx context.Context, eventID uuid.UUID, tierIDs []uuid.UUID) {
	for _, tierID := range tierIDs {
		if err := e.cache.Delete(ctx, eventID, tierID); err != nil {
			e.logger.WithContext(ctx).WithError(err).Warn("dropping stock cache key failed")
		}
	}
}

// Orders exposes the journal for collaborator reads.
func (e *Engine) Orders() Journal {
	return e.journal
}

func (e *Engine) syncTier(ctx context.Context, eventID, tierID uuid.UUID, remaining int) {
	log := e.logger.WithContext(ctx).WithFields(logrus.Fields{
		"event_id": eventID,
		"tier_id":  tierID,
	})

	if err := e.cache.Set(ctx, eventID, tierID, remaining); err != nil {
		log.WithError(err).Warn("stock cache sync failed")
	}
	if err := e.publisher.Publish(ctx, eventID, StockUpdate{TierID: tierID, Remaining: remaining}); err != nil {
		log.WithError(err).Warn("stock broadcast failed")
	}
}

// IsNotFound reports whether err denotes a missing event or tier.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEventNotFound) || errors.Is(err, ErrTierNotFound)
}
