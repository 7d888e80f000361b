package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

// DefaultLockTimeout bounds how long a reservation waits for a tier's
// row lock before giving up with ErrBusy.
const DefaultLockTimeout = 5 * time.Second

// Ledger is the authoritative store of tier stock and committed
// orders. Reserve is the only path that decrements stock; Resync is
// the admin escape hatch that sets it absolutely.
type Ledger interface {
	// Reserve atomically checks availableStock >= qty, decrements it
	// and persists the order in the same transaction, filling the
	// order's tier snapshot fields under the lock. It returns the
	// remaining stock after the decrement. On any failure the ledger
	// is left untouched.
	Reserve(ctx context.Context, eventID, tierID uuid.UUID, qty int, order *models.Order) (int, error)

	// Resync sets a tier's available stock to an absolute value,
	// bypassing the reservation path. Idempotent.
	Resync(ctx context.Context, eventID, tierID uuid.UUID, amount int) error

	// Tier returns the current row for a tier owned by eventID.
	Tier(ctx context.Context, eventID, tierID uuid.UUID) (models.Tier, error)

	// Tiers returns every tier in the ledger.
	Tiers(ctx context.Context) ([]models.Tier, error)
}

// SQLLedger implements Ledger on postgres via gorm, serializing
// concurrent reservers of one tier with SELECT ... FOR UPDATE under a
// transaction-local lock_timeout.
type SQLLedger struct {
	logger      *logrus.Logger
	db          *gorm.DB
	lockTimeout time.Duration
}

func NewSQLLedger(logger *logrus.Logger, db *gorm.DB, lockTimeout time.Duration) *SQLLedger {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &SQLLedger{
		logger:      logger,
		db:          db,
		lockTimeout: lockTimeout,
	}
}

func (l *SQLLedger) Reserve(ctx context.Context, eventID, tierID uuid.UUID, qty int, order *models.Order) (int, error) {
	var remaining int

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// lock_timeout is transaction-local, so a timed-out waiter
		// fails this attempt without poisoning the session.
		timeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", l.lockTimeout.Milliseconds())
		if err := tx.Exec(timeout).Error; err != nil {
			return fmt.Errorf("setting lock timeout: %w", err)
		}

		var tier models.Tier
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", tierID).
			First(&tier).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTierNotFound
			}
			if isLockTimeout(err) {
				return ErrBusy
			}
			return fmt.Errorf("locking tier row: %w", err)
		}

		if tier.EventID != eventID {
			return ErrEventNotFound
		}

		if tier.AvailableStock < qty {
			return ErrInsufficientStock
		}

		remaining = tier.AvailableStock - qty
		if err := tx.Model(&models.Tier{}).Where("id = ?", tierID).Update("available_stock", remaining).Error; err != nil {
			return fmt.Errorf("decrementing stock: %w", err)
		}

		order.EventID = tier.EventID
		order.TierID = tier.ID
		order.TierName = tier.Name
		order.UnitPrice = tier.Price
		order.Total = tier.Price * order.Quantity

		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("persisting order: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return remaining, nil
}

func (l *SQLLedger) Resync(ctx context.Context, eventID, tierID uuid.UUID, amount int) error {
	result := l.db.WithContext(ctx).
		Model(&models.Tier{}).
		Where("id = ? AND event_id = ?", tierID, eventID).
		Update("available_stock", amount)
	if result.Error != nil {
		l.logger.WithContext(ctx).WithError(result.Error).Error("resyncing tier stock")
		return fmt.Errorf("resyncing tier stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.Tier{}).Where("id = ?", tierID).Count(&count).Error; err == nil && count > 0 {
			return ErrEventNotFound
		}
		return ErrTierNotFound
	}
	return nil
}

func (l *SQLLedger) Tier(ctx context.Context, eventID, tierID uuid.UUID) (models.Tier, error) {
	var tier models.Tier
	err := l.db.WithContext(ctx).
		Where("id = ?", tierID).
		First(&tier).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Tier{}, ErrTierNotFound
		}
		return models.Tier{}, fmt.Errorf("reading tier: %w", err)
	}
	if tier.EventID != eventID {
		return models.Tier{}, ErrEventNotFound
	}
	return tier, nil
}

func (l *SQLLedger) Tiers(ctx context.Context) ([]models.Tier, error) {
	var tiers []models.Tier
	if err := l.db.WithContext(ctx).Find(&tiers).Error; err != nil {
		return nil, fmt.Errorf("listing tiers: %w", err)
	}
	return tiers, nil
}

// isLockTimeout reports whether err is postgres class 55P03
// (lock_not_available), raised when lock_timeout expires under
// FOR UPDATE.
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "55P03"
}
