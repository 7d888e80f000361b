package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/shendeyogesh11/TicketBlitz/internal/models"
)

// Journal is the append-only order log, read by buyer wallets and
// admin reporting. Orders are only ever written through the ledger's
// reservation transaction.
type Journal interface {
	ByBuyer(ctx context.Context, buyerID string) ([]models.Order, error)
	ByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Order, error)
}

type SQLJournal struct {
	logger *logrus.Logger
	db     *gorm.DB
}

func NewSQLJournal(logger *logrus.Logger, db *gorm.DB) *SQLJournal {
	return &SQLJournal{logger: logger, db: db}
}

func (j *SQLJournal) ByBuyer(ctx context.Context, buyerID string) ([]models.Order, error) {
	var orders []models.Order
	err := j.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		j.logger.WithContext(ctx).WithError(err).Error("listing orders by buyer")
		return nil, fmt.Errorf("listing orders by buyer: %w", err)
	}
	return orders, nil
}

func (j *SQLJournal) ByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := j.db.WithContext(ctx).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		j.logger.WithContext(ctx).WithError(err).Error("listing orders by event")
		return nil, fmt.Errorf("listing orders by event: %w", err)
	}
	return orders, nil
}
