package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Order is the immutable record of one successful reservation. Tier
// name and unit price are snapshotted at purchase time so later tier
// edits never rewrite sold history.
type Order struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	BuyerID   string    `gorm:"not null;index" json:"buyer_id"`
	EventID   uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
	TierID    uuid.UUID `gorm:"type:uuid;not null;index" json:"tier_id"`
	TierName  string    `gorm:"not null" json:"tier_name"`
	UnitPrice int       `gorm:"not null" json:"unit_price"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Total     int       `gorm:"not null" json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return
}
