package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tier is a priced ticket category with a finite stock. AvailableStock
// is only ever decremented through the stock engine's reservation path
// or set absolutely by an admin resync.
type Tier struct {
	gorm.Model
	ID             uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name           string    `gorm:"not null" json:"name"`
	Price          int       `gorm:"not null" json:"price"`
	Benefits       string    `gorm:"size:500" json:"benefits"`
	AvailableStock int       `gorm:"not null;check:available_stock >= 0" json:"available_stock"`
	EventID        uuid.UUID `gorm:"type:uuid;not null;index" json:"event_id"`
}

func (tier *Tier) BeforeCreate(tx *gorm.DB) (err error) {
	if tier.ID == uuid.Nil {
		tier.ID = uuid.New()
	}
	return
}
