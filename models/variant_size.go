package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type VariantSize struct {
	ID        uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	VariantID uuid.UUID       `gorm:"type:uuid;not null;index" json:"variant_id"`
	SizeID    uuid.UUID       `gorm:"type:uuid;not null" json:"size_id"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;default:0" json:"quantity"`
	Position  int             `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *VariantSize) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
