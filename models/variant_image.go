package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VariantImage struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	VariantID    uuid.UUID `gorm:"type:uuid;not null;index" json:"variant_id"`
	ImageURL     string    `gorm:"not null" json:"image_url"`
	AltText      string    `gorm:"size:255" json:"alt_text"`
	IsPrimary    bool      `gorm:"default:false" json:"is_primary"`
	DisplayOrder int       `gorm:"not null;default:0" json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (i *VariantImage) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
