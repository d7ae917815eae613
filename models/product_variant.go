package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant is one color of a product with its own sizes and images.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ColorID   uuid.UUID `gorm:"type:uuid;not null" json:"color_id"`
	Status    string    `gorm:"not null;default:ACTIVE" json:"status"`
	Position  int       `gorm:"not null;default:0" json:"position"`

	// ImageURL mirrors the primary image for clients that predate variant galleries.
	ImageURL  string         `json:"image_url"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Sizes     []VariantSize  `gorm:"foreignKey:VariantID" json:"sizes,omitempty"`
	Images    []VariantImage `gorm:"foreignKey:VariantID" json:"images,omitempty"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// SortChildren orders Images by DisplayOrder and Sizes by Position.
func (v *ProductVariant) SortChildren() {
	sort.SliceStable(v.Images, func(i, j int) bool {
		return v.Images[i].DisplayOrder < v.Images[j].DisplayOrder
	})
	sort.SliceStable(v.Sizes, func(i, j int) bool {
		return v.Sizes[i].Position < v.Sizes[j].Position
	})
}

// PrimaryImageURL returns the URL of the primary image, or "" when there is none.
func (v *ProductVariant) PrimaryImageURL() string {
	for _, img := range v.Images {
		if img.IsPrimary {
			return img.ImageURL
		}
	}
	return ""
}
