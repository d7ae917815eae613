package dtos

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSubmitRequest is the body sent to the catalog backend when a draft is saved.
// Nested ids are set for entities the backend already knows and omitted for new ones,
// which is how the backend tells an update from a create.
type ProductSubmitRequest struct {
	ID          *uuid.UUID      `json:"id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Enabled     bool            `json:"enabled"`
	CategoryID  uuid.UUID       `json:"categoryId"`
	Variants    []VariantSubmit `json:"variants"`
}

type VariantSubmit struct {
	ID       *uuid.UUID    `json:"id,omitempty"`
	ColorID  uuid.UUID     `json:"colorId"`
	Status   string        `json:"status"`
	ImageURL string        `json:"imageUrl,omitempty"` // deprecated single-image field
	Sizes    []SizeSubmit  `json:"sizes"`
	Images   []ImageSubmit `json:"images"`
}

type SizeSubmit struct {
	ID       *uuid.UUID      `json:"id,omitempty"`
	SizeID   uuid.UUID       `json:"sizeId"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

type ImageSubmit struct {
	ID           *uuid.UUID `json:"id,omitempty"`
	ImageURL     string     `json:"imageUrl"`
	AltText      string     `json:"altText"`
	IsPrimary    bool       `json:"isPrimary"`
	DisplayOrder int        `json:"displayOrder"`
}

// ProductResponse is the backend's representation of a saved product.
type ProductResponse struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Enabled     bool              `json:"enabled"`
	CategoryID  uuid.UUID         `json:"categoryId"`
	Variants    []VariantResponse `json:"variants"`
}

type VariantResponse struct {
	ID       uuid.UUID      `json:"id"`
	ColorID  uuid.UUID      `json:"colorId"`
	Status   string         `json:"status"`
	ImageURL string         `json:"imageUrl,omitempty"`
	Sizes    []SizeResponse `json:"sizes"`
	Images   []VariantImage `json:"images"`
}

type SizeResponse struct {
	ID       uuid.UUID       `json:"id"`
	SizeID   uuid.UUID       `json:"sizeId"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// VariantImage is one entry of a variant's authoritative image list.
type VariantImage struct {
	ID           uuid.UUID `json:"id"`
	VariantID    uuid.UUID `json:"variantId,omitempty"`
	ImageURL     string    `json:"imageUrl"`
	AltText      string    `json:"altText"`
	IsPrimary    bool      `json:"isPrimary"`
	DisplayOrder int       `json:"displayOrder"`
}

// UploadResponse is returned by the backend's file upload endpoint.
type UploadResponse struct {
	FileURL string `json:"fileUrl"`
}
