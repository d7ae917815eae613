package drafts

import (
	"strings"

	"catalog-admin/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMaxImages is the per-variant image cap used when none is configured.
const DefaultMaxImages = 10

type VariantStatus string

const (
	StatusActive       VariantStatus = "ACTIVE"
	StatusInactive     VariantStatus = "INACTIVE"
	StatusDiscontinued VariantStatus = "DISCONTINUED"
)

func ParseVariantStatus(s string) (VariantStatus, error) {
	switch VariantStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusActive:
		return StatusActive, nil
	case StatusInactive:
		return StatusInactive, nil
	case StatusDiscontinued:
		return StatusDiscontinued, nil
	}
	return "", apperr.Newf(apperr.InvalidInput, "unknown variant status %q", s)
}

type SizeEntry struct {
	ID       *uuid.UUID      `json:"id,omitempty"`
	SizeID   uuid.UUID       `json:"sizeId"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// ImageEntry is one image of a variant. Persisted is false for entries whose ID
// was generated locally and has never been returned by the backend.
type ImageEntry struct {
	ID           uuid.UUID `json:"id"`
	Persisted    bool      `json:"persisted"`
	ImageURL     string    `json:"imageUrl"`
	AltText      string    `json:"altText"`
	IsPrimary    bool      `json:"isPrimary"`
	DisplayOrder int       `json:"displayOrder"`
}

// VariantDraft is a variant being edited. ID is nil until the backend has created it.
// Key is a client-side identity that survives reordering and removal of sibling
// variants, so results of in-flight requests can find their variant again.
type VariantDraft struct {
	Key     uuid.UUID       `json:"key"`
	ID      *uuid.UUID      `json:"id,omitempty"`
	ColorID uuid.UUID       `json:"colorId"`
	Status  VariantStatus   `json:"status"`
	Sizes   SizeCollection  `json:"sizes"`
	Images  ImageCollection `json:"images"`

	// Deprecated: single image URL kept for variants created before multiple images.
	ImageURL string `json:"imageUrl,omitempty"`
}

func NewVariantDraft() VariantDraft {
	return VariantDraft{
		Key:    uuid.New(),
		Status: StatusActive,
		Sizes:  SizeCollection{}.Add(),
		Images: ImageCollection{},
	}
}

// Persisted reports whether the backend already knows this variant.
func (v *VariantDraft) Persisted() bool {
	return v.ID != nil
}

// ProductDraft is the aggregate root of an editing session.
type ProductDraft struct {
	ID          *uuid.UUID     `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Enabled     bool           `json:"enabled"`
	CategoryID  uuid.UUID      `json:"categoryId"`
	Variants    []VariantDraft `json:"variants"`
	Errors      ErrorMap       `json:"errors"`
	MaxImages   int            `json:"maxImages"`
}

// NewProductDraft returns the empty draft shown by the add-product screen:
// enabled, with a single blank variant.
func NewProductDraft(maxImages int) *ProductDraft {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	return &ProductDraft{
		Enabled:   true,
		Variants:  []VariantDraft{NewVariantDraft()},
		Errors:    ErrorMap{},
		MaxImages: maxImages,
	}
}

func (d *ProductDraft) maxImages() int {
	if d.MaxImages <= 0 {
		return DefaultMaxImages
	}
	return d.MaxImages
}

func (d *ProductDraft) clear(key FieldKey) {
	if d.Errors == nil {
		d.Errors = ErrorMap{}
	}
	d.Errors.Clear(key)
}

func (d *ProductDraft) SetName(name string) {
	d.Name = name
	d.clear(ProductKey(FieldName))
}

func (d *ProductDraft) SetDescription(description string) {
	d.Description = description
	d.clear(ProductKey(FieldDescription))
}

func (d *ProductDraft) SetEnabled(enabled bool) {
	d.Enabled = enabled
}

func (d *ProductDraft) SetCategory(id uuid.UUID) {
	d.CategoryID = id
	d.clear(ProductKey(FieldCategoryID))
}

// Variant returns a pointer to the variant at index i.
func (d *ProductDraft) Variant(i int) (*VariantDraft, error) {
	if i < 0 || i >= len(d.Variants) {
		return nil, apperr.Newf(apperr.NotFound, "variant %d not found", i)
	}
	return &d.Variants[i], nil
}

// VariantByKey returns the index of the variant with the given client key, or -1.
func (d *ProductDraft) VariantByKey(key uuid.UUID) int {
	for i := range d.Variants {
		if d.Variants[i].Key == key {
			return i
		}
	}
	return -1
}

// AddVariant appends a blank variant and returns its index.
func (d *ProductDraft) AddVariant() int {
	variants := make([]VariantDraft, len(d.Variants), len(d.Variants)+1)
	copy(variants, d.Variants)
	d.Variants = append(variants, NewVariantDraft())
	d.clear(ProductKey(FieldVariants))
	return len(d.Variants) - 1
}

func (d *ProductDraft) RemoveVariant(i int) error {
	if _, err := d.Variant(i); err != nil {
		return err
	}
	variants := make([]VariantDraft, 0, len(d.Variants)-1)
	variants = append(variants, d.Variants[:i]...)
	d.Variants = append(variants, d.Variants[i+1:]...)
	if d.Errors != nil {
		d.Errors.ClearVariant(i)
	}
	return nil
}

func (d *ProductDraft) SetVariantColor(i int, colorID uuid.UUID) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	v.ColorID = colorID
	d.clear(VariantKey(i, FieldColorID))
	return nil
}

func (d *ProductDraft) SetVariantStatus(i int, status VariantStatus) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	v.Status = status
	return nil
}

func (d *ProductDraft) AddSize(i int) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	v.Sizes = v.Sizes.Add()
	d.clear(VariantKey(i, FieldSizes))
	return nil
}

func (d *ProductDraft) RemoveSize(i, j int) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	sizes, err := v.Sizes.Remove(j)
	if err != nil {
		return err
	}
	v.Sizes = sizes
	if d.Errors != nil {
		d.Errors.ClearSize(i, j)
	}
	return nil
}

func (d *ProductDraft) UpdateSize(i, j int, field SizeField, value string) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	sizes, err := v.Sizes.Update(j, field, value)
	if err != nil {
		return err
	}
	v.Sizes = sizes
	d.clear(SizeKey(i, j, string(field)))
	return nil
}

func (d *ProductDraft) AddImageURL(i int, url string) (ImageEntry, error) {
	v, err := d.Variant(i)
	if err != nil {
		return ImageEntry{}, err
	}
	images, entry, err := v.Images.AddFromURL(url, d.maxImages())
	if err != nil {
		return ImageEntry{}, err
	}
	v.Images = images
	d.clear(VariantKey(i, FieldImages))
	return entry, nil
}

// MergeUploads appends the successful results of an upload batch to variant i.
func (d *ProductDraft) MergeUploads(i int, results []UploadResult) (int, error) {
	v, err := d.Variant(i)
	if err != nil {
		return 0, err
	}
	images, added, err := MergeUploads(v.Images, results, d.maxImages())
	if err != nil {
		return 0, err
	}
	v.Images = images
	if added > 0 {
		d.clear(VariantKey(i, FieldImages))
	}
	return added, nil
}

func (d *ProductDraft) RemoveImage(i int, imageID uuid.UUID) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	images, err := v.Images.Remove(imageID)
	if err != nil {
		return err
	}
	v.Images = images
	return nil
}

func (d *ProductDraft) ReorderImages(i, from, to int) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	images, err := v.Images.Reorder(from, to)
	if err != nil {
		return err
	}
	v.Images = images
	return nil
}

func (d *ProductDraft) UpdateImageAltText(i int, imageID uuid.UUID, text string) error {
	v, err := d.Variant(i)
	if err != nil {
		return err
	}
	images, err := v.Images.UpdateAltText(imageID, text)
	if err != nil {
		return err
	}
	v.Images = images
	return nil
}

// Validate recomputes the error map wholesale and stores it on the draft.
func (d *ProductDraft) Validate() ErrorMap {
	d.Errors = Validate(d)
	return d.Errors
}

// Clone returns a copy that shares no mutable state with d. Collections are
// copy-on-write, so only the variant slice and the error map are copied.
func (d *ProductDraft) Clone() *ProductDraft {
	out := *d
	out.Variants = make([]VariantDraft, len(d.Variants))
	copy(out.Variants, d.Variants)
	out.Errors = make(ErrorMap, len(d.Errors))
	for k, v := range d.Errors {
		out.Errors[k] = v
	}
	return &out
}
