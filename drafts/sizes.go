package drafts

import (
	"strconv"
	"strings"

	"catalog-admin/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SizeField string

const (
	SizeFieldSizeID   SizeField = "sizeId"
	SizeFieldPrice    SizeField = "price"
	SizeFieldQuantity SizeField = "quantity"
)

// SizeCollection is the ordered list of a variant's price/quantity entries.
// Every operation returns a new slice and leaves the receiver untouched.
type SizeCollection []SizeEntry

func (c SizeCollection) clone(extra int) SizeCollection {
	out := make(SizeCollection, len(c), len(c)+extra)
	copy(out, c)
	return out
}

// Add appends a blank entry.
func (c SizeCollection) Add() SizeCollection {
	return append(c.clone(1), SizeEntry{Price: decimal.Zero})
}

// Remove deletes the entry at index. Remaining entries keep their persisted ids;
// only their positions change.
func (c SizeCollection) Remove(index int) (SizeCollection, error) {
	if index < 0 || index >= len(c) {
		return c, apperr.Newf(apperr.InvalidInput, "size index %d out of range", index)
	}
	out := make(SizeCollection, 0, len(c)-1)
	out = append(out, c[:index]...)
	return append(out, c[index+1:]...), nil
}

// Update replaces one field of the entry at index. Value is parsed according to
// the field: a uuid for sizeId, a decimal for price and an integer for quantity.
// An empty value resets the field to its zero value.
func (c SizeCollection) Update(index int, field SizeField, value string) (SizeCollection, error) {
	if index < 0 || index >= len(c) {
		return c, apperr.Newf(apperr.InvalidInput, "size index %d out of range", index)
	}
	value = strings.TrimSpace(value)
	entry := c[index]

	switch field {
	case SizeFieldSizeID:
		if value == "" {
			entry.SizeID = uuid.Nil
			break
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return c, apperr.Wrap(apperr.InvalidInput, "invalid size id", err)
		}
		entry.SizeID = id
	case SizeFieldPrice:
		if value == "" {
			entry.Price = decimal.Zero
			break
		}
		price, err := decimal.NewFromString(value)
		if err != nil {
			return c, apperr.Wrap(apperr.InvalidInput, "invalid price", err)
		}
		entry.Price = price
	case SizeFieldQuantity:
		if value == "" {
			entry.Quantity = 0
			break
		}
		qty, err := strconv.Atoi(value)
		if err != nil {
			return c, apperr.Wrap(apperr.InvalidInput, "invalid quantity", err)
		}
		entry.Quantity = qty
	default:
		return c, apperr.Newf(apperr.InvalidInput, "unknown size field %q", field)
	}

	out := c.clone(0)
	out[index] = entry
	return out, nil
}
