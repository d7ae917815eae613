package drafts

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// Field names used in error keys.
const (
	FieldName        = "name"
	FieldDescription = "description"
	FieldCategoryID  = "categoryId"
	FieldVariants    = "variants"
	FieldColorID     = "colorId"
	FieldSizes       = "sizes"
	FieldImages      = "images"
	FieldSizeID      = "sizeId"
	FieldPrice       = "price"
	FieldQuantity    = "quantity"
)

type Scope uint8

const (
	ScopeProduct Scope = iota
	ScopeVariant
	ScopeSize
)

// FieldKey identifies the draft field an error belongs to.
type FieldKey struct {
	Scope   Scope
	Variant int
	Size    int
	Field   string
}

func ProductKey(field string) FieldKey {
	return FieldKey{Scope: ScopeProduct, Field: field}
}

func VariantKey(variant int, field string) FieldKey {
	return FieldKey{Scope: ScopeVariant, Variant: variant, Field: field}
}

func SizeKey(variant, size int, field string) FieldKey {
	return FieldKey{Scope: ScopeSize, Variant: variant, Size: size, Field: field}
}

// String renders the key the way the UI addresses form fields,
// e.g. "name", "variant_0_colorId", "variant_1_size_2_price".
func (k FieldKey) String() string {
	switch k.Scope {
	case ScopeVariant:
		return fmt.Sprintf("variant_%d_%s", k.Variant, k.Field)
	case ScopeSize:
		return fmt.Sprintf("variant_%d_size_%d_%s", k.Variant, k.Size, k.Field)
	default:
		return k.Field
	}
}

func ParseFieldKey(s string) (FieldKey, error) {
	parts := strings.Split(s, "_")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return ProductKey(parts[0]), nil
	case len(parts) == 3 && parts[0] == "variant":
		i, err := strconv.Atoi(parts[1])
		if err != nil || i < 0 {
			break
		}
		return VariantKey(i, parts[2]), nil
	case len(parts) == 5 && parts[0] == "variant" && parts[2] == "size":
		i, err1 := strconv.Atoi(parts[1])
		j, err2 := strconv.Atoi(parts[3])
		if err1 != nil || err2 != nil || i < 0 || j < 0 {
			break
		}
		return SizeKey(i, j, parts[4]), nil
	}
	return FieldKey{}, fmt.Errorf("invalid field key %q", s)
}

// ErrorMap maps draft fields to a user-facing message.
type ErrorMap map[FieldKey]string

func (m ErrorMap) Empty() bool { return len(m) == 0 }

func (m ErrorMap) Get(key FieldKey) (string, bool) {
	msg, ok := m[key]
	return msg, ok
}

func (m ErrorMap) Clear(key FieldKey) {
	delete(m, key)
}

// ClearVariant drops every error of variant i, including its sizes, and moves
// the errors of later variants down one index to follow the removal.
func (m ErrorMap) ClearVariant(i int) {
	shifted := ErrorMap{}
	for k, msg := range m {
		if k.Scope == ScopeProduct || k.Variant < i {
			continue
		}
		delete(m, k)
		if k.Variant > i {
			k.Variant--
			shifted[k] = msg
		}
	}
	for k, msg := range shifted {
		m[k] = msg
	}
}

// ClearSize drops every error of size j of variant i and moves the errors of
// later sizes of that variant down one index.
func (m ErrorMap) ClearSize(i, j int) {
	shifted := ErrorMap{}
	for k, msg := range m {
		if k.Scope != ScopeSize || k.Variant != i || k.Size < j {
			continue
		}
		delete(m, k)
		if k.Size > j {
			k.Size--
			shifted[k] = msg
		}
	}
	for k, msg := range shifted {
		m[k] = msg
	}
}

// Keys returns the rendered keys in sorted order.
func (m ErrorMap) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k.String())
	}
	sort.Strings(keys)
	return keys
}

func (m ErrorMap) MarshalJSON() ([]byte, error) {
	out := make(map[string]string, len(m))
	for k, msg := range m {
		out[k.String()] = msg
	}
	return json.Marshal(out)
}

func (m *ErrorMap) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(ErrorMap, len(raw))
	for s, msg := range raw {
		k, err := ParseFieldKey(s)
		if err != nil {
			return err
		}
		out[k] = msg
	}
	*m = out
	return nil
}

func minLength(s string, n int) bool {
	return validate.Var(strings.TrimSpace(s), fmt.Sprintf("min=%d", n)) == nil
}

// Validate computes the full error map of a draft. It has no side effects.
func Validate(d *ProductDraft) ErrorMap {
	errs := ErrorMap{}

	if !minLength(d.Name, 3) {
		errs[ProductKey(FieldName)] = "Product name must be at least 3 characters"
	}
	if !minLength(d.Description, 10) {
		errs[ProductKey(FieldDescription)] = "Description must be at least 10 characters"
	}
	if d.CategoryID == uuid.Nil {
		errs[ProductKey(FieldCategoryID)] = "Category is required"
	}
	if len(d.Variants) == 0 {
		errs[ProductKey(FieldVariants)] = "At least one variant is required"
	}

	for i, v := range d.Variants {
		if v.ColorID == uuid.Nil {
			errs[VariantKey(i, FieldColorID)] = "Color is required"
		}
		if len(v.Sizes) == 0 {
			errs[VariantKey(i, FieldSizes)] = "At least one size is required"
		}
		for j, s := range v.Sizes {
			if s.SizeID == uuid.Nil {
				errs[SizeKey(i, j, FieldSizeID)] = "Size is required"
			}
			if !s.Price.IsPositive() {
				errs[SizeKey(i, j, FieldPrice)] = "Price must be greater than 0"
			}
			if s.Quantity < 0 {
				errs[SizeKey(i, j, FieldQuantity)] = "Quantity cannot be negative"
			}
		}
		if len(v.Images) == 0 {
			errs[VariantKey(i, FieldImages)] = "At least one image is required"
		}
	}

	return errs
}
