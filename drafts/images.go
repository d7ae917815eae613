package drafts

import (
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"catalog-admin/apperr"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

// MaxAltTextLength is the longest alt text the backend stores.
const MaxAltTextLength = 255

// ImageCollection is the ordered image list of one variant.
//
// Every operation returns a new slice (the receiver is never modified) and
// leaves the collection with DisplayOrder equal to the index of each entry and
// at most one primary entry; a non-empty collection that lost its primary gets
// its first entry promoted.
type ImageCollection []ImageEntry

func (c ImageCollection) clone(extra int) ImageCollection {
	out := make(ImageCollection, len(c), len(c)+extra)
	copy(out, c)
	return out
}

func (c ImageCollection) restamp() {
	for i := range c {
		c[i].DisplayOrder = i
	}
}

func (c ImageCollection) hasPrimary() bool {
	for i := range c {
		if c[i].IsPrimary {
			return true
		}
	}
	return false
}

// Find returns the index of the image with the given id, or -1.
func (c ImageCollection) Find(id uuid.UUID) int {
	for i := range c {
		if c[i].ID == id {
			return i
		}
	}
	return -1
}

// Primary returns the primary image, if any.
func (c ImageCollection) Primary() (ImageEntry, bool) {
	for _, img := range c {
		if img.IsPrimary {
			return img, true
		}
	}
	return ImageEntry{}, false
}

func checkCapacity(current, adding, maxImages int) error {
	if maxImages <= 0 {
		maxImages = DefaultMaxImages
	}
	if current+adding > maxImages {
		return apperr.Newf(apperr.CapacityExceeded, "a variant can have at most %d images", maxImages)
	}
	return nil
}

func validateImageURL(raw string) error {
	if err := validate.Var(raw, "required,url"); err != nil {
		return apperr.New(apperr.InvalidInput, "image URL is not valid")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.New(apperr.InvalidInput, "image URL must use http or https")
	}
	return nil
}

// AddFromURL appends an image pointing at an external URL. The new entry gets a
// temporary id and becomes primary only if the collection was empty.
func (c ImageCollection) AddFromURL(rawURL string, maxImages int) (ImageCollection, ImageEntry, error) {
	rawURL = strings.TrimSpace(rawURL)
	if err := checkCapacity(len(c), 1, maxImages); err != nil {
		return c, ImageEntry{}, err
	}
	if err := validateImageURL(rawURL); err != nil {
		return c, ImageEntry{}, err
	}

	entry := ImageEntry{
		ID:           uuid.New(),
		ImageURL:     rawURL,
		IsPrimary:    len(c) == 0,
		DisplayOrder: len(c),
	}
	return append(c.clone(1), entry), entry, nil
}

// AddFromUpload appends one entry per uploaded URL in order. The whole add is
// rejected when it would exceed maxImages.
func (c ImageCollection) AddFromUpload(urls []string, maxImages int) (ImageCollection, error) {
	if len(urls) == 0 {
		return c.clone(0), nil
	}
	if err := checkCapacity(len(c), len(urls), maxImages); err != nil {
		return c, err
	}

	wasEmpty := len(c) == 0
	out := c.clone(len(urls))
	for i, u := range urls {
		out = append(out, ImageEntry{
			ID:           uuid.New(),
			ImageURL:     u,
			IsPrimary:    wasEmpty && i == 0,
			DisplayOrder: len(out),
		})
	}
	return out, nil
}

// Remove deletes the image with the given id. Removing the primary promotes the
// new first entry.
func (c ImageCollection) Remove(id uuid.UUID) (ImageCollection, error) {
	idx := c.Find(id)
	if idx < 0 {
		return c, apperr.New(apperr.NotFound, "image not found")
	}

	out := make(ImageCollection, 0, len(c)-1)
	out = append(out, c[:idx]...)
	out = append(out, c[idx+1:]...)
	if len(out) > 0 && !out.hasPrimary() {
		out[0].IsPrimary = true
	}
	out.restamp()
	return out, nil
}

// SetPrimary marks exactly the entry with the given id as primary. It is a pure
// projection: an unknown id leaves no entry primary, so callers check Find first.
func (c ImageCollection) SetPrimary(id uuid.UUID) ImageCollection {
	out := c.clone(0)
	for i := range out {
		out[i].IsPrimary = out[i].ID == id
	}
	return out
}

// Reorder moves the entry at from to position to, drag-and-drop style.
// Dropping an entry onto itself is a no-op.
func (c ImageCollection) Reorder(from, to int) (ImageCollection, error) {
	if from < 0 || from >= len(c) || to < 0 || to >= len(c) {
		return c, apperr.Newf(apperr.InvalidInput, "cannot move image from %d to %d", from, to)
	}
	out := c.clone(0)
	if from == to {
		return out, nil
	}

	moved := out[from]
	out = append(out[:from], out[from+1:]...)
	out = append(out[:to], append(ImageCollection{moved}, out[to:]...)...)
	out.restamp()
	return out, nil
}

// UpdateAltText replaces the alt text of one entry, clamped to MaxAltTextLength runes.
func (c ImageCollection) UpdateAltText(id uuid.UUID, text string) (ImageCollection, error) {
	idx := c.Find(id)
	if idx < 0 {
		return c, apperr.New(apperr.NotFound, "image not found")
	}
	out := c.clone(0)
	out[idx].AltText = clampRunes(text, MaxAltTextLength)
	return out, nil
}

func clampRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// Normalize brings a list received from elsewhere (the backend, a hydrated
// product) in line with the collection invariants: entries are ordered by
// DisplayOrder, restamped, and only the first primary survives.
func (c ImageCollection) Normalize() ImageCollection {
	out := c.clone(0)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	seen := false
	for i := range out {
		if out[i].IsPrimary {
			if seen {
				out[i].IsPrimary = false
			}
			seen = true
		}
	}
	if len(out) > 0 && !seen {
		out[0].IsPrimary = true
	}
	out.restamp()
	return out
}

// ImagesFromServer converts a backend image list into a normalized collection.
func ImagesFromServer(images []dtos.VariantImage) ImageCollection {
	out := make(ImageCollection, 0, len(images))
	for _, img := range images {
		out = append(out, ImageEntry{
			ID:           img.ID,
			Persisted:    true,
			ImageURL:     img.ImageURL,
			AltText:      clampRunes(img.AltText, MaxAltTextLength),
			IsPrimary:    img.IsPrimary,
			DisplayOrder: img.DisplayOrder,
		})
	}
	return out.Normalize()
}
