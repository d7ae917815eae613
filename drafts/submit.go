package drafts

import (
	"context"

	"catalog-admin/apperr"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

// ProductSubmitter saves a whole product, creating or updating nested entities.
type ProductSubmitter interface {
	SubmitProduct(ctx context.Context, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error)
}

// ValidationError carries the error map that blocked a submit.
type ValidationError struct {
	Fields ErrorMap
	err    *apperr.Error
}

func (e *ValidationError) Error() string { return e.err.Error() }

func (e *ValidationError) Unwrap() error { return e.err }

// BuildSubmitRequest translates a draft into the backend request shape.
// Images that only have a temporary id are sent without one.
func BuildSubmitRequest(d *ProductDraft) dtos.ProductSubmitRequest {
	req := dtos.ProductSubmitRequest{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Enabled:     d.Enabled,
		CategoryID:  d.CategoryID,
		Variants:    make([]dtos.VariantSubmit, 0, len(d.Variants)),
	}

	for _, v := range d.Variants {
		vs := dtos.VariantSubmit{
			ID:       v.ID,
			ColorID:  v.ColorID,
			Status:   string(v.Status),
			ImageURL: v.ImageURL,
			Sizes:    make([]dtos.SizeSubmit, 0, len(v.Sizes)),
			Images:   make([]dtos.ImageSubmit, 0, len(v.Images)),
		}
		if vs.Status == "" {
			vs.Status = string(StatusActive)
		}
		for _, s := range v.Sizes {
			vs.Sizes = append(vs.Sizes, dtos.SizeSubmit{
				ID:       s.ID,
				SizeID:   s.SizeID,
				Price:    s.Price,
				Quantity: s.Quantity,
			})
		}
		for i, img := range v.Images {
			is := dtos.ImageSubmit{
				ImageURL:     img.ImageURL,
				AltText:      img.AltText,
				IsPrimary:    img.IsPrimary,
				DisplayOrder: i,
			}
			if img.Persisted {
				id := img.ID
				is.ID = &id
			}
			vs.Images = append(vs.Images, is)
		}
		req.Variants = append(req.Variants, vs)
	}

	return req
}

// HydrateDraft builds an edit session draft from a saved product.
func HydrateDraft(p dtos.ProductResponse, maxImages int) *ProductDraft {
	d := NewProductDraft(maxImages)
	id := p.ID
	d.ID = &id
	d.Name = p.Name
	d.Description = p.Description
	d.Enabled = p.Enabled
	d.CategoryID = p.CategoryID
	d.Variants = make([]VariantDraft, 0, len(p.Variants))

	for _, vr := range p.Variants {
		vid := vr.ID
		status, err := ParseVariantStatus(vr.Status)
		if err != nil {
			status = StatusActive
		}
		v := VariantDraft{
			Key:      uuid.New(),
			ID:       &vid,
			ColorID:  vr.ColorID,
			Status:   status,
			ImageURL: vr.ImageURL,
			Sizes:    make(SizeCollection, 0, len(vr.Sizes)),
			Images:   ImagesFromServer(vr.Images),
		}
		for _, sr := range vr.Sizes {
			sid := sr.ID
			v.Sizes = append(v.Sizes, SizeEntry{
				ID:       &sid,
				SizeID:   sr.SizeID,
				Price:    sr.Price,
				Quantity: sr.Quantity,
			})
		}
		// Variants from before multi-image support only carry the legacy URL.
		if len(v.Images) == 0 && vr.ImageURL != "" {
			v.Images = ImageCollection{{
				ID:        uuid.New(),
				ImageURL:  vr.ImageURL,
				IsPrimary: true,
			}}
		}
		d.Variants = append(d.Variants, v)
	}

	return d
}

// PrepareSubmit validates the draft and, if it is clean, returns the request
// to send. A dirty draft yields a *ValidationError holding the error map.
func PrepareSubmit(d *ProductDraft) (dtos.ProductSubmitRequest, error) {
	if errs := d.Validate(); !errs.Empty() {
		return dtos.ProductSubmitRequest{}, &ValidationError{
			Fields: errs,
			err:    apperr.Newf(apperr.ValidationFailed, "%d field(s) need attention", len(errs)),
		}
	}
	return BuildSubmitRequest(d), nil
}

// SendSubmit saves a prepared request. It does not touch the draft.
func SendSubmit(ctx context.Context, backend ProductSubmitter, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error) {
	resp, err := backend.SubmitProduct(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, apperr.New(apperr.Internal, "backend returned no product")
	}
	return resp, nil
}

// Submit validates the draft and, if it is clean, sends it to the backend.
// A dirty draft is not sent; the returned *ValidationError holds the error map.
func Submit(ctx context.Context, d *ProductDraft, backend ProductSubmitter) (*dtos.ProductResponse, error) {
	req, err := PrepareSubmit(d)
	if err != nil {
		return nil, err
	}
	return SendSubmit(ctx, backend, req)
}
