package drafts

import (
	"context"
	"mime/multipart"
	"net/textproto"
	"sync"

	"catalog-admin/dtos"

	"github.com/google/uuid"
)

func imageFile(name string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{
		Filename: name,
		Size:     size,
		Header:   textproto.MIMEHeader{"Content-Type": {"image/jpeg"}},
	}
}

// fakeBackend records calls and answers with canned responses.
type fakeBackend struct {
	mu sync.Mutex

	uploads    []string
	uploadErrs map[string]error
	uploadGate chan struct{}

	primaryCalls []uuid.UUID
	primaryResp  []dtos.VariantImage
	primaryErr   error
	primaryGate  chan struct{}

	submitted []dtos.ProductSubmitRequest
	submitErr error
}

func (f *fakeBackend) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if f.uploadGate != nil {
		<-f.uploadGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, file.Filename)
	if err := f.uploadErrs[file.Filename]; err != nil {
		return "", err
	}
	return "https://storage.example.com/" + file.Filename, nil
}

func (f *fakeBackend) SetVariantImagePrimary(ctx context.Context, imageID uuid.UUID) ([]dtos.VariantImage, error) {
	if f.primaryGate != nil {
		<-f.primaryGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.primaryCalls = append(f.primaryCalls, imageID)
	return f.primaryResp, f.primaryErr
}

func (f *fakeBackend) SubmitProduct(ctx context.Context, req dtos.ProductSubmitRequest) (*dtos.ProductResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, req)
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return echoProduct(req), nil
}

func (f *fakeBackend) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func (f *fakeBackend) primaryCallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.primaryCalls)
}

// echoProduct plays the backend: it assigns ids to everything new.
func echoProduct(req dtos.ProductSubmitRequest) *dtos.ProductResponse {
	resp := &dtos.ProductResponse{
		ID:          orNew(req.ID),
		Name:        req.Name,
		Description: req.Description,
		Enabled:     req.Enabled,
		CategoryID:  req.CategoryID,
	}
	for _, v := range req.Variants {
		vr := dtos.VariantResponse{
			ID:       orNew(v.ID),
			ColorID:  v.ColorID,
			Status:   v.Status,
			ImageURL: v.ImageURL,
		}
		for _, s := range v.Sizes {
			vr.Sizes = append(vr.Sizes, dtos.SizeResponse{
				ID:       orNew(s.ID),
				SizeID:   s.SizeID,
				Price:    s.Price,
				Quantity: s.Quantity,
			})
		}
		for _, img := range v.Images {
			vr.Images = append(vr.Images, dtos.VariantImage{
				ID:           orNew(img.ID),
				VariantID:    vr.ID,
				ImageURL:     img.ImageURL,
				AltText:      img.AltText,
				IsPrimary:    img.IsPrimary,
				DisplayOrder: img.DisplayOrder,
			})
		}
		resp.Variants = append(resp.Variants, vr)
	}
	return resp
}

func orNew(id *uuid.UUID) uuid.UUID {
	if id != nil {
		return *id
	}
	return uuid.New()
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Notify(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
