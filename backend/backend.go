package backend

import (
	"context"

	"catalog-admin/drafts"
	"catalog-admin/dtos"

	"github.com/google/uuid"
)

// Backend is the catalog service the admin console edits products through.
type Backend interface {
	drafts.ImageUploader
	drafts.PrimarySetter
	drafts.ProductSubmitter
	GetProduct(ctx context.Context, id uuid.UUID) (*dtos.ProductResponse, error)
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token so backend calls act on their behalf.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
