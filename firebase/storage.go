package firebase

import (
	"context"
	"io"
)

// StorageClient abstracts Firebase Storage operations for dependency injection and testing.
type StorageClient interface {
	UploadVariantImage(ctx context.Context, file io.Reader, filename, contentType string) (string, error)
	DeleteFile(ctx context.Context, objectPath string) error
}

// FirebaseStorageClient is the real implementation backed by the initialized App.
type FirebaseStorageClient struct {
	Bucket string
}

func NewStorageClient(bucket string) StorageClient {
	return &FirebaseStorageClient{Bucket: bucket}
}

func (f *FirebaseStorageClient) UploadVariantImage(ctx context.Context, file io.Reader, filename, contentType string) (string, error) {
	return UploadVariantImage(ctx, f.Bucket, file, filename, contentType)
}

func (f *FirebaseStorageClient) DeleteFile(ctx context.Context, objectPath string) error {
	return DeleteFile(ctx, f.Bucket, objectPath)
}
