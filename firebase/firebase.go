package firebase

import (
	"context"
	"fmt"
	"io"
	"log"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

var App *firebase.App

var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)

// sanitizeFilename removes special characters from filenames and limits length.
func sanitizeFilename(filename string) string {
	// Replace path separators and other dangerous characters
	sanitized := unsafeFilenameChars.ReplaceAllString(filename, "_")

	// Limit length to 100 characters
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}

	// Ensure it's not empty
	if sanitized == "" || sanitized == "." || sanitized == ".." {
		sanitized = "file"
	}

	return sanitized
}

// variantObjectPath builds the storage path of an uploaded variant image. Files
// of one batch upload within the same second, so a short random part keeps
// their paths apart.
func variantObjectPath(filename string, now time.Time) string {
	return fmt.Sprintf(
		"variants/%d_%s_%s",
		now.Unix(),
		uuid.New().String()[:8],
		sanitizeFilename(filename),
	)
}

// PublicURL returns the public download URL of an object.
func PublicURL(bucketName, objectPath string) string {
	return fmt.Sprintf(
		"https://storage.googleapis.com/%s/%s",
		bucketName,
		objectPath,
	)
}

func Init(credentials string) {
	var opts []option.ClientOption

	if credentials != "" {
		if strings.HasPrefix(credentials, "{") {
			log.Println("Using Firebase credentials from environment variable")
			opts = append(opts, option.WithCredentialsJSON([]byte(credentials)))
		} else {
			// It's a file path
			log.Println("Using Firebase credentials from file:", credentials)
			opts = append(opts, option.WithCredentialsFile(credentials))
		}
	} else {
		log.Println("Warning: GOOGLE_APPLICATION_CREDENTIALS not set, using default credentials")
	}

	app, err := firebase.NewApp(context.Background(), nil, opts...)
	if err != nil {
		log.Fatalf("Firebase init failed: %v", err)
	}

	App = app
	log.Println("Firebase initialized successfully")
}

func bucket(ctx context.Context, bucketName string) (*storage.BucketHandle, error) {
	if App == nil {
		return nil, fmt.Errorf("firebase app not initialized")
	}
	if bucketName == "" {
		return nil, fmt.Errorf("FIREBASE_STORAGE_BUCKET not set")
	}

	client, err := App.Storage(ctx)
	if err != nil {
		return nil, err
	}
	return client.Bucket(bucketName)
}

// UploadVariantImage writes one variant image to the bucket and returns its public URL.
func UploadVariantImage(
	ctx context.Context,
	bucketName string,
	file io.Reader,
	filename string,
	contentType string,
) (string, error) {

	b, err := bucket(ctx, bucketName)
	if err != nil {
		return "", err
	}

	objectPath := variantObjectPath(filename, time.Now())

	obj := b.Object(objectPath)
	wc := obj.NewWriter(ctx)
	wc.ContentType = contentType

	if _, err := io.Copy(wc, file); err != nil {
		wc.Close()
		return "", err
	}

	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize upload: %v", err)
	}

	// Make object publicly readable so the URL works without authentication
	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		log.Printf("Warning: failed to set public ACL on %s: %v", objectPath, err)
	}

	return PublicURL(bucketName, objectPath), nil
}

// DeleteFile deletes a file from Firebase Storage given its object path
func DeleteFile(ctx context.Context, bucketName, objectPath string) error {
	b, err := bucket(ctx, bucketName)
	if err != nil {
		return err
	}

	if err := b.Object(objectPath).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete object %s: %v", objectPath, err)
	}

	log.Printf("Deleted file %s from bucket %s", objectPath, bucketName)
	return nil
}
