package drafts

import (
	"context"
	"fmt"
	"log"
	"mime/multipart"
	"sync"

	"catalog-admin/apperr"
	"catalog-admin/utils"
)

// ImageUploader stores one local file and returns its public URL.
type ImageUploader interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// UploadResult is the outcome for one file of a batch. Index is the file's
// position in the batch.
type UploadResult struct {
	Index    int    `json:"index"`
	Filename string `json:"filename"`
	URL      string `json:"url,omitempty"`
	Err      error  `json:"-"`
}

func (r UploadResult) OK() bool { return r.Err == nil && r.URL != "" }

// BatchReport summarizes a merged batch for the host. Unmerged lists the URLs
// of files that were stored but could not be added to the variant.
type BatchReport struct {
	Added    int            `json:"added"`
	Failed   []UploadResult `json:"failed"`
	Unmerged []string       `json:"unmerged,omitempty"`
}

// UploadBatchCoordinator validates a batch of files as a whole, uploads them
// concurrently and hands back per-file results in input order.
type UploadBatchCoordinator struct {
	Uploader  ImageUploader
	MaxImages int
	Notifier  Notifier
}

func (u *UploadBatchCoordinator) maxImages() int {
	if u.MaxImages <= 0 {
		return DefaultMaxImages
	}
	return u.MaxImages
}

// Validate rejects the whole batch if it does not fit next to currentSize
// existing images or if any single file is not an acceptable image.
func (u *UploadBatchCoordinator) Validate(files []*multipart.FileHeader, currentSize int) error {
	if len(files) == 0 {
		return apperr.New(apperr.InvalidInput, "no files selected")
	}
	if err := checkCapacity(currentSize, len(files), u.maxImages()); err != nil {
		return err
	}
	for _, fh := range files {
		if err := utils.ValidateFileUpload(fh); err != nil {
			return apperr.Wrap(apperr.InvalidInput, fh.Filename, err)
		}
	}
	return nil
}

// Upload validates the batch and uploads every file at once. Individual upload
// failures do not fail the batch; they are reported in the results and to the
// Notifier. result[i] always belongs to files[i].
func (u *UploadBatchCoordinator) Upload(ctx context.Context, files []*multipart.FileHeader, currentSize int) ([]UploadResult, error) {
	if err := u.Validate(files, currentSize); err != nil {
		return nil, err
	}
	if u.Uploader == nil {
		return nil, apperr.New(apperr.Internal, "no image uploader configured")
	}

	results := make([]UploadResult, len(files))
	var wg sync.WaitGroup
	for i, fh := range files {
		wg.Add(1)
		go func(idx int, file *multipart.FileHeader) {
			defer wg.Done()
			url, err := u.Uploader.UploadImage(ctx, file)
			if err == nil && url == "" {
				err = fmt.Errorf("empty file URL returned")
			}
			results[idx] = UploadResult{Index: idx, Filename: file.Filename, URL: url, Err: err}
		}(i, fh)
	}
	wg.Wait()

	for _, r := range results {
		if r.Err == nil {
			continue
		}
		log.Printf("Image upload failed for %s: %v", r.Filename, r.Err)
		notify(u.Notifier, Event{
			Level:    LevelInfo,
			Kind:     apperr.UploadFailed,
			Message:  fmt.Sprintf("%s could not be uploaded", r.Filename),
			Filename: r.Filename,
		})
	}
	return results, nil
}

// MergeUploads appends the successful results to images in batch order and
// returns how many were added. Failed results are skipped.
func MergeUploads(images ImageCollection, results []UploadResult, maxImages int) (ImageCollection, int, error) {
	urls := UploadedURLs(results)
	out, err := images.AddFromUpload(urls, maxImages)
	if err != nil {
		return images, 0, err
	}
	return out, len(urls), nil
}

// UploadedURLs returns the URLs of the results that did upload, in batch order.
func UploadedURLs(results []UploadResult) []string {
	var urls []string
	for _, r := range results {
		if r.OK() {
			urls = append(urls, r.URL)
		}
	}
	return urls
}

// Failed returns the results that did not upload.
func Failed(results []UploadResult) []UploadResult {
	var failed []UploadResult
	for _, r := range results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}
