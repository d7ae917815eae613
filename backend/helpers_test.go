package backend

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/textproto"
	"sync"
	"testing"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

// formFile builds a FileHeader the way a real multipart request would.
func formFile(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="images"; filename="`+filename+`"`)
	part, err := w.CreatePart(h)
	if err != nil {
		t.Fatal(err)
	}
	part.Write(content)
	w.Close()

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(10 << 20)
	if err != nil {
		t.Fatal(err)
	}
	return form.File["images"][0]
}

type mockStorage struct {
	mu sync.Mutex

	UploadVariantImageFn func(file io.Reader, filename, contentType string) (string, error)
	DeleteFileFn         func(objectPath string) error
	DeleteFileCalls      []string
	UploadCalls          []string
}

func newMockStorage() *mockStorage {
	return &mockStorage{DeleteFileCalls: []string{}}
}

func (m *mockStorage) UploadVariantImage(ctx context.Context, file io.Reader, filename, contentType string) (string, error) {
	m.mu.Lock()
	m.UploadCalls = append(m.UploadCalls, filename+"|"+contentType)
	m.mu.Unlock()
	if m.UploadVariantImageFn != nil {
		return m.UploadVariantImageFn(file, filename, contentType)
	}
	return "https://storage.googleapis.com/test-bucket/variants/" + filename, nil
}

func (m *mockStorage) DeleteFile(ctx context.Context, objectPath string) error {
	m.mu.Lock()
	m.DeleteFileCalls = append(m.DeleteFileCalls, objectPath)
	m.mu.Unlock()
	if m.DeleteFileFn != nil {
		return m.DeleteFileFn(objectPath)
	}
	return nil
}
