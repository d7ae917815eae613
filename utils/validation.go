package utils

import (
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
)

// MaxUploadSize is the maximum allowed file size for uploads (5MB).
const MaxUploadSize = 5 << 20 // 5MB

// DetectContentType returns the declared content type of an uploaded file.
// When the client sent none, or only a generic one, the content is sniffed.
func DetectContentType(fh *multipart.FileHeader) (string, error) {
	contentType := strings.TrimSpace(fh.Header.Get("Content-Type"))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType, nil
	}

	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %v", fh.Filename, err)
	}
	defer file.Close()

	mtype, err := mimetype.DetectReader(file)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type of %s: %v", fh.Filename, err)
	}
	return mtype.String(), nil
}

// ValidateFileUpload checks that the uploaded file is an image and does not
// exceed the maximum file size.
func ValidateFileUpload(fh *multipart.FileHeader) error {
	// Check file size
	if fh.Size > MaxUploadSize {
		return fmt.Errorf("file size %d bytes exceeds maximum allowed size of 5MB", fh.Size)
	}

	contentType, err := DetectContentType(fh)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("invalid file type '%s'; only images are allowed", contentType)
	}

	return nil
}

// SanitizeValidationError takes a validator error and returns a user-friendly message
// without leaking internal Go struct names.
func SanitizeValidationError(err error) string {
	if err == nil {
		return ""
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return "Invalid request body"
	}

	// Build user-friendly error messages from field-level errors
	var messages []string
	for _, fe := range validationErrors {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			messages = append(messages, fmt.Sprintf("%s is required", field))
		case "min":
			messages = append(messages, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			messages = append(messages, fmt.Sprintf("%s must be at most %s", field, fe.Param()))
		case "oneof":
			messages = append(messages, fmt.Sprintf("%s must be one of: %s", field, fe.Param()))
		default:
			messages = append(messages, fmt.Sprintf("%s is invalid", field))
		}
	}

	if len(messages) == 0 {
		return "Invalid request body"
	}

	return strings.Join(messages, "; ")
}
