package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxUploadBytes bounds uploaded HTML documents.
const DefaultMaxUploadBytes int64 = 5 * 1024 * 1024

var (
	// ErrUploadFileRequired signals that the request did not include a file upload.
	ErrUploadFileRequired = errors.New("html file is required")
	// ErrUploadUnsupportedType is returned when the upload is not an HTML document.
	ErrUploadUnsupportedType = errors.New("upload must be an HTML document")
	// ErrUploadTooLarge is returned when the upload exceeds the configured limit.
	ErrUploadTooLarge = errors.New("upload exceeds the size limit")
	// ErrUploadEmpty is returned for zero-byte uploads.
	ErrUploadEmpty = errors.New("upload is empty")
)

// ReadHTMLUpload reads an uploaded page and checks that it is HTML.
func ReadHTMLUpload(file *multipart.FileHeader, limit int64) (string, error) {
	if file == nil {
		return "", ErrUploadFileRequired
	}
	if limit <= 0 {
		limit = DefaultMaxUploadBytes
	}
	if file.Size > limit {
		return "", ErrUploadTooLarge
	}

	switch strings.ToLower(filepath.Ext(file.Filename)) {
	case ".html", ".htm", "":
	default:
		return "", ErrUploadUnsupportedType
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, limit+1))
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return "", ErrUploadTooLarge
	}
	if len(data) == 0 {
		return "", ErrUploadEmpty
	}

	if !mimetype.Detect(data).Is("text/html") {
		return "", ErrUploadUnsupportedType
	}

	return string(data), nil
}
