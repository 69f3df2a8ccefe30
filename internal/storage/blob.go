// Package storage keeps document bytes on the local filesystem. Metadata is
// tracked by the document repository.
package storage

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the upload size limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrInvalidPath     = errors.New("invalid storage path")
)

const (
	typeDoc  = "application/msword"
	typeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	typeXls  = "application/vnd.ms-excel"
	typeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// Allowed reports whether mimeType is on the upload allow-list: PDF, Word,
// Excel, PNG/JPEG, plain text and CSV.
func Allowed(mimeType string) bool {
	switch mimeType {
	case "application/pdf", typeDoc, typeDocx, typeXls, typeXlsx,
		"image/png", "image/jpeg", "text/plain", "text/csv":
		return true
	}
	return false
}

var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  typeDoc,
	".docx": typeDocx,
	".xls":  typeXls,
	".xlsx": typeXlsx,
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".txt":  "text/plain",
	".csv":  "text/csv",
}

// DetectType normalises a declared content type, falling back to the file
// extension when the declaration is empty or generic.
func DetectType(fileName, declared string) string {
	if declared != "" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mt
	}
	return "application/octet-stream"
}

// CheckUpload validates size and type before any bytes are written.
func CheckUpload(size, limit int64, mimeType string) error {
	if size > limit {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, size, limit)
	}
	if !Allowed(mimeType) {
		return fmt.Errorf("%w: %s", ErrUnsupportedType, mimeType)
	}
	return nil
}

// BlobStore writes blobs under a root directory.
type BlobStore struct {
	root string
}

func NewBlobStore(root string) (*BlobStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %q: %w", root, err)
	}
	return &BlobStore{root: root}, nil
}

// Key builds a unique storage path for a file of a request.
func Key(dealID, requestID uint, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "file"
	}
	return fmt.Sprintf("%d/%d/%s-%s", dealID, requestID, uuid.NewString(), base)
}

// Put copies at most limit bytes of r to key and returns the bytes written.
// Streams longer than limit are rejected and nothing is kept.
func (s *BlobStore) Put(key string, r io.Reader, limit int64) (int64, error) {
	path, err := s.path(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("create blob dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, limit)
	}
	if err != nil {
		os.Remove(path)
		return 0, err
	}
	return n, nil
}

// Open returns a reader for the blob at key.
func (s *BlobStore) Open(key string) (*os.File, error) {
	path, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes the blob at key. Missing blobs are not an error.
func (s *BlobStore) Delete(key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *BlobStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, key)
	}
	return filepath.Join(s.root, clean), nil
}
