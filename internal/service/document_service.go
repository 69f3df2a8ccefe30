package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"diligence-tracker/internal/cache"
	"diligence-tracker/internal/events"
	"diligence-tracker/internal/model"
	"diligence-tracker/internal/repository"
	"diligence-tracker/internal/storage"
)

// Upload describes an incoming file. Size is -1 when unknown.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentService stores request attachments: metadata in the database,
// bytes in the blob store.
type DocumentService struct {
	docs     *repository.DocumentRepository
	requests *RequestService
	blobs    *storage.BlobStore
	maxBytes int64
	cache    *cache.QueryCache
	bus      *events.Bus
}

func NewDocumentService(docs *repository.DocumentRepository, requests *RequestService, blobs *storage.BlobStore, maxBytes int64, qc *cache.QueryCache, bus *events.Bus) *DocumentService {
	return &DocumentService{
		docs:     docs,
		requests: requests,
		blobs:    blobs,
		maxBytes: maxBytes,
		cache:    qc,
		bus:      bus,
	}
}

// MaxBytes is the upload ceiling.
func (s *DocumentService) MaxBytes() int64 {
	return s.maxBytes
}

// Upload checks size and type, then writes the blob and its metadata row.
func (s *DocumentService) Upload(ctx context.Context, requestID uint, up Upload, uploader uint) (*model.Document, error) {
	name := filepath.Base(strings.ReplaceAll(strings.TrimSpace(up.FileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return nil, invalid("file name is required")
	}
	mimeType := storage.DetectType(name, up.ContentType)
	if err := storage.CheckUpload(up.Size, s.maxBytes, mimeType); err != nil {
		return nil, err
	}
	req, err := s.requests.Get(ctx, requestID)
	if err != nil {
		return nil, err
	}

	key := storage.Key(req.DealID, req.ID, name)
	n, err := s.blobs.Put(key, up.Body, s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", name, err)
	}
	doc := model.Document{
		RequestID:   requestID,
		FileName:    name,
		MimeType:    mimeType,
		Size:        n,
		StoragePath: key,
		UploadedBy:  actorRef(uploader),
	}
	if err := s.docs.Create(ctx, &doc); err != nil {
		if derr := s.blobs.Delete(key); derr != nil {
			log.Printf("[warn] remove orphan blob %s: %v", key, derr)
		}
		return nil, err
	}
	log.Printf("[info] document %d uploaded to request %d (%d bytes)", doc.ID, requestID, n)
	s.changed(ctx, req.DealID, requestID, doc.ID)
	return &doc, nil
}

func (s *DocumentService) Get(ctx context.Context, id uint) (*model.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "document")
	}
	return doc, nil
}

func (s *DocumentService) List(ctx context.Context, requestID uint) ([]model.Document, error) {
	return cache.Load(ctx, s.cache, documentsKey(requestID), func(ctx context.Context) ([]model.Document, error) {
		return s.docs.ListByRequests(ctx, requestID)
	})
}

// ForRequests returns the documents of several requests in one query.
func (s *DocumentService) ForRequests(ctx context.Context, requestIDs []uint) ([]model.Document, error) {
	docs, err := s.docs.ListByRequests(ctx, requestIDs...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// Open returns the metadata and the stored bytes. The caller closes the file.
func (s *DocumentService) Open(ctx context.Context, id uint) (*model.Document, *os.File, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	f, err := s.blobs.Open(doc.StoragePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("blob of document %d: %w", id, ErrNotFound)
		}
		return nil, nil, err
	}
	return doc, f, nil
}

// Delete removes the blob first, then the row.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, *doc); err != nil {
		return err
	}
	var dealID uint
	if req, err := s.requests.Get(ctx, doc.RequestID); err == nil {
		dealID = req.DealID
	}
	s.changed(ctx, dealID, doc.RequestID, id)
	return nil
}

// RemoveForRequest deletes every document of a request.
func (s *DocumentService) RemoveForRequest(ctx context.Context, requestID uint) error {
	docs, err := s.docs.ListByRequests(ctx, requestID)
	if err != nil {
		return fmt.Errorf("list documents: %w", err)
	}
	for _, d := range docs {
		if err := s.remove(ctx, d); err != nil {
			return err
		}
	}
	s.cache.Invalidate(documentsKey(requestID))
	return nil
}

func (s *DocumentService) remove(ctx context.Context, doc model.Document) error {
	if err := s.blobs.Delete(doc.StoragePath); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, doc.ID); err != nil {
		return notFound(err, "document")
	}
	return nil
}

func (s *DocumentService) changed(ctx context.Context, dealID, requestID, rowID uint) {
	s.cache.Invalidate(documentsKey(requestID))
	if err := s.requests.Touch(ctx, requestID); err != nil {
		log.Printf("[warn] touch request %d: %v", requestID, err)
	}
	s.bus.Publish(events.Event{Type: events.DocumentChanged, DealID: dealID, RequestID: requestID, RowID: rowID})
}
