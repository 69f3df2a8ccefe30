package api

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"diligence-tracker/internal/service"
	"diligence-tracker/internal/storage"
)

// multipartOverhead allows for form boundaries and headers around the file.
const multipartOverhead = 1 << 20

func (h *Handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	docs, err := h.svc.Documents.List(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to load documents")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleUploadDocument streams the "file" part of a multipart form to the
// blob store without buffering it.
func (h *Handler) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	limit := h.svc.Documents.MaxBytes()
	if r.ContentLength > limit+multipartOverhead {
		writeError(w, r, storage.ErrFileTooLarge, "")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		badRequest(w, "expected multipart/form-data")
		return
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			badRequest(w, `missing "file" field`)
			return
		}
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				writeError(w, r, storage.ErrFileTooLarge, "")
				return
			}
			badRequest(w, "invalid multipart body")
			return
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}
		doc, err := h.svc.Documents.Upload(r.Context(), id, service.Upload{
			FileName:    part.FileName(),
			ContentType: part.Header.Get("Content-Type"),
			Size:        -1,
			Body:        part,
		}, actor(r))
		part.Close()
		if err != nil {
			var tooBig *http.MaxBytesError
			if errors.As(err, &tooBig) {
				err = storage.ErrFileTooLarge
			}
			writeError(w, r, err, "failed to upload document")
			return
		}
		writeJSON(w, http.StatusCreated, doc)
		return
	}
}

func (h *Handler) handleDownloadDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	doc, f, err := h.svc.Documents.Open(r.Context(), id)
	if err != nil {
		writeError(w, r, err, "failed to download document")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", doc.MimeType)
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName})
	if disposition == "" {
		disposition = fmt.Sprintf("attachment; filename=\"document-%d\"", doc.ID)
	}
	w.Header().Set("Content-Disposition", disposition)
	http.ServeContent(w, r, doc.FileName, doc.CreatedAt, f)
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	if err := h.svc.Documents.Delete(r.Context(), id); err != nil {
		writeError(w, r, err, "failed to delete document")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
