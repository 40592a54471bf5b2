package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/buckets"
	"github.com/camphub/assetstore/internal/files"
)

// maxMultipartMemory bounds how much of a multipart body is held in RAM
// before spilling to disk. Individual file limits are enforced by the
// validator.
const maxMultipartMemory = 64 << 20

func (s *Server) category(r *http.Request) (buckets.Category, bool) {
	c := buckets.Category(chi.URLParam(r, "category"))
	return c, buckets.Valid(c)
}

// handleUpload accepts one or more files under the "files" multipart field.
// The count ceiling and every file's type and size are checked before any
// bytes go to the store.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(r)
	if !ok {
		s.writeError(w, r, &files.ValidationError{
			Reason: files.ErrUnknownCategory,
			Detail: chi.URLParam(r, "category"),
		})
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		http.Error(w, "malformed multipart body", http.StatusBadRequest)
		return
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		http.Error(w, "no files submitted", http.StatusBadRequest)
		return
	}
	if err := s.service.Validator().ValidateCount(category, len(headers)); err != nil {
		s.writeError(w, r, err)
		return
	}

	// Validate the whole batch before the first upload: a rejection must
	// leave no partial state behind.
	for _, fh := range headers {
		if err := s.service.Validator().ValidateFile(fh.Header.Get("Content-Type"), fh.Size); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	ownerID := r.FormValue("owner_id")
	typeTag := r.FormValue("type")

	results := make([]*files.UploadResult, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		result, err := s.service.UploadFile(r.Context(), files.UploadRequest{
			Category:    category,
			OwnerID:     ownerID,
			FileName:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
			TypeTag:     typeTag,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		results = append(results, result)
	}

	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"files": results})
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	object := chi.URLParam(r, "*")

	data, err := s.service.Fetch(r.Context(), category, object)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	contentType := "application/octet-stream"
	if ct, ok := s.service.ContentType(category, object); ok {
		contentType = ct
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	object := chi.URLParam(r, "*")

	if err := s.service.Remove(r.Context(), category, object); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleShareURL issues a presigned URL for ?object=, with optional ?ttl=
// in seconds.
func (s *Server) handleShareURL(w http.ResponseWriter, r *http.Request) {
	category, ok := s.category(r)
	if !ok {
		http.NotFound(w, r)
		return
	}

	object := r.URL.Query().Get("object")
	if object == "" {
		http.Error(w, "object query parameter required", http.StatusBadRequest)
		return
	}

	var ttl time.Duration
	if raw := r.URL.Query().Get("ttl"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			http.Error(w, "ttl must be a positive number of seconds", http.StatusBadRequest)
			return
		}
		ttl = time.Duration(seconds) * time.Second
	}

	url, err := s.service.PresignedURL(r.Context(), category, object, ttl)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if ttl <= 0 {
		ttl = files.DefaultPresignTTL
	}
	s.writeJSON(w, http.StatusOK, map[string]string{
		"url":     url,
		"expires": time.Now().Add(ttl).Format(time.RFC3339),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}
