package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/files"
	"github.com/camphub/assetstore/internal/storage"
)

// writeError maps the error taxonomy onto HTTP statuses: validation
// failures to 4xx, missing objects to 404, store failures to 502.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway

	switch {
	case errors.Is(err, files.ErrUnsupportedMediaType):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, files.ErrPayloadTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.Is(err, files.ErrTooManyFiles),
		errors.Is(err, files.ErrUnknownCategory):
		status = http.StatusBadRequest
	case storage.IsNotFound(err):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
