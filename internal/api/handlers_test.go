package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/buckets"
	"github.com/camphub/assetstore/internal/config"
	"github.com/camphub/assetstore/internal/files"
	"github.com/camphub/assetstore/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemClient) {
	t.Helper()

	store := storage.NewMemClient()
	logger := zap.NewNop()
	reg := buckets.NewRegistry("", logger)
	require.NoError(t, reg.EnsureAll(context.Background(), store))

	caches := files.NewCaches(files.CacheConfig{}, nil)
	service := files.NewService(store, reg, caches,
		files.NewValidator(nil, 0), files.NewImageRenderer(), logger)

	cfg := config.Default()
	return NewServer(cfg, logger, service, prometheus.NewRegistry()), store
}

// multipartBody builds a multipart request body with n copies of the given
// file part.
func multipartBody(t *testing.T, n int, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for i := 0; i < n; i++ {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%d-%s"`, i, filename))
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestServer_Upload(t *testing.T) {
	t.Run("uploads a pdf and returns its url", func(t *testing.T) {
		// Arrange
		server, _ := newTestServer(t)
		body, contentType := multipartBody(t, 1, "notes.pdf", "application/pdf", []byte("%PDF-1.4 data"))

		// Act
		req := httptest.NewRequest(http.MethodPost, "/v1/files/camp-resources", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		// Assert
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var resp struct {
			Files []struct {
				FileID       string  `json:"fileId"`
				URL          string  `json:"url"`
				ThumbnailURL *string `json:"thumbnailUrl"`
				SizeBytes    int64   `json:"sizeBytes"`
			} `json:"files"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		require.Len(t, resp.Files, 1)
		assert.NotEmpty(t, resp.Files[0].URL)
		assert.Nil(t, resp.Files[0].ThumbnailURL)
		assert.Equal(t, int64(len("%PDF-1.4 data")), resp.Files[0].SizeBytes)
	})

	t.Run("rejects unsupported media type without touching the store", func(t *testing.T) {
		server, store := newTestServer(t)
		putsBefore := store.Calls().Put
		body, contentType := multipartBody(t, 1, "tool.exe", "application/x-msdownload", []byte("MZ"))

		req := httptest.NewRequest(http.MethodPost, "/v1/files/camp-resources", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Equal(t, putsBefore, store.Calls().Put)
	})

	t.Run("rejects a mixed batch before storing any file", func(t *testing.T) {
		server, store := newTestServer(t)

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, p := range []struct{ name, contentType, data string }{
			{"notes.pdf", "application/pdf", "%PDF-1.4 data"},
			{"tool.exe", "application/x-msdownload", "MZ"},
		} {
			h := make(textproto.MIMEHeader)
			h.Set("Content-Disposition",
				fmt.Sprintf(`form-data; name="files"; filename="%s"`, p.name))
			h.Set("Content-Type", p.contentType)
			part, err := w.CreatePart(h)
			require.NoError(t, err)
			_, err = part.Write([]byte(p.data))
			require.NoError(t, err)
		}
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/v1/files/camp-resources", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
		assert.Zero(t, store.Calls().Put,
			"the valid file must not be stored when a later one is rejected")
	})

	t.Run("rejects four files on a three-file category", func(t *testing.T) {
		server, store := newTestServer(t)
		body, contentType := multipartBody(t, 4, "homework.pdf", "application/pdf", []byte("x"))

		req := httptest.NewRequest(http.MethodPost, "/v1/files/assignment-submissions", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, store.Calls().Put)
	})

	t.Run("rejects unknown category", func(t *testing.T) {
		server, _ := newTestServer(t)
		body, contentType := multipartBody(t, 1, "x.pdf", "application/pdf", []byte("x"))

		req := httptest.NewRequest(http.MethodPost, "/v1/files/attic", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServer_FetchRemove(t *testing.T) {
	upload := func(t *testing.T, server *Server) string {
		body, contentType := multipartBody(t, 1, "notes.pdf", "application/pdf", []byte("camp notes"))
		req := httptest.NewRequest(http.MethodPost, "/v1/files/camp-resources", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp struct {
			Files []struct {
				FileID string `json:"fileId"`
			} `json:"files"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		return resp.Files[0].FileID
	}

	t.Run("fetch returns the uploaded bytes", func(t *testing.T) {
		server, _ := newTestServer(t)
		fileID := upload(t, server)

		req := httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/"+fileID, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		data, err := io.ReadAll(rec.Body)
		require.NoError(t, err)
		assert.Equal(t, "camp notes", string(data))
	})

	t.Run("fetch serves the stored content type", func(t *testing.T) {
		server, _ := newTestServer(t)
		fileID := upload(t, server)

		req := httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/"+fileID, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	})

	t.Run("fetch falls back to octet-stream without cached metadata", func(t *testing.T) {
		server, store := newTestServer(t)
		_, err := store.Put(context.Background(), "camp-resources", "raw.bin",
			bytes.NewReader([]byte{0x01, 0x02}), 2, storage.PutOptions{})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/raw.bin", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/octet-stream", rec.Header().Get("Content-Type"))
	})

	t.Run("fetch of a missing object is 404", func(t *testing.T) {
		server, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/nope.pdf", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("remove then fetch is 404", func(t *testing.T) {
		server, _ := newTestServer(t)
		fileID := upload(t, server)

		req := httptest.NewRequest(http.MethodDelete, "/v1/files/camp-resources/"+fileID, nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req = httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/"+fileID, nil)
		rec = httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestServer_ShareURL(t *testing.T) {
	t.Run("issues a presigned url", func(t *testing.T) {
		server, store := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet,
			"/v1/files/camp-resources/url?object=abc-notes.pdf&ttl=600", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp["url"])
		assert.NotEmpty(t, resp["expires"])
		assert.Zero(t, store.Calls().Get, "presign must not read the object")
	})

	t.Run("requires an object parameter", func(t *testing.T) {
		server, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/v1/files/camp-resources/url", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

// unreachableStore fails bucket probes as a downed endpoint would.
type unreachableStore struct {
	storage.Client
}

func (unreachableStore) BucketExists(ctx context.Context, bucket string) (bool, error) {
	return false, errors.New("dial tcp: connection refused")
}

func TestServer_Health(t *testing.T) {
	t.Run("reports healthy when the store answers", func(t *testing.T) {
		server, _ := newTestServer(t)

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "healthy")
	})

	t.Run("reports degraded when the store is unreachable", func(t *testing.T) {
		// Arrange
		store := storage.NewMemClient()
		logger := zap.NewNop()
		reg := buckets.NewRegistry("", logger)
		require.NoError(t, reg.EnsureAll(context.Background(), store))

		caches := files.NewCaches(files.CacheConfig{}, nil)
		service := files.NewService(unreachableStore{Client: store}, reg, caches,
			files.NewValidator(nil, 0), files.NewImageRenderer(), logger)
		server := NewServer(config.Default(), logger, service, prometheus.NewRegistry())

		// Act
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		server.Handler().ServeHTTP(rec, req)

		// Assert
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "degraded")
	})
}
