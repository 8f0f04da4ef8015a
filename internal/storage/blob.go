package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DummAir/DummAirApp-sub001/internal/domain"
)

// BlobStore is the opaque ticket file store: write bytes under a key, get a
// public URL back.
type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// HTTPBlobStore talks to a Supabase-style object storage API: objects are
// PUT under /object/{bucket}/{key} and served from /object/public/{bucket}/{key}.
type HTTPBlobStore struct {
	baseURL    string
	bucket     string
	serviceKey string
	client     *http.Client
}

func NewHTTPBlobStore(baseURL, bucket, serviceKey string) *HTTPBlobStore {
	return &HTTPBlobStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		bucket:     bucket,
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPBlobStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.baseURL == "" {
		return "", domain.ConfigurationError{Key: "storage.base_url"}
	}
	if s.serviceKey == "" {
		return "", domain.ConfigurationError{Key: "BLOB_STORE_KEY"}
	}

	url := fmt.Sprintf("%s/object/%s/%s", s.baseURL, s.bucket, key)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", domain.UploadError{Key: key, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", domain.UploadError{Key: key, Err: fmt.Errorf("storage returned %s: %s", resp.Status, strings.TrimSpace(string(msg)))}
	}

	return fmt.Sprintf("%s/object/public/%s/%s", s.baseURL, s.bucket, key), nil
}

var _ BlobStore = (*HTTPBlobStore)(nil)
