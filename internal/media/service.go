package media

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/spacestar-shop/backend/pkg/config"
	pkgerrors "github.com/spacestar-shop/backend/pkg/errors"
)

// Store is the slice of the blob storage client the upload flow needs.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	PresignGet(key string) (string, error)
}

// Upload is the stored object handed back to the admin panel. The URL is a
// time-limited signed link; clients persist the key and re-sign on read.
type Upload struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

// Service uploads admin media to blob storage under generated keys.
type Service interface {
	Upload(ctx context.Context, filename, contentType string, data []byte) (*Upload, error)
	SignedURL(key string) (string, error)
}

type service struct {
	store    Store
	maxBytes int64
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func NewService(store Store, cfg config.MediaConfig) (Service, error) {
	if store == nil {
		return nil, fmt.Errorf("blob store required")
	}

	maxMB := cfg.MaxUploadMB
	if maxMB <= 0 {
		maxMB = 10
	}
	return &service{store: store, maxBytes: int64(maxMB) << 20}, nil
}

func (s *service) Upload(ctx context.Context, filename, contentType string, data []byte) (*Upload, error) {
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "upload exceeds the size limit").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}
	if !allowedContentTypes[strings.ToLower(contentType)] {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported media type").
			WithDetails(map[string]any{"content_type": contentType})
	}

	key := "uploads/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
	if _, err := s.store.Put(ctx, key, data, contentType); err != nil {
		return nil, err
	}

	url, err := s.store.PresignGet(key)
	if err != nil {
		return nil, err
	}
	return &Upload{Key: key, URL: url}, nil
}

func (s *service) SignedURL(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "object key is required")
	}
	return s.store.PresignGet(key)
}
