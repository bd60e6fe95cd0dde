// Package blob talks to the S3-compatible media gateway. The service layer
// only ever persists the returned URL and storage key; reads go straight to
// the gateway URL.
package blob

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/track-connections/connect-back/internal/config"
)

var allowedFileTypes = map[string]struct{}{
	"image/jpeg":    {},
	"image/png":     {},
	"image/gif":     {},
	"image/webp":    {},
	"image/svg+xml": {},
	"image/bmp":     {},
	"image/tiff":    {},
}

var keyUnsafe = regexp.MustCompile(`[^a-zA-Z0-9]`)

type Store interface {
	Upload(ctx context.Context, key, contentType string, body []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

type GatewayStore struct {
	client    *resty.Client
	urlPrefix string
	logger    *zap.SugaredLogger
}

func NewGatewayStore(cfg *config.Config, logger *zap.SugaredLogger) *GatewayStore {
	client := resty.New().
		SetHostURL(cfg.BlobEndpoint).
		SetTimeout(30 * time.Second)
	if cfg.BlobToken != "" {
		client.SetAuthToken(cfg.BlobToken)
	}

	return &GatewayStore{
		client:    client,
		urlPrefix: strings.TrimRight(cfg.BlobURLPrefix, "/"),
		logger:    logger,
	}
}

func (s *GatewayStore) Upload(ctx context.Context, key, contentType string, body []byte) (string, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", contentType).
		SetBody(body).
		Put("/" + key)
	if err != nil {
		return "", errors.Wrap(err, "put object")
	}
	if resp.IsError() {
		return "", errors.New(fmt.Sprintf("put object: unexpected status %d", resp.StatusCode()))
	}

	return s.urlPrefix + "/" + key, nil
}

func (s *GatewayStore) Delete(ctx context.Context, key string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		Delete("/" + key)
	if err != nil {
		return errors.Wrap(err, "delete object")
	}
	// Treat a missing object as deleted, retries after a partial failure
	// should not error out.
	if resp.IsError() && resp.StatusCode() != 404 {
		return errors.New(fmt.Sprintf("delete object: unexpected status %d", resp.StatusCode()))
	}

	return nil
}

// FileTypeAllowed reports whether the mime type is on the image allowlist.
func FileTypeAllowed(contentType string) bool {
	_, ok := allowedFileTypes[contentType]
	return ok
}

// NewObjectKey builds a per-user storage key that cannot collide across
// uploads of the same filename.
func NewObjectKey(userID uint64, filename string) string {
	extension := path.Ext(filename)
	sanitized := strings.ToLower(keyUnsafe.ReplaceAllString(strings.TrimSuffix(path.Base(filename), extension), "_"))
	millis := time.Now().UnixNano() / int64(time.Millisecond)
	random := strings.ReplaceAll(uuid.New().String(), "-", "")[:16]

	return fmt.Sprintf("%d/%d-%s-%s%s", userID, millis, random, sanitized, extension)
}
