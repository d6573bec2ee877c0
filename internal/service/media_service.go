package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/noah-isme/univ-portal-api/pkg/clock"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
	"github.com/noah-isme/univ-portal-api/pkg/jobs"
	"github.com/noah-isme/univ-portal-api/pkg/media"
	"github.com/noah-isme/univ-portal-api/pkg/storage"
)

// JobTypeThumbnail identifies gallery thumbnail jobs on the media queue.
const JobTypeThumbnail = "gallery.thumbnail"

type objectStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type thumbnailSetter interface {
	SetImageThumbnail(ctx context.Context, id, thumbnail string) error
}

// MediaServiceConfig configures upload validation and links.
type MediaServiceConfig struct {
	MaxFileSize    int64
	AllowedMIMEs   []string
	ThumbnailWidth int
	// FilePrefix is prepended to signed tokens to build download URLs.
	FilePrefix string
}

// StoredFile describes an accepted upload.
type StoredFile struct {
	Key  string `json:"key"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// ThumbnailJob is the payload of a JobTypeThumbnail job.
type ThumbnailJob struct {
	ImageID string
	Key     string
}

// MediaService validates, stores and serves uploaded files.
type MediaService struct {
	store   objectStore
	signer  *storage.SignedURLSigner
	metrics *MetricsService
	clock   clock.Clock
	logger  *zap.Logger
	cfg     MediaServiceConfig
}

// NewMediaService constructs MediaService.
func NewMediaService(store objectStore, signer *storage.SignedURLSigner, metrics *MetricsService, clk clock.Clock, logger *zap.Logger, cfg MediaServiceConfig) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.Real()
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 5 * 1024 * 1024
	}
	if len(cfg.AllowedMIMEs) == 0 {
		cfg.AllowedMIMEs = []string{"image/jpeg", "image/png", "application/pdf"}
	}
	return &MediaService{store: store, signer: signer, metrics: metrics, clock: clk, logger: logger, cfg: cfg}
}

// MaxFileSize returns the upload limit in bytes.
func (s *MediaService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Store validates and persists an upload under folder.
func (s *MediaService) Store(folder, filename string, data []byte) (*StoredFile, error) {
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, fmt.Sprintf("file exceeds %d bytes", s.cfg.MaxFileSize))
	}
	if len(data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	mime := media.DetectMIME(data)
	if !media.Allowed(mime, s.cfg.AllowedMIMEs) {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, fmt.Sprintf("%s is not accepted", mime))
	}
	key, err := s.store.Save(media.Key(folder, filename, s.clock.Now()), data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}
	return &StoredFile{Key: key, MIME: mime, Size: int64(len(data))}, nil
}

// StoreImage is Store restricted to images that can be thumbnailed.
func (s *MediaService) StoreImage(folder, filename string, data []byte) (*StoredFile, error) {
	if len(data) > 0 && int64(len(data)) <= s.cfg.MaxFileSize {
		if mime := media.DetectMIME(data); !media.IsImage(mime) {
			return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "only JPEG and PNG images are accepted")
		}
	}
	return s.Store(folder, filename, data)
}

// WriteThumbnail renders and stores the thumbnail of an image key.
func (s *MediaService) WriteThumbnail(key string) (string, error) {
	file, err := s.store.Open(key)
	if err != nil {
		return "", err
	}
	defer file.Close() //nolint:errcheck

	thumb, err := media.Thumbnail(file, s.cfg.ThumbnailWidth)
	if err != nil {
		return "", err
	}
	return s.store.Save(media.ThumbnailKey(key), thumb)
}

// SignedLink returns a time-limited download link for key.
func (s *MediaService) SignedLink(owner, key string) (*SignedLink, error) {
	token, expires, err := s.signer.Generate(owner, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign link")
	}
	return &SignedLink{URL: s.cfg.FilePrefix + token, ExpiresAt: expires}, nil
}

// OpenSigned resolves a signed token to an open file and its base name.
func (s *MediaService) OpenSigned(token string) (*os.File, string, error) {
	_, key, err := s.signer.Parse(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link has expired")
		}
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "download link is invalid")
	}
	file, err := s.store.Open(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "file not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file")
	}
	return file, path.Base(key), nil
}

// ThumbnailHandler returns the queue handler that renders gallery thumbnails
// and records them on the image row.
func (s *MediaService) ThumbnailHandler(images thumbnailSetter) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		payload, ok := job.Payload.(ThumbnailJob)
		if !ok {
			return fmt.Errorf("unexpected payload %T for job %s", job.Payload, job.ID)
		}
		thumbKey, err := s.WriteThumbnail(payload.Key)
		if err != nil {
			s.metrics.RecordThumbnail(false)
			return fmt.Errorf("render thumbnail: %w", err)
		}
		if err := images.SetImageThumbnail(ctx, payload.ImageID, thumbKey); err != nil {
			s.metrics.RecordThumbnail(false)
			return fmt.Errorf("record thumbnail: %w", err)
		}
		s.metrics.RecordThumbnail(true)
		s.logger.Debug("thumbnail ready", zap.String("image_id", payload.ImageID), zap.String("thumbnail", thumbKey))
		return nil
	}
}
