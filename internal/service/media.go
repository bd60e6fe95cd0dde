package service

import (
	"context"

	"github.com/pkg/errors"

	"github.com/track-connections/connect-back/internal/blob"
	"github.com/track-connections/connect-back/internal/db"
)

// MediaUpload pushes the file to the blob gateway and records the metadata
// row. logEntryID may be nil: media can be uploaded before the log entry
// exists and claimed later.
func (s *General) MediaUpload(ctx context.Context, userID uint64, logEntryID *uint64, filename, contentType string, body []byte) (*db.Media, error) {
	if !blob.FileTypeAllowed(contentType) {
		return nil, ErrUnsupportedMediaType
	}

	key := blob.NewObjectKey(userID, filename)
	url, err := s.blob.Upload(ctx, key, contentType, body)
	if err != nil {
		return nil, errors.Wrap(err, "upload blob")
	}

	model := db.Media{
		URL:        url,
		StorageKey: key,
		FileType:   contentType,
		Size:       int64(len(body)),
		UserID:     userID,
		LogEntryID: logEntryID,
	}
	if res := s.db.Create(&model); res.Error != nil {
		// The object is orphaned in the gateway now, best effort removal.
		if derr := s.blob.Delete(ctx, key); derr != nil {
			s.logger.Warnw("remove orphaned blob", "key", key, "error", derr)
		}
		return nil, res.Error
	}

	return &model, nil
}

// MediaClaim assigns a staged upload to one of the user's log entries.
func (s *General) MediaClaim(userID, mediaID, logEntryID uint64) (*db.Media, error) {
	entry := db.LogEntry{}
	res := s.db.Where("user_id = ?", userID).First(&entry, logEntryID)
	if res.Error != nil {
		return nil, res.Error
	}

	model := db.Media{}
	res = s.db.Where("user_id = ?", userID).First(&model, mediaID)
	if res.Error != nil {
		return nil, res.Error
	}

	res = s.db.Model(&model).Update("log_entry_id", logEntryID)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update media")
	}

	return &model, nil
}

func (s *General) MediaUnassigned(userID uint64) ([]db.Media, error) {
	items := make([]db.Media, 0)
	res := s.db.Where("user_id = ? AND log_entry_id IS NULL", userID).Order("created_at").Find(&items)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load media")
	}

	return items, nil
}

func (s *General) MediaDelete(ctx context.Context, userID, id uint64) error {
	model := db.Media{}
	res := s.db.Where("user_id = ?", userID).First(&model, id)
	if res.Error != nil {
		return res.Error
	}

	// Blob first, best effort. A failed gateway call does not block the row delete.
	if err := s.blob.Delete(ctx, model.StorageKey); err != nil {
		s.logger.Warnw("delete blob", "key", model.StorageKey, "error", err)
	}

	if res := s.db.Delete(&db.Media{}, id); res.Error != nil {
		return errors.Wrap(res.Error, "delete media")
	}

	return nil
}
