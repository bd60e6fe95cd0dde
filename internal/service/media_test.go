package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/track-connections/connect-back/internal/db"
)

func TestMediaUploadStaged(t *testing.T) {
	s, store := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	item, err := s.MediaUpload(context.Background(), user.ID, nil, "badge photo.png", "image/png", []byte("pngdata"))
	require.NoError(t, err)
	assert.Nil(t, item.LogEntryID)
	assert.Equal(t, int64(7), item.Size)
	assert.Equal(t, "image/png", item.FileType)
	require.Len(t, store.uploaded, 1)
	assert.Equal(t, "http://blob.local/"+item.StorageKey, item.URL)

	staged, err := s.MediaUnassigned(user.ID)
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, item.ID, staged[0].ID)
}

func TestMediaUploadRejectsUnknownType(t *testing.T) {
	s, store := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	_, err := s.MediaUpload(context.Background(), user.ID, nil, "notes.pdf", "application/pdf", []byte("pdf"))
	assert.Equal(t, ErrUnsupportedMediaType, err)
	assert.Empty(t, store.uploaded)
}

func TestMediaClaim(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	entry, err := s.LogEntryCreate(user.ID, ContactFields{Email: strp("a@x.com")}, nil)
	require.NoError(t, err)

	item, err := s.MediaUpload(context.Background(), user.ID, nil, "badge.png", "image/png", []byte("png"))
	require.NoError(t, err)

	claimed, err := s.MediaClaim(user.ID, item.ID, entry.ID)
	require.NoError(t, err)
	require.NotNil(t, claimed.LogEntryID)
	assert.Equal(t, entry.ID, *claimed.LogEntryID)

	staged, err := s.MediaUnassigned(user.ID)
	require.NoError(t, err)
	assert.Empty(t, staged)

	enriched, err := s.LogEntryGetByID(user.ID, entry.ID)
	require.NoError(t, err)
	require.Len(t, enriched.Media, 1)
	assert.Equal(t, item.ID, enriched.Media[0].ID)
}

func TestMediaDeleteRemovesBlob(t *testing.T) {
	s, store := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	item, err := s.MediaUpload(context.Background(), user.ID, nil, "badge.png", "image/png", []byte("png"))
	require.NoError(t, err)

	require.NoError(t, s.MediaDelete(context.Background(), user.ID, item.ID))
	require.Len(t, store.deleted, 1)
	assert.Equal(t, item.StorageKey, store.deleted[0])

	var count int64
	require.NoError(t, s.db.Model(&db.Media{}).Where("id = ?", item.ID).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}
