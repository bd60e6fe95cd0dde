package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/track-connections/connect-back/internal/db"
)

type blobStub struct {
	uploaded []string
	deleted  []string
}

func (s *blobStub) Upload(_ context.Context, key, _ string, _ []byte) (string, error) {
	s.uploaded = append(s.uploaded, key)
	return "http://blob.local/" + key, nil
}

func (s *blobStub) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func newTestService(t *testing.T) (*General, *blobStub) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	store := &blobStub{}
	return NewGeneral(conn, store, zap.NewNop().Sugar()), store
}

func seedUser(t *testing.T, s *General, email string) db.User {
	t.Helper()

	user := db.User{
		Name:     "Test User",
		Email:    email,
		Password: "irrelevant",
		Token:    uuid.New().String(),
	}
	require.NoError(t, s.db.Create(&user).Error)
	return user
}

func seedEntry(t *testing.T, s *General, userID uint64, f ContactFields, createdAt time.Time) db.LogEntry {
	t.Helper()

	entry := db.LogEntry{
		GormForkedModel: db.GormForkedModel{CreatedAt: createdAt, UpdatedAt: createdAt},
		Name:            f.Name,
		Company:         f.Company,
		Title:           f.Title,
		Email:           f.Email,
		Phone:           f.Phone,
		Notes:           f.Notes,
		WhereMet:        f.WhereMet,
		UserID:          userID,
		ContactID:       f.ContactID,
	}
	require.NoError(t, s.db.Create(&entry).Error)
	return entry
}

func strp(v string) *string {
	return &v
}

func TestRegisterSeedsTemplate(t *testing.T) {
	s, _ := newTestService(t)

	token, err := s.Register("Jamie", "Jamie@Example.com", "123456789123")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	user := db.User{}
	require.NoError(t, s.db.Where("token = ?", token).First(&user).Error)
	require.Equal(t, "jamie@example.com", user.Email)

	template := db.MessageTemplate{}
	require.NoError(t, s.db.Where("user_id = ?", user.ID).First(&template).Error)
	require.NotNil(t, template.EmailTemplate)
	require.NotNil(t, template.SMSTemplate)
}

func TestLoginRotatesToken(t *testing.T) {
	s, _ := newTestService(t)

	first, err := s.Register("Jamie", "jamie@example.com", "123456789123")
	require.NoError(t, err)

	second, err := s.Login("jamie@example.com", "123456789123")
	require.NoError(t, err)
	require.NotEqual(t, first, second)

	_, err = s.Login("jamie@example.com", "wrong-password")
	require.Equal(t, ErrLoginPasswordDoesNotMatch, err)

	_, err = s.Login("nobody@example.com", "123456789123")
	require.Equal(t, ErrLoginUserNotFound, err)
}
