package service

import (
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/track-connections/connect-back/internal/blob"
	"github.com/track-connections/connect-back/internal/db"
)

var (
	ErrLoginUserNotFound         = errors.New("user not found")
	ErrLoginPasswordDoesNotMatch = errors.New("password does not match")
	ErrUnsupportedMediaType      = errors.New("unsupported media type")
)

type General struct {
	db     *gorm.DB
	blob   blob.Store
	logger *zap.SugaredLogger
}

func NewGeneral(conn *gorm.DB, store blob.Store, l *zap.SugaredLogger) *General {
	return &General{
		db:     conn,
		blob:   store,
		logger: l,
	}
}

func (s *General) Register(name, email, pass string) (string, error) {
	hash, err := s.bcryptGen(pass)
	if err != nil {
		return "", errors.Wrap(err, "bcryptGen")
	}
	token := uuid.New().String()
	user := db.User{
		Name:     name,
		Email:    strings.ToLower(email),
		Password: hash,
		Token:    token,
	}
	res := s.db.Create(&user)
	if res.Error != nil {
		return "", res.Error
	}

	// Every account starts with the stock follow-up templates.
	if _, err := s.TemplateUpsert(user.ID, nil, nil); err != nil {
		s.logger.Warnw("seed message template", "user_id", user.ID, "error", err)
	}

	return token, nil
}

func (s *General) Login(email, pass string) (string, error) {
	user := db.User{}
	res := s.db.Where("email = ?", strings.ToLower(email)).First(&user)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			return "", ErrLoginUserNotFound
		}
		return "", res.Error
	}

	if err := s.bcryptCheck(user.Password, pass); err != nil {
		return "", ErrLoginPasswordDoesNotMatch
	}

	token := uuid.New().String()
	res = s.db.Model(&user).Update("token", token)
	if res.Error != nil {
		return "", errors.Wrap(res.Error, "update token")
	}

	return token, nil
}

func (s *General) bcryptGen(pass string) (string, error) {
	passwordHashB, err := bcrypt.GenerateFromPassword([]byte(pass), 14)
	if err != nil {
		return "", errors.Wrap(err, "generate password hash")
	}
	return string(passwordHashB), nil
}

func (s *General) bcryptCheck(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}
