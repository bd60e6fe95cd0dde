package service

import (
	"gorm.io/gorm"

	"github.com/track-connections/connect-back/internal/db"
)

// ContactFields carries the identity attributes a caller submits with a new
// log entry or contact.
type ContactFields struct {
	ContactID *uint64
	Name      *string
	Company   *string
	Title     *string
	Email     *string
	Phone     *string
	Notes     *string
	WhereMet  *string
}

func (f ContactFields) hasIdentity() bool {
	return present(f.Name) || present(f.Email) || present(f.Phone)
}

func present(v *string) bool {
	return v != nil && *v != ""
}

// resolveContact links a submitted log entry to one of the user's contacts,
// creating the contact when nothing matches. Linking is best effort: a store
// failure here leaves the entry anonymous instead of failing the creation,
// losing the link is recoverable, losing the entry is not.
func (s *General) resolveContact(userID uint64, f ContactFields) *uint64 {
	if f.ContactID != nil {
		return f.ContactID
	}

	if present(f.Email) {
		contact := db.Contact{}
		res := s.db.Where("user_id = ? AND email = ?", userID, *f.Email).Order("id").First(&contact)
		if res.Error == nil {
			return &contact.ID
		}
		if res.Error != gorm.ErrRecordNotFound {
			s.logger.Warnw("contact lookup by email failed, leaving entry unlinked",
				"user_id", userID, "error", res.Error)
			return nil
		}
	}
	if present(f.Phone) {
		contact := db.Contact{}
		res := s.db.Where("user_id = ? AND phone = ?", userID, *f.Phone).Order("id").First(&contact)
		if res.Error == nil {
			return &contact.ID
		}
		if res.Error != gorm.ErrRecordNotFound {
			s.logger.Warnw("contact lookup by phone failed, leaving entry unlinked",
				"user_id", userID, "error", res.Error)
			return nil
		}
	}

	if !f.hasIdentity() {
		return nil
	}

	contact := db.Contact{
		Name:       f.Name,
		Company:    f.Company,
		Title:      f.Title,
		Email:      f.Email,
		Phone:      f.Phone,
		Notes:      f.Notes,
		WhereMet:   f.WhereMet,
		IsFavorite: false,
		UserID:     userID,
	}
	if res := s.db.Create(&contact); res.Error != nil {
		s.logger.Warnw("contact creation failed, leaving entry unlinked",
			"user_id", userID, "error", res.Error)
		return nil
	}

	return &contact.ID
}
