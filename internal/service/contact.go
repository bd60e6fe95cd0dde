package service

import (
	"github.com/pkg/errors"

	"github.com/track-connections/connect-back/internal/db"
)

// ContactView is either a real contact record or a virtual one derived from
// unlinked log entries. The two have different id semantics (generated uint64
// vs raw email/phone key), so consumers are forced to branch on the concrete
// type instead of assuming an opaque id.
type ContactView interface {
	contactView()
}

func (ContactWithRelations) contactView() {}
func (VirtualContact) contactView()       {}

func (s *General) ContactGet(userID uint64) ([]ContactWithRelations, error) {
	contacts := make([]db.Contact, 0)
	res := s.db.Where("user_id = ?", userID).Order("id").Find(&contacts)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load contacts")
	}

	enriched := make([]ContactWithRelations, len(contacts))
	for i := range contacts {
		enriched[i] = s.enrichContact(contacts[i])
	}

	return enriched, nil
}

func (s *General) ContactGetByID(userID, id uint64) (*ContactWithRelations, error) {
	contact := db.Contact{}
	res := s.db.Where("user_id = ?", userID).First(&contact, id)
	if res.Error != nil {
		return nil, res.Error
	}

	enriched := s.enrichContact(contact)
	return &enriched, nil
}

func (s *General) ContactCreate(userID uint64, f ContactFields) (*db.Contact, error) {
	model := db.Contact{
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

	res := s.db.Create(&model)
	if res.Error != nil {
		return nil, res.Error
	}

	return &model, nil
}

func (s *General) ContactUpdate(userID, id uint64, f ContactFields) (*db.Contact, error) {
	model := db.Contact{}
	res := s.db.Where("user_id = ?", userID).First(&model, id)
	if res.Error != nil {
		return nil, res.Error
	}

	patch := db.Contact{
		Name:     f.Name,
		Company:  f.Company,
		Title:    f.Title,
		Email:    f.Email,
		Phone:    f.Phone,
		Notes:    f.Notes,
		WhereMet: f.WhereMet,
	}
	res = s.db.Model(&model).Updates(&patch)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update model")
	}

	return &model, nil
}

// ContactDelete removes only the contact row. Log entries referencing it keep
// their contact_id, enrichment resolves the dangler to an absent contact.
func (s *General) ContactDelete(userID, id uint64) error {
	contact := db.Contact{}
	res := s.db.Where("user_id = ?", userID).First(&contact, id)
	if res.Error != nil {
		return res.Error
	}

	res = s.db.Delete(&db.Contact{}, id)
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete contact")
	}

	return nil
}

func (s *General) ContactSetFavorite(userID, id uint64, favorite bool) (*db.Contact, error) {
	contact := db.Contact{}
	res := s.db.Where("user_id = ?", userID).First(&contact, id)
	if res.Error != nil {
		return nil, res.Error
	}

	res = s.db.Model(&contact).Update("is_favorite", favorite)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update favorite")
	}

	return &contact, nil
}

// ContactViews merges real contacts with the legacy virtual ones into a
// single listing.
func (s *General) ContactViews(userID uint64) ([]ContactView, error) {
	real, err := s.ContactGet(userID)
	if err != nil {
		return nil, err
	}
	virtual, err := s.VirtualContactGet(userID)
	if err != nil {
		return nil, err
	}

	views := make([]ContactView, 0, len(real)+len(virtual))
	for i := range real {
		views = append(views, real[i])
	}
	for i := range virtual {
		views = append(views, virtual[i])
	}

	return views, nil
}
