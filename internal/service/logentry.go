package service

import (
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/track-connections/connect-back/internal/db"
)

func (s *General) LogEntryGet(userID uint64) ([]LogEntryWithRelations, error) {
	entries := make([]db.LogEntry, 0)
	res := s.db.Where("user_id = ?", userID).Order("created_at").Find(&entries)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load log entries")
	}

	return s.enrichLogEntries(entries), nil
}

func (s *General) LogEntryGetByID(userID, id uint64) (*LogEntryWithRelations, error) {
	entry := db.LogEntry{}
	res := s.db.Where("user_id = ?", userID).First(&entry, id)
	if res.Error != nil {
		return nil, res.Error
	}

	enriched := s.enrichLogEntry(entry, true)
	return &enriched, nil
}

// LogEntryCreate runs identity resolution before inserting the entry. A
// resolution failure leaves contact_id null, it never fails the creation.
func (s *General) LogEntryCreate(userID uint64, f ContactFields, tagIDs []uint64) (*LogEntryWithRelations, error) {
	contactID := s.resolveContact(userID, f)

	model := db.LogEntry{
		Name:       f.Name,
		Company:    f.Company,
		Title:      f.Title,
		Email:      f.Email,
		Phone:      f.Phone,
		Notes:      f.Notes,
		WhereMet:   f.WhereMet,
		IsFavorite: false,
		UserID:     userID,
		ContactID:  contactID,
	}
	if res := s.db.Create(&model); res.Error != nil {
		return nil, res.Error
	}

	for _, tagID := range tagIDs {
		if err := s.TagAttach(model.ID, tagID); err != nil {
			s.logger.Warnw("attach tag", "log_entry_id", model.ID, "tag_id", tagID, "error", err)
		}
	}

	enriched := s.enrichLogEntry(model, true)
	return &enriched, nil
}

// LogEntryUpdate patches the submitted fields. When tagIDs is non-nil the tag
// set is replaced wholesale, nil leaves it untouched.
func (s *General) LogEntryUpdate(userID, id uint64, f ContactFields, tagIDs []uint64) (*LogEntryWithRelations, error) {
	model := db.LogEntry{}
	res := s.db.Where("user_id = ?", userID).First(&model, id)
	if res.Error != nil {
		return nil, res.Error
	}

	patch := db.LogEntry{
		Name:      f.Name,
		Company:   f.Company,
		Title:     f.Title,
		Email:     f.Email,
		Phone:     f.Phone,
		Notes:     f.Notes,
		WhereMet:  f.WhereMet,
		ContactID: f.ContactID,
	}
	res = s.db.Model(&model).Updates(&patch)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update model")
	}

	if tagIDs != nil {
		res := s.db.Where("log_entry_id = ?", id).Delete(&db.LogEntryTag{})
		if res.Error != nil {
			return nil, errors.Wrap(res.Error, "clear tag links")
		}
		for _, tagID := range tagIDs {
			if err := s.TagAttach(id, tagID); err != nil {
				s.logger.Warnw("attach tag", "log_entry_id", id, "tag_id", tagID, "error", err)
			}
		}
	}

	res = s.db.First(&model, id)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "get model")
	}

	enriched := s.enrichLogEntry(model, true)
	return &enriched, nil
}

// LogEntryDelete removes the entry together with its media rows and tag
// links. Blob objects are left for the media lifecycle to collect.
func (s *General) LogEntryDelete(userID, id uint64) error {
	entry := db.LogEntry{}
	res := s.db.Where("user_id = ?", userID).First(&entry, id)
	if res.Error != nil {
		return res.Error
	}

	if res := s.db.Where("log_entry_id = ?", id).Delete(&db.Media{}); res.Error != nil {
		return errors.Wrap(res.Error, "delete media rows")
	}
	if res := s.db.Where("log_entry_id = ?", id).Delete(&db.LogEntryTag{}); res.Error != nil {
		return errors.Wrap(res.Error, "delete tag links")
	}
	if res := s.db.Delete(&db.LogEntry{}, id); res.Error != nil {
		return errors.Wrap(res.Error, "delete log entry")
	}

	return nil
}

func (s *General) LogEntryFavorites(userID uint64) ([]LogEntryWithRelations, error) {
	entries := make([]db.LogEntry, 0)
	res := s.db.Where("user_id = ? AND is_favorite = ?", userID, true).Order("created_at").Find(&entries)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load favorites")
	}

	return s.enrichLogEntries(entries), nil
}

func (s *General) LogEntrySetFavorite(userID, id uint64, favorite bool) (*LogEntryWithRelations, error) {
	entry := db.LogEntry{}
	res := s.db.Where("user_id = ?", userID).First(&entry, id)
	if res.Error != nil {
		return nil, res.Error
	}

	res = s.db.Model(&entry).Update("is_favorite", favorite)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update favorite")
	}

	enriched := s.enrichLogEntry(entry, true)
	return &enriched, nil
}

// LogEntrySearch matches a case-insensitive substring against the entry's
// text fields and unions in entries carrying a tag whose name matches.
func (s *General) LogEntrySearch(userID uint64, query string) ([]LogEntryWithRelations, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	sql, args, err := squirrel.
		Select("*").From("log_entries").
		Where(squirrel.And{
			squirrel.Eq{"user_id": userID},
			squirrel.Or{
				squirrel.Like{"LOWER(name)": pattern},
				squirrel.Like{"LOWER(company)": pattern},
				squirrel.Like{"LOWER(title)": pattern},
				squirrel.Like{"LOWER(notes)": pattern},
				squirrel.Like{"LOWER(where_met)": pattern},
			},
		}).
		OrderBy("created_at").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build sql")
	}

	entries := make([]db.LogEntry, 0)
	res := s.db.Raw(sql, args...).Scan(&entries)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "scan")
	}

	found := make(map[uint64]struct{}, len(entries))
	for i := range entries {
		found[entries[i].ID] = struct{}{}
	}

	matchingTags := make([]db.Tag, 0)
	res = s.db.Where("user_id = ? AND LOWER(name) LIKE ?", userID, pattern).Find(&matchingTags)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load matching tags")
	}
	for i := range matchingTags {
		tagged, err := s.tagLogEntryRows(userID, matchingTags[i].ID)
		if err != nil {
			return nil, err
		}
		for j := range tagged {
			if _, ok := found[tagged[j].ID]; ok {
				continue
			}
			found[tagged[j].ID] = struct{}{}
			entries = append(entries, tagged[j])
		}
	}

	return s.enrichLogEntries(entries), nil
}
