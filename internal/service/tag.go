package service

import (
	"github.com/pkg/errors"

	"github.com/track-connections/connect-back/internal/db"
)

func (s *General) TagGet(userID uint64) ([]db.Tag, error) {
	tags := make([]db.Tag, 0)

	res := s.db.Where("user_id = ?", userID).Order("name").Find(&tags)
	if res.Error != nil {
		return nil, res.Error
	}

	return tags, nil
}

func (s *General) TagCreate(userID uint64, name string, color *string) (*db.Tag, error) {
	model := db.Tag{
		Name:   name,
		Color:  color,
		UserID: userID,
	}

	res := s.db.Create(&model)
	if res.Error != nil {
		return nil, res.Error
	}

	return &model, nil
}

func (s *General) TagUpdate(userID, tagID uint64, name string, color *string) (*db.Tag, error) {
	model := db.Tag{}
	res := s.db.Where("user_id = ?", userID).First(&model, tagID)
	if res.Error != nil {
		return nil, res.Error
	}

	res = s.db.Model(&model).Updates(&db.Tag{Name: name, Color: color})
	if res.Error != nil {
		return nil, res.Error
	}

	return &model, nil
}

// TagDelete removes the tag and its join rows. Join rows go first so a crash
// in between leaves danglers that enrichment already tolerates.
func (s *General) TagDelete(userID, tagID uint64) error {
	model := db.Tag{}
	res := s.db.Where("user_id = ?", userID).First(&model, tagID)
	if res.Error != nil {
		return res.Error
	}

	if res := s.db.Where("tag_id = ?", tagID).Delete(&db.LogEntryTag{}); res.Error != nil {
		return errors.Wrap(res.Error, "delete tag links")
	}
	if res := s.db.Delete(&db.Tag{}, tagID); res.Error != nil {
		return errors.Wrap(res.Error, "delete tag")
	}

	return nil
}

// TagAttach links a tag to a log entry, ignoring a pair that already exists.
func (s *General) TagAttach(logEntryID, tagID uint64) error {
	var count int64
	res := s.db.Model(&db.LogEntryTag{}).
		Where("log_entry_id = ? AND tag_id = ?", logEntryID, tagID).
		Count(&count)
	if res.Error != nil {
		return errors.Wrap(res.Error, "check tag link")
	}
	if count > 0 {
		return nil
	}

	res = s.db.Create(&db.LogEntryTag{LogEntryID: logEntryID, TagID: tagID})
	if res.Error != nil {
		return errors.Wrap(res.Error, "create tag link")
	}

	return nil
}

func (s *General) TagDetach(logEntryID, tagID uint64) error {
	res := s.db.Where("log_entry_id = ? AND tag_id = ?", logEntryID, tagID).Delete(&db.LogEntryTag{})
	if res.Error != nil {
		return errors.Wrap(res.Error, "delete tag link")
	}

	return nil
}

func (s *General) TagLogEntries(userID, tagID uint64) ([]LogEntryWithRelations, error) {
	tag := db.Tag{}
	res := s.db.Where("user_id = ?", userID).First(&tag, tagID)
	if res.Error != nil {
		return nil, res.Error
	}

	entries, err := s.tagLogEntryRows(userID, tagID)
	if err != nil {
		return nil, err
	}

	return s.enrichLogEntries(entries), nil
}

func (s *General) tagLogEntryRows(userID, tagID uint64) ([]db.LogEntry, error) {
	joins := make([]db.LogEntryTag, 0)
	res := s.db.Where("tag_id = ?", tagID).Find(&joins)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load tag links")
	}

	if len(joins) == 0 {
		return []db.LogEntry{}, nil
	}

	ids := make([]uint64, len(joins))
	for i := range joins {
		ids[i] = joins[i].LogEntryID
	}

	entries := make([]db.LogEntry, 0)
	res = s.db.Where("user_id = ? AND id IN ?", userID, ids).Order("created_at desc").Find(&entries)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load log entries")
	}

	return entries, nil
}
