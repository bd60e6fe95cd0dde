package service

import (
	"gorm.io/gorm"

	"github.com/track-connections/connect-back/internal/db"
)

type (
	LogEntryWithRelations struct {
		db.LogEntry
		Tags    []db.Tag    `json:"tags"`
		Media   []db.Media  `json:"media"`
		Contact *db.Contact `json:"contact,omitempty"`
	}

	ContactWithRelations struct {
		db.Contact
		Tags       []db.Tag                `json:"tags"`
		LogEntries []LogEntryWithRelations `json:"logEntries"`
	}
)

// enrichLogEntry attaches tags, media and the linked contact to a bare entry.
// Relation lookups degrade to empty/absent instead of failing: a broken tag
// link or a deleted contact must never blank out the entry itself.
func (s *General) enrichLogEntry(entry db.LogEntry, withContact bool) LogEntryWithRelations {
	enriched := LogEntryWithRelations{
		LogEntry: entry,
		Tags:     make([]db.Tag, 0),
		Media:    make([]db.Media, 0),
	}

	joins := make([]db.LogEntryTag, 0)
	res := s.db.Where("log_entry_id = ?", entry.ID).Find(&joins)
	if res.Error != nil {
		s.logger.Warnw("load tag links", "log_entry_id", entry.ID, "error", res.Error)
	}
	for i := range joins {
		tag := db.Tag{}
		res := s.db.First(&tag, joins[i].TagID)
		if res.Error != nil {
			// Dangling join rows are skipped, the tag may have been deleted.
			if res.Error != gorm.ErrRecordNotFound {
				s.logger.Warnw("load tag", "tag_id", joins[i].TagID, "error", res.Error)
			}
			continue
		}
		enriched.Tags = append(enriched.Tags, tag)
	}

	mediaItems := make([]db.Media, 0)
	res = s.db.Where("log_entry_id = ?", entry.ID).Order("created_at").Find(&mediaItems)
	if res.Error != nil {
		s.logger.Warnw("load media", "log_entry_id", entry.ID, "error", res.Error)
	} else {
		// Oldest first, consumers treat the first item as primary.
		enriched.Media = mediaItems
	}

	if withContact && entry.ContactID != nil {
		contact := db.Contact{}
		res := s.db.First(&contact, *entry.ContactID)
		switch {
		case res.Error == nil:
			enriched.Contact = &contact
		case res.Error == gorm.ErrRecordNotFound:
			// The contact was deleted out from under the entry. The stale id
			// stays on the row, the view just reports no contact.
		default:
			s.logger.Warnw("load contact", "contact_id", *entry.ContactID, "error", res.Error)
		}
	}

	return enriched
}

func (s *General) enrichLogEntries(entries []db.LogEntry) []LogEntryWithRelations {
	enriched := make([]LogEntryWithRelations, len(entries))
	for i := range entries {
		enriched[i] = s.enrichLogEntry(entries[i], true)
	}
	return enriched
}

// enrichContact attaches the contact's log entries, newest first. Entries are
// enriched with their own tags and media but not with the contact again.
func (s *General) enrichContact(contact db.Contact) ContactWithRelations {
	enriched := ContactWithRelations{
		Contact:    contact,
		Tags:       make([]db.Tag, 0),
		LogEntries: make([]LogEntryWithRelations, 0),
	}

	entries := make([]db.LogEntry, 0)
	res := s.db.Where("contact_id = ?", contact.ID).Order("created_at desc").Find(&entries)
	if res.Error != nil {
		s.logger.Warnw("load contact log entries", "contact_id", contact.ID, "error", res.Error)
		return enriched
	}

	seen := make(map[uint64]struct{})
	for i := range entries {
		entry := s.enrichLogEntry(entries[i], false)
		enriched.LogEntries = append(enriched.LogEntries, entry)
		for _, tag := range entry.Tags {
			if _, ok := seen[tag.ID]; ok {
				continue
			}
			seen[tag.ID] = struct{}{}
			enriched.Tags = append(enriched.Tags, tag)
		}
	}

	return enriched
}
