package service

import (
	"sort"

	"github.com/pkg/errors"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/track-connections/connect-back/internal/db"
)

// VirtualContact is the legacy contact view derived from log entries that
// never got an explicit contact link. Its id is the raw grouping key, not a
// generated identifier, so it cannot be fed to the real-contact operations.
type VirtualContact struct {
	Key        string                  `json:"id"`
	Name       *string                 `json:"name,omitempty"`
	Company    *string                 `json:"company,omitempty"`
	Title      *string                 `json:"title,omitempty"`
	Email      *string                 `json:"email,omitempty"`
	Phone      *string                 `json:"phone,omitempty"`
	Tags       []db.Tag                `json:"tags"`
	LogEntries []LogEntryWithRelations `json:"logEntries"`
}

var virtualNameCollator = collate.New(language.English)

// VirtualContactGet recomputes the derived view on every call: group the
// user's unlinked entries by email-else-phone, take the newest entry as the
// representative identity and union the tag sets.
func (s *General) VirtualContactGet(userID uint64) ([]VirtualContact, error) {
	entries := make([]db.LogEntry, 0)
	res := s.db.Where("user_id = ? AND contact_id IS NULL", userID).Find(&entries)
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "load log entries")
	}

	buckets := make(map[string][]LogEntryWithRelations)
	for i := range entries {
		key := ""
		switch {
		case present(entries[i].Email):
			key = *entries[i].Email
		case present(entries[i].Phone):
			key = *entries[i].Phone
		default:
			// Nothing to group by.
			continue
		}
		buckets[key] = append(buckets[key], s.enrichLogEntry(entries[i], false))
	}

	contacts := make([]VirtualContact, 0, len(buckets))
	for key, group := range buckets {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].CreatedAt.After(group[j].CreatedAt)
		})
		mostRecent := group[0]

		seen := make(map[uint64]struct{})
		tags := make([]db.Tag, 0)
		for i := range group {
			for _, tag := range group[i].Tags {
				if _, ok := seen[tag.ID]; ok {
					continue
				}
				seen[tag.ID] = struct{}{}
				tags = append(tags, tag)
			}
		}

		contacts = append(contacts, VirtualContact{
			Key:        key,
			Name:       mostRecent.Name,
			Company:    mostRecent.Company,
			Title:      mostRecent.Title,
			Email:      mostRecent.Email,
			Phone:      mostRecent.Phone,
			Tags:       tags,
			LogEntries: group,
		})
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return virtualNameCollator.CompareString(virtualName(contacts[i]), virtualName(contacts[j])) < 0
	})

	return contacts, nil
}

func virtualName(c VirtualContact) string {
	if c.Name == nil {
		return ""
	}
	return *c.Name
}
