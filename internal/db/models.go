package db

import (
	"time"
)

type (
	GormForkedModel struct {
		ID        uint64    `gorm:"primarykey" json:"id"`
		CreatedAt time.Time `json:"created_at"`
		UpdatedAt time.Time `json:"updated_at"`
	}

	User struct {
		GormForkedModel
		Name       string     `gorm:"not null" json:"name"`
		Email      string     `gorm:"unique;not null" json:"email"`
		Password   string     `gorm:"not null" json:"-"`
		Token      string     `gorm:"not null" json:"-"`
		Contacts   []Contact  `json:"-"`
		LogEntries []LogEntry `json:"-"`
		Tags       []Tag      `json:"-"`
		Media      []Media    `json:"-"`
	}

	Contact struct {
		GormForkedModel
		Name       *string `json:"name,omitempty"`
		Company    *string `json:"company,omitempty"`
		Title      *string `json:"title,omitempty"`
		Email      *string `json:"email,omitempty"`
		Phone      *string `json:"phone,omitempty"`
		Notes      *string `json:"notes,omitempty"`
		WhereMet   *string `json:"where_met,omitempty"`
		IsFavorite bool    `gorm:"not null;default:false" json:"is_favorite"`
		UserID     uint64  `gorm:"not null;index" json:"user_id"`
		User       User    `json:"-"`
	}

	LogEntry struct {
		GormForkedModel
		Name       *string `json:"name,omitempty"`
		Company    *string `json:"company,omitempty"`
		Title      *string `json:"title,omitempty"`
		Email      *string `json:"email,omitempty"`
		Phone      *string `json:"phone,omitempty"`
		Notes      *string `json:"notes,omitempty"`
		WhereMet   *string `json:"where_met,omitempty"`
		IsFavorite bool    `gorm:"not null;default:false" json:"is_favorite"`
		UserID     uint64  `gorm:"not null;index" json:"user_id"`
		User       User    `json:"-"`
		// Weak reference, no FK constraint: the contact may be deleted while
		// the entry keeps pointing at the old id.
		ContactID *uint64 `gorm:"index" json:"contact_id,omitempty"`
	}

	Tag struct {
		GormForkedModel
		Name   string  `gorm:"not null;uniqueIndex:uidx_name_user_id" json:"name"`
		Color  *string `json:"color,omitempty"`
		UserID uint64  `gorm:"not null;uniqueIndex:uidx_name_user_id" json:"user_id"`
		User   User    `json:"-"`
	}

	LogEntryTag struct {
		ID         uint64    `gorm:"primarykey" json:"id"`
		LogEntryID uint64    `gorm:"not null;uniqueIndex:uidx_log_entry_tag" json:"log_entry_id"`
		TagID      uint64    `gorm:"not null;uniqueIndex:uidx_log_entry_tag" json:"tag_id"`
		CreatedAt  time.Time `json:"created_at"`
	}

	Media struct {
		GormForkedModel
		URL        string `gorm:"not null" json:"url"`
		StorageKey string `gorm:"not null" json:"storage_key"`
		FileType   string `gorm:"not null" json:"file_type"`
		Size       int64  `gorm:"not null" json:"size"`
		UserID     uint64 `gorm:"not null;index" json:"user_id"`
		User       User   `json:"-"`
		// Null until the upload is claimed by a log entry.
		LogEntryID *uint64 `gorm:"index" json:"log_entry_id,omitempty"`
	}

	MessageTemplate struct {
		GormForkedModel
		UserID        uint64  `gorm:"not null;uniqueIndex" json:"user_id"`
		User          User    `json:"-"`
		EmailTemplate *string `json:"email_template,omitempty"`
		SMSTemplate   *string `json:"sms_template,omitempty"`
	}
)
