package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/track-connections/connect-back/internal/db"
)

func TestLogEntryCreateNewContact(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	entry, err := s.LogEntryCreate(user.ID, ContactFields{
		Name:  strp("Ada"),
		Email: strp("a@x.com"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, entry.ContactID)

	contact := db.Contact{}
	require.NoError(t, s.db.First(&contact, *entry.ContactID).Error)
	require.NotNil(t, contact.Email)
	assert.Equal(t, "a@x.com", *contact.Email)
	assert.Equal(t, user.ID, contact.UserID)
	assert.False(t, contact.IsFavorite)
}

func TestLogEntryCreateReusesContactByPhone(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	existing, err := s.ContactCreate(user.ID, ContactFields{
		Name:  strp("Grace"),
		Phone: strp("555-1111"),
	})
	require.NoError(t, err)

	entry, err := s.LogEntryCreate(user.ID, ContactFields{
		Phone: strp("555-1111"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, entry.ContactID)
	assert.Equal(t, existing.ID, *entry.ContactID)

	var count int64
	require.NoError(t, s.db.Model(&db.Contact{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogEntryCreateEmailMatchWinsOverPhone(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	byPhone, err := s.ContactCreate(user.ID, ContactFields{Phone: strp("555-2222")})
	require.NoError(t, err)
	byEmail, err := s.ContactCreate(user.ID, ContactFields{Email: strp("b@y.com")})
	require.NoError(t, err)

	entry, err := s.LogEntryCreate(user.ID, ContactFields{
		Email: strp("b@y.com"),
		Phone: strp("555-2222"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, entry.ContactID)
	assert.Equal(t, byEmail.ID, *entry.ContactID)
	assert.NotEqual(t, byPhone.ID, *entry.ContactID)
}

func TestLogEntryCreateAnonymous(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	entry, err := s.LogEntryCreate(user.ID, ContactFields{
		Notes: strp("met someone at the gym, no details"),
	}, nil)
	require.NoError(t, err)
	assert.Nil(t, entry.ContactID)

	var count int64
	require.NoError(t, s.db.Model(&db.Contact{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestLogEntryCreateExplicitContactID(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	contact, err := s.ContactCreate(user.ID, ContactFields{Email: strp("c@z.com")})
	require.NoError(t, err)

	// The explicit id is used verbatim, even though the email would match a
	// different contact.
	other, err := s.ContactCreate(user.ID, ContactFields{Email: strp("d@z.com")})
	require.NoError(t, err)

	entry, err := s.LogEntryCreate(user.ID, ContactFields{
		ContactID: &contact.ID,
		Email:     other.Email,
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, entry.ContactID)
	assert.Equal(t, contact.ID, *entry.ContactID)
}

func TestLogEntryCreateDoesNotCrossUsers(t *testing.T) {
	s, _ := newTestService(t)
	owner := seedUser(t, s, "owner@example.com")
	other := seedUser(t, s, "other@example.com")

	theirs, err := s.ContactCreate(other.ID, ContactFields{Email: strp("shared@x.com")})
	require.NoError(t, err)

	entry, err := s.LogEntryCreate(owner.ID, ContactFields{Email: strp("shared@x.com")}, nil)
	require.NoError(t, err)
	require.NotNil(t, entry.ContactID)
	assert.NotEqual(t, theirs.ID, *entry.ContactID)
}

func TestLogEntryCreateSurvivesResolverFailure(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	// Break the contact store so both lookup and creation fail. Entry
	// creation must still succeed, just without a link.
	require.NoError(t, s.db.Migrator().DropTable(&db.Contact{}))

	entry, err := s.LogEntryCreate(user.ID, ContactFields{Email: strp("a@x.com")}, nil)
	require.NoError(t, err)
	assert.Nil(t, entry.ContactID)
	require.NotNil(t, entry.Email)
	assert.Equal(t, "a@x.com", *entry.Email)
}
