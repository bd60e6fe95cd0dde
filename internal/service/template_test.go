package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/track-connections/connect-back/internal/db"
)

func TestTemplateGetFallsBackToDefaults(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	template, err := s.TemplateGet(user.ID)
	require.NoError(t, err)
	require.NotNil(t, template.EmailTemplate)
	require.NotNil(t, template.SMSTemplate)
	assert.Contains(t, *template.EmailTemplate, "[Name]")
	assert.Contains(t, *template.SMSTemplate, "[Your Name]")
	// Nothing was persisted by the read.
	var count int64
	require.NoError(t, s.db.Model(&db.MessageTemplate{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestTemplateUpsertSingleRow(t *testing.T) {
	s, _ := newTestService(t)
	user := seedUser(t, s, "owner@example.com")

	first, err := s.TemplateUpsert(user.ID, strp("email v1"), strp("sms v1"))
	require.NoError(t, err)

	second, err := s.TemplateUpsert(user.ID, strp("email v2"), strp("sms v2"))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, s.db.Model(&db.MessageTemplate{}).Where("user_id = ?", user.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	template, err := s.TemplateGet(user.ID)
	require.NoError(t, err)
	assert.Equal(t, "email v2", *template.EmailTemplate)
	assert.Equal(t, "sms v2", *template.SMSTemplate)
}
