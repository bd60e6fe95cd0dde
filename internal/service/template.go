package service

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/track-connections/connect-back/internal/db"
)

// Stock templates returned (and seeded) when a user has none saved yet.
// Token substitution happens client side.
const (
	defaultEmailTemplate = "Hi [Name], It was great meeting you at [Event]. I'd love to connect and discuss [Topic] further. Best regards, [Your Name]"
	defaultSMSTemplate   = "Hi [Name], it's [Your Name] from [Event]. Great meeting you! Let's connect soon."
)

func (s *General) TemplateGet(userID uint64) (*db.MessageTemplate, error) {
	model := db.MessageTemplate{}
	res := s.db.Where("user_id = ?", userID).First(&model)
	if res.Error != nil {
		if res.Error == gorm.ErrRecordNotFound {
			email := defaultEmailTemplate
			sms := defaultSMSTemplate
			return &db.MessageTemplate{
				UserID:        userID,
				EmailTemplate: &email,
				SMSTemplate:   &sms,
			}, nil
		}
		return nil, res.Error
	}

	return &model, nil
}

// TemplateUpsert writes the user's single template row, creating it with the
// stock texts when the caller passes nil.
func (s *General) TemplateUpsert(userID uint64, emailTemplate, smsTemplate *string) (*db.MessageTemplate, error) {
	if emailTemplate == nil {
		v := defaultEmailTemplate
		emailTemplate = &v
	}
	if smsTemplate == nil {
		v := defaultSMSTemplate
		smsTemplate = &v
	}

	model := db.MessageTemplate{}
	res := s.db.Where("user_id = ?", userID).First(&model)
	if res.Error != nil {
		if res.Error != gorm.ErrRecordNotFound {
			return nil, res.Error
		}
		model = db.MessageTemplate{
			UserID:        userID,
			EmailTemplate: emailTemplate,
			SMSTemplate:   smsTemplate,
		}
		if res := s.db.Create(&model); res.Error != nil {
			return nil, errors.Wrap(res.Error, "create template")
		}
		return &model, nil
	}

	res = s.db.Model(&model).Updates(&db.MessageTemplate{
		EmailTemplate: emailTemplate,
		SMSTemplate:   smsTemplate,
	})
	if res.Error != nil {
		return nil, errors.Wrap(res.Error, "update template")
	}

	return &model, nil
}
