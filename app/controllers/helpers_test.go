package controllers

import (
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/jobqueue"
	"github.com/ReplyHive/ReplyHive/internal/pkg/webhook"
)

type stubAccountRepo struct {
	accounts map[string]*models.PlatformAccount
}

func (s *stubAccountRepo) Create(*models.PlatformAccount) error { return nil }
func (s *stubAccountRepo) GetByID(uint) (*models.PlatformAccount, error) {
	return nil, gorm.ErrRecordNotFound
}
func (s *stubAccountRepo) GetByPlatformID(platformID string) (*models.PlatformAccount, error) {
	if account, ok := s.accounts[platformID]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubAccountRepo) GetLatestByTenantID(tenantID uint) (*models.PlatformAccount, error) {
	for _, account := range s.accounts {
		if account.TenantID == tenantID {
			return account, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubAccountRepo) Update(*models.PlatformAccount) error { return nil }
func (s *stubAccountRepo) CountByTenantID(uint) (int64, error)  { return 0, nil }

type stubEventRepo struct {
	nextID uint
	events []*models.WebhookEvent
}

func (s *stubEventRepo) Create(event *models.WebhookEvent) error {
	s.nextID++
	event.ID = s.nextID
	s.events = append(s.events, event)
	return nil
}
func (s *stubEventRepo) GetByID(id uint) (*models.WebhookEvent, error) {
	for _, event := range s.events {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubEventRepo) GetByTenantID(tenantID uint, id uint) (*models.WebhookEvent, error) {
	for _, event := range s.events {
		if event.ID == id && event.TenantID == tenantID {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubEventRepo) List(tenantID uint, processed *bool, eventType string, offset, limit int) ([]models.WebhookEvent, int64, error) {
	var matched []models.WebhookEvent
	for _, event := range s.events {
		if event.TenantID != tenantID {
			continue
		}
		if processed != nil && event.Processed != *processed {
			continue
		}
		if eventType != "" && event.Type != eventType {
			continue
		}
		matched = append(matched, *event)
	}
	total := int64(len(matched))
	if offset >= len(matched) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], total, nil
}
func (s *stubEventRepo) MarkProcessed(id uint, processed bool) error {
	for _, event := range s.events {
		if event.ID == id {
			event.Processed = processed
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

type stubEnqueuer struct {
	payloads []*jobqueue.ProcessWebhookPayload
	err      error
}

func (s *stubEnqueuer) EnqueueWebhook(payload *jobqueue.ProcessWebhookPayload) (*jobqueue.Job, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.payloads = append(s.payloads, payload)
	return &jobqueue.Job{ID: "job-1"}, nil
}

func newTestIngestor(accounts map[string]*models.PlatformAccount) (*webhook.Ingestor, *stubEventRepo, *stubEnqueuer) {
	events := &stubEventRepo{}
	queue := &stubEnqueuer{}
	repos := &repository.Repositories{
		Account: &stubAccountRepo{accounts: accounts},
		Event:   events,
	}
	return webhook.NewIngestor(repos, queue), events, queue
}
