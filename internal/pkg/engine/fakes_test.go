package engine

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
	"github.com/ReplyHive/ReplyHive/app/repository"
)

// In-memory repository fakes shared by the engine tests.

type fakeAccountRepo struct {
	accounts map[string]*models.PlatformAccount
	err      error
}

func (f *fakeAccountRepo) Create(account *models.PlatformAccount) error { return nil }
func (f *fakeAccountRepo) GetByID(id uint) (*models.PlatformAccount, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) GetByPlatformID(platformID string) (*models.PlatformAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	if account, ok := f.accounts[platformID]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) GetLatestByTenantID(tenantID uint) (*models.PlatformAccount, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, account := range f.accounts {
		if account.TenantID == tenantID {
			return account, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) Update(account *models.PlatformAccount) error { return nil }
func (f *fakeAccountRepo) CountByTenantID(tenantID uint) (int64, error) {
	return int64(len(f.accounts)), nil
}

type fakeTemplateRepo struct {
	templates map[uint]*models.Template
	defaults  map[string]*models.Template
}

func (f *fakeTemplateRepo) Create(template *models.Template) error { return nil }
func (f *fakeTemplateRepo) GetByID(tenantID, id uint, kind string) (*models.Template, error) {
	if template, ok := f.templates[id]; ok && template.TenantID == tenantID && template.Kind == kind {
		return template, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeTemplateRepo) GetDefault(tenantID uint, kind string) (*models.Template, error) {
	if template, ok := f.defaults[kind]; ok && template.TenantID == tenantID {
		return template, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeTemplateRepo) CountByTenantID(tenantID uint) (int64, error) {
	return int64(len(f.templates)), nil
}

type fakeLogRepo struct {
	replyLogs      []*models.ReplyLog
	dmLogs         []*models.DMLog
	automationLogs []*models.AutomationLog
}

func (f *fakeLogRepo) CreateReplyLog(log *models.ReplyLog) error {
	f.replyLogs = append(f.replyLogs, log)
	return nil
}
func (f *fakeLogRepo) CreateDMLog(log *models.DMLog) error {
	f.dmLogs = append(f.dmLogs, log)
	return nil
}
func (f *fakeLogRepo) CreateAutomationLog(log *models.AutomationLog) error {
	f.automationLogs = append(f.automationLogs, log)
	return nil
}
func (f *fakeLogRepo) CountAutomationsSince(tenantID uint, since time.Time) (int64, error) {
	return int64(len(f.automationLogs)), nil
}

type fakeGate struct {
	allow bool
	err   error
}

func (f *fakeGate) CanAutomate(tenantID uint) (bool, error) { return f.allow, f.err }

type platformCall struct {
	accessToken string
	targetID    string
	recipientID string
	message     string
}

type fakePlatform struct {
	replyErr   error
	dmErr      error
	replyCalls []platformCall
	dmCalls    []platformCall
}

func (f *fakePlatform) ReplyToComment(ctx context.Context, accessToken, commentID, message string) error {
	f.replyCalls = append(f.replyCalls, platformCall{accessToken: accessToken, targetID: commentID, message: message})
	return f.replyErr
}

func (f *fakePlatform) SendDirectMessage(ctx context.Context, accessToken, accountID, recipientID, message string) error {
	f.dmCalls = append(f.dmCalls, platformCall{accessToken: accessToken, targetID: accountID, recipientID: recipientID, message: message})
	return f.dmErr
}

type dispatchedDM struct {
	tenantID     uint
	recipientID  string
	username     string
	dmTemplateID uint
}

type fakeDispatcher struct {
	err        error
	dispatched []dispatchedDM
}

func (f *fakeDispatcher) DispatchDM(tenantID uint, recipientID, username string, dmTemplateID uint) error {
	f.dispatched = append(f.dispatched, dispatchedDM{tenantID, recipientID, username, dmTemplateID})
	return f.err
}

func newTestRepos(accounts *fakeAccountRepo, templates *fakeTemplateRepo, logs *fakeLogRepo) *repository.Repositories {
	return &repository.Repositories{
		Account:  accounts,
		Template: templates,
		Log:      logs,
	}
}

func commentFrom(id, text, userID, username, mediaID string) CommentEvent {
	event := CommentEvent{ID: id, Text: text}
	event.From.ID = userID
	event.From.Username = username
	event.Media.ID = mediaID
	return event
}
