package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
	"github.com/ReplyHive/ReplyHive/app/repository"
)

// ReplyEngine consumes "comment created" jobs: it checks the tenant's quota,
// resolves the configured reply template, posts a public reply through the
// platform client and optionally queues a follow-up DM.
//
// Every terminal path writes exactly one ReplyLog row. A returned non-nil
// error asks the job queue to retry; configuration errors are swallowed
// after logging because retrying cannot fix missing configuration.
type ReplyEngine struct {
	accounts  repository.AccountRepository
	templates repository.TemplateRepository
	logs      repository.LogRepository
	gate      QuotaGate
	client    PlatformAPI
	dms       DMDispatcher
}

// NewReplyEngine wires a reply engine from its collaborators.
func NewReplyEngine(repos *repository.Repositories, gate QuotaGate, client PlatformAPI, dms DMDispatcher) *ReplyEngine {
	return &ReplyEngine{
		accounts:  repos.Account,
		templates: repos.Template,
		logs:      repos.Log,
		gate:      gate,
		client:    client,
		dms:       dms,
	}
}

// ProcessComment runs the reply state machine for one comment event and
// returns the terminal outcome tag.
func (e *ReplyEngine) ProcessComment(ctx context.Context, tenantID uint, platformAccountID, accessToken string, event CommentEvent) (Outcome, error) {
	ok, err := e.gate.CanAutomate(tenantID)
	if err != nil {
		return OutcomeReceived, fmt.Errorf("quota check failed: %w", err)
	}
	if !ok {
		log.Warnf("[ReplyEngine] Tenant %d has exceeded its automation quota", tenantID)
		e.logReply(tenantID, event, models.LOG_STATUS_SKIPPED, "automation quota exceeded", "")
		return OutcomeSkipped, nil
	}

	// Re-read the account so a toggle flipped after enqueue still wins.
	account, err := e.accounts.GetByPlatformID(platformAccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[ReplyEngine] Platform account %s no longer exists", platformAccountID)
			return OutcomeSkipped, nil
		}
		return OutcomeReceived, fmt.Errorf("account lookup failed: %w", err)
	}
	if !account.EnableAutoReply {
		// Disabling auto-reply is a legitimate tenant choice, not an error.
		log.Infof("[ReplyEngine] Auto-reply disabled for account %s", platformAccountID)
		return OutcomeSkipped, nil
	}

	template, err := e.resolveReplyTemplate(tenantID, account.ReplyTemplateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[ReplyEngine] No reply template configured for tenant %d", tenantID)
			e.logReply(tenantID, event, models.LOG_STATUS_FAILED, "no reply template configured", "")
			return OutcomeFailed, nil
		}
		return OutcomeReceived, fmt.Errorf("template lookup failed: %w", err)
	}

	replyText := ReplaceVariables(template.Body, map[string]string{
		"username": event.From.Username,
		"comment":  event.Text,
	})

	if err := e.client.ReplyToComment(ctx, accessToken, event.ID, replyText); err != nil {
		log.Errorf("[ReplyEngine] Error posting reply to comment %s: %v", event.ID, err)
		e.logReply(tenantID, event, models.LOG_STATUS_FAILED, err.Error(), "")
		// Transient upstream failure: the queue decides whether to retry.
		return OutcomeFailed, err
	}

	e.logReply(tenantID, event, models.LOG_STATUS_SUCCESS, "", replyText)

	if account.DMTemplateID != nil {
		if err := e.dms.DispatchDM(tenantID, event.From.ID, event.From.Username, *account.DMTemplateID); err != nil {
			// The reply already went out; a lost DM is not worth a duplicate reply.
			log.Errorf("[ReplyEngine] Failed to queue DM for comment %s: %v", event.ID, err)
		}
	}

	e.logAutomation(tenantID, models.AUTOMATION_ACTION_COMMENT_REPLY,
		fmt.Sprintf("Replied to comment %s from @%s", event.ID, event.From.Username))

	return OutcomeSuccess, nil
}

// resolveReplyTemplate prefers the account-specific template id and falls
// back to the tenant's default REPLY template only when no id is set.
func (e *ReplyEngine) resolveReplyTemplate(tenantID uint, templateID *uint) (*models.Template, error) {
	if templateID != nil {
		return e.templates.GetByID(tenantID, *templateID, models.TEMPLATE_KIND_REPLY)
	}
	return e.templates.GetDefault(tenantID, models.TEMPLATE_KIND_REPLY)
}

func (e *ReplyEngine) logReply(tenantID uint, event CommentEvent, status, errMsg, replyText string) {
	entry := &models.ReplyLog{
		TenantID:  tenantID,
		CommentID: event.ID,
		MediaID:   event.Media.ID,
		Username:  event.From.Username,
		ReplyText: replyText,
		Status:    status,
		Error:     errMsg,
	}
	if err := e.logs.CreateReplyLog(entry); err != nil {
		log.Errorf("[ReplyEngine] Failed to write reply log for comment %s: %v", event.ID, err)
	}
}

func (e *ReplyEngine) logAutomation(tenantID uint, action, details string) {
	entry := &models.AutomationLog{
		TenantID: tenantID,
		Action:   action,
		Details:  details,
		Status:   models.LOG_STATUS_SUCCESS,
	}
	if err := e.logs.CreateAutomationLog(entry); err != nil {
		log.Errorf("[ReplyEngine] Failed to write automation log for tenant %d: %v", tenantID, err)
	}
}
