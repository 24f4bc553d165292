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

// DMEngine consumes "send direct message" jobs queued by the reply engine.
// Same shape as ReplyEngine but narrower: resolve the DM template,
// substitute variables, send through the platform client, log the outcome.
type DMEngine struct {
	accounts  repository.AccountRepository
	templates repository.TemplateRepository
	logs      repository.LogRepository
	client    PlatformAPI
}

// NewDMEngine wires a DM engine from its collaborators.
func NewDMEngine(repos *repository.Repositories, client PlatformAPI) *DMEngine {
	return &DMEngine{
		accounts:  repos.Account,
		templates: repos.Template,
		logs:      repos.Log,
		client:    client,
	}
}

// SendDM resolves and sends one direct message, returning the terminal
// outcome tag. Configuration errors (missing template, no connected
// account) are logged FAILED and not retried; upstream failures propagate
// so the queue retries them.
func (e *DMEngine) SendDM(ctx context.Context, tenantID uint, recipientID, username string, dmTemplateID uint) (Outcome, error) {
	template, err := e.templates.GetByID(tenantID, dmTemplateID, models.TEMPLATE_KIND_DM)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[DMEngine] DM template %d not found for tenant %d", dmTemplateID, tenantID)
			e.logDM(tenantID, recipientID, username, "", models.LOG_STATUS_FAILED, "dm template not found")
			return OutcomeFailed, nil
		}
		return OutcomeReceived, fmt.Errorf("template lookup failed: %w", err)
	}

	account, err := e.accounts.GetLatestByTenantID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[DMEngine] No platform account connected for tenant %d", tenantID)
			e.logDM(tenantID, recipientID, username, "", models.LOG_STATUS_FAILED, "no platform account connected")
			return OutcomeFailed, nil
		}
		return OutcomeReceived, fmt.Errorf("account lookup failed: %w", err)
	}

	messageText := ReplaceVariables(template.Body, map[string]string{
		"username":     username,
		"recipient_id": recipientID,
	})

	if err := e.client.SendDirectMessage(ctx, account.AccessToken, account.PlatformID, recipientID, messageText); err != nil {
		log.Errorf("[DMEngine] Error sending DM to @%s: %v", username, err)
		e.logDM(tenantID, recipientID, username, "", models.LOG_STATUS_FAILED, err.Error())
		return OutcomeFailed, err
	}

	e.logDM(tenantID, recipientID, username, messageText, models.LOG_STATUS_SUCCESS, "")
	e.logAutomation(tenantID, fmt.Sprintf("Sent DM to @%s", username))

	return OutcomeSuccess, nil
}

func (e *DMEngine) logDM(tenantID uint, recipientID, username, messageText, status, errMsg string) {
	entry := &models.DMLog{
		TenantID:    tenantID,
		RecipientID: recipientID,
		Username:    username,
		MessageText: messageText,
		Status:      status,
		Error:       errMsg,
	}
	if err := e.logs.CreateDMLog(entry); err != nil {
		log.Errorf("[DMEngine] Failed to write DM log for @%s: %v", username, err)
	}
}

func (e *DMEngine) logAutomation(tenantID uint, details string) {
	entry := &models.AutomationLog{
		TenantID: tenantID,
		Action:   models.AUTOMATION_ACTION_SEND_DM,
		Details:  details,
		Status:   models.LOG_STATUS_SUCCESS,
	}
	if err := e.logs.CreateAutomationLog(entry); err != nil {
		log.Errorf("[DMEngine] Failed to write automation log for tenant %d: %v", tenantID, err)
	}
}
