package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/jobqueue"
)

// Delivery is the platform's webhook POST body:
// {object, entry: [{id, changes: [{field, value}]}]}.
type Delivery struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry groups the changes for one platform account.
type Entry struct {
	ID      string   `json:"id"`
	Time    int64    `json:"time"`
	Changes []Change `json:"changes"`
}

// Change is one changed field with its opaque value document.
type Change struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// ErrNoPlatformAccount is returned by Replay when the tenant has no
// connected platform account to execute the event against.
var ErrNoPlatformAccount = errors.New("tenant has no platform account")

// Enqueuer is the slice of the queue manager the ingestor needs.
type Enqueuer interface {
	EnqueueWebhook(payload *jobqueue.ProcessWebhookPayload) (*jobqueue.Job, error)
}

// Ingestor records accepted webhook deliveries and dispatches one job per
// changed field. Recording happens before enqueueing: a crash after the
// event row exists but before the job does is recoverable through the
// retry endpoint, while the reverse gap cannot occur.
type Ingestor struct {
	accounts repository.AccountRepository
	events   repository.EventRepository
	queue    Enqueuer
}

// NewIngestor creates an ingestor over the injected collaborators.
func NewIngestor(repos *repository.Repositories, queue Enqueuer) *Ingestor {
	return &Ingestor{
		accounts: repos.Account,
		events:   repos.Event,
		queue:    queue,
	}
}

// Ingest processes one delivery body and returns how many events were
// recorded. Unknown platform accounts are dropped with a warning - there is
// no tenant to retry against.
func (i *Ingestor) Ingest(body []byte) (int, error) {
	var delivery Delivery
	if err := json.Unmarshal(body, &delivery); err != nil {
		return 0, fmt.Errorf("invalid delivery body: %w", err)
	}
	if delivery.Object != "instagram" {
		log.Debugf("[Webhook] Ignoring delivery for object %q", delivery.Object)
		return 0, nil
	}

	recorded := 0
	for _, entry := range delivery.Entry {
		account, err := i.accounts.GetByPlatformID(entry.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Warnf("[Webhook] Received delivery for unknown account: %s", entry.ID)
				continue
			}
			return recorded, fmt.Errorf("account lookup failed for %s: %w", entry.ID, err)
		}

		for _, change := range entry.Changes {
			n, err := i.recordChange(account, change)
			if err != nil {
				return recorded, err
			}
			recorded += n
		}
	}
	return recorded, nil
}

// recordChange persists the event row first, then enqueues its job.
func (i *Ingestor) recordChange(account *models.PlatformAccount, change Change) (int, error) {
	event := &models.WebhookEvent{
		TenantID:  account.TenantID,
		Type:      change.Field,
		Payload:   string(change.Value),
		Processed: false,
	}
	if err := i.events.Create(event); err != nil {
		return 0, fmt.Errorf("failed to record webhook event: %w", err)
	}

	if _, err := i.queue.EnqueueWebhook(&jobqueue.ProcessWebhookPayload{
		TenantID:          account.TenantID,
		PlatformAccountID: account.PlatformID,
		AccessToken:       account.AccessToken,
		EventID:           event.ID,
		Field:             change.Field,
		Value:             change.Value,
	}); err != nil {
		// The event row exists, so the retry endpoint can re-dispatch it.
		log.Errorf("[Webhook] Failed to enqueue job for event %d: %v", event.ID, err)
		return 1, nil
	}

	return 1, nil
}

// Replay re-enqueues a stored event and resets its processed flag. This is
// the operator remediation path for dead-lettered or stranded events.
func (i *Ingestor) Replay(tenantID uint, eventID uint) (*models.WebhookEvent, error) {
	event, err := i.events.GetByTenantID(tenantID, eventID)
	if err != nil {
		return nil, err
	}

	account, err := i.accounts.GetLatestByTenantID(tenantID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoPlatformAccount
		}
		return nil, err
	}

	if _, err := i.queue.EnqueueWebhook(&jobqueue.ProcessWebhookPayload{
		TenantID:          event.TenantID,
		PlatformAccountID: account.PlatformID,
		AccessToken:       account.AccessToken,
		EventID:           event.ID,
		Field:             event.Type,
		Value:             json.RawMessage(event.Payload),
	}); err != nil {
		return nil, fmt.Errorf("failed to re-enqueue event %d: %w", eventID, err)
	}

	if err := i.events.MarkProcessed(event.ID, false); err != nil {
		return nil, fmt.Errorf("failed to reset processed flag on event %d: %w", eventID, err)
	}
	event.Processed = false

	return event, nil
}
