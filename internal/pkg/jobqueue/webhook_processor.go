package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ReplyHive/ReplyHive/internal/pkg/engine"
)

// processWebhookJob handles one process_webhook job. Only "comments" changes
// trigger the reply engine today; other fields (mentions, story insights)
// are acknowledged without action so their events still get marked
// processed.
func (m *Manager) processWebhookJob(ctx context.Context, job *Job) error {
	payload, err := ProcessWebhookPayloadFromJSON(job.Payload)
	if err != nil {
		return err
	}

	switch payload.Field {
	case "comments":
		var event engine.CommentEvent
		if err := json.Unmarshal(payload.Value, &event); err != nil {
			return fmt.Errorf("failed to parse comment event: %w", err)
		}
		outcome, err := m.replyEngine.ProcessComment(ctx, payload.TenantID, payload.PlatformAccountID, payload.AccessToken, event)
		if err != nil {
			return err
		}
		log.Debugf("[JobQueue:%s] Comment %s finished with outcome %s", WebhookQueueName, event.ID, outcome)
		return nil
	default:
		log.Infof("[JobQueue:%s] No handler for field %q, acknowledging job %s", WebhookQueueName, payload.Field, job.ID)
		return nil
	}
}
