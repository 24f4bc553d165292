package jobqueue

import (
	"context"

	"github.com/gofiber/fiber/v2/log"
)

// processDMJob handles one send_dm job via the DM engine.
func (m *Manager) processDMJob(ctx context.Context, job *Job) error {
	payload, err := SendDMPayloadFromJSON(job.Payload)
	if err != nil {
		return err
	}

	outcome, err := m.dmEngine.SendDM(ctx, payload.TenantID, payload.RecipientID, payload.Username, payload.DMTemplateID)
	if err != nil {
		return err
	}
	log.Debugf("[JobQueue:%s] DM to @%s finished with outcome %s", DMQueueName, payload.Username, outcome)
	return nil
}
