package jobqueue

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"

	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/engine"
)

const (
	WebhookQueueName = "webhook"
	DMQueueName      = "dm"

	DefaultWebhookWorkers = 5
	DefaultDMWorkers      = 3

	// Backoff bases per task, matching the platform's tolerance: DM sends
	// recover faster than full webhook processing.
	WebhookBackoffBase = 2 * time.Second
	DMBackoffBase      = time.Second

	DefaultRateLimit  = 20
	DefaultRateWindow = time.Minute
)

// ManagerOptions configures the worker pools and the shared outbound limit.
type ManagerOptions struct {
	WebhookWorkers int
	DMWorkers      int
	RateLimit      int
	RateWindow     time.Duration
}

// Manager owns the two durable queues and their worker pools. It is
// constructed once at startup and injected into the handlers; there is no
// package-level singleton.
type Manager struct {
	webhookQueue *Queue
	dmQueue      *Queue
	events       repository.EventRepository
	replyEngine  *engine.ReplyEngine
	dmEngine     *engine.DMEngine

	mu      sync.Mutex
	running bool
}

// NewManager wires the queues, engines and rate limiters together.
func NewManager(client *redis.Client, repos *repository.Repositories, gate engine.QuotaGate, api engine.PlatformAPI, opts ManagerOptions) *Manager {
	if opts.WebhookWorkers <= 0 {
		opts.WebhookWorkers = DefaultWebhookWorkers
	}
	if opts.DMWorkers <= 0 {
		opts.DMWorkers = DefaultDMWorkers
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = DefaultRateWindow
	}

	m := &Manager{
		events: repos.Event,
	}

	m.dmEngine = engine.NewDMEngine(repos, api)
	// The manager itself is the reply engine's DM dispatcher.
	m.replyEngine = engine.NewReplyEngine(repos, gate, api, m)

	m.webhookQueue = NewQueue(WebhookQueueName, client, QueueOptions{
		Workers:     opts.WebhookWorkers,
		BaseBackoff: WebhookBackoffBase,
		Handler:     m.processWebhookJob,
		OnTerminal:  m.finishWebhookJob,
		Limiter:     NewRateLimiter(client, WebhookQueueName, opts.RateLimit, opts.RateWindow),
	})
	m.dmQueue = NewQueue(DMQueueName, client, QueueOptions{
		Workers:     opts.DMWorkers,
		BaseBackoff: DMBackoffBase,
		Handler:     m.processDMJob,
		Limiter:     NewRateLimiter(client, DMQueueName, opts.RateLimit, opts.RateWindow),
	})

	return m
}

// Start starts both worker pools.
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}
	m.running = true

	log.Info("[JobQueue Manager] Starting worker pools")
	m.webhookQueue.Start()
	m.dmQueue.Start()
	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops both worker pools and waits for in-flight jobs.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}
	m.running = false

	log.Info("[JobQueue Manager] Stopping worker pools...")
	m.webhookQueue.Stop()
	m.dmQueue.Stop()
	log.Info("[JobQueue Manager] Stopped successfully")
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// WebhookQueue returns the webhook-processing queue.
func (m *Manager) WebhookQueue() *Queue {
	return m.webhookQueue
}

// DMQueue returns the DM-sending queue.
func (m *Manager) DMQueue() *Queue {
	return m.dmQueue
}

// EnqueueWebhook stores a process_webhook job for a recorded event.
func (m *Manager) EnqueueWebhook(payload *ProcessWebhookPayload) (*Job, error) {
	return m.webhookQueue.Enqueue(JobTypeProcessWebhook, payload)
}

// DispatchDM implements engine.DMDispatcher by enqueuing a send_dm job.
func (m *Manager) DispatchDM(tenantID uint, recipientID, username string, dmTemplateID uint) error {
	_, err := m.dmQueue.Enqueue(JobTypeSendDM, &SendDMPayload{
		TenantID:     tenantID,
		RecipientID:  recipientID,
		Username:     username,
		DMTemplateID: dmTemplateID,
	})
	return err
}

// finishWebhookJob marks the origin event processed once its job reached a
// terminal state, success or dead. A crash before this point leaves the
// event unprocessed and eligible for the manual retry sweep.
func (m *Manager) finishWebhookJob(job *Job, success bool) {
	payload, err := ProcessWebhookPayloadFromJSON(job.Payload)
	if err != nil {
		log.Errorf("[JobQueue Manager] Cannot mark event processed for job %s: %v", job.ID, err)
		return
	}
	if err := m.events.MarkProcessed(payload.EventID, true); err != nil {
		log.Errorf("[JobQueue Manager] Failed to mark event %d processed: %v", payload.EventID, err)
	}
	if !success {
		log.Warnf("[JobQueue Manager] Event %d exhausted its retries (job %s)", payload.EventID, job.ID)
	}
}
