package jobqueue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// JobType defines the type of job
type JobType string

const (
	JobTypeProcessWebhook JobType = "process_webhook"
	JobTypeSendDM         JobType = "send_dm"
)

// JobStatus defines the status of a job
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusRetrying   JobStatus = "retrying"
	JobStatusDead       JobStatus = "dead"
)

// Job represents one durable unit of deferred work. The payload is a member
// of a closed union (ProcessWebhookPayload | SendDMPayload) validated at
// enqueue time, so a malformed job can never reach a worker.
type Job struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      JobStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	ProcessedAt *time.Time      `json:"processed_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	ErrorMsg    string          `json:"error_msg,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`

	// ScheduledFor is set while the job waits out a retry backoff. The id
	// sits in the queue's scheduled set until this time passes.
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
}

// ProcessWebhookPayload carries one recorded webhook change to a worker.
type ProcessWebhookPayload struct {
	TenantID          uint            `json:"tenant_id" validate:"required"`
	PlatformAccountID string          `json:"platform_account_id" validate:"required"`
	AccessToken       string          `json:"access_token" validate:"required"`
	EventID           uint            `json:"event_id" validate:"required"`
	Field             string          `json:"field" validate:"required"`
	Value             json.RawMessage `json:"value" validate:"required"`
}

// SendDMPayload carries a follow-up direct message to a worker.
type SendDMPayload struct {
	TenantID     uint   `json:"tenant_id" validate:"required"`
	RecipientID  string `json:"recipient_id" validate:"required"`
	Username     string `json:"username"`
	DMTemplateID uint   `json:"dm_template_id" validate:"required"`
}

var payloadValidator = validator.New()

// ValidatePayload rejects malformed payloads before they are stored.
func ValidatePayload(payload interface{}) error {
	if err := payloadValidator.Struct(payload); err != nil {
		return fmt.Errorf("invalid job payload: %w", err)
	}
	return nil
}

// ProcessWebhookPayloadFromJSON decodes and re-validates a stored payload.
func ProcessWebhookPayloadFromJSON(data json.RawMessage) (*ProcessWebhookPayload, error) {
	var payload ProcessWebhookPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse process_webhook payload: %w", err)
	}
	if err := ValidatePayload(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// SendDMPayloadFromJSON decodes and re-validates a stored payload.
func SendDMPayloadFromJSON(data json.RawMessage) (*SendDMPayload, error) {
	var payload SendDMPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse send_dm payload: %w", err)
	}
	if err := ValidatePayload(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// IsRetryable checks if the job has attempts left
func (j *Job) IsRetryable() bool {
	return j.Status == JobStatusFailed && j.Attempts < j.MaxAttempts
}

// MarkAsProcessing updates the job status to processing and counts the attempt
func (j *Job) MarkAsProcessing() {
	now := time.Now()
	j.Status = JobStatusProcessing
	j.UpdatedAt = now
	j.ProcessedAt = &now
	j.ScheduledFor = nil
	j.Attempts++
}

// MarkAsCompleted updates the job status to completed
func (j *Job) MarkAsCompleted() {
	now := time.Now()
	j.Status = JobStatusCompleted
	j.UpdatedAt = now
	j.CompletedAt = &now
	j.ErrorMsg = ""
}

// MarkAsFailed updates the job status to failed
func (j *Job) MarkAsFailed(errorMsg string) {
	j.Status = JobStatusFailed
	j.UpdatedAt = time.Now()
	j.ErrorMsg = errorMsg
}

// MarkAsRetrying updates the job status to retrying and records when the
// next attempt becomes due
func (j *Job) MarkAsRetrying(at time.Time) {
	j.Status = JobStatusRetrying
	j.UpdatedAt = time.Now()
	j.ScheduledFor = &at
}

// MarkAsDead moves the job to its terminal failed state
func (j *Job) MarkAsDead() {
	j.Status = JobStatusDead
	j.UpdatedAt = time.Now()
}

// BackoffFor returns the delay before the given retry attempt. Exponential
// from the queue's base delay, so successive intervals never decrease.
func BackoffFor(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return base * time.Duration(1<<(attempt-1))
}
