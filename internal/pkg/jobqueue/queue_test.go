package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ReplyHive/ReplyHive/app/models"
)

func testWebhookPayload(eventID uint) *ProcessWebhookPayload {
	return &ProcessWebhookPayload{
		TenantID:          1,
		PlatformAccountID: "17841400000000000",
		AccessToken:       "test-token",
		EventID:           eventID,
		Field:             "comments",
		Value:             json.RawMessage(`{"id":"c-1"}`),
	}
}

// claimJob pulls the next pending job into processing, as a worker would.
func claimJob(t *testing.T, q *Queue) *Job {
	t.Helper()
	job, err := q.dequeueJob(context.Background())
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

// forceDue rewrites a scheduled entry's score into the past and runs one
// promotion pass, so tests never wait out a real backoff.
func forceDue(t *testing.T, q *Queue, jobID string) {
	t.Helper()
	ctx := context.Background()
	past := redis.Z{Score: float64(time.Now().Add(-time.Minute).Unix()), Member: jobID}
	require.NoError(t, q.client.ZAdd(ctx, q.scheduledKey(), past).Err())
	q.promoteDue(ctx)
}

func TestQueue_RetryWaitsInScheduledSet(t *testing.T) {
	client := newIsolatedRedisClient(t)
	ctx := context.Background()

	q := NewQueue("test-retry", client, QueueOptions{
		Handler: func(ctx context.Context, job *Job) error {
			return errors.New("transient failure")
		},
	})

	enqueued, err := q.Enqueue(JobTypeProcessWebhook, testWebhookPayload(1))
	require.NoError(t, err)

	job := claimJob(t, q)
	q.processJob(ctx, job)

	// The id must survive in Redis for the whole backoff window.
	score, err := client.ZScore(ctx, q.scheduledKey(), enqueued.ID).Result()
	require.NoError(t, err)
	assert.Greater(t, score, float64(time.Now().Add(-time.Second).Unix()))

	pending, err := q.PendingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, pending)
	processing, err := q.ProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	stored, err := q.GetJob(ctx, enqueued.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusRetrying, stored.Status)
	require.NotNil(t, stored.ScheduledFor)

	// Once due, the scheduler hands the id back to pending.
	forceDue(t, q, enqueued.ID)

	scheduled, err := q.ScheduledSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, scheduled)
	pending, err = q.PendingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
}

func TestQueue_DeadLetterAfterMaxAttempts(t *testing.T) {
	client := newIsolatedRedisClient(t)
	ctx := context.Background()

	var terminalJobs []*Job
	var terminalSuccess []bool
	q := NewQueue("test-dead", client, QueueOptions{
		Handler: func(ctx context.Context, job *Job) error {
			return errors.New("permanent failure")
		},
		OnTerminal: func(job *Job, success bool) {
			terminalJobs = append(terminalJobs, job)
			terminalSuccess = append(terminalSuccess, success)
		},
	})

	enqueued, err := q.Enqueue(JobTypeProcessWebhook, testWebhookPayload(2))
	require.NoError(t, err)

	for attempt := 1; attempt <= DefaultMaxAttempts; attempt++ {
		job := claimJob(t, q)
		q.processJob(ctx, job)
		if attempt < DefaultMaxAttempts {
			forceDue(t, q, enqueued.ID)
		}
	}

	stored, err := q.GetJob(ctx, enqueued.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusDead, stored.Status)
	assert.Equal(t, DefaultMaxAttempts, stored.Attempts)

	dead, err := q.DeadSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), dead)
	scheduled, err := q.ScheduledSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, scheduled)
	processing, err := q.ProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	require.Len(t, terminalJobs, 1)
	assert.Equal(t, enqueued.ID, terminalJobs[0].ID)
	assert.False(t, terminalSuccess[0])

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusDead])
}

func TestQueue_CompletedJobCleanedUp(t *testing.T) {
	client := newIsolatedRedisClient(t)
	ctx := context.Background()

	var terminalSuccess []bool
	q := NewQueue("test-done", client, QueueOptions{
		Handler: func(ctx context.Context, job *Job) error {
			return nil
		},
		OnTerminal: func(job *Job, success bool) {
			terminalSuccess = append(terminalSuccess, success)
		},
	})

	enqueued, err := q.Enqueue(JobTypeProcessWebhook, testWebhookPayload(3))
	require.NoError(t, err)

	job := claimJob(t, q)
	q.processJob(ctx, job)

	_, err = q.GetJob(ctx, enqueued.ID)
	assert.ErrorIs(t, err, redis.Nil)

	processing, err := q.ProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	stats, err := q.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[JobStatusCompleted])

	require.Len(t, terminalSuccess, 1)
	assert.True(t, terminalSuccess[0])
}

func TestQueue_SweeperRecoversStuckJob(t *testing.T) {
	client := newIsolatedRedisClient(t)
	ctx := context.Background()

	q := NewQueue("test-sweep", client, QueueOptions{
		Handler: func(ctx context.Context, job *Job) error {
			return nil
		},
	})

	enqueued, err := q.Enqueue(JobTypeProcessWebhook, testWebhookPayload(4))
	require.NoError(t, err)

	// Claim the job, then simulate a worker that died mid-flight: the record
	// says processing, the handler never finished, the id stays claimed.
	job := claimJob(t, q)
	job.MarkAsProcessing()
	started := time.Now().Add(-time.Hour)
	job.ProcessedAt = &started
	q.updateJob(ctx, job)

	q.sweepOnce(ctx, 10*time.Minute)

	pending, err := q.PendingSize(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)
	processing, err := q.ProcessingSize(ctx)
	require.NoError(t, err)
	assert.Zero(t, processing)

	stored, err := q.GetJob(ctx, enqueued.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, stored.Status)
	assert.Equal(t, "recovered by sweeper", stored.ErrorMsg)
}

func TestRateLimiter_Acquire(t *testing.T) {
	client := newIsolatedRedisClient(t)

	limiter := NewRateLimiter(client, "test-limits", 2, time.Hour)

	require.NoError(t, limiter.Acquire(context.Background()))
	require.NoError(t, limiter.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	err := limiter.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

type recordingEventRepo struct {
	markedID        uint
	markedProcessed bool
	calls           int
}

func (r *recordingEventRepo) Create(event *models.WebhookEvent) error       { return nil }
func (r *recordingEventRepo) GetByID(id uint) (*models.WebhookEvent, error) { return nil, nil }
func (r *recordingEventRepo) GetByTenantID(tenantID, id uint) (*models.WebhookEvent, error) {
	return nil, nil
}
func (r *recordingEventRepo) List(tenantID uint, processed *bool, eventType string, offset, limit int) ([]models.WebhookEvent, int64, error) {
	return nil, 0, nil
}
func (r *recordingEventRepo) MarkProcessed(id uint, processed bool) error {
	r.markedID = id
	r.markedProcessed = processed
	r.calls++
	return nil
}

func TestManager_FinishWebhookJob(t *testing.T) {
	payload, err := json.Marshal(testWebhookPayload(42))
	require.NoError(t, err)
	job := &Job{ID: "job-1", Type: JobTypeProcessWebhook, Payload: payload}

	t.Run("success marks event processed", func(t *testing.T) {
		repo := &recordingEventRepo{}
		m := &Manager{events: repo}

		m.finishWebhookJob(job, true)

		assert.Equal(t, 1, repo.calls)
		assert.Equal(t, uint(42), repo.markedID)
		assert.True(t, repo.markedProcessed)
	})

	t.Run("dead letter still marks event processed", func(t *testing.T) {
		repo := &recordingEventRepo{}
		m := &Manager{events: repo}

		m.finishWebhookJob(job, false)

		assert.Equal(t, 1, repo.calls)
		assert.Equal(t, uint(42), repo.markedID)
		assert.True(t, repo.markedProcessed)
	})

	t.Run("corrupt payload leaves event untouched", func(t *testing.T) {
		repo := &recordingEventRepo{}
		m := &Manager{events: repo}

		m.finishWebhookJob(&Job{ID: "job-2", Payload: json.RawMessage(`not json`)}, true)

		assert.Zero(t, repo.calls)
	})
}
