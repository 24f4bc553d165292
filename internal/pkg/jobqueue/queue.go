package jobqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// Job settings
	DefaultMaxAttempts = 3
	JobTTL             = 24 * time.Hour // Job records expire after 24 hours
	DeadListMaxLength  = 1000           // Terminal failures kept for operators
)

// Handler processes one claimed job. Returning an error requests a retry
// (the queue is the sole authority on whether one happens); handlers signal
// "do not retry" by logging the outcome themselves and returning nil.
type Handler func(ctx context.Context, job *Job) error

// TerminalFunc is invoked once a job reaches a terminal state, with success
// true for completion and false for dead-lettering.
type TerminalFunc func(job *Job, success bool)

// Queue is a durable, at-least-once work queue backed by Redis lists.
// Pending job ids sit in a list, claims move them atomically into a
// processing list (BRPopLPush), retries wait in a sorted set scored by their
// due time, and a sweeper requeues entries whose worker died mid-flight.
// Delivery order across jobs is not guaranteed.
type Queue struct {
	name        string
	client      *redis.Client
	workers     int
	baseBackoff time.Duration
	handler     Handler
	onTerminal  TerminalFunc
	limiter     *RateLimiter

	workerPool chan struct{}
	stopCh     chan struct{}
	wg         sync.WaitGroup
	mu         sync.Mutex
	running    bool
}

// QueueOptions configures a named queue.
type QueueOptions struct {
	Workers     int
	BaseBackoff time.Duration
	Handler     Handler
	OnTerminal  TerminalFunc
	Limiter     *RateLimiter
}

// NewQueue creates a named job queue on the given Redis client.
func NewQueue(name string, client *redis.Client, opts QueueOptions) *Queue {
	workers := opts.Workers
	if workers <= 0 {
		workers = 3
	}
	backoff := opts.BaseBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &Queue{
		name:        name,
		client:      client,
		workers:     workers,
		baseBackoff: backoff,
		handler:     opts.Handler,
		onTerminal:  opts.OnTerminal,
		limiter:     opts.Limiter,
		workerPool:  make(chan struct{}, workers),
		stopCh:      make(chan struct{}),
	}
}

// Name returns the queue name.
func (q *Queue) Name() string {
	return q.name
}

func (q *Queue) pendingKey() string    { return fmt.Sprintf("jobs:%s:pending", q.name) }
func (q *Queue) processingKey() string { return fmt.Sprintf("jobs:%s:processing", q.name) }
func (q *Queue) scheduledKey() string  { return fmt.Sprintf("jobs:%s:scheduled", q.name) }
func (q *Queue) deadKey() string       { return fmt.Sprintf("jobs:%s:dead", q.name) }
func (q *Queue) statsKey() string      { return fmt.Sprintf("jobs:%s:stats", q.name) }
func (q *Queue) jobKey(id string) string {
	return fmt.Sprintf("job:%s:%s", q.name, id)
}

// Start starts the queue workers and the stuck-job sweeper.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[JobQueue:%s] Starting %d workers", q.name, q.workers)

	for i := 0; i < q.workers; i++ {
		q.workerPool <- struct{}{}
	}

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}

	// Visibility timeout: jobs stuck in processing longer than this are
	// redelivered, so a worker crash never strands a claimed job.
	q.wg.Add(1)
	go q.stuckSweeper(10*time.Minute, time.Minute)

	q.wg.Add(1)
	go q.retryScheduler(time.Second)
}

// Stop stops the queue workers and waits for in-flight jobs.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Infof("[JobQueue:%s] Stopping workers...", q.name)
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Infof("[JobQueue:%s] All workers stopped", q.name)
}

// IsRunning reports whether the queue workers are active.
func (q *Queue) IsRunning() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Enqueue validates the typed payload, durably stores the job and makes it
// visible to workers. It returns once the job is stored; delivery happens in
// the background.
func (q *Queue) Enqueue(jobType JobType, payload interface{}) (*Job, error) {
	ctx := context.Background()

	if err := ValidatePayload(payload); err != nil {
		return nil, err
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := &Job{
		ID:          uuid.New().String(),
		Queue:       q.name,
		Type:        jobType,
		Payload:     encoded,
		Status:      JobStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
		Attempts:    0,
		MaxAttempts: DefaultMaxAttempts,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	// Pipeline keeps store + publish atomic from the caller's perspective.
	pipe := q.client.Pipeline()
	pipe.Set(ctx, q.jobKey(job.ID), jobData, JobTTL)
	pipe.LPush(ctx, q.pendingKey(), job.ID)
	pipe.HIncrBy(ctx, q.statsKey(), string(JobStatusPending), 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[JobQueue:%s] Enqueued job %s (Type: %s)", q.name, job.ID, job.Type)
	return job, nil
}

// worker claims and processes jobs until the queue stops
func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[JobQueue:%s] Worker %d started", q.name, id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue:%s] Worker %d stopping", q.name, id)
			return
		default:
			<-q.workerPool

			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[JobQueue:%s] Worker %d: Error dequeuing job: %v", q.name, id, err)
				}
				q.workerPool <- struct{}{}
				time.Sleep(time.Second)
				continue
			}

			if job != nil {
				log.Infof("[JobQueue:%s] Worker %d processing job %s (Type: %s, Attempt: %d/%d)",
					q.name, id, job.ID, job.Type, job.Attempts+1, job.MaxAttempts)
				q.processJob(ctx, job)
			}

			q.workerPool <- struct{}{}
		}
	}
}

// dequeueJob atomically moves the next job id from pending to processing
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), time.Second).Result()
	if err != nil {
		return nil, err
	}

	jobData, err := q.client.Get(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		// Job data expired or missing; drop the stray processing entry.
		q.client.LRem(ctx, q.processingKey(), 1, jobID)
		return nil, fmt.Errorf("job data not found for ID %s", jobID)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		q.client.LRem(ctx, q.processingKey(), 1, jobID)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}

	return &job, nil
}

// processJob runs the handler and applies retry / dead-letter semantics
func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	if q.limiter != nil {
		if err := q.limiter.Acquire(ctx); err != nil {
			// Could not obtain an outbound slot; give the job back untouched.
			log.Warnf("[JobQueue:%s] Rate limiter wait aborted for job %s: %v", q.name, job.ID, err)
			if err := q.requeueJob(ctx, job); err != nil {
				log.Errorf("[JobQueue:%s] Failed to requeue job %s: %v", q.name, job.ID, err)
			}
			return
		}
	}

	err := q.handler(ctx, job)
	if err != nil {
		log.Errorf("[JobQueue:%s] Job %s failed: %v", q.name, job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			delay := BackoffFor(q.baseBackoff, job.Attempts)
			retryAt := time.Now().Add(delay)
			log.Infof("[JobQueue:%s] Retrying job %s in %s (Attempt %d/%d)",
				q.name, job.ID, delay, job.Attempts, job.MaxAttempts)
			job.MarkAsRetrying(retryAt)
			q.updateJob(ctx, job)

			// The id must live in Redis for the whole backoff window, not in
			// an in-process timer. If the scheduled set is unreachable the job
			// goes straight back to pending instead of being dropped.
			entry := redis.Z{Score: float64(retryAt.Unix()), Member: job.ID}
			if err := q.client.ZAdd(ctx, q.scheduledKey(), entry).Err(); err != nil {
				log.Errorf("[JobQueue:%s] Failed to schedule retry for job %s, requeueing now: %v", q.name, job.ID, err)
				if perr := q.client.LPush(ctx, q.pendingKey(), job.ID).Err(); perr != nil {
					log.Errorf("[JobQueue:%s] Failed to requeue job %s: %v", q.name, job.ID, perr)
					return // keep the id in processing so the sweeper recovers it
				}
			}
		} else {
			log.Errorf("[JobQueue:%s] Job %s permanently failed after %d attempts", q.name, job.ID, job.Attempts)
			job.MarkAsDead()
			q.updateJob(ctx, job)
			q.moveToDead(ctx, job.ID)
			q.updateJobStats(ctx, JobStatusDead, 1)
			if q.onTerminal != nil {
				q.onTerminal(job, false)
			}
		}
	} else {
		log.Infof("[JobQueue:%s] Job %s completed successfully", q.name, job.ID)
		job.MarkAsCompleted()
		q.updateJobStats(ctx, JobStatusCompleted, 1)
		// Completed jobs are removed entirely; the stats hash keeps the count.
		q.removeCompletedJob(ctx, job.ID)
		if q.onTerminal != nil {
			q.onTerminal(job, true)
		}
	}

	q.removeFromProcessing(ctx, job.ID)
}

// retryScheduler promotes due entries from the scheduled set to pending
func (q *Queue) retryScheduler(interval time.Duration) {
	defer q.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.promoteDue(ctx)
		}
	}
}

// promoteDue moves every scheduled job whose retry time has passed onto the
// pending list. ZRem acts as the claim: whichever process removes the entry
// pushes the id, so concurrent schedulers never double-deliver.
func (q *Queue) promoteDue(ctx context.Context) {
	now := fmt.Sprintf("%d", time.Now().Unix())
	ids, err := q.client.ZRangeByScore(ctx, q.scheduledKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		log.Errorf("[JobQueue:%s] Scheduler ZRangeByScore error: %v", q.name, err)
		return
	}
	for _, id := range ids {
		removed, err := q.client.ZRem(ctx, q.scheduledKey(), id).Result()
		if err != nil {
			log.Errorf("[JobQueue:%s] Scheduler ZRem error for %s: %v", q.name, id, err)
			continue
		}
		if removed == 0 {
			continue
		}
		if err := q.client.LPush(ctx, q.pendingKey(), id).Err(); err != nil {
			log.Errorf("[JobQueue:%s] Scheduler failed to requeue job %s: %v", q.name, id, err)
			// Put the claim back so the next tick retries the promotion.
			_ = q.client.ZAdd(ctx, q.scheduledKey(), redis.Z{Score: float64(time.Now().Unix()), Member: id}).Err()
		}
	}
}

// stuckSweeper periodically requeues jobs stuck in processing longer than maxAge
func (q *Queue) stuckSweeper(maxAge, interval time.Duration) {
	defer q.wg.Done()
	log.Infof("[JobQueue:%s] Stuck sweeper running (maxAge=%s, interval=%s)", q.name, maxAge, interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	ctx := context.Background()
	for {
		select {
		case <-q.stopCh:
			log.Infof("[JobQueue:%s] Stuck sweeper stopping", q.name)
			return
		case <-ticker.C:
			q.sweepOnce(ctx, maxAge)
		}
	}
}

func (q *Queue) sweepOnce(ctx context.Context, maxAge time.Duration) {
	ids, err := q.client.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		log.Errorf("[JobQueue:%s] Sweeper LRange error: %v", q.name, err)
		return
	}
	now := time.Now()
	for _, id := range ids {
		data, err := q.client.Get(ctx, q.jobKey(id)).Result()
		if err != nil {
			if err != redis.Nil {
				log.Errorf("[JobQueue:%s] Sweeper Get error for %s: %v", q.name, id, err)
			}
			_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
			continue
		}
		var job Job
		if uerr := json.Unmarshal([]byte(data), &job); uerr != nil {
			log.Errorf("[JobQueue:%s] Sweeper unmarshal error for %s: %v", q.name, id, uerr)
			_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
			continue
		}
		if job.Status == JobStatusRetrying {
			// A retrying id normally leaves processing once its scheduled-set
			// entry lands. If the entry is missing the scheduling write never
			// made it; put the job back on pending instead of dropping it.
			if _, zerr := q.client.ZScore(ctx, q.scheduledKey(), id).Result(); zerr == redis.Nil {
				log.Warnf("[JobQueue:%s] Recovering unscheduled retry for job %s", q.name, job.ID)
				_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
				_ = q.client.RPush(ctx, q.pendingKey(), id).Err()
			} else if zerr == nil {
				_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
			}
			continue
		}
		if job.Status != JobStatusProcessing {
			_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
			continue
		}
		started := job.ProcessedAt
		if started == nil || started.IsZero() {
			tmp := job.UpdatedAt
			if tmp.IsZero() {
				tmp = job.CreatedAt
			}
			started = &tmp
		}
		if now.Sub(*started) > maxAge {
			log.Warnf("[JobQueue:%s] Recovering stuck job %s (type=%s), age=%s",
				q.name, job.ID, job.Type, now.Sub(*started))
			job.Status = JobStatusPending
			job.ErrorMsg = "recovered by sweeper"
			job.UpdatedAt = now
			q.updateJob(ctx, &job)
			_ = q.client.LRem(ctx, q.processingKey(), 1, id).Err()
			_ = q.client.RPush(ctx, q.pendingKey(), id).Err()
		}
	}
}

// updateJob persists job state in Redis
func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[JobQueue:%s] Failed to marshal job %s: %v", q.name, job.ID, err)
		return
	}

	if err := q.client.Set(ctx, q.jobKey(job.ID), jobData, JobTTL).Err(); err != nil {
		log.Errorf("[JobQueue:%s] Failed to update job %s: %v", q.name, job.ID, err)
	}
}

// requeueJob moves a job back to the pending list and resets its status
func (q *Queue) requeueJob(ctx context.Context, job *Job) error {
	job.Status = JobStatusPending
	job.Attempts-- // claim did not count; the handler never ran
	job.UpdatedAt = time.Now()
	q.updateJob(ctx, job)
	if err := q.client.LRem(ctx, q.processingKey(), 1, job.ID).Err(); err != nil {
		log.Errorf("[JobQueue:%s] Failed to remove job %s from processing: %v", q.name, job.ID, err)
	}
	return q.client.RPush(ctx, q.pendingKey(), job.ID).Err()
}

// moveToDead pushes a terminally failed job id onto the bounded dead list
func (q *Queue) moveToDead(ctx context.Context, jobID string) {
	pipe := q.client.Pipeline()
	pipe.LPush(ctx, q.deadKey(), jobID)
	pipe.LTrim(ctx, q.deadKey(), 0, DeadListMaxLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Errorf("[JobQueue:%s] Failed to dead-letter job %s: %v", q.name, jobID, err)
	}
}

// removeFromProcessing removes a job id from the processing list
func (q *Queue) removeFromProcessing(ctx context.Context, jobID string) {
	if err := q.client.LRem(ctx, q.processingKey(), 1, jobID).Err(); err != nil {
		log.Errorf("[JobQueue:%s] Failed to remove job %s from processing list: %v", q.name, jobID, err)
	}
}

// removeCompletedJob deletes a completed job record entirely
func (q *Queue) removeCompletedJob(ctx context.Context, jobID string) {
	if err := q.client.Del(ctx, q.jobKey(jobID)).Err(); err != nil {
		log.Errorf("[JobQueue:%s] Failed to remove completed job %s: %v", q.name, jobID, err)
	}
}

// updateJobStats updates the per-status counters
func (q *Queue) updateJobStats(ctx context.Context, status JobStatus, delta int64) {
	if err := q.client.HIncrBy(ctx, q.statsKey(), string(status), delta).Err(); err != nil {
		log.Errorf("[JobQueue:%s] Failed to update job stats: %v", q.name, err)
	}
}

// GetJob retrieves a job by ID
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return nil, err
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}

	return &job, nil
}

// GetStats returns per-status counters for this queue
func (q *Queue) GetStats(ctx context.Context) (map[JobStatus]int64, error) {
	stats, err := q.client.HGetAll(ctx, q.statsKey()).Result()
	if err != nil {
		return nil, err
	}

	result := make(map[JobStatus]int64)
	for status, count := range stats {
		if countInt, err := json.Number(count).Int64(); err == nil {
			result[JobStatus(status)] = countInt
		}
	}

	return result, nil
}

// PendingSize returns the number of pending jobs
func (q *Queue) PendingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pendingKey()).Result()
}

// ProcessingSize returns the number of jobs being processed
func (q *Queue) ProcessingSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.processingKey()).Result()
}

// ScheduledSize returns the number of jobs waiting out a retry backoff
func (q *Queue) ScheduledSize(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.scheduledKey()).Result()
}

// DeadSize returns the number of dead-lettered jobs
func (q *Queue) DeadSize(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.deadKey()).Result()
}
