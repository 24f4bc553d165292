package webhook

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ReplyHive/ReplyHive/app/models"
	"github.com/ReplyHive/ReplyHive/app/repository"
	"github.com/ReplyHive/ReplyHive/internal/pkg/jobqueue"
)

type fakeAccountRepo struct {
	accounts map[string]*models.PlatformAccount
}

func (f *fakeAccountRepo) Create(*models.PlatformAccount) error { return nil }
func (f *fakeAccountRepo) GetByID(uint) (*models.PlatformAccount, error) {
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) GetByPlatformID(platformID string) (*models.PlatformAccount, error) {
	if account, ok := f.accounts[platformID]; ok {
		return account, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) GetLatestByTenantID(tenantID uint) (*models.PlatformAccount, error) {
	for _, account := range f.accounts {
		if account.TenantID == tenantID {
			return account, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeAccountRepo) Update(*models.PlatformAccount) error { return nil }
func (f *fakeAccountRepo) CountByTenantID(uint) (int64, error)  { return 0, nil }

type fakeEventRepo struct {
	nextID    uint
	created   []*models.WebhookEvent
	processed map[uint]bool
	createErr error
}

func (f *fakeEventRepo) Create(event *models.WebhookEvent) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	event.ID = f.nextID
	f.created = append(f.created, event)
	return nil
}
func (f *fakeEventRepo) GetByID(id uint) (*models.WebhookEvent, error) {
	for _, event := range f.created {
		if event.ID == id {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEventRepo) GetByTenantID(tenantID uint, id uint) (*models.WebhookEvent, error) {
	for _, event := range f.created {
		if event.ID == id && event.TenantID == tenantID {
			return event, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}
func (f *fakeEventRepo) List(uint, *bool, string, int, int) ([]models.WebhookEvent, int64, error) {
	return nil, 0, nil
}
func (f *fakeEventRepo) MarkProcessed(id uint, processed bool) error {
	if f.processed == nil {
		f.processed = map[uint]bool{}
	}
	f.processed[id] = processed
	return nil
}

type fakeEnqueuer struct {
	payloads []*jobqueue.ProcessWebhookPayload
	err      error
}

func (f *fakeEnqueuer) EnqueueWebhook(payload *jobqueue.ProcessWebhookPayload) (*jobqueue.Job, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.payloads = append(f.payloads, payload)
	return &jobqueue.Job{ID: "job-1", Type: jobqueue.JobTypeProcessWebhook}, nil
}

func ingestFixture(accounts map[string]*models.PlatformAccount) (*Ingestor, *fakeEventRepo, *fakeEnqueuer) {
	events := &fakeEventRepo{}
	queue := &fakeEnqueuer{}
	repos := &repository.Repositories{
		Account: &fakeAccountRepo{accounts: accounts},
		Event:   events,
	}
	return NewIngestor(repos, queue), events, queue
}

const commentDelivery = `{
	"object": "instagram",
	"entry": [{
		"id": "17841400000000000",
		"time": 1700000000,
		"changes": [{
			"field": "comments",
			"value": {"id": "c1", "text": "love it", "from": {"id": "u9", "username": "alice"}}
		}]
	}]
}`

func TestIngestor_RecordsAndEnqueues(t *testing.T) {
	account := &models.PlatformAccount{
		TenantID:    3,
		PlatformID:  "17841400000000000",
		AccessToken: "token",
	}
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{account.PlatformID: account})

	recorded, err := ingestor.Ingest([]byte(commentDelivery))
	require.NoError(t, err)
	assert.Equal(t, 1, recorded)

	require.Len(t, events.created, 1)
	event := events.created[0]
	assert.Equal(t, uint(3), event.TenantID)
	assert.Equal(t, "comments", event.Type)
	assert.False(t, event.Processed)
	assert.Contains(t, event.Payload, `"username": "alice"`)

	require.Len(t, queue.payloads, 1)
	payload := queue.payloads[0]
	assert.Equal(t, uint(3), payload.TenantID)
	assert.Equal(t, account.PlatformID, payload.PlatformAccountID)
	assert.Equal(t, "token", payload.AccessToken)
	assert.Equal(t, event.ID, payload.EventID)
	assert.Equal(t, "comments", payload.Field)
}

func TestIngestor_UnknownAccountDropped(t *testing.T) {
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{})

	recorded, err := ingestor.Ingest([]byte(commentDelivery))
	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Empty(t, events.created)
	assert.Empty(t, queue.payloads)
}

func TestIngestor_OtherObjectIgnored(t *testing.T) {
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{})

	recorded, err := ingestor.Ingest([]byte(`{"object":"page","entry":[{"id":"x"}]}`))
	require.NoError(t, err)
	assert.Zero(t, recorded)
	assert.Empty(t, events.created)
	assert.Empty(t, queue.payloads)
}

func TestIngestor_InvalidBody(t *testing.T) {
	ingestor, _, _ := ingestFixture(map[string]*models.PlatformAccount{})

	_, err := ingestor.Ingest([]byte("not json"))
	assert.Error(t, err)
}

func TestIngestor_EnqueueFailureKeepsEvent(t *testing.T) {
	account := &models.PlatformAccount{TenantID: 3, PlatformID: "17841400000000000", AccessToken: "token"}
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{account.PlatformID: account})
	queue.err = errors.New("redis down")

	recorded, err := ingestor.Ingest([]byte(commentDelivery))
	require.NoError(t, err)

	// The event row survives so the retry endpoint can re-dispatch it.
	assert.Equal(t, 1, recorded)
	require.Len(t, events.created, 1)
	assert.False(t, events.created[0].Processed)
}

func TestIngestor_Replay(t *testing.T) {
	account := &models.PlatformAccount{TenantID: 3, PlatformID: "17841400000000000", AccessToken: "token"}
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{account.PlatformID: account})

	_, err := ingestor.Ingest([]byte(commentDelivery))
	require.NoError(t, err)
	require.Len(t, events.created, 1)
	eventID := events.created[0].ID

	// Simulate a completed first pass.
	require.NoError(t, events.MarkProcessed(eventID, true))

	event, err := ingestor.Replay(3, eventID)
	require.NoError(t, err)
	assert.False(t, event.Processed)
	assert.False(t, events.processed[eventID])
	require.Len(t, queue.payloads, 2)
	assert.Equal(t, eventID, queue.payloads[1].EventID)
	assert.JSONEq(t, string(queue.payloads[0].Value), string(queue.payloads[1].Value))
}

func TestIngestor_ReplayUnknownEvent(t *testing.T) {
	ingestor, _, _ := ingestFixture(map[string]*models.PlatformAccount{})

	_, err := ingestor.Replay(3, 99)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestIngestor_ReplayWithoutAccount(t *testing.T) {
	account := &models.PlatformAccount{TenantID: 3, PlatformID: "17841400000000000", AccessToken: "token"}
	accounts := map[string]*models.PlatformAccount{account.PlatformID: account}
	ingestor, events, _ := ingestFixture(accounts)

	_, err := ingestor.Ingest([]byte(commentDelivery))
	require.NoError(t, err)
	require.Len(t, events.created, 1)

	// Account disconnected after the event was recorded.
	delete(accounts, account.PlatformID)

	_, err = ingestor.Replay(3, events.created[0].ID)
	assert.ErrorIs(t, err, ErrNoPlatformAccount)
}

func TestIngestor_MultipleChanges(t *testing.T) {
	account := &models.PlatformAccount{TenantID: 3, PlatformID: "acct", AccessToken: "token"}
	ingestor, events, queue := ingestFixture(map[string]*models.PlatformAccount{account.PlatformID: account})

	body, err := json.Marshal(map[string]interface{}{
		"object": "instagram",
		"entry": []map[string]interface{}{{
			"id": "acct",
			"changes": []map[string]interface{}{
				{"field": "comments", "value": map[string]string{"id": "c1"}},
				{"field": "mentions", "value": map[string]string{"id": "m1"}},
			},
		}},
	})
	require.NoError(t, err)

	recorded, err := ingestor.Ingest(body)
	require.NoError(t, err)
	assert.Equal(t, 2, recorded)
	assert.Len(t, events.created, 2)
	require.Len(t, queue.payloads, 2)
	assert.Equal(t, "comments", queue.payloads[0].Field)
	assert.Equal(t, "mentions", queue.payloads[1].Field)
}
