package engine

import "context"

// Outcome is the explicit terminal tag of one engine run, so callers and
// tests can assert on the exact result instead of side effects alone.
type Outcome string

const (
	OutcomeReceived Outcome = "RECEIVED"
	OutcomeSkipped  Outcome = "SKIPPED"
	OutcomeFailed   Outcome = "FAILED"
	OutcomeSuccess  Outcome = "SUCCESS"
)

// CommentEvent is the "comments" change value delivered by the platform.
type CommentEvent struct {
	ID   string `json:"id"`
	Text string `json:"text"`
	From struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"from"`
	Media struct {
		ID string `json:"id"`
	} `json:"media"`
}

// PlatformAPI is the slice of the Graph client the engines call.
type PlatformAPI interface {
	ReplyToComment(ctx context.Context, accessToken, commentID, message string) error
	SendDirectMessage(ctx context.Context, accessToken, accountID, recipientID, message string) error
}

// QuotaGate answers the admission-control check before an automation runs.
type QuotaGate interface {
	CanAutomate(tenantID uint) (bool, error)
}

// DMDispatcher enqueues a follow-up direct message job. Implemented by the
// job queue manager; injected so the engines stay queue-agnostic.
type DMDispatcher interface {
	DispatchDM(tenantID uint, recipientID, username string, dmTemplateID uint) error
}
