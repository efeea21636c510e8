package queue

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/hibiken/asynq"
)

const (
	// ForwardDocumentTask is scheduled each time a claim document is staged.
	ForwardDocumentTask = "document:forward"
	// PurgeTask sweeps expired sessions and abandoned wizard drafts.
	PurgeTask = "maintenance:purge"
)

// ForwardPayload tells the worker which staged document to push upstream.
// Credentials are looked up from the owner's session at processing time so
// bearer tokens never sit in the queue.
type ForwardPayload struct {
	DocumentID string `json:"document_id"`
	OwnerID    string `json:"owner_id"`
}

// EnqueueForward enqueues a document forwarding job. Forwarding retries are
// safe: the upstream upload is idempotent per staged document.
func EnqueueForward(ctx context.Context, client *asynq.Client, payload ForwardPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(ForwardDocumentTask, data)
	if _, err := client.EnqueueContext(ctx, task, asynq.MaxRetry(5)); err != nil {
		return fmt.Errorf("enqueue forward task: %w", err)
	}
	return nil
}

// NewPurgeTask builds the periodic sweep task for the scheduler.
func NewPurgeTask() *asynq.Task {
	return asynq.NewTask(PurgeTask, nil)
}
