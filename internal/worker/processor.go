package worker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/goccy/go-json"

	"github.com/puresec-ng/banyan-portal/internal/config"
	"github.com/puresec-ng/banyan-portal/internal/docstore"
	"github.com/puresec-ng/banyan-portal/internal/pdfcheck"
	"github.com/puresec-ng/banyan-portal/internal/queue"
	"github.com/puresec-ng/banyan-portal/internal/repository"
	"github.com/puresec-ng/banyan-portal/internal/session"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

// Uploader is the slice of the upstream client the processor needs.
type Uploader interface {
	UploadDocument(creds *upstream.Credentials, filename, contentType string, data []byte) (string, error)
}

// Processor is plugged into the asynq worker loop.
type Processor struct {
	cfg      *config.Config
	docs     *repository.DocumentRepository
	sessions session.Store
	drafts   wizard.Store
	store    *docstore.Store
	uploader Uploader
	log      *zap.Logger
}

// NewProcessor constructs a worker processor.
func NewProcessor(cfg *config.Config, docs *repository.DocumentRepository, sessions session.Store, drafts wizard.Store, store *docstore.Store, uploader Uploader, log *zap.Logger) *Processor {
	return &Processor{
		cfg:      cfg,
		docs:     docs,
		sessions: sessions,
		drafts:   drafts,
		store:    store,
		uploader: uploader,
		log:      log,
	}
}

// Handler registers the task handlers.
func (p *Processor) Handler() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.ForwardDocumentTask, p.handleForward)
	mux.HandleFunc(queue.PurgeTask, p.handlePurge)
	return mux
}

func (p *Processor) handleForward(ctx context.Context, task *asynq.Task) error {
	var payload queue.ForwardPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	failure := func(err error) error {
		p.log.Warn("forward failed",
			zap.String("document", payload.DocumentID),
			zap.Error(err))
		_ = p.docs.MarkFailed(ctx, payload.DocumentID, err.Error())
		return err
	}
	doc, err := p.docs.Get(ctx, payload.DocumentID)
	if err != nil {
		return fmt.Errorf("load staged document: %v: %w", err, asynq.SkipRetry)
	}
	if doc.Status == repository.StagedForwarded {
		return nil
	}
	sess, err := p.sessions.Get(ctx, payload.OwnerID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			// The owner logged out; keep the staged document for the next
			// session rather than burning retries on a dead token.
			return failure(fmt.Errorf("owner session gone: %w", asynq.SkipRetry))
		}
		return failure(err)
	}
	if err := p.docs.MarkForwarding(ctx, doc.ID); err != nil {
		return failure(err)
	}
	data, err := p.store.Fetch(ctx, doc.ObjectKey)
	if err != nil {
		return failure(err)
	}
	if strings.EqualFold(doc.ContentType, "application/pdf") {
		pages, err := pdfcheck.Verify(data)
		if err != nil {
			return failure(fmt.Errorf("pdf check: %v: %w", err, asynq.SkipRetry))
		}
		p.log.Debug("pdf verified",
			zap.String("document", doc.ID),
			zap.Int("pages", pages))
	}
	creds := &upstream.Credentials{Token: sess.Token, UserType: sess.UserType}
	url, err := p.uploader.UploadDocument(creds, doc.FileName, doc.ContentType, data)
	if err != nil {
		return failure(err)
	}
	if err := p.docs.MarkForwarded(ctx, doc.ID, url); err != nil {
		return failure(err)
	}
	if err := p.store.Remove(ctx, doc.ObjectKey); err != nil {
		// The row already points at the upstream URL; a leftover staged
		// object only costs storage until the next sweep.
		p.log.Warn("remove staged object", zap.String("key", doc.ObjectKey), zap.Error(err))
	}
	p.log.Info("document forwarded",
		zap.String("document", doc.ID),
		zap.String("url", url))
	return nil
}

func (p *Processor) handlePurge(ctx context.Context, _ *asynq.Task) error {
	now := time.Now().UTC()
	removedSessions, err := p.sessions.DeleteExpired(ctx, now, p.cfg.InactivityWindow)
	if err != nil {
		return fmt.Errorf("purge sessions: %w", err)
	}
	removedDrafts, err := p.drafts.DeleteStale(ctx, now.Add(-p.cfg.WizardTTL))
	if err != nil {
		return fmt.Errorf("purge wizard drafts: %w", err)
	}
	if removedSessions > 0 || removedDrafts > 0 {
		p.log.Info("purge complete",
			zap.Int64("sessions", removedSessions),
			zap.Int64("drafts", removedDrafts))
	}
	return nil
}
