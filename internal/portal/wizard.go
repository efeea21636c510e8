package portal

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/docstore"
	"github.com/puresec-ng/banyan-portal/internal/queue"
	"github.com/puresec-ng/banyan-portal/internal/repository"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

// wizardView is the wire shape for draft state. The idempotency key stays
// server-side.
type wizardView struct {
	CurrentStep wizard.Step                     `json:"current_step"`
	StepIndex   int                             `json:"step_index"`
	ClaimTypeID string                          `json:"claim_type_id,omitempty"`
	Steps       map[wizard.Step]json.RawMessage `json:"steps"`
	UpdatedAt   time.Time                       `json:"updated_at"`
}

func viewOf(st *wizard.State) wizardView {
	return wizardView{
		CurrentStep: wizard.Order[st.CurrentStep],
		StepIndex:   st.CurrentStep,
		ClaimTypeID: st.ClaimTypeID,
		Steps:       st.Steps,
		UpdatedAt:   st.UpdatedAt,
	}
}

func (s *Server) handleWizardState(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	st, err := s.machine.State(r.Context(), sess.ID)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(st))
}

func (s *Server) handleWizardRestart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if err := s.machine.Restart(r.Context(), sess.ID); err != nil && !errors.Is(err, wizard.ErrNotFound) {
		s.respondUpstreamError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWizardStep(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	step := wizard.Step(mux.Vars(r)["step"])
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	st, fieldErrs, redirect, err := s.machine.SaveStep(r.Context(), sess.ID, step, raw)
	switch {
	case errors.Is(err, wizard.ErrUnknownStep):
		s.respondError(w, http.StatusNotFound, "Unknown wizard step.", nil)
	case errors.Is(err, wizard.ErrStepLocked):
		s.respondJSON(w, http.StatusConflict, map[string]any{
			"error":         "Complete the earlier steps first.",
			"redirect_step": redirect,
		})
	case errors.Is(err, wizard.ErrCannotAdvance):
		s.respondValidation(w, fieldErrs)
	case err != nil:
		s.respondUpstreamError(w, err)
	default:
		s.respondJSON(w, http.StatusOK, viewOf(st))
	}
}

func (s *Server) handleWizardBack(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	st, err := s.machine.Back(r.Context(), sess.ID)
	if err != nil {
		if errors.Is(err, wizard.ErrAlreadyFirst) {
			s.respondError(w, http.StatusConflict, "Already at the first step.", nil)
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, viewOf(st))
}

// handleWizardUpload stages one multipart "file" part: sniff the content type,
// enforce the size and type limits, persist to the staging bucket, record the
// row, and queue the upstream forward.
func (s *Server) handleWizardUpload(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	if missing, ok, err := s.machine.Guard(r.Context(), sess.ID, wizard.StepDocuments); err != nil {
		s.respondUpstreamError(w, err)
		return
	} else if !ok {
		s.respondJSON(w, http.StatusConflict, map[string]any{
			"error":         "Complete the earlier steps first.",
			"redirect_step": missing,
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxFileSize+(512<<10))
	mr, err := r.MultipartReader()
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "Expected a multipart upload.", nil)
		return
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.respondError(w, http.StatusBadRequest, "Malformed multipart upload.", nil)
			return
		}
		if part.FormName() != "file" {
			continue
		}
		doc, status, msg := s.stagePart(r, sess.ID, part)
		if doc == nil {
			s.respondError(w, status, msg, nil)
			return
		}
		s.respondJSON(w, http.StatusCreated, doc)
		return
	}
	s.respondError(w, http.StatusBadRequest, "No file part in upload.", nil)
}

func (s *Server) stagePart(r *http.Request, ownerID string, part *multipart.Part) (*repository.StagedDocument, int, string) {
	sniff := make([]byte, 512)
	n, err := io.ReadFull(part, sniff)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, http.StatusBadRequest, "Could not read the uploaded file."
	}
	contentType := part.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(sniff[:n])
	}
	if !s.allowedType(contentType) {
		return nil, http.StatusUnsupportedMediaType, "Only PDF, PNG, and JPEG files are accepted."
	}
	rest, err := io.ReadAll(io.LimitReader(part, s.cfg.MaxFileSize-int64(n)+1))
	if err != nil {
		return nil, http.StatusBadRequest, "Could not read the uploaded file."
	}
	data := append(sniff[:n], rest...)
	if int64(len(data)) > s.cfg.MaxFileSize {
		return nil, http.StatusRequestEntityTooLarge, "The file is too large."
	}
	if len(data) == 0 {
		return nil, http.StatusBadRequest, "The uploaded file is empty."
	}

	docID := uuid.NewString()
	name := filepath.Base(part.FileName())
	if name == "" || name == "." {
		name = "document"
	}
	key := docstore.ObjectKey(ownerID, docID, name)
	if err := s.stager.Put(r.Context(), key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		s.log.Error("stage upload", zap.String("owner", ownerID), zap.Error(err))
		return nil, http.StatusBadGateway, "Could not store the uploaded file. Please try again."
	}
	doc := &repository.StagedDocument{
		ID:          docID,
		OwnerID:     ownerID,
		FileName:    name,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
		ObjectKey:   key,
		Status:      repository.StagedQueued,
	}
	if err := s.docs.Create(r.Context(), doc); err != nil {
		s.log.Error("record staged document", zap.String("owner", ownerID), zap.Error(err))
		return nil, http.StatusInternalServerError, "Could not record the uploaded file. Please try again."
	}
	if err := s.enqueue(r.Context(), queue.ForwardPayload{DocumentID: docID, OwnerID: ownerID}); err != nil {
		s.log.Error("enqueue document forward", zap.String("document", docID), zap.Error(err))
		return nil, http.StatusInternalServerError, "Could not queue the uploaded file. Please try again."
	}
	return doc, 0, ""
}

func (s *Server) allowedType(contentType string) bool {
	for _, t := range s.cfg.AllowedTypes {
		if strings.EqualFold(strings.TrimSpace(contentType), t) {
			return true
		}
	}
	return false
}

// stagedDocView pairs a staged document with a short-lived preview link. The
// link only exists while the file still sits in staging; once forwarded the
// upstream URL is the reference.
type stagedDocView struct {
	repository.StagedDocument
	PreviewURL string `json:"preview_url,omitempty"`
}

func (s *Server) handleWizardDocuments(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	docs, err := s.docs.ListByOwner(r.Context(), sess.ID)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	views := make([]stagedDocView, 0, len(docs))
	for _, d := range docs {
		v := stagedDocView{StagedDocument: d}
		if d.Status == repository.StagedQueued || d.Status == repository.StagedForwarding {
			if u, err := s.stager.PresignURL(r.Context(), d.ObjectKey, 15*time.Minute); err == nil {
				v.PreviewURL = u
			}
		}
		views = append(views, v)
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"documents": views})
}

type submitRequest struct {
	SkipDocuments bool `json:"skip_documents"`
}

// handleWizardSubmit folds the forwarded document URLs into the draft and
// issues the one create-claim call. Uploads still in flight block submission
// unless the caller explicitly skips documents.
func (s *Server) handleWizardSubmit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req submitRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
			return
		}
	}

	if !req.SkipDocuments {
		docs, err := s.docs.ListByOwner(r.Context(), sess.ID)
		if err != nil {
			s.respondUpstreamError(w, err)
			return
		}
		urls := make([]string, 0, len(docs))
		for _, d := range docs {
			switch d.Status {
			case repository.StagedForwarded:
				if d.UpstreamURL != nil {
					urls = append(urls, *d.UpstreamURL)
				}
			case repository.StagedQueued, repository.StagedForwarding:
				s.respondError(w, http.StatusConflict, "Your documents are still being processed. Please try again shortly.", nil)
				return
			}
		}
		if len(urls) > 0 {
			raw, _ := json.Marshal(wizard.DocumentsData{URLs: urls})
			if _, _, _, err := s.machine.SaveStep(r.Context(), sess.ID, wizard.StepDocuments, raw); err != nil {
				s.respondUpstreamError(w, err)
				return
			}
		}
	}

	result, err := s.machine.Submit(r.Context(), sess.ID, credsFor(sess), req.SkipDocuments)
	if err != nil {
		if errors.Is(err, wizard.ErrStepLocked) {
			s.respondError(w, http.StatusConflict, "Complete the earlier steps first.", nil)
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.cache.Invalidate("claims:" + sess.ID)
	s.respondJSON(w, http.StatusCreated, result)
}
