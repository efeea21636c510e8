package wizard

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/upstream"
)

// Submitter is the slice of the upstream client the machine needs. The real
// client satisfies it; tests substitute a recorder.
type Submitter interface {
	SubmitClaim(creds *upstream.Credentials, sub upstream.ClaimSubmission, idempotencyKey string) (*upstream.SubmissionResult, error)
}

// Machine drives wizard drafts through their lifecycle.
type Machine struct {
	store     Store
	submitter Submitter
	log       *zap.Logger
	now       func() time.Time

	// clearDelay postpones draft deletion after a successful submission so
	// the confirmation view can still read the accumulated data.
	clearDelay time.Duration
}

// NewMachine constructs a Machine.
func NewMachine(store Store, submitter Submitter, log *zap.Logger) *Machine {
	return &Machine{
		store:      store,
		submitter:  submitter,
		log:        log,
		now:        time.Now,
		clearDelay: 3 * time.Second,
	}
}

// State loads the owner's draft, creating a fresh one on first entry. A fresh
// draft gets its idempotency key immediately; the key lives as long as the
// draft so retried submissions repeat it.
func (m *Machine) State(ctx context.Context, ownerID string) (*State, error) {
	s, err := m.store.Get(ctx, ownerID)
	if err == nil {
		return s, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	now := m.now().UTC()
	s = &State{
		OwnerID:        ownerID,
		CurrentStep:    0,
		Steps:          make(map[Step]json.RawMessage),
		IdempotencyKey: uuid.NewString(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("create wizard state: %w", err)
	}
	return s, nil
}

// Restart discards the owner's draft.
func (m *Machine) Restart(ctx context.Context, ownerID string) error {
	return m.store.Delete(ctx, ownerID)
}

// SaveStep validates and persists a step payload. Entry is guarded: all
// prerequisite steps must already hold valid data, otherwise the earliest
// missing step is returned with ErrStepLocked so the caller can redirect.
// Saving the current step advances CurrentStep; saving an earlier step never
// clears later steps' data.
func (m *Machine) SaveStep(ctx context.Context, ownerID string, step Step, raw json.RawMessage) (*State, FieldErrors, Step, error) {
	idx := stepIndex(step)
	if idx < 0 {
		return nil, nil, "", ErrUnknownStep
	}
	s, err := m.State(ctx, ownerID)
	if err != nil {
		return nil, nil, "", err
	}
	now := m.now().UTC()
	if missing, ok := EarliestMissing(s, step, now); !ok {
		return nil, nil, missing, ErrStepLocked
	}
	if errs := ValidateStep(step, raw, now); !errs.Empty() {
		return nil, errs, "", ErrCannotAdvance
	}
	s.Steps[step] = raw
	if step == StepClaimType {
		var d ClaimTypeData
		if err := json.Unmarshal(raw, &d); err == nil {
			s.ClaimTypeID = d.ClaimTypeID
		}
	}
	if idx == s.CurrentStep && s.CurrentStep < len(Order)-1 {
		s.CurrentStep++
	}
	s.Dirty = true
	s.UpdatedAt = now
	if err := m.store.Save(ctx, s); err != nil {
		return nil, nil, "", fmt.Errorf("save wizard state: %w", err)
	}
	return s, nil, "", nil
}

// Back moves to the previous step without touching any saved data.
func (m *Machine) Back(ctx context.Context, ownerID string) (*State, error) {
	s, err := m.State(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if s.CurrentStep == 0 {
		return nil, ErrAlreadyFirst
	}
	s.CurrentStep--
	s.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save wizard state: %w", err)
	}
	return s, nil
}

// Guard checks whether the owner may enter the given step; when not, it
// returns the earliest step still missing so the caller can redirect there.
func (m *Machine) Guard(ctx context.Context, ownerID string, step Step) (Step, bool, error) {
	s, err := m.State(ctx, ownerID)
	if err != nil {
		return "", false, err
	}
	missing, ok := EarliestMissing(s, step, m.now().UTC())
	return missing, ok, nil
}

// Assemble builds the single create-claim payload from the accumulated steps.
func Assemble(s *State) (upstream.ClaimSubmission, error) {
	var (
		ct  ClaimTypeData
		bi  BasicInfoData
		pi  PersonalInfoData
		req RequirementsData
		docs DocumentsData
	)
	steps := []struct {
		step Step
		dst  any
		must bool
	}{
		{StepClaimType, &ct, true},
		{StepBasicInfo, &bi, true},
		{StepPersonalInfo, &pi, true},
		{StepRequirements, &req, true},
		{StepDocuments, &docs, false},
	}
	for _, entry := range steps {
		raw, ok := s.StepData(entry.step)
		if !ok {
			if entry.must {
				return upstream.ClaimSubmission{}, fmt.Errorf("step %s incomplete", entry.step)
			}
			continue
		}
		if err := json.Unmarshal(raw, entry.dst); err != nil {
			return upstream.ClaimSubmission{}, fmt.Errorf("decode step %s: %w", entry.step, err)
		}
	}
	return upstream.ClaimSubmission{
		ClaimType:    ct.ClaimTypeID,
		IncidentDate: bi.IncidentDate,
		IncidentTime: bi.IncidentTime,
		Description:  bi.Description,
		FirstName:    pi.FirstName,
		LastName:     pi.LastName,
		Email:        pi.Email,
		Phone:        pi.Phone,
		Answers:      req.Answers,
		DocumentURLs: docs.URLs,
	}, nil
}

// Submit issues the one create-claim call. skipDocuments is the explicit
// Requirements shortcut; otherwise every step through Requirements must be
// complete (Documents remains optional either way). On success the draft is
// cleared after clearDelay; on failure it is left intact for retry.
func (m *Machine) Submit(ctx context.Context, ownerID string, creds *upstream.Credentials, skipDocuments bool) (*upstream.SubmissionResult, error) {
	s, err := m.State(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	if missing, ok := EarliestMissing(s, StepDocuments, now); !ok {
		return nil, fmt.Errorf("%w: %s", ErrStepLocked, missing)
	}
	if skipDocuments {
		delete(s.Steps, StepDocuments)
	}
	sub, err := Assemble(s)
	if err != nil {
		return nil, err
	}
	result, err := m.submitter.SubmitClaim(creds, sub, s.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	m.log.Info("claim submitted",
		zap.String("owner", ownerID),
		zap.String("tracking_number", result.TrackingNumber))
	m.scheduleClear(ownerID)
	return result, nil
}

func (m *Machine) scheduleClear(ownerID string) {
	time.AfterFunc(m.clearDelay, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.Delete(ctx, ownerID); err != nil {
			m.log.Warn("clear wizard state", zap.String("owner", ownerID), zap.Error(err))
		}
	})
}
