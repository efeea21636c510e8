// Package wizard implements the claim-submission state machine. A draft moves
// through a fixed sequence of steps, each gated by a validation predicate;
// partial state persists through a Store between requests so a client can
// leave and resume. Submission assembles the accumulated step payloads into
// one create-claim call carrying an idempotency key generated once per draft.
package wizard

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
)

// Step names one stage of the wizard.
type Step string

const (
	StepClaimType    Step = "claim_type"
	StepBasicInfo    Step = "basic_info"
	StepPersonalInfo Step = "personal_info"
	StepRequirements Step = "requirements"
	StepDocuments    Step = "documents"
	StepReview       Step = "review"
)

// Order is the fixed forward sequence. Transitions are strictly
// forward/backward except the Requirements shortcut straight to submission.
var Order = []Step{
	StepClaimType,
	StepBasicInfo,
	StepPersonalInfo,
	StepRequirements,
	StepDocuments,
	StepReview,
}

var (
	ErrNotFound      = errors.New("wizard state not found")
	ErrUnknownStep   = errors.New("unknown wizard step")
	ErrStepLocked    = errors.New("prerequisite steps incomplete")
	ErrCannotAdvance = errors.New("step validation failed")
	ErrAlreadyFirst  = errors.New("already at the first step")
)

// State is one client's draft claim. Steps holds the raw payload saved for
// each completed step; CurrentStep is the index into Order the client is on.
type State struct {
	OwnerID        string                  `json:"owner_id"`
	CurrentStep    int                     `json:"current_step"`
	ClaimTypeID    string                  `json:"claim_type_id,omitempty"`
	Steps          map[Step]json.RawMessage `json:"steps"`
	Dirty          bool                    `json:"dirty"`
	IdempotencyKey string                  `json:"idempotency_key"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// StepData returns the saved payload for a step, if any.
func (s *State) StepData(step Step) (json.RawMessage, bool) {
	raw, ok := s.Steps[step]
	return raw, ok
}

// Store is the persistence adapter for wizard drafts, keyed by owner (the
// session). Postgres in production, in-memory in tests.
type Store interface {
	Save(ctx context.Context, s *State) error
	Get(ctx context.Context, ownerID string) (*State, error)
	Delete(ctx context.Context, ownerID string) error
	// DeleteStale removes drafts untouched since the cutoff, returning how
	// many were removed.
	DeleteStale(ctx context.Context, cutoff time.Time) (int64, error)
}

func stepIndex(step Step) int {
	for i, s := range Order {
		if s == step {
			return i
		}
	}
	return -1
}

// Typed payloads for each step. Saved data is kept as raw JSON in State but
// validated and assembled through these.

// ClaimTypeData records the selected claim type.
type ClaimTypeData struct {
	ClaimTypeID   string `json:"claim_type_id"`
	ClaimTypeName string `json:"claim_type_name,omitempty"`
}

// BasicInfoData records when and what happened.
type BasicInfoData struct {
	IncidentDate string `json:"incident_date"`
	IncidentTime string `json:"incident_time,omitempty"`
	Description  string `json:"description"`
}

// PersonalInfoData records who is claiming.
type PersonalInfoData struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// RequirementsData records per-claim-type requirement answers and the
// client's confirmation that the listed requirements were reviewed.
type RequirementsData struct {
	Answers   map[string]string `json:"answers,omitempty"`
	Confirmed bool              `json:"confirmed"`
}

// DocumentsData lists uploaded document URLs. The step may be skipped
// entirely through the submit-without-documents shortcut.
type DocumentsData struct {
	URLs []string `json:"urls"`
}
