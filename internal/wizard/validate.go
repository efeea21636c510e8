package wizard

import (
	"regexp"
	"strings"
	"time"

	"github.com/goccy/go-json"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Nigerian numbers: local 0XXXXXXXXXX (11 digits) or +234XXXXXXXXXX.
	phoneLocal = regexp.MustCompile(`^0[0-9]{10}$`)
	phoneIntl  = regexp.MustCompile(`^\+234[0-9]{10}$`)
)

const dateLayout = "2006-01-02"

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidPhone reports whether s is a Nigerian phone number in either the
// local or the +234 international form.
func ValidPhone(s string) bool {
	return phoneLocal.MatchString(s) || phoneIntl.MatchString(s)
}

// FieldErrors maps field names to validation messages.
type FieldErrors map[string]string

// Empty reports whether validation passed.
func (f FieldErrors) Empty() bool { return len(f) == 0 }

// ValidateStep runs the step's full predicate against a raw payload and
// returns per-field errors. now anchors the same-day incident time rule.
func ValidateStep(step Step, raw json.RawMessage, now time.Time) FieldErrors {
	errs := FieldErrors{}
	switch step {
	case StepClaimType:
		var d ClaimTypeData
		if err := json.Unmarshal(raw, &d); err != nil {
			errs["claim_type_id"] = "Select a claim type."
			return errs
		}
		if strings.TrimSpace(d.ClaimTypeID) == "" {
			errs["claim_type_id"] = "Select a claim type."
		}
	case StepBasicInfo:
		var d BasicInfoData
		if err := json.Unmarshal(raw, &d); err != nil {
			errs["incident_date"] = "Enter the incident date."
			return errs
		}
		validateBasicInfo(d, now, errs)
	case StepPersonalInfo:
		var d PersonalInfoData
		if err := json.Unmarshal(raw, &d); err != nil {
			errs["first_name"] = "Enter your first name."
			return errs
		}
		validatePersonalInfo(d, errs)
	case StepRequirements:
		var d RequirementsData
		if err := json.Unmarshal(raw, &d); err != nil || !d.Confirmed {
			errs["confirmed"] = "Confirm that you have reviewed the requirements."
			return errs
		}
		for key, answer := range d.Answers {
			if strings.TrimSpace(answer) == "" {
				errs[key] = "This field is required."
			}
		}
	case StepDocuments:
		// Documents are optional; any well-formed payload passes.
		var d DocumentsData
		if err := json.Unmarshal(raw, &d); err != nil {
			errs["documents"] = "Invalid document list."
		}
	case StepReview:
		// Review has no fields of its own; completion of earlier steps is
		// enforced by the entry guard.
	default:
		errs["step"] = "Unknown step."
	}
	return errs
}

func validateBasicInfo(d BasicInfoData, now time.Time, errs FieldErrors) {
	if strings.TrimSpace(d.Description) == "" {
		errs["description"] = "Describe what happened."
	}
	if strings.TrimSpace(d.IncidentDate) == "" {
		errs["incident_date"] = "Enter the incident date."
		return
	}
	day, err := time.Parse(dateLayout, d.IncidentDate)
	if err != nil {
		errs["incident_date"] = "Enter the date as YYYY-MM-DD."
		return
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if day.After(today) {
		errs["incident_date"] = "The incident date cannot be in the future."
		return
	}
	if d.IncidentTime == "" {
		return
	}
	hhmm, err := time.Parse("15:04", d.IncidentTime)
	if err != nil {
		errs["incident_time"] = "Enter the time as HH:MM."
		return
	}
	// Same-day claims cannot name a time later than now.
	if day.Equal(today) {
		incident := time.Date(now.Year(), now.Month(), now.Day(),
			hhmm.Hour(), hhmm.Minute(), 0, 0, now.Location())
		if incident.After(now) {
			errs["incident_time"] = "The incident time cannot be later than the current time."
		}
	}
}

func validatePersonalInfo(d PersonalInfoData, errs FieldErrors) {
	if strings.TrimSpace(d.FirstName) == "" {
		errs["first_name"] = "Enter your first name."
	}
	if strings.TrimSpace(d.LastName) == "" {
		errs["last_name"] = "Enter your last name."
	}
	if !ValidEmail(d.Email) {
		errs["email"] = "Enter a valid email address."
	}
	if !ValidPhone(d.Phone) {
		errs["phone"] = "Enter a valid Nigerian phone number."
	}
}

// CanAdvance reports whether the step's full predicate passes.
func CanAdvance(step Step, raw json.RawMessage, now time.Time) bool {
	return ValidateStep(step, raw, now).Empty()
}

// EarliestMissing returns the first step (in order) whose saved data is absent
// or fails validation, and true if every prerequisite before limit is
// satisfied. It backs the entry guard against deep-linking into the middle of
// the wizard.
func EarliestMissing(s *State, limit Step, now time.Time) (Step, bool) {
	for _, step := range Order {
		if step == limit {
			return "", true
		}
		if step == StepDocuments {
			// Optional step, never blocks entry to later steps.
			continue
		}
		raw, ok := s.StepData(step)
		if !ok || !CanAdvance(step, raw, now) {
			return step, false
		}
	}
	return "", true
}
