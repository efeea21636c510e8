package wizard

import (
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func TestValidPhone(t *testing.T) {
	valid := []string{"08031234567", "07011223344", "+2348031234567"}
	for _, p := range valid {
		assert.True(t, ValidPhone(p), p)
	}
	invalid := []string{
		"123",
		"0803123456",      // 10 digits
		"080312345678",    // 12 digits
		"+2348031234567x", // trailing junk
		"+23480312345",    // too short after prefix
		"234803123456 7",
		"8031234567",
		"",
	}
	for _, p := range invalid {
		assert.False(t, ValidPhone(p), p)
	}
}

func TestValidEmail(t *testing.T) {
	assert.True(t, ValidEmail("ada@example.com"))
	assert.True(t, ValidEmail("a.b+c@sub.domain.ng"))
	assert.False(t, ValidEmail("no-at.example.com"))
	assert.False(t, ValidEmail("spaces in@example.com"))
	assert.False(t, ValidEmail("missing@tld"))
	assert.False(t, ValidEmail(""))
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	assert.NoError(t, err)
	return raw
}

func TestValidateClaimType(t *testing.T) {
	assert.True(t, CanAdvance(StepClaimType, mustJSON(t, ClaimTypeData{ClaimTypeID: "3"}), testNow))
	assert.False(t, CanAdvance(StepClaimType, mustJSON(t, ClaimTypeData{}), testNow))
	assert.False(t, CanAdvance(StepClaimType, json.RawMessage(`"garbage`), testNow))
}

func TestValidateBasicInfo(t *testing.T) {
	base := BasicInfoData{IncidentDate: "2024-06-01", IncidentTime: "09:00", Description: "Rear bumper damage"}
	assert.True(t, CanAdvance(StepBasicInfo, mustJSON(t, base), testNow))

	cases := []struct {
		name  string
		mut   func(*BasicInfoData)
		field string
	}{
		{"missing description", func(d *BasicInfoData) { d.Description = " " }, "description"},
		{"missing date", func(d *BasicInfoData) { d.IncidentDate = "" }, "incident_date"},
		{"bad date format", func(d *BasicInfoData) { d.IncidentDate = "01/06/2024" }, "incident_date"},
		{"future date", func(d *BasicInfoData) { d.IncidentDate = "2024-06-16" }, "incident_date"},
		{"bad time format", func(d *BasicInfoData) { d.IncidentTime = "9am" }, "incident_time"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := base
			tc.mut(&d)
			errs := ValidateStep(StepBasicInfo, mustJSON(t, d), testNow)
			assert.Contains(t, errs, tc.field)
		})
	}
}

func TestSameDayFutureTimeRejected(t *testing.T) {
	// testNow is 14:30 UTC on 2024-06-15.
	today := BasicInfoData{IncidentDate: "2024-06-15", Description: "x"}

	today.IncidentTime = "14:29"
	assert.True(t, CanAdvance(StepBasicInfo, mustJSON(t, today), testNow))

	today.IncidentTime = "14:31"
	errs := ValidateStep(StepBasicInfo, mustJSON(t, today), testNow)
	assert.Contains(t, errs, "incident_time")

	// The same later time on a past date is fine.
	past := BasicInfoData{IncidentDate: "2024-06-14", IncidentTime: "23:59", Description: "x"}
	assert.True(t, CanAdvance(StepBasicInfo, mustJSON(t, past), testNow))

	// Omitting the time entirely is fine.
	today.IncidentTime = ""
	assert.True(t, CanAdvance(StepBasicInfo, mustJSON(t, today), testNow))
}

func TestValidatePersonalInfo(t *testing.T) {
	base := PersonalInfoData{FirstName: "Ada", LastName: "Okafor", Email: "ada@example.com", Phone: "08031234567"}
	assert.True(t, CanAdvance(StepPersonalInfo, mustJSON(t, base), testNow))

	d := base
	d.Email = "not-an-email"
	assert.Contains(t, ValidateStep(StepPersonalInfo, mustJSON(t, d), testNow), "email")

	d = base
	d.Phone = "12345"
	assert.Contains(t, ValidateStep(StepPersonalInfo, mustJSON(t, d), testNow), "phone")

	d = base
	d.FirstName = ""
	d.LastName = "  "
	errs := ValidateStep(StepPersonalInfo, mustJSON(t, d), testNow)
	assert.Contains(t, errs, "first_name")
	assert.Contains(t, errs, "last_name")
}

func TestValidateRequirements(t *testing.T) {
	ok := RequirementsData{Confirmed: true, Answers: map[string]string{"police_report": "yes"}}
	assert.True(t, CanAdvance(StepRequirements, mustJSON(t, ok), testNow))

	assert.False(t, CanAdvance(StepRequirements, mustJSON(t, RequirementsData{Confirmed: false}), testNow))

	blank := RequirementsData{Confirmed: true, Answers: map[string]string{"police_report": " "}}
	assert.Contains(t, ValidateStep(StepRequirements, mustJSON(t, blank), testNow), "police_report")
}

func TestEarliestMissing(t *testing.T) {
	s := &State{Steps: map[Step]json.RawMessage{}}

	missing, ok := EarliestMissing(s, StepPersonalInfo, testNow)
	assert.False(t, ok)
	assert.Equal(t, StepClaimType, missing)

	s.Steps[StepClaimType] = mustJSON(t, ClaimTypeData{ClaimTypeID: "3"})
	missing, ok = EarliestMissing(s, StepPersonalInfo, testNow)
	assert.False(t, ok)
	assert.Equal(t, StepBasicInfo, missing)

	s.Steps[StepBasicInfo] = mustJSON(t, BasicInfoData{IncidentDate: "2024-06-01", Description: "x"})
	_, ok = EarliestMissing(s, StepPersonalInfo, testNow)
	assert.True(t, ok)

	// Documents never blocks review entry.
	s.Steps[StepPersonalInfo] = mustJSON(t, PersonalInfoData{FirstName: "A", LastName: "B", Email: "a@b.co", Phone: "08031234567"})
	s.Steps[StepRequirements] = mustJSON(t, RequirementsData{Confirmed: true})
	_, ok = EarliestMissing(s, StepReview, testNow)
	assert.True(t, ok)
}
