package model

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/puresec-ng/banyan-portal/internal/status"
)

func TestWireClaimNormalize(t *testing.T) {
	raw := []byte(`{
		"id": 412,
		"claim_number": "BNY-2024-000412",
		"status": "Under_Review",
		"claim_type": {"id": 3, "name": "MOTOR"},
		"incident_date": "2024-03-02",
		"description": "Rear bumper damage",
		"created_at": "2024-03-03T09:15:00Z",
		"documents": [
			{"id": "d1", "file_name": "police-report.pdf", "file_url": "https://cdn/x/police-report.pdf"},
			{"id": "d2", "name": "photo.png", "image_url": "https://cdn/x/photo.png", "url": "https://old/photo.png", "verified": true}
		],
		"questions": [{"id": 9, "text": "Was anyone injured?", "answer": "No"}],
		"information_requests": [{"id": 5, "type": "document_request", "details": "Upload repair estimate"}],
		"claim_history": [{"status": "submitted", "comment": "Claim received", "date": "2024-03-03"}]
	}`)

	var w WireClaim
	require.NoError(t, json.Unmarshal(raw, &w))
	c := w.Normalize()

	assert.Equal(t, "412", c.ID)
	assert.Equal(t, "BNY-2024-000412", c.ClaimNumber)
	assert.Equal(t, status.InReview, c.Status)
	assert.Equal(t, "Under_Review", c.RawStatus)
	assert.Equal(t, "MOTOR", c.ClaimType)
	assert.Equal(t, "3", c.ClaimTypeID)

	require.Len(t, c.Documents, 2)
	assert.Equal(t, "police-report.pdf", c.Documents[0].Name)
	assert.Equal(t, "https://cdn/x/police-report.pdf", c.Documents[0].URL)
	// image_url wins over url when both are present.
	assert.Equal(t, "https://cdn/x/photo.png", c.Documents[1].URL)
	assert.True(t, c.Documents[1].Verified)

	require.Len(t, c.Questions, 1)
	assert.Equal(t, "Was anyone injured?", c.Questions[0].Question)
	assert.True(t, c.Questions[0].Answered)

	require.Len(t, c.InfoRequests, 1)
	assert.Equal(t, RequestDocument, c.InfoRequests[0].Kind)
	assert.Equal(t, "Upload repair estimate", c.InfoRequests[0].Message)
	assert.False(t, c.InfoRequests[0].Responded)

	require.Len(t, c.History, 1)
	assert.Equal(t, status.Submitted, c.History[0].Status)
	assert.Equal(t, "Claim received", c.History[0].Note)
	assert.Equal(t, "2024-03-03", c.History[0].At)
}

func TestWireRequestKindFallback(t *testing.T) {
	w := WireRequest{ID: "7", Kind: "additional_information", Message: "Clarify timeline"}
	r := w.Normalize()
	assert.Equal(t, RequestInfo, r.Kind)

	// Anything unrecognized is treated as an information request.
	w = WireRequest{ID: "8", Type: "something_else"}
	assert.Equal(t, RequestInfo, w.Normalize().Kind)
}

func TestWireOfferNormalize(t *testing.T) {
	raw := []byte(`{
		"id": "of-1",
		"claim_id": 412,
		"settlement_amount": "250000.50",
		"fees": [{"name": "Processing fee", "value": "1500"}, {"label": "Excess", "amount": 25000}],
		"expiry_period": "2024-04-01",
		"status": "settlement_approved"
	}`)
	var w WireOffer
	require.NoError(t, json.Unmarshal(raw, &w))
	o := w.Normalize()

	assert.Equal(t, "of-1", o.ID)
	assert.Equal(t, "412", o.ClaimID)
	assert.InDelta(t, 250000.50, o.Amount, 0.001)
	require.Len(t, o.Deductions, 2)
	assert.Equal(t, "Processing fee", o.Deductions[0].Label)
	assert.InDelta(t, 1500, o.Deductions[0].Amount, 0.001)
	assert.InDelta(t, 250000.50-1500-25000, o.Net(), 0.001)
	assert.Nil(t, o.Expired)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "412", Stringify(float64(412)))
	assert.Equal(t, "abc", Stringify("abc"))
	assert.Equal(t, "", Stringify(nil))
}
