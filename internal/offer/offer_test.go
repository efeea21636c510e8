package offer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/puresec-ng/banyan-portal/internal/model"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func boolPtr(b bool) *bool { return &b }

func TestExpired(t *testing.T) {
	// Past expiry period with no explicit field.
	o := &model.Offer{ExpiryPeriod: "2020-01-01"}
	assert.True(t, Expired(o, now))

	// Explicit expired=false wins even over a past expiry period.
	o = &model.Offer{ExpiryPeriod: "2020-01-01", Expired: boolPtr(false)}
	assert.False(t, Expired(o, now))

	// Explicit expired=true wins over a future expiry period.
	o = &model.Offer{ExpiryPeriod: "2030-01-01", Expired: boolPtr(true)}
	assert.True(t, Expired(o, now))

	// No expiry information at all: never expired.
	assert.False(t, Expired(&model.Offer{}, now))

	// Unparseable expiry: never expired.
	assert.False(t, Expired(&model.Offer{ExpiryPeriod: "soon"}, now))
}

func TestCanRespond(t *testing.T) {
	open := &model.Offer{Status: "settlement_approved", ExpiryPeriod: "2030-01-01"}
	assert.True(t, CanRespond(open, now))

	pending := &model.Offer{Status: "Pending", ExpiryPeriod: "2030-01-01"}
	assert.True(t, CanRespond(pending, now))

	decided := &model.Offer{Status: "settlement_approved", AcceptanceStatus: "client_accepted"}
	assert.False(t, CanRespond(decided, now))

	lapsed := &model.Offer{Status: "settlement_approved", ExpiryPeriod: "2020-01-01"}
	assert.False(t, CanRespond(lapsed, now))

	closed := &model.Offer{Status: "paid"}
	assert.False(t, CanRespond(closed, now))
}

func TestFormatNaira(t *testing.T) {
	assert.Equal(t, "₦0.00", FormatNaira(0))
	assert.Equal(t, "₦950.00", FormatNaira(950))
	assert.Equal(t, "₦1,500.00", FormatNaira(1500))
	assert.Equal(t, "₦1,234,567.89", FormatNaira(1234567.89))
	assert.Equal(t, "-₦25,000.00", FormatNaira(-25000))
}

func TestSummarize(t *testing.T) {
	o := &model.Offer{
		Amount: 250000.50,
		Deductions: []model.Deduction{
			{Label: "Processing fee", Amount: 1500},
			{Label: "Excess", Amount: 25000},
		},
	}
	b := Summarize(o)
	assert.Equal(t, "₦250,000.50", b.Gross)
	assert.Equal(t, "₦223,500.50", b.Net)
	assert.Len(t, b.Deductions, 2)
	assert.Equal(t, "₦1,500.00", b.Deductions[0].Amount)
}
