// Package offer holds the pure derivations the portal computes over a
// settlement offer: expiry, whether the client may still respond, and the
// naira-formatted payment breakdown. The upstream owns the offer itself.
package offer

import (
	"strconv"
	"strings"
	"time"

	"github.com/puresec-ng/banyan-portal/internal/model"
)

// respondableStatuses are the upstream statuses under which a decision is
// still open.
var respondableStatuses = map[string]bool{
	"settlement_approved": true,
	"pending":             true,
}

// Expired reports whether the offer has lapsed. An explicit expired field
// from the upstream takes precedence; otherwise the expiry period is compared
// against now. An unparseable or absent expiry never expires an offer.
func Expired(o *model.Offer, now time.Time) bool {
	if o.Expired != nil {
		return *o.Expired
	}
	if o.ExpiryPeriod == "" {
		return false
	}
	expiry, err := model.ParseWireTime(o.ExpiryPeriod)
	if err != nil {
		return false
	}
	return now.After(expiry)
}

// CanRespond reports whether accept/reject actions are still available: the
// status must be open, no decision recorded, and the offer not expired.
func CanRespond(o *model.Offer, now time.Time) bool {
	return respondableStatuses[strings.ToLower(o.Status)] &&
		o.AcceptanceStatus == "" &&
		!Expired(o, now)
}

// BreakdownLine is one row of the display breakdown.
type BreakdownLine struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// Breakdown is the formatted payment summary shown on the offer page.
type Breakdown struct {
	Gross      string          `json:"gross"`
	Deductions []BreakdownLine `json:"deductions"`
	Net        string          `json:"net"`
}

// Summarize renders the offer's payment breakdown with naira formatting.
func Summarize(o *model.Offer) Breakdown {
	b := Breakdown{
		Gross:      FormatNaira(o.Amount),
		Deductions: make([]BreakdownLine, 0, len(o.Deductions)),
		Net:        FormatNaira(o.Net()),
	}
	for _, d := range o.Deductions {
		b.Deductions = append(b.Deductions, BreakdownLine{
			Label:  d.Label,
			Amount: FormatNaira(d.Amount),
		})
	}
	return b
}

// FormatNaira renders an amount as ₦1,234,567.89.
func FormatNaira(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var sb strings.Builder
	if negative {
		sb.WriteString("-")
	}
	sb.WriteString("₦")
	for i, ch := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(ch)
	}
	sb.WriteByte('.')
	sb.WriteString(frac)
	return sb.String()
}
