package model

// Offer is the normalized settlement offer for a claim.
type Offer struct {
	ID               string      `json:"id"`
	ClaimID          string      `json:"claim_id"`
	Amount           float64     `json:"amount"`
	Deductions       []Deduction `json:"deductions"`
	ExpiryPeriod     string      `json:"expiry_period,omitempty"`
	Expired          *bool       `json:"expired,omitempty"`
	Status           string      `json:"status"`
	AcceptanceStatus string      `json:"offer_acceptance_status,omitempty"`
	CreatedAt        string      `json:"created_at,omitempty"`
}

// Deduction is one line of the payment breakdown.
type Deduction struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// WireOffer mirrors the loose upstream offer payload. Amount arrives as a
// number or a numeric string; deductions under two key names.
type WireOffer struct {
	ID               any             `json:"id"`
	ClaimID          any             `json:"claim_id"`
	Amount           any             `json:"amount"`
	SettlementAmount any             `json:"settlement_amount"`
	Deductions       []WireDeduction `json:"deductions"`
	Fees             []WireDeduction `json:"fees"`
	ExpiryPeriod     string          `json:"expiry_period"`
	Expired          *bool           `json:"expired"`
	Status           string          `json:"status"`
	AcceptanceStatus string          `json:"offer_acceptance_status"`
	CreatedAt        string          `json:"created_at"`
}

type WireDeduction struct {
	Label       string `json:"label"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Amount      any    `json:"amount"`
	Value       any    `json:"value"`
}

// Normalize maps the wire offer into the strict internal form.
func (w *WireOffer) Normalize() Offer {
	o := Offer{
		ID:               Stringify(w.ID),
		ClaimID:          Stringify(w.ClaimID),
		Amount:           ToFloat(coalesceAny(w.Amount, w.SettlementAmount)),
		ExpiryPeriod:     w.ExpiryPeriod,
		Expired:          w.Expired,
		Status:           w.Status,
		AcceptanceStatus: w.AcceptanceStatus,
		CreatedAt:        w.CreatedAt,
	}
	lines := w.Deductions
	if len(lines) == 0 {
		lines = w.Fees
	}
	o.Deductions = make([]Deduction, 0, len(lines))
	for _, d := range lines {
		o.Deductions = append(o.Deductions, Deduction{
			Label:  firstNonEmpty(d.Label, d.Name, d.Description),
			Amount: ToFloat(coalesceAny(d.Amount, d.Value)),
		})
	}
	return o
}

// Net returns the settlement amount after deductions.
func (o Offer) Net() float64 {
	net := o.Amount
	for _, d := range o.Deductions {
		net -= d.Amount
	}
	return net
}
