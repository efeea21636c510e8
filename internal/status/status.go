// Package status maps the free-text claim status strings returned by the
// upstream API onto a closed display vocabulary with badge styling.
package status

import "strings"

// Type is the closed set of display statuses. The raw upstream value is never
// shown directly; it is normalized on every read.
type Type string

const (
	Submitted          Type = "SUBMITTED"
	DocumentsVerified  Type = "DOCUMENTS_VERIFIED"
	InReview           Type = "IN_REVIEW"
	Approved           Type = "APPROVED"
	Rejected           Type = "REJECTED"
	PendingDocuments   Type = "PENDING_DOCUMENTS"
	DocumentsRequested Type = "DOCUMENTS_REQUESTED"
	PendingResponse    Type = "PENDING_RESPONSE"
	Pending            Type = "PENDING"
	OfferAccepted      Type = "OFFER_ACCEPTED"
	OfferPaid          Type = "OFFER_PAID"
	Default            Type = "DEFAULT"
)

// Badge carries the presentation pair associated with a display status.
type Badge struct {
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

// synonyms is the case-insensitive lookup table from raw upstream strings to
// display statuses. Unlisted values fall through to Submitted, matching the
// behavior the portal has always shown for brand-new claims.
var synonyms = map[string]Type{
	"submitted":           Submitted,
	"new":                 Submitted,
	"received":            Submitted,
	"documents_verified":  DocumentsVerified,
	"documents verified":  DocumentsVerified,
	"verified":            DocumentsVerified,
	"in_review":           InReview,
	"in review":           InReview,
	"under_review":        InReview,
	"reviewing":           InReview,
	"approved":            Approved,
	"settlement_approved": Approved,
	"rejected":            Rejected,
	"declined":            Rejected,
	"denied":              Rejected,
	"pending_documents":   PendingDocuments,
	"awaiting_documents":  PendingDocuments,
	"documents_requested": DocumentsRequested,
	"document_request":    DocumentsRequested,
	"pending_response":    PendingResponse,
	"awaiting_response":   PendingResponse,
	"pending":             Pending,
	"processing":          Pending,
	"client_accepted":     OfferAccepted,
	"offer_accepted":      OfferAccepted,
	"accepted":            OfferAccepted,
	"paid":                OfferPaid,
	"offer_paid":          OfferPaid,
	"settled":             OfferPaid,
	"unknown":             Submitted,
	"default":             Submitted,
}

var badges = map[Type]Badge{
	Submitted:          {Color: "blue", Icon: "file-plus"},
	DocumentsVerified:  {Color: "teal", Icon: "file-check"},
	InReview:           {Color: "amber", Icon: "search"},
	Approved:           {Color: "green", Icon: "check-circle"},
	Rejected:           {Color: "red", Icon: "x-circle"},
	PendingDocuments:   {Color: "orange", Icon: "file-warning"},
	DocumentsRequested: {Color: "orange", Icon: "file-question"},
	PendingResponse:    {Color: "amber", Icon: "message-circle"},
	Pending:            {Color: "gray", Icon: "clock"},
	OfferAccepted:      {Color: "green", Icon: "handshake"},
	OfferPaid:          {Color: "emerald", Icon: "banknote"},
	Default:            {Color: "gray", Icon: "circle"},
}

// Normalize converts a raw upstream status string into a display status. It is
// pure and total: empty, mixed-case, and unrecognized inputs all resolve to
// Submitted.
func Normalize(raw string) Type {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := synonyms[key]; ok {
		return t
	}
	return Submitted
}

// Lookup resolves a raw status string against the synonym table without the
// Submitted fallback. The second return reports whether the value is known.
func Lookup(raw string) (Type, bool) {
	t, ok := synonyms[strings.ToLower(strings.TrimSpace(raw))]
	return t, ok
}

// BadgeFor returns the presentation pair for a display status. Unknown values
// get the Default badge.
func BadgeFor(t Type) Badge {
	if b, ok := badges[t]; ok {
		return b
	}
	return badges[Default]
}
