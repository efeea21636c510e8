// Package model defines the strict internal types the portal works with, plus
// the loose wire shapes the upstream API actually returns. The upstream is
// duck-typed: the same concept arrives under several key names depending on
// which backend module produced it. Each wire type is normalized exactly once,
// at the API boundary, so call sites never reach for variant keys.
package model

import (
	"time"

	"github.com/puresec-ng/banyan-portal/internal/status"
)

// Claim is the normalized view of an upstream claim.
type Claim struct {
	ID           string          `json:"id"`
	ClaimNumber  string          `json:"claim_number"`
	Status       status.Type     `json:"status"`
	RawStatus    string          `json:"raw_status"`
	ClaimType    string          `json:"claim_type"`
	ClaimTypeID  string          `json:"claim_type_id,omitempty"`
	IncidentDate string          `json:"incident_date"`
	Description  string          `json:"description"`
	CreatedAt    time.Time       `json:"created_at"`
	Documents    []ClaimDocument `json:"documents"`
	Questions    []ClaimQuestion `json:"questions"`
	InfoRequests []InfoRequest   `json:"info_requests"`
	History      []HistoryEntry  `json:"history"`
}

// ClaimDocument is an uploaded document reference. The upstream sends the file
// location under image_url, file_url, or url depending on the uploading
// module; URL is the resolved one.
type ClaimDocument struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	URL        string `json:"url"`
	Verified   bool   `json:"verified"`
	UploadedAt string `json:"uploaded_at,omitempty"`
}

// ClaimQuestion is a question the insurer asked against a claim.
type ClaimQuestion struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Answered bool   `json:"answered"`
}

// InfoRequestKind distinguishes the two upstream request flavors.
type InfoRequestKind string

const (
	RequestDocument InfoRequestKind = "document_request"
	RequestInfo     InfoRequestKind = "additional_information"
)

// InfoRequest is an open request for more material on a claim. A response is
// submitted exactly once per request id.
type InfoRequest struct {
	ID        string          `json:"id"`
	Kind      InfoRequestKind `json:"kind"`
	Message   string          `json:"message"`
	Responded bool            `json:"responded"`
	CreatedAt string          `json:"created_at,omitempty"`
}

// HistoryEntry is one event in a claim's chronological history.
type HistoryEntry struct {
	Status    status.Type `json:"status"`
	RawStatus string      `json:"raw_status"`
	Note      string      `json:"note,omitempty"`
	At        string      `json:"at"`
}

// WireClaim mirrors the loose upstream claim payload.
type WireClaim struct {
	ID           any            `json:"id"`
	ClaimNumber  string         `json:"claim_number"`
	TrackingID   string         `json:"tracking_id"`
	Status       string         `json:"status"`
	ClaimType    *WireClaimType `json:"claim_type"`
	ClaimTypeStr string         `json:"claim_type_name"`
	IncidentDate string         `json:"incident_date"`
	Description  string         `json:"description"`
	CreatedAt    string         `json:"created_at"`
	Documents    []WireDocument `json:"documents"`
	Questions    []WireQuestion `json:"questions"`
	InfoRequests []WireRequest  `json:"information_requests"`
	History      []WireHistory  `json:"claim_history"`
}

// WireClaimType may arrive as an object or be flattened into claim_type_name.
type WireClaimType struct {
	ID   any    `json:"id"`
	Name string `json:"name"`
}

// WireDocument carries every key the upstream has ever used for a file URL.
type WireDocument struct {
	ID       any    `json:"id"`
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	ImageURL string `json:"image_url"`
	FileURL  string `json:"file_url"`
	URL      string `json:"url"`
	Verified bool   `json:"verified"`
	Created  string `json:"created_at"`
}

type WireQuestion struct {
	ID       any    `json:"id"`
	Question string `json:"question"`
	Text     string `json:"text"`
	Answer   string `json:"answer"`
}

type WireRequest struct {
	ID        any    `json:"id"`
	Type      string `json:"type"`
	Kind      string `json:"request_type"`
	Message   string `json:"message"`
	Details   string `json:"details"`
	Responded bool   `json:"responded"`
	Response  string `json:"response"`
	CreatedAt string `json:"created_at"`
}

type WireHistory struct {
	Status    string `json:"status"`
	Note      string `json:"note"`
	Comment   string `json:"comment"`
	CreatedAt string `json:"created_at"`
	Date      string `json:"date"`
}

// Normalize maps the wire claim into the strict internal form.
func (w *WireClaim) Normalize() Claim {
	c := Claim{
		ID:           Stringify(w.ID),
		ClaimNumber:  firstNonEmpty(w.ClaimNumber, w.TrackingID),
		Status:       status.Normalize(w.Status),
		RawStatus:    w.Status,
		IncidentDate: w.IncidentDate,
		Description:  w.Description,
	}
	if w.ClaimType != nil {
		c.ClaimType = w.ClaimType.Name
		c.ClaimTypeID = Stringify(w.ClaimType.ID)
	}
	if c.ClaimType == "" {
		c.ClaimType = w.ClaimTypeStr
	}
	if ts, err := ParseWireTime(w.CreatedAt); err == nil {
		c.CreatedAt = ts
	}
	c.Documents = make([]ClaimDocument, 0, len(w.Documents))
	for _, d := range w.Documents {
		c.Documents = append(c.Documents, d.Normalize())
	}
	c.Questions = make([]ClaimQuestion, 0, len(w.Questions))
	for _, q := range w.Questions {
		c.Questions = append(c.Questions, ClaimQuestion{
			ID:       Stringify(q.ID),
			Question: firstNonEmpty(q.Question, q.Text),
			Answer:   q.Answer,
			Answered: q.Answer != "",
		})
	}
	c.InfoRequests = make([]InfoRequest, 0, len(w.InfoRequests))
	for _, r := range w.InfoRequests {
		c.InfoRequests = append(c.InfoRequests, r.Normalize())
	}
	c.History = make([]HistoryEntry, 0, len(w.History))
	for _, h := range w.History {
		c.History = append(c.History, HistoryEntry{
			Status:    status.Normalize(h.Status),
			RawStatus: h.Status,
			Note:      firstNonEmpty(h.Note, h.Comment),
			At:        firstNonEmpty(h.CreatedAt, h.Date),
		})
	}
	return c
}

// Normalize resolves the variant URL keys in priority order image_url,
// file_url, url — the order the upstream modules were introduced in.
func (w *WireDocument) Normalize() ClaimDocument {
	return ClaimDocument{
		ID:         Stringify(w.ID),
		Name:       firstNonEmpty(w.Name, w.FileName),
		URL:        firstNonEmpty(w.ImageURL, w.FileURL, w.URL),
		Verified:   w.Verified,
		UploadedAt: w.Created,
	}
}

// Normalize resolves the request kind; anything that is not a document
// request is treated as an additional-information request.
func (w *WireRequest) Normalize() InfoRequest {
	kind := firstNonEmpty(w.Type, w.Kind)
	k := RequestInfo
	if kind == string(RequestDocument) {
		k = RequestDocument
	}
	return InfoRequest{
		ID:        Stringify(w.ID),
		Kind:      k,
		Message:   firstNonEmpty(w.Message, w.Details),
		Responded: w.Responded || w.Response != "",
		CreatedAt: w.CreatedAt,
	}
}
