// Package upstream is the portal's only gateway to the remote claims API.
// Every outbound request flows through Client, which attaches the caller's
// bearer token and user type, enforces the fixed request timeout, unwraps
// response envelopes, and classifies every failure into the message taxonomy.
// Requests are not cancellable once issued; the timeout is the only cutoff.
package upstream

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/config"
	"github.com/puresec-ng/banyan-portal/internal/model"
)

// Credentials identify the acting user on authenticated calls.
type Credentials struct {
	Token    string
	UserType string
}

// Client talks to the upstream claims API.
type Client struct {
	base    string
	http    *fasthttp.Client
	timeout time.Duration
	log     *zap.Logger

	// onUnauthorized is invoked fire-and-forget when the upstream returns
	// 401 for an authenticated call; it must not block error propagation.
	onUnauthorized func(token string)
}

// New builds a Client from config.
func New(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		base: cfg.UpstreamBaseURL,
		http: &fasthttp.Client{
			MaxConnsPerHost: 64,
			ReadTimeout:     cfg.UpstreamTimeout,
			WriteTimeout:    cfg.UpstreamTimeout,
		},
		timeout: cfg.UpstreamTimeout,
		log:     log,
	}
}

// SetUnauthorizedHook registers the session-clear side effect for 401s.
func (c *Client) SetUnauthorizedHook(fn func(token string)) {
	c.onUnauthorized = fn
}

// envelope is the upstream's standard response wrapper. Some endpoints return
// bare payloads; when data is absent the whole body is treated as the payload.
type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) do(method, path string, creds *Credentials, body []byte, contentType string, extraHeaders map[string]string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(c.base + path)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.SetContentType(contentType)
	}
	if creds != nil {
		req.Header.Set("Authorization", "Bearer "+creds.Token)
		req.Header.Set("X-User-Type", creds.UserType)
	}
	for k, v := range extraHeaders {
		req.Header.Set(k, v)
	}
	if body != nil {
		req.SetBody(body)
	}

	if err := c.http.DoTimeout(req, resp, c.timeout); err != nil {
		code := CodeNetwork
		if errors.Is(err, fasthttp.ErrTimeout) {
			code = CodeTimeout
		}
		c.log.Warn("upstream request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return nil, &APIError{Message: Classify(code, 0, nil), Code: code}
	}

	statusCode := resp.StatusCode()
	payload := append([]byte(nil), resp.Body()...)
	if statusCode >= 400 {
		if statusCode == http.StatusUnauthorized && creds != nil && c.onUnauthorized != nil {
			go c.onUnauthorized(creds.Token)
		}
		return nil, &APIError{
			Message: Classify("", statusCode, payload),
			Status:  statusCode,
		}
	}
	return unwrap(payload), nil
}

// unwrap extracts the data payload from the standard envelope when present.
func unwrap(body []byte) []byte {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

func (c *Client) getJSON(path string, creds *Credentials, out any) error {
	body, err := c.do(http.MethodGet, path, creds, nil, "", nil)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) postJSON(path string, creds *Credentials, in, out any, headers map[string]string) error {
	var body []byte
	if in != nil {
		var err error
		body, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
	}
	respBody, err := c.do(http.MethodPost, path, creds, body, "application/json", headers)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// AuthResult is the normalized login/registration outcome.
type AuthResult struct {
	Token    string `json:"token"`
	UserType string `json:"user_type"`
	User     struct {
		ID        any    `json:"id"`
		FirstName string `json:"first_name"`
		Email     string `json:"email"`
	} `json:"user"`
}

// Login authenticates a client and returns the bearer token.
func (c *Client) Login(email, password string) (*AuthResult, error) {
	var out AuthResult
	req := map[string]string{"email": email, "password": password}
	if err := c.postJSON("/auth/login", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// RegisterRequest carries the new-client registration payload.
type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// Register creates a new client account.
func (c *Client) Register(req RegisterRequest) (*AuthResult, error) {
	var out AuthResult
	if err := c.postJSON("/auth/register", nil, req, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListClaims returns the caller's claims, normalized.
func (c *Client) ListClaims(creds *Credentials) ([]model.Claim, error) {
	var wire []model.WireClaim
	if err := c.getJSON("/claims", creds, &wire); err != nil {
		return nil, err
	}
	claims := make([]model.Claim, 0, len(wire))
	for i := range wire {
		claims = append(claims, wire[i].Normalize())
	}
	return claims, nil
}

// GetClaim returns one claim with its documents, questions, requests, and
// history, normalized.
func (c *Client) GetClaim(creds *Credentials, id string) (*model.Claim, error) {
	var wire model.WireClaim
	if err := c.getJSON("/claims/"+id, creds, &wire); err != nil {
		return nil, err
	}
	claim := wire.Normalize()
	return &claim, nil
}

// TrackClaim looks a claim up by tracking number. This is a public endpoint.
func (c *Client) TrackClaim(trackingNumber string) (*model.Claim, error) {
	var wire model.WireClaim
	req := map[string]string{"tracking_number": trackingNumber}
	if err := c.postJSON("/claims/track-claim", nil, req, &wire, nil); err != nil {
		return nil, err
	}
	claim := wire.Normalize()
	return &claim, nil
}

// ClaimSubmission is the assembled create-claim payload.
type ClaimSubmission struct {
	ClaimType    string            `json:"claim_type"`
	IncidentDate string            `json:"incident_date"`
	IncidentTime string            `json:"incident_time,omitempty"`
	Description  string            `json:"description"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Email        string            `json:"email"`
	Phone        string            `json:"phone"`
	Answers      map[string]string `json:"requirements,omitempty"`
	DocumentURLs []string          `json:"documents,omitempty"`
}

// SubmissionResult carries the tracking number returned for a new claim.
type SubmissionResult struct {
	TrackingNumber string `json:"tracking_number"`
	ClaimID        any    `json:"claim_id"`
}

// SubmitClaim issues exactly one create-claim call. The idempotency key is
// generated once per wizard instance so an accidental resubmission cannot
// create a duplicate claim.
func (c *Client) SubmitClaim(creds *Credentials, sub ClaimSubmission, idempotencyKey string) (*SubmissionResult, error) {
	var out SubmissionResult
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := c.postJSON("/claims", creds, sub, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOffer fetches the settlement offer for a claim. A 404 means no offer
// exists yet and is reported as ErrNoOffer, not a user-facing error.
func (c *Client) GetOffer(creds *Credentials, claimID string) (*model.Offer, error) {
	var wire model.WireOffer
	err := c.getJSON("/claims/claim-offer/"+claimID, creds, &wire)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, ErrNoOffer
		}
		return nil, err
	}
	offer := wire.Normalize()
	return &offer, nil
}

// OfferAction is the accept/reject verb for ProcessOffer.
type OfferAction string

const (
	OfferAccept OfferAction = "accept"
	OfferReject OfferAction = "reject"
)

// ProcessOffer records the client's decision on a settlement offer.
func (c *Client) ProcessOffer(creds *Credentials, offerID string, action OfferAction) error {
	req := map[string]string{"offer_id": offerID, "action": string(action)}
	return c.postJSON("/claims/process-claim-offer", creds, req, nil, nil)
}

// RespondInfoRequest submits the one-shot response to an information request.
// Exactly one of text or fileURL is set, depending on the request kind.
func (c *Client) RespondInfoRequest(creds *Credentials, requestID, text, fileURL string) error {
	req := map[string]string{"request_id": requestID}
	if text != "" {
		req["response"] = text
	}
	if fileURL != "" {
		req["file_url"] = fileURL
	}
	return c.postJSON("/claims/respond-information-requests", creds, req, nil, nil)
}

// UploadDocument forwards a file to the upstream as multipart form data with
// the single field name the API expects, and returns the stored file URL.
func (c *Client) UploadDocument(creds *Credentials, filename, contentType string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart writer: %w", err)
	}
	body, err := c.do(http.MethodPost, "/upload-document", creds, buf.Bytes(), mw.FormDataContentType(), nil)
	if err != nil {
		return "", err
	}
	var out model.WireDocument
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	doc := out.Normalize()
	if doc.URL == "" {
		return "", errors.New("upload response missing file url")
	}
	return doc.URL, nil
}

// GetProfile returns the caller's profile, normalized.
func (c *Client) GetProfile(creds *Credentials) (*model.Profile, error) {
	var wire model.WireProfile
	if err := c.getJSON("/profile", creds, &wire); err != nil {
		return nil, err
	}
	profile := wire.Normalize()
	return &profile, nil
}

// VerifyBVN starts BVN verification; the upstream sends an OTP to the phone
// number registered against the BVN.
func (c *Client) VerifyBVN(creds *Credentials, bvn string) error {
	return c.postJSON("/profile/verify-bvn", creds, map[string]string{"bvn": bvn}, nil, nil)
}

// ConfirmBVNOTP completes BVN verification with the one-time password.
func (c *Client) ConfirmBVNOTP(creds *Credentials, otp string) error {
	return c.postJSON("/profile/confirm-bvn-otp", creds, map[string]string{"otp": otp}, nil, nil)
}

// LinkBankAccount attaches a payout account to the profile.
func (c *Client) LinkBankAccount(creds *Credentials, bankCode, accountNumber string) (*model.BankAccount, error) {
	req := map[string]string{"bank_code": bankCode, "account_number": accountNumber}
	var wire model.WireProfile
	if err := c.postJSON("/profile/bank-account", creds, req, &wire, nil); err != nil {
		return nil, err
	}
	p := wire.Normalize()
	if p.BankAccount == nil {
		return nil, errors.New("bank account missing from response")
	}
	return p.BankAccount, nil
}

// ChangePassword rotates the account password.
func (c *Client) ChangePassword(creds *Credentials, current, next string) error {
	req := map[string]string{"current_password": current, "new_password": next}
	return c.postJSON("/profile/change-password", creds, req, nil, nil)
}

// ChangePIN rotates the transaction PIN.
func (c *Client) ChangePIN(creds *Credentials, current, next string) error {
	req := map[string]string{"current_pin": current, "new_pin": next}
	return c.postJSON("/profile/change-pin", creds, req, nil, nil)
}
