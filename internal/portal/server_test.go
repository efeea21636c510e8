package portal

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/config"
	"github.com/puresec-ng/banyan-portal/internal/model"
	"github.com/puresec-ng/banyan-portal/internal/profile"
	"github.com/puresec-ng/banyan-portal/internal/querycache"
	"github.com/puresec-ng/banyan-portal/internal/queue"
	"github.com/puresec-ng/banyan-portal/internal/repository"
	"github.com/puresec-ng/banyan-portal/internal/session"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

type fakeAPI struct {
	mu sync.Mutex

	loginResult *upstream.AuthResult
	loginErr    error

	claims    []model.Claim
	listCalls int
	getCalls  int

	offer     *model.Offer
	offerErr  error
	processed []upstream.OfferAction

	profile *model.Profile

	submissions []upstream.ClaimSubmission
	submitKeys  []string
	submitErr   error

	bvnStarted   []string
	otpConfirmed []string

	infoResponses []string
}

func (f *fakeAPI) Login(email, password string) (*upstream.AuthResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResult != nil {
		return f.loginResult, nil
	}
	res := &upstream.AuthResult{Token: "tok-123", UserType: "client"}
	res.User.Email = email
	return res, nil
}

func (f *fakeAPI) Register(req upstream.RegisterRequest) (*upstream.AuthResult, error) {
	res := &upstream.AuthResult{Token: "tok-reg", UserType: "client"}
	res.User.Email = req.Email
	res.User.FirstName = req.FirstName
	return res, nil
}

func (f *fakeAPI) ListClaims(creds *upstream.Credentials) ([]model.Claim, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return f.claims, nil
}

func (f *fakeAPI) GetClaim(creds *upstream.Credentials, id string) (*model.Claim, error) {
	f.mu.Lock()
	f.getCalls++
	f.mu.Unlock()
	for i := range f.claims {
		if f.claims[i].ID == id {
			return &f.claims[i], nil
		}
	}
	return nil, &upstream.APIError{Message: "Resource not found.", Status: http.StatusNotFound}
}

func (f *fakeAPI) TrackClaim(trackingNumber string) (*model.Claim, error) {
	if len(f.claims) == 0 {
		return nil, &upstream.APIError{Message: "Resource not found.", Status: http.StatusNotFound}
	}
	return &f.claims[0], nil
}

func (f *fakeAPI) GetOffer(creds *upstream.Credentials, claimID string) (*model.Offer, error) {
	if f.offerErr != nil {
		return nil, f.offerErr
	}
	if f.offer == nil {
		return nil, upstream.ErrNoOffer
	}
	return f.offer, nil
}

func (f *fakeAPI) ProcessOffer(creds *upstream.Credentials, offerID string, action upstream.OfferAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.processed = append(f.processed, action)
	return nil
}

func (f *fakeAPI) RespondInfoRequest(creds *upstream.Credentials, requestID, text, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoResponses = append(f.infoResponses, requestID)
	return nil
}

func (f *fakeAPI) GetProfile(creds *upstream.Credentials) (*model.Profile, error) {
	if f.profile != nil {
		return f.profile, nil
	}
	return &model.Profile{Email: "ada@example.com"}, nil
}

func (f *fakeAPI) SubmitClaim(creds *upstream.Credentials, sub upstream.ClaimSubmission, key string) (*upstream.SubmissionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.submissions = append(f.submissions, sub)
	f.submitKeys = append(f.submitKeys, key)
	return &upstream.SubmissionResult{TrackingNumber: "TRK-0042"}, nil
}

func (f *fakeAPI) VerifyBVN(creds *upstream.Credentials, bvn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bvnStarted = append(f.bvnStarted, bvn)
	return nil
}

func (f *fakeAPI) ConfirmBVNOTP(creds *upstream.Credentials, otp string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpConfirmed = append(f.otpConfirmed, otp)
	return nil
}

func (f *fakeAPI) LinkBankAccount(creds *upstream.Credentials, bankCode, accountNumber string) (*model.BankAccount, error) {
	return &model.BankAccount{BankCode: bankCode, AccountNumber: accountNumber}, nil
}

func (f *fakeAPI) ChangePassword(creds *upstream.Credentials, current, next string) error { return nil }
func (f *fakeAPI) ChangePIN(creds *upstream.Credentials, current, next string) error     { return nil }

// memoryDocs is an in-memory DocumentIndex.
type memoryDocs struct {
	mu   sync.Mutex
	docs []repository.StagedDocument
}

func (m *memoryDocs) Create(_ context.Context, doc *repository.StagedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, *doc)
	return nil
}

func (m *memoryDocs) ListByOwner(_ context.Context, ownerID string) ([]repository.StagedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]repository.StagedDocument, 0, len(m.docs))
	for _, d := range m.docs {
		if d.OwnerID == ownerID {
			out = append(out, d)
		}
	}
	return out, nil
}

type memoryStager struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryStager) Put(_ context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[key] = data
	return nil
}

func (m *memoryStager) PresignURL(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://staging.test/" + key, nil
}

type harness struct {
	server  *Server
	handler http.Handler
	api     *fakeAPI
	docs    *memoryDocs
	stager  *memoryStager
	queued  *[]queue.ForwardPayload
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := &config.Config{
		Env:              "test",
		CookieDomain:     "banyanclaims.com",
		CookieSecret:     []byte("0123456789abcdef0123456789abcdef"),
		SessionTTL:       48 * time.Hour,
		InactivityWindow: 5 * time.Minute,
		MaxFileSize:      10 << 20,
		AllowedTypes:     []string{"application/pdf", "image/png", "image/jpeg"},
	}
	api := &fakeAPI{}
	log := zap.NewNop()
	sessions := session.NewManager(cfg, session.NewMemoryStore())
	machine := wizard.NewMachine(wizard.NewMemoryStore(), api, log)
	docs := &memoryDocs{}
	stager := &memoryStager{}
	queued := []queue.ForwardPayload{}
	enqueue := func(_ context.Context, p queue.ForwardPayload) error {
		queued = append(queued, p)
		return nil
	}
	cache := querycache.New(time.Minute)
	profiles := profile.NewService(api, profile.NewMemoryBVNStore(), log)
	srv := New(cfg, log, sessions, machine, api, docs, stager, enqueue, cache, profiles)
	return &harness{
		server:  srv,
		handler: srv.Routes(),
		api:     api,
		docs:    docs,
		stager:  stager,
		queued:  &queued,
	}
}

func (h *harness) do(t *testing.T, method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) login(t *testing.T) *http.Cookie {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "ada@example.com",
		"password": "secret-pass",
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func decodeInto(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func TestLoginSetsSessionCookie(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, "banyanclaims.com", cookie.Domain)
}

func TestLoginRejectsBadEmail(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodPost, "/auth/login", map[string]string{
		"email":    "not an email",
		"password": "secret-pass",
	}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decodeInto(t, rec, &body)
	assert.Contains(t, body.Fields, "email")
}

func TestAuthenticatedRoutesRequireCookie(t *testing.T) {
	h := newHarness(t)
	rec := h.do(t, http.MethodGet, "/claims", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTamperedCookieRejected(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	cookie.Value = cookie.Value + "x"
	rec := h.do(t, http.MethodGet, "/claims", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestListClaimsCachedAndFiltered(t *testing.T) {
	h := newHarness(t)
	h.api.claims = []model.Claim{
		{ID: "1", Status: "APPROVED", RawStatus: "approved"},
		{ID: "2", Status: "SUBMITTED", RawStatus: "submitted"},
	}
	cookie := h.login(t)

	rec := h.do(t, http.MethodGet, "/claims", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Claims []claimView `json:"claims"`
	}
	decodeInto(t, rec, &body)
	assert.Len(t, body.Claims, 2)

	// Second read hits the cache.
	rec = h.do(t, http.MethodGet, "/claims", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.api.listCalls)

	rec = h.do(t, http.MethodGet, "/claims?status=approved", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &body)
	require.Len(t, body.Claims, 1)
	assert.Equal(t, "1", body.Claims[0].ID)

	// An unknown filter value matches nothing.
	rec = h.do(t, http.MethodGet, "/claims?status=garbage", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeInto(t, rec, &body)
	assert.Empty(t, body.Claims)
}

func TestGetClaimCachedUntilInvalidated(t *testing.T) {
	h := newHarness(t)
	h.api.claims = []model.Claim{{
		ID:           "412",
		Status:       "APPROVED",
		InfoRequests: []model.InfoRequest{{ID: "r1", Kind: model.RequestInfo}},
	}}
	cookie := h.login(t)

	for i := 0; i < 3; i++ {
		rec := h.do(t, http.MethodGet, "/claims/412", nil, cookie)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	assert.Equal(t, 1, h.api.getCalls)

	rec := h.do(t, http.MethodPost, "/claims/412/requests/r1/respond", map[string]string{"text": "sent"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	// Responding invalidated the detail entry, so the next read reloads.
	// The respond handler itself reads the claim once for its guard.
	rec = h.do(t, http.MethodGet, "/claims/412", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, h.api.getCalls)
}

func TestInfoRequestRespondOnce(t *testing.T) {
	h := newHarness(t)
	h.api.claims = []model.Claim{{
		ID: "7",
		InfoRequests: []model.InfoRequest{
			{ID: "req-open", Kind: model.RequestInfo},
			{ID: "req-done", Kind: model.RequestDocument, Responded: true},
		},
	}}
	cookie := h.login(t)

	rec := h.do(t, http.MethodPost, "/claims/7/requests/req-open/respond", map[string]string{"text": "sent by post"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"req-open"}, h.api.infoResponses)

	rec = h.do(t, http.MethodPost, "/claims/7/requests/req-done/respond", map[string]string{"text": "again"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, h.api.infoResponses, 1)

	rec = h.do(t, http.MethodPost, "/claims/7/requests/req-open/respond", map[string]string{}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestGetOfferAbsentIsNotAnError(t *testing.T) {
	h := newHarness(t)
	h.api.claims = []model.Claim{{ID: "9"}}
	cookie := h.login(t)
	rec := h.do(t, http.MethodGet, "/claims/9/offer", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var body offerView
	decodeInto(t, rec, &body)
	assert.Nil(t, body.Offer)
	assert.False(t, body.CanRespond)
}

func TestOfferAcceptFlow(t *testing.T) {
	h := newHarness(t)
	h.api.offer = &model.Offer{
		ID:           "off-1",
		ClaimID:      "9",
		Amount:       500000,
		Status:       "settlement_approved",
		ExpiryPeriod: time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
	}
	cookie := h.login(t)

	rec := h.do(t, http.MethodGet, "/claims/9/offer", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var view offerView
	decodeInto(t, rec, &view)
	require.NotNil(t, view.Offer)
	assert.True(t, view.CanRespond)

	rec = h.do(t, http.MethodPost, "/claims/9/offer/respond", map[string]string{"action": "accept"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, h.api.processed, 1)
	assert.Equal(t, upstream.OfferAccept, h.api.processed[0])
}

func TestOfferRespondRejectsExpired(t *testing.T) {
	h := newHarness(t)
	expired := true
	h.api.offer = &model.Offer{ID: "off-1", Status: "settlement_approved", Expired: &expired}
	cookie := h.login(t)
	rec := h.do(t, http.MethodPost, "/claims/9/offer/respond", map[string]string{"action": "accept"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, h.api.processed)
}

func TestWizardStepGatingOverHTTP(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	// Jumping ahead redirects to the earliest missing step.
	rec := h.do(t, http.MethodPut, "/wizard/steps/personal_info", map[string]any{
		"first_name": "Ada", "last_name": "Obi",
		"email": "ada@example.com", "phone": "08012345678",
	}, cookie)
	require.Equal(t, http.StatusConflict, rec.Code)
	var conflict struct {
		RedirectStep wizard.Step `json:"redirect_step"`
	}
	decodeInto(t, rec, &conflict)
	assert.Equal(t, wizard.StepClaimType, conflict.RedirectStep)

	rec = h.do(t, http.MethodPut, "/wizard/steps/claim_type", map[string]string{"claim_type_id": "3"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var view wizardView
	decodeInto(t, rec, &view)
	assert.Equal(t, wizard.StepBasicInfo, view.CurrentStep)
}

func TestWizardValidationErrorsOverHTTP(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	rec := h.do(t, http.MethodPut, "/wizard/steps/claim_type", map[string]string{"claim_type_id": "3"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodPut, "/wizard/steps/basic_info", map[string]string{
		"incident_date": "not-a-date",
		"description":   "rear-ended at Falomo roundabout",
	}, cookie)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorResponse
	decodeInto(t, rec, &body)
	assert.Contains(t, body.Fields, "incident_date")
}

func completeWizard(t *testing.T, h *harness, cookie *http.Cookie) {
	t.Helper()
	steps := []struct {
		step string
		body any
	}{
		{"claim_type", map[string]string{"claim_type_id": "3"}},
		{"basic_info", map[string]string{
			"incident_date": time.Now().UTC().AddDate(0, 0, -1).Format("2006-01-02"),
			"description":   "rear-ended at Falomo roundabout",
		}},
		{"personal_info", map[string]string{
			"first_name": "Ada", "last_name": "Obi",
			"email": "ada@example.com", "phone": "+2348012345678",
		}},
		{"requirements", map[string]any{
			"confirmed": true,
			"answers":   map[string]string{"police_report": "yes"},
		}},
	}
	for _, s := range steps {
		rec := h.do(t, http.MethodPut, "/wizard/steps/"+s.step, s.body, cookie)
		require.Equal(t, http.StatusOK, rec.Code, "step %s: %s", s.step, rec.Body.String())
	}
}

func TestWizardSubmitWithoutDocuments(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	completeWizard(t, h, cookie)

	rec := h.do(t, http.MethodPost, "/wizard/submit", map[string]bool{"skip_documents": true}, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result upstream.SubmissionResult
	decodeInto(t, rec, &result)
	assert.Equal(t, "TRK-0042", result.TrackingNumber)
	require.Len(t, h.api.submissions, 1)
	assert.Equal(t, "3", h.api.submissions[0].ClaimType)
	assert.Empty(t, h.api.submissions[0].DocumentURLs)
}

func TestWizardSubmitBlockedWhileDocumentsProcess(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	completeWizard(t, h, cookie)

	// Stage a document that has not been forwarded yet.
	uploadRec := h.upload(t, cookie, "report.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.Equal(t, http.StatusCreated, uploadRec.Code, uploadRec.Body.String())

	rec := h.do(t, http.MethodPost, "/wizard/submit", nil, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, h.api.submissions)
}

func (h *harness) upload(t *testing.T, cookie *http.Cookie, name, contentType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="file"; filename="` + name + `"`}
	hdr["Content-Type"] = []string{contentType}
	pw, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = pw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/wizard/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadStagesAndQueues(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	completeWizard(t, h, cookie)

	rec := h.upload(t, cookie, "report.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var doc repository.StagedDocument
	decodeInto(t, rec, &doc)
	assert.Equal(t, "report.pdf", doc.FileName)
	assert.Equal(t, repository.StagedQueued, doc.Status)
	require.Len(t, *h.queued, 1)
	assert.Equal(t, doc.ID, (*h.queued)[0].DocumentID)
	assert.Contains(t, h.stager.objects, doc.ObjectKey)

	// The pending document lists with a staging preview link.
	listRec := h.do(t, http.MethodGet, "/wizard/documents", nil, cookie)
	require.Equal(t, http.StatusOK, listRec.Code)
	var listing struct {
		Documents []stagedDocView `json:"documents"`
	}
	decodeInto(t, listRec, &listing)
	require.Len(t, listing.Documents, 1)
	assert.Equal(t, "https://staging.test/"+doc.ObjectKey, listing.Documents[0].PreviewURL)
}

func TestUploadRejectsDisallowedType(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	completeWizard(t, h, cookie)

	rec := h.upload(t, cookie, "notes.txt", "text/plain", []byte("just text"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Empty(t, *h.queued)
}

func TestUploadBlockedBeforeRequirements(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	rec := h.upload(t, cookie, "report.pdf", "application/pdf", []byte("%PDF-1.4 test"))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestBVNFlowOverHTTP(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	rec := h.do(t, http.MethodPost, "/profile/bvn/start", map[string]string{"bvn": "12345678901"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/profile/bvn/confirm", map[string]string{"otp": "123456"}, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/profile", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	var view profileView
	decodeInto(t, rec, &view)
	require.NotNil(t, view.BVN)
	assert.Equal(t, "*******8901", view.BVN.MaskedTail)
}

func TestBVNConfirmWithoutStart(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)
	rec := h.do(t, http.MethodPost, "/profile/bvn/confirm", map[string]string{"otp": "123456"}, cookie)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t)
	cookie := h.login(t)

	rec := h.do(t, http.MethodPost, "/auth/logout", nil, cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/claims", nil, cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTrackClaimIsPublic(t *testing.T) {
	h := newHarness(t)
	h.api.claims = []model.Claim{{ID: "1", ClaimNumber: "CLM-1", Status: "SUBMITTED"}}
	rec := h.do(t, http.MethodPost, "/claims/track", map[string]string{"tracking_number": "TRK-0042"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var view claimView
	decodeInto(t, rec, &view)
	assert.Equal(t, "CLM-1", view.ClaimNumber)
	assert.NotEmpty(t, view.Badge.Color)
}
