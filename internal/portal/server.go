// Package portal exposes the client-facing HTTP API: authentication, the
// claim-submission wizard, the dashboard, claim tracking, settlement offers,
// and profile security settings. Handlers stay thin; claim lifecycle logic
// lives upstream and flow logic lives in the wizard/profile/offer packages.
package portal

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
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

// API is the slice of the upstream client the handlers call directly.
type API interface {
	Login(email, password string) (*upstream.AuthResult, error)
	Register(req upstream.RegisterRequest) (*upstream.AuthResult, error)
	ListClaims(creds *upstream.Credentials) ([]model.Claim, error)
	GetClaim(creds *upstream.Credentials, id string) (*model.Claim, error)
	TrackClaim(trackingNumber string) (*model.Claim, error)
	GetOffer(creds *upstream.Credentials, claimID string) (*model.Offer, error)
	ProcessOffer(creds *upstream.Credentials, offerID string, action upstream.OfferAction) error
	RespondInfoRequest(creds *upstream.Credentials, requestID, text, fileURL string) error
	GetProfile(creds *upstream.Credentials) (*model.Profile, error)
}

// Stager persists uploads to the staging bucket and hands out short-lived
// preview links.
type Stager interface {
	Put(ctx context.Context, objectKey string, reader io.Reader, size int64, contentType string) error
	PresignURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// DocumentIndex is the slice of the staged-document repository the handlers
// use.
type DocumentIndex interface {
	Create(ctx context.Context, doc *repository.StagedDocument) error
	ListByOwner(ctx context.Context, ownerID string) ([]repository.StagedDocument, error)
}

// Server hosts the portal HTTP handlers.
type Server struct {
	cfg      *config.Config
	log      *zap.Logger
	sessions *session.Manager
	machine  *wizard.Machine
	api      API
	docs     DocumentIndex
	stager   Stager
	enqueue  func(ctx context.Context, payload queue.ForwardPayload) error
	cache    *querycache.Cache
	profiles *profile.Service

	server *http.Server
	once   sync.Once
}

// New constructs a Server.
func New(cfg *config.Config, log *zap.Logger, sessions *session.Manager, machine *wizard.Machine, api API,
	docs DocumentIndex, stager Stager,
	enqueue func(ctx context.Context, payload queue.ForwardPayload) error,
	cache *querycache.Cache, profiles *profile.Service) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		sessions: sessions,
		machine:  machine,
		api:      api,
		docs:     docs,
		stager:   stager,
		enqueue:  enqueue,
		cache:    cache,
		profiles: profiles,
	}
}

// Routes builds the router. Exported so tests can exercise handlers without
// binding a socket.
func (s *Server) Routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logging)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)

	// Public surface.
	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/claims/track", s.handleTrackClaim).Methods(http.MethodPost)

	// Authenticated surface.
	auth := r.NewRoute().Subrouter()
	auth.Use(s.authenticate)
	auth.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)

	auth.HandleFunc("/wizard", s.handleWizardState).Methods(http.MethodGet)
	auth.HandleFunc("/wizard", s.handleWizardRestart).Methods(http.MethodDelete)
	auth.HandleFunc("/wizard/steps/{step}", s.handleWizardStep).Methods(http.MethodPut)
	auth.HandleFunc("/wizard/back", s.handleWizardBack).Methods(http.MethodPost)
	auth.HandleFunc("/wizard/documents", s.handleWizardUpload).Methods(http.MethodPost)
	auth.HandleFunc("/wizard/documents", s.handleWizardDocuments).Methods(http.MethodGet)
	auth.HandleFunc("/wizard/submit", s.handleWizardSubmit).Methods(http.MethodPost)

	auth.HandleFunc("/claims", s.handleListClaims).Methods(http.MethodGet)
	auth.HandleFunc("/claims/{id}", s.handleGetClaim).Methods(http.MethodGet)
	auth.HandleFunc("/claims/{id}/offer", s.handleGetOffer).Methods(http.MethodGet)
	auth.HandleFunc("/claims/{id}/offer/respond", s.handleOfferRespond).Methods(http.MethodPost)
	auth.HandleFunc("/claims/{id}/requests/{requestID}/respond", s.handleInfoRequestRespond).Methods(http.MethodPost)

	auth.HandleFunc("/profile", s.handleGetProfile).Methods(http.MethodGet)
	auth.HandleFunc("/profile/bvn/start", s.handleBVNStart).Methods(http.MethodPost)
	auth.HandleFunc("/profile/bvn/confirm", s.handleBVNConfirm).Methods(http.MethodPost)
	auth.HandleFunc("/profile/bank-account", s.handleLinkBank).Methods(http.MethodPost)
	auth.HandleFunc("/profile/password", s.handleChangePassword).Methods(http.MethodPost)
	auth.HandleFunc("/profile/pin", s.handleChangePIN).Methods(http.MethodPost)

	return r
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.once.Do(func() {
		s.server = &http.Server{
			Addr:    s.cfg.Address,
			Handler: s.Routes(),
		}
	})
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()
	s.log.Info("portal listening", zap.String("address", s.cfg.Address))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
