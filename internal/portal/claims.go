package portal

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/puresec-ng/banyan-portal/internal/model"
	"github.com/puresec-ng/banyan-portal/internal/status"
)

// claimView decorates a claim with its dashboard badge.
type claimView struct {
	model.Claim
	Badge status.Badge `json:"badge"`
}

func decorate(c model.Claim) claimView {
	return claimView{Claim: c, Badge: status.BadgeFor(c.Status)}
}

// handleListClaims serves the dashboard. Results are cached per session and
// may be narrowed with ?status=<value>.
func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	v, err := s.cache.Get(r.Context(), "claims:"+sess.ID, func(ctx context.Context) (any, error) {
		return s.api.ListClaims(credsFor(sess))
	})
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	claims, _ := v.([]model.Claim)

	filter := strings.TrimSpace(r.URL.Query().Get("status"))
	want, known := status.Lookup(filter)
	views := make([]claimView, 0, len(claims))
	for _, c := range claims {
		// An unrecognized filter matches nothing rather than falling back
		// to the Submitted bucket.
		if filter != "" && (!known || c.Status != want) {
			continue
		}
		views = append(views, decorate(c))
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"claims": views})
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id := mux.Vars(r)["id"]
	v, err := s.cache.Get(r.Context(), "claim:"+sess.ID+":"+id, func(ctx context.Context) (any, error) {
		return s.api.GetClaim(credsFor(sess), id)
	})
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	claim, _ := v.(*model.Claim)
	s.respondJSON(w, http.StatusOK, decorate(*claim))
}

// handleTrackClaim is the public tracking-number lookup.
func (s *Server) handleTrackClaim(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TrackingNumber string `json:"tracking_number"`
	}
	if err := decodeBody(r, &req); err != nil || strings.TrimSpace(req.TrackingNumber) == "" {
		s.respondError(w, http.StatusBadRequest, "Enter a tracking number.", nil)
		return
	}
	claim, err := s.api.TrackClaim(strings.TrimSpace(req.TrackingNumber))
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, decorate(*claim))
}

func (s *Server) handleInfoRequestRespond(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	vars := mux.Vars(r)
	var req struct {
		Text    string `json:"text"`
		FileURL string `json:"file_url"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.FileURL) == "" {
		s.respondError(w, http.StatusUnprocessableEntity, "Provide a response or attach a document.", nil)
		return
	}
	claim, err := s.api.GetClaim(credsFor(sess), vars["id"])
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	for _, ir := range claim.InfoRequests {
		if ir.ID == vars["requestID"] && ir.Responded {
			s.respondError(w, http.StatusConflict, "This request has already been responded to.", nil)
			return
		}
	}
	if err := s.api.RespondInfoRequest(credsFor(sess), vars["requestID"], req.Text, req.FileURL); err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.cache.Invalidate("claims:"+sess.ID, "claim:"+sess.ID+":"+vars["id"])
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "responded"})
}
