package portal

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/puresec-ng/banyan-portal/internal/model"
	"github.com/puresec-ng/banyan-portal/internal/offer"
	"github.com/puresec-ng/banyan-portal/internal/upstream"
)

// offerView pairs the offer with its computed breakdown and whether the
// client may still act on it.
type offerView struct {
	Offer      *model.Offer    `json:"offer"`
	Breakdown  offer.Breakdown `json:"breakdown"`
	Expired    bool            `json:"expired"`
	CanRespond bool            `json:"can_respond"`
}

// handleGetOffer returns the settlement offer for a claim. No offer yet is a
// normal condition, reported as a 200 with a null offer rather than an error.
func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	claimID := mux.Vars(r)["id"]
	v, err := s.cache.Get(r.Context(), "offer:"+sess.ID+":"+claimID, func(ctx context.Context) (any, error) {
		o, err := s.api.GetOffer(credsFor(sess), claimID)
		if errors.Is(err, upstream.ErrNoOffer) {
			return (*model.Offer)(nil), nil
		}
		return o, err
	})
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	o, _ := v.(*model.Offer)
	if o == nil {
		s.respondJSON(w, http.StatusOK, offerView{})
		return
	}
	now := time.Now().UTC()
	s.respondJSON(w, http.StatusOK, offerView{
		Offer:      o,
		Breakdown:  offer.Summarize(o),
		Expired:    offer.Expired(o, now),
		CanRespond: offer.CanRespond(o, now),
	})
}

type offerRespondRequest struct {
	Action string `json:"action"`
}

func (s *Server) handleOfferRespond(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	claimID := mux.Vars(r)["id"]
	var req offerRespondRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	var action upstream.OfferAction
	switch req.Action {
	case "accept":
		action = upstream.OfferAccept
	case "reject":
		action = upstream.OfferReject
	default:
		s.respondError(w, http.StatusUnprocessableEntity, "Action must be accept or reject.", nil)
		return
	}

	o, err := s.api.GetOffer(credsFor(sess), claimID)
	if err != nil {
		if errors.Is(err, upstream.ErrNoOffer) {
			s.respondError(w, http.StatusNotFound, "There is no offer on this claim.", nil)
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	if !offer.CanRespond(o, time.Now().UTC()) {
		s.respondError(w, http.StatusConflict, "This offer can no longer be responded to.", nil)
		return
	}
	if err := s.api.ProcessOffer(credsFor(sess), o.ID, action); err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.cache.Invalidate(
		"claims:"+sess.ID,
		"claim:"+sess.ID+":"+claimID,
		"offer:"+sess.ID+":"+claimID,
	)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": string(action) + "ed"})
}
