package portal

import (
	"context"
	"errors"
	"net/http"

	"github.com/puresec-ng/banyan-portal/internal/model"
	"github.com/puresec-ng/banyan-portal/internal/profile"
	"github.com/puresec-ng/banyan-portal/internal/repository"
)

// profileView pairs the upstream profile with the locally recorded BVN
// verification (masked tail and date only).
type profileView struct {
	Profile *model.Profile `json:"profile"`
	BVN     *bvnView       `json:"bvn,omitempty"`
}

type bvnView struct {
	MaskedTail string `json:"masked_tail"`
	VerifiedAt string `json:"verified_at"`
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	v, err := s.cache.Get(r.Context(), "profile:"+sess.ID, func(ctx context.Context) (any, error) {
		return s.api.GetProfile(credsFor(sess))
	})
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	p, _ := v.(*model.Profile)
	view := profileView{Profile: p}
	if rec, err := s.profiles.VerificationRecord(r.Context(), sess.Email); err == nil {
		view.BVN = &bvnView{
			MaskedTail: rec.MaskedTail,
			VerifiedAt: rec.VerifiedAt.Format("2006-01-02"),
		}
	} else if !errors.Is(err, repository.ErrBVNRecordNotFound) {
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleBVNStart(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		BVN string `json:"bvn"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if err := s.profiles.StartBVN(r.Context(), credsFor(sess), sess.Email, req.BVN); err != nil {
		if errors.Is(err, profile.ErrInvalidBVN) {
			s.respondError(w, http.StatusUnprocessableEntity, "BVN must be 11 digits.",
				map[string]string{"bvn": "Enter your 11-digit BVN."})
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "otp_sent"})
}

func (s *Server) handleBVNConfirm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		OTP string `json:"otp"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	err := s.profiles.ConfirmOTP(r.Context(), credsFor(sess), sess.Email, req.OTP)
	switch {
	case errors.Is(err, profile.ErrInvalidOTP):
		s.respondError(w, http.StatusUnprocessableEntity, "OTP must be 6 digits.",
			map[string]string{"otp": "Enter the 6-digit code."})
	case errors.Is(err, profile.ErrNoPendingBVN):
		s.respondError(w, http.StatusConflict, "Start BVN verification first.", nil)
	case err != nil:
		s.respondUpstreamError(w, err)
	default:
		s.cache.Invalidate("profile:" + sess.ID)
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "verified"})
	}
}

func (s *Server) handleLinkBank(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		BankCode      string `json:"bank_code"`
		AccountNumber string `json:"account_number"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	account, err := s.profiles.LinkBank(r.Context(), credsFor(sess), req.BankCode, req.AccountNumber)
	if err != nil {
		if errors.Is(err, profile.ErrInvalidAccount) {
			s.respondError(w, http.StatusUnprocessableEntity, "Account details are invalid.",
				map[string]string{"account_number": "Enter a 10-digit account number."})
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.cache.Invalidate("profile:" + sess.ID)
	s.respondJSON(w, http.StatusOK, map[string]any{"account": account})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Current string `json:"current_password"`
		Next    string `json:"new_password"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if err := s.profiles.ChangePassword(r.Context(), credsFor(sess), req.Current, req.Next); err != nil {
		if errors.Is(err, profile.ErrWeakPassword) {
			s.respondError(w, http.StatusUnprocessableEntity, "Password must be at least 8 characters.",
				map[string]string{"new_password": "Use at least 8 characters."})
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "password_changed"})
}

func (s *Server) handleChangePIN(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	var req struct {
		Current string `json:"current_pin"`
		Next    string `json:"new_pin"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if err := s.profiles.ChangePIN(r.Context(), credsFor(sess), req.Current, req.Next); err != nil {
		if errors.Is(err, profile.ErrInvalidPIN) {
			s.respondError(w, http.StatusUnprocessableEntity, "PIN must be 4 digits.",
				map[string]string{"new_pin": "Use a 4-digit PIN."})
			return
		}
		s.respondUpstreamError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "pin_changed"})
}
