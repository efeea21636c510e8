package portal

import (
	"net/http"
	"strings"

	"github.com/puresec-ng/banyan-portal/internal/upstream"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	fields := map[string]string{}
	if !wizard.ValidEmail(req.Email) {
		fields["email"] = "Enter a valid email address."
	}
	if req.Password == "" {
		fields["password"] = "Enter your password."
	}
	if len(fields) > 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "Some of the submitted values are invalid.", fields)
		return
	}
	result, err := s.api.Login(req.Email, req.Password)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.establishSession(w, r, result, http.StatusOK)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req upstream.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		s.respondError(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	fields := map[string]string{}
	if strings.TrimSpace(req.FirstName) == "" {
		fields["first_name"] = "Enter your first name."
	}
	if strings.TrimSpace(req.LastName) == "" {
		fields["last_name"] = "Enter your last name."
	}
	if !wizard.ValidEmail(req.Email) {
		fields["email"] = "Enter a valid email address."
	}
	if !wizard.ValidPhone(req.Phone) {
		fields["phone"] = "Enter a valid Nigerian phone number."
	}
	if len(req.Password) < 8 {
		fields["password"] = "Password must be at least 8 characters."
	}
	if len(fields) > 0 {
		s.respondError(w, http.StatusUnprocessableEntity, "Some of the submitted values are invalid.", fields)
		return
	}
	result, err := s.api.Register(req)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.establishSession(w, r, result, http.StatusCreated)
}

func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, result *upstream.AuthResult, status int) {
	userType := result.UserType
	if userType == "" {
		userType = "client"
	}
	sess, cookie, err := s.sessions.Create(r.Context(), result.Token, userType, result.User.Email)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	http.SetCookie(w, cookie)
	s.respondJSON(w, status, map[string]any{
		"session": sess,
		"user":    result.User,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	cookie, err := s.sessions.Destroy(r.Context(), sess.ID)
	if err != nil {
		s.respondUpstreamError(w, err)
		return
	}
	s.cache.Invalidate("claims:"+sess.ID, "profile:"+sess.ID)
	http.SetCookie(w, cookie)
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}
