package portal

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/puresec-ng/banyan-portal/internal/upstream"
	"github.com/puresec-ng/banyan-portal/internal/wizard"
)

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	s.respondJSON(w, status, errorResponse{Error: msg, Fields: fields})
}

// respondUpstreamError maps a failed upstream call onto the portal response.
// The classified message passes through untouched; the status mirrors the
// upstream's where one exists.
func (s *Server) respondUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		status := apiErr.Status
		if status == 0 {
			status = http.StatusBadGateway
		}
		s.respondError(w, status, apiErr.Message, nil)
		return
	}
	s.log.Error("internal error", zap.Error(err))
	s.respondError(w, http.StatusInternalServerError, "Something went wrong. Please try again.", nil)
}

// respondValidation renders a wizard validation failure as field errors.
func (s *Server) respondValidation(w http.ResponseWriter, errs wizard.FieldErrors) {
	s.respondJSON(w, http.StatusUnprocessableEntity, errorResponse{
		Error:  "Some of the submitted values are invalid.",
		Fields: errs,
	})
}

func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
