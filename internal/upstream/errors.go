package upstream

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Transport error codes the classifier recognizes ahead of anything else.
const (
	CodeNetwork = "ERR_NETWORK"
	CodeTimeout = "ECONNABORTED"
	CodeBlocked = "ERR_BLOCKED"
)

const (
	msgNetwork  = "Network error. Please check your connection and try again."
	msgTimeout  = "The request timed out. Please try again."
	msgBlocked  = "The request was blocked. Please try again later."
	msgFallback = "Something went wrong. Please try again."
)

// ErrNoOffer marks a 404 on an offer lookup: the claim simply has no
// settlement offer yet, which callers treat as an absent value.
var ErrNoOffer = errors.New("no offer available")

// APIError is what every failed upstream call resolves to. Message is always
// populated with a human-readable string from the taxonomy.
type APIError struct {
	Message string
	Status  int
	Code    string
}

func (e *APIError) Error() string { return e.Message }

// errorBody covers the structured error shapes the upstream emits: message or
// error as a string, and errors as a string, an array, or a keyed object of
// strings/arrays.
type errorBody struct {
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Errors  json.RawMessage `json:"errors"`
}

// Classify turns a failure into one human-readable message. Priority order:
// transport sentinel codes, structured body fields, HTTP status fallback,
// generic fallback. It is pure and never fails.
func Classify(code string, statusCode int, body []byte) string {
	switch code {
	case CodeNetwork:
		return msgNetwork
	case CodeTimeout:
		return msgTimeout
	case CodeBlocked:
		return msgBlocked
	}
	if msg := fromBody(body); msg != "" {
		return msg
	}
	if msg := fromStatus(statusCode); msg != "" {
		return msg
	}
	return msgFallback
}

func fromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	if eb.Message != "" {
		return eb.Message
	}
	if eb.Error != "" {
		return eb.Error
	}
	return flattenErrors(eb.Errors)
}

// flattenErrors handles the three shapes the errors field takes.
func flattenErrors(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.Join(nonEmpty(list), " ")
	}
	var keyed map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keyed); err == nil {
		keys := make([]string, 0, len(keyed))
		for k := range keyed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var parts []string
		for _, k := range keys {
			if msg := flattenErrors(keyed[k]); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, " ")
	}
	return ""
}

func nonEmpty(list []string) []string {
	out := list[:0]
	for _, v := range list {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func fromStatus(statusCode int) string {
	switch statusCode {
	case 0:
		return ""
	case http.StatusBadRequest:
		return "The request could not be processed. Please check your input."
	case http.StatusUnauthorized:
		return "Your session has expired. Please log in again."
	case http.StatusForbidden:
		return "You do not have permission to perform this action."
	case http.StatusNotFound:
		return "Resource not found."
	case http.StatusConflict:
		return "This action conflicts with the current state. Please refresh and try again."
	case http.StatusUnprocessableEntity:
		return "Some of the submitted values are invalid."
	case http.StatusTooManyRequests:
		return "Too many requests. Please wait a moment and try again."
	}
	if statusCode >= 500 {
		return "Something went wrong on our end. Please try again shortly."
	}
	return fmt.Sprintf("Request failed with status %d.", statusCode)
}
