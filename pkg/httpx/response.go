package httpx

import (
	"encoding/json"
	"net/http"
)

// API status codes used across the storefront backend contract.
//
//	1 = success / flow complete
//	2 = success but a further challenge is pending (e.g. second factor)
//	0 = failure with a human-readable message
const (
	StatusFailure   = 0
	StatusOK        = 1
	StatusChallenge = 2
)

// Envelope is the common response wrapper. Data carries endpoint-specific
// fields and is flattened into the JSON object.
type Envelope struct {
	Status  int            `json:"status"`
	Message string         `json:"message,omitempty"`
	Extra   map[string]any `json:"-"`
}

// MarshalJSON flattens Extra next to status/message so responses read as one
// flat object, matching the wire contract.
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(e.Extra)+2)
	for k, v := range e.Extra {
		out[k] = v
	}
	out["status"] = e.Status
	if e.Message != "" {
		out["message"] = e.Message
	}
	return json.Marshal(out)
}

// WriteJSON writes v as JSON with the given HTTP status code. Responses are
// marked non-cacheable since everything this service returns is sensitive.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteOK writes a status:1 envelope with optional extra fields.
func WriteOK(w http.ResponseWriter, extra map[string]any) {
	WriteJSON(w, http.StatusOK, Envelope{Status: StatusOK, Extra: extra})
}

// WriteChallenge writes a status:2 envelope, signalling a pending challenge.
func WriteChallenge(w http.ResponseWriter, extra map[string]any) {
	WriteJSON(w, http.StatusOK, Envelope{Status: StatusChallenge, Extra: extra})
}

// WriteFailure writes a status:0 envelope with a user-facing message.
func WriteFailure(w http.ResponseWriter, code int, message string) {
	WriteJSON(w, code, Envelope{Status: StatusFailure, Message: message})
}

// NoCache prevents caching of sensitive responses.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
