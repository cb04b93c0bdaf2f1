package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	"github.com/runease-api/internal/domain"
)

// Envelope is the body of every JSON response except the health check.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Data    any    `json:"data,omitempty"`
}

const msgInternal = "Something went wrong, please try again"

// writeJSON encodes v before the status goes out, so a value that cannot be
// encoded becomes a 500 envelope instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Success: false, Message: msgInternal, Code: domain.ReasonCode(err)})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg, Code: code})
}

// httpError maps a service error onto a status and a message that is safe to
// show. Errors that wrap no sentinel are system errors.
func httpError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest, ownText(err, domain.ErrValidation)
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ownText(err, domain.ErrNotFound)
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ownText(err, domain.ErrConflict)
	case errors.Is(err, domain.ErrInvalidCode):
		return http.StatusUnauthorized, "Invalid verification code"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, domain.ErrUnverified):
		return http.StatusForbidden, "Verify your email before signing in"
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, "Verification code has expired, request a new one"
	case errors.Is(err, domain.ErrTooManyRequests):
		return http.StatusTooManyRequests, ownText(err, domain.ErrTooManyRequests)
	case errors.Is(err, domain.ErrDelivery):
		return http.StatusInternalServerError, "Could not send the verification email, request a new code"
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// respondError writes err as a failure envelope and logs system errors with
// their full detail.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := httpError(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	}
	writeError(w, status, domain.ReasonCode(err), msg)
}

// ownText is the service's own description in front of the sentinel, e.g.
// "email format is invalid" for "email format is invalid: validation failed".
func ownText(err, sentinel error) string {
	msg := strings.TrimSuffix(err.Error(), ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		msg = sentinel.Error()
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
