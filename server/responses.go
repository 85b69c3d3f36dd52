package server

import (
	"encoding/json"
	"math"
	"net/http"
	"strconv"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/taxbyte/go-identity-server/auth"
	"github.com/taxbyte/go-identity-server/companies"
	"github.com/taxbyte/go-identity-server/oauthflow"
	"github.com/taxbyte/go-identity-server/security"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// writeError maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported as an opaque 500 so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *auth.ValidationError
	if errors.As(err, &validation) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Reason, Field: validation.Field})
		return
	}

	switch {
	case errors.Is(err, auth.InvalidCredentialsErr),
		errors.Is(err, auth.SessionExpiredErr):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.RateLimitedErr):
		retryAfter := int(math.Ceil(s.auth.RetryAfter().Seconds()))
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.EmailAlreadyExistsErr),
		errors.Is(err, companies.NotConnectedErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, companies.NotAuthorizedErr):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.Is(err, auth.UserNotFoundErr),
		errors.Is(err, companies.CompanyNotFoundErr):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, oauthflow.StateMismatchErr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, oauthflow.ExchangeFailedErr),
		errors.Is(err, oauthflow.NoRefreshTokenErr):
		log.Warn().Err(err).Str("path", r.URL.Path).Msg("provider call failed")
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "storage provider connection failed; restart the connection flow"})
	case errors.Is(err, security.DecryptErr):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("token decryption failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "stored credentials unreadable"})
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
