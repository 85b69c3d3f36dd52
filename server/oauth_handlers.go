package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taxbyte/go-identity-server/companies"
)

func companyIDParam(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, "companyID"))
}

type connectionResponse struct {
	CompanyID    string    `json:"company_id"`
	AccountEmail string    `json:"account_email"`
	ExpiresAt    time.Time `json:"expires_at"`
	ConnectedAt  time.Time `json:"connected_at"`
}

func newConnectionResponse(summary *companies.ConnectionSummary) connectionResponse {
	return connectionResponse{
		CompanyID:    summary.CompanyID.String(),
		AccountEmail: summary.AccountEmail,
		ExpiresAt:    summary.ExpiresAt,
		ConnectedAt:  summary.ConnectedAt,
	}
}

func (s *Server) connectDriveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
			return
		}

		user := userFromContext(r.Context())
		authURL, err := s.connect.InitiateOAuth(r.Context(), companyID, user.ID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"authorization_url": authURL})
	}
}

func (s *Server) oauthCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if providerErr := query.Get("error"); providerErr != "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "authorization declined: " + providerErr})
			return
		}

		code, state := query.Get("code"), query.Get("state")
		if code == "" || state == "" {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing code or state"})
			return
		}

		summary, err := s.connect.CompleteOAuth(r.Context(), code, state)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newConnectionResponse(summary))
	}
}

func (s *Server) refreshDriveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
			return
		}

		summary, err := s.connect.RefreshToken(r.Context(), companyID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, newConnectionResponse(summary))
	}
}

func (s *Server) disconnectDriveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
			return
		}

		user := userFromContext(r.Context())
		if err := s.connect.Disconnect(r.Context(), companyID, user.ID); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) testDriveHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		companyID, err := companyIDParam(r)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid company id"})
			return
		}

		result, err := s.connect.TestConnection(r.Context(), companyID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"account_email": result.AccountEmail,
			"quota_used":    result.QuotaUsed,
			"quota_limit":   result.QuotaLimit,
		})
	}
}
