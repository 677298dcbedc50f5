package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/meridianwealth/ledger/internal/common"
	"github.com/meridianwealth/ledger/internal/models"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

// responseLogger records response-write failures. Wired to the application
// logger at server construction; silent until then.
var responseLogger = common.NewSilentLogger()

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		responseLogger.Error().Err(err).Msg("Failed to encode HTTP response")
	}
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// writeDomainError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is a generic persistence failure.
func writeDomainError(w http.ResponseWriter, logger *common.Logger, err error) {
	var (
		authn      *models.AuthenticationError
		authz      *models.AuthorizationError
		validation *models.ValidationError
		notFound   *models.NotFoundError
		conflict   *models.ConflictError
	)

	switch {
	case errors.As(err, &authn):
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, authn.Error())
	case errors.As(err, &authz):
		WriteError(w, http.StatusForbidden, authz.Error())
	case errors.As(err, &validation):
		WriteJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:      "validation failed",
			Violations: validation.Violations,
		})
	case errors.As(err, &notFound):
		WriteError(w, http.StatusNotFound, notFound.Error())
	case errors.As(err, &conflict):
		WriteError(w, http.StatusConflict, conflict.Error())
	default:
		logger.Error().Err(err).Msg("Unhandled error in HTTP handler")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil {
		WriteError(w, http.StatusBadRequest, "Request body is required")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 4<<20) // 4MB, sized for 1000-row bulk imports
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return false
	}
	return true
}

// requirePrincipal fetches the verified principal from context, writing a 401
// when the request carried no identity.
func requirePrincipal(w http.ResponseWriter, r *http.Request) (*models.Principal, bool) {
	principal := common.PrincipalFromContext(r.Context())
	if principal == nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		WriteError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	return principal, true
}

// queryInt parses an integer query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// queryDate parses a date query parameter as "2006-01-02" or RFC 3339.
func queryDate(r *http.Request, name string) *time.Time {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}
