package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/ternarybob/jobhunter/internal/apierr"
	"github.com/ternarybob/jobhunter/internal/models"
)

var validate = validator.New()

// DecodeAndValidate reads a JSON body into dst and runs struct-tag
// validation over it, collapsing the first failure into a Validation error.
func DecodeAndValidate(r *http.Request, dst interface{}) error {
	if err := DecodeJSON(r, dst); err != nil {
		return err
	}
	if err := validate.Struct(dst); err != nil {
		return apierr.Validation(err.Error())
	}
	return nil
}

type contextKey string

// UserIDContextKey is where bearerAuthMiddleware stores the caller's user id
// so every handler can read it without re-parsing the request header.
const UserIDContextKey contextKey = "user_id"

// RequestIDContextKey is where correlationIDMiddleware stores the request's
// correlation id, shared with the server package so both sides agree on the
// same context key type and value.
const RequestIDContextKey contextKey = "correlation_id"

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code      apierr.Code `json:"code"`
	Message   string      `json:"message"`
	Details   string      `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError renders err as the `{error: {code, message, details?, request_id}}`
// envelope. Tracebacks are never written; apierr.As collapses any
// unclassified error into a generic internal-server-error before this is
// reached.
func WriteError(w http.ResponseWriter, requestID string, err error) {
	apiErr := apierr.As(err)
	WriteJSON(w, apiErr.Status, errorEnvelope{
		Error: errorBody{
			Code:      apiErr.Code,
			Message:   apiErr.Message,
			Details:   apiErr.Details,
			RequestID: requestID,
		},
	})
}

// RequestID reads the correlation id the server's correlationIDMiddleware
// attached to the request context, if any.
func RequestID(r *http.Request) string {
	id, _ := r.Context().Value(RequestIDContextKey).(string)
	return id
}

// UserID reads the caller's user id, set by bearerAuthMiddleware once the
// bearer token has been validated.
func UserID(r *http.Request) string {
	id, _ := r.Context().Value(UserIDContextKey).(string)
	return id
}

// ParsePagination reads page/page_size query parameters, defaulting to
// page=1, page_size=20, and capping page_size at 100 (spec §4.4/§6).
func ParsePagination(r *http.Request) (models.Pagination, error) {
	page := 1
	pageSize := 20

	if v := r.URL.Query().Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			return models.Pagination{}, apierr.Validation("page must be a positive integer")
		}
		page = p
	}

	if v := r.URL.Query().Get("page_size"); v != "" {
		ps, err := strconv.Atoi(v)
		if err != nil || ps < 1 {
			return models.Pagination{}, apierr.Validation("page_size must be a positive integer")
		}
		if ps > 100 {
			ps = 100
		}
		pageSize = ps
	}

	return models.Pagination{Page: page, PageSize: pageSize}, nil
}

// DecodeJSON reads and validates a JSON request body into dst.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apierr.Validation("request body is not valid JSON: " + err.Error())
	}
	return nil
}
