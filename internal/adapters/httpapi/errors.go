package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/dansportalen/directory-api/internal/app/images"
	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/app/venues"
)

// ErrorResponse is the envelope every error payload uses.
type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestID nullable.Nullable[string]         `json:"requestId,omitempty"`
	} `json:"error"`
}

func newErrorResponse(ctx context.Context, code, message string, details map[string]any) ErrorResponse {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(ctx); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}
	return er
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	writeJSON(w, status, newErrorResponse(r.Context(), code, message, details))
}

// writeAppError maps an application-layer error onto the wire. Every app
// package carries the same error shape; anything else is an internal fault.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if status, code, message, details, ok := appError(err); ok {
		writeError(w, r, status, code, message, details)
		return
	}
	writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}

func appError(err error) (status int, code, message string, details map[string]any, ok bool) {
	if ae := (*profiles.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*individuals.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*organizations.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*venues.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	if ae := (*images.Error)(nil); errors.As(err, &ae) {
		return ae.Status, ae.Code, ae.Message, ae.Details, true
	}
	return 0, "", "", nil, false
}
