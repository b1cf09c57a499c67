package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dansportalen/directory-api/internal/app/profiles"
	"github.com/dansportalen/directory-api/internal/domain"
)

func (s *Server) getProfile(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	view, err := s.Profiles.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if view == nil {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no profile with this id", nil)
		return
	}
	writeJSON(w, http.StatusOK, profileViewDTO(*view))
}

func (s *Server) patchProfile(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))

	var req patchProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	view, err := s.Profiles.Patch(r.Context(), id, profiles.PatchInput{
		Type:         req.profileType(),
		Individual:   req.individualPatch(),
		Organization: req.organizationPatch(),
		Venue:        req.venuePatch(),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, profileViewDTO(*view))
}

func (s *Server) deleteProfile(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	removed, err := s.Profiles.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no profile with this id", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) searchProfiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	limit, ok := intQuery(w, r, "limit", 0)
	if !ok {
		return
	}
	offset, ok := intQuery(w, r, "offset", 0)
	if !ok {
		return
	}

	hits, err := s.Profiles.SearchReferences(r.Context(), q, limit, offset)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	items := make([]profileReferenceDTO, 0, len(hits))
	for _, h := range hits {
		dto := baseReferenceFromDomain(h.Reference)
		score := h.Score
		dto.Score = &score
		items = append(items, dto)
	}
	writeJSON(w, http.StatusOK, struct {
		Items []profileReferenceDTO `json:"items"`
	}{Items: items})
}

func intQuery(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query parameter must be an integer", map[string]any{
			"parameter": name,
		})
		return 0, false
	}
	return v, true
}
