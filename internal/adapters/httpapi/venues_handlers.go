package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dansportalen/directory-api/internal/app/venues"
	"github.com/dansportalen/directory-api/internal/domain"
)

func (s *Server) createVenue(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Coords == nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "coords are required", map[string]any{
			"field": "coords",
		})
		return
	}

	in := venues.CreateInput{
		CreateFields:      req.createFields(),
		Coords:            domain.Coords{Lat: req.Coords.Lat, Lng: req.Coords.Lng},
		PermanentlyClosed: req.PermanentlyClosed,
	}
	if req.ParentID != nil {
		id := domain.ProfileID(*req.ParentID)
		in.ParentID = &id
	}

	ven, err := s.Venues.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, venueFromDomain(ven))
}

func (s *Server) getVenue(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	ven, err := s.Venues.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if ven == nil {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no venue profile with this id", nil)
		return
	}
	writeJSON(w, http.StatusOK, venueFromDomain(*ven))
}

func (s *Server) patchVenue(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))

	var req patchProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ven, err := s.Venues.Patch(r.Context(), id, req.venuePatch())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, venueFromDomain(ven))
}

func (s *Server) deleteVenue(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	removed, err := s.Venues.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no venue profile with this id", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listVenues(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := s.Venues.List(r.Context(), venues.ListInput{
		NameQuery: optionalQuery(query.Get("q")),
		PageKey:   pageKeyQuery(query.Get("pageKey")),
	})
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	out := pageDTO{Items: make([]profileReferenceDTO, 0, len(page.Items))}
	for _, hit := range page.Items {
		dto := venueReferenceFromDomain(hit.Reference)
		dto.Score = hit.Score
		out.Items = append(out.Items, dto)
	}
	out.NextPageKey = pageKeyString(page.NextPageKey)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) nearbyVenues(w http.ResponseWriter, r *http.Request) {
	lat, ok := floatQuery(w, r, "lat")
	if !ok {
		return
	}
	lng, ok := floatQuery(w, r, "lng")
	if !ok {
		return
	}
	radius, ok := floatQuery(w, r, "radiusMeters")
	if !ok {
		return
	}

	hits, err := s.Venues.Nearby(r.Context(), domain.Coords{Lat: lat, Lng: lng}, radius)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	items := make([]proximityHitDTO, 0, len(hits))
	for _, h := range hits {
		items = append(items, proximityHitDTO{
			Venue:          venueReferenceFromDomain(h.Reference),
			DistanceMeters: h.DistanceMeters,
		})
	}
	writeJSON(w, http.StatusOK, struct {
		Items []proximityHitDTO `json:"items"`
	}{Items: items})
}

func floatQuery(w http.ResponseWriter, r *http.Request, name string) (float64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query parameter is required", map[string]any{
			"parameter": name,
		})
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "query parameter must be a number", map[string]any{
			"parameter": name,
		})
		return 0, false
	}
	return v, true
}
