package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dansportalen/directory-api/internal/app/individuals"
	"github.com/dansportalen/directory-api/internal/domain"
)

func (s *Server) createIndividual(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := individuals.CreateInput{
		CreateFields: req.createFields(),
	}
	for _, t := range req.Tags {
		in.Tags = append(in.Tags, domain.IndividualTag(t))
	}
	for _, e := range req.Organizations {
		in.Organizations = append(in.Organizations, individuals.OrganizationEdgeInput{
			OrganizationID: domain.ProfileID(e.OrganizationID),
			Title:          e.Title,
		})
	}

	ind, err := s.Individuals.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, individualFromDomain(ind))
}

func (s *Server) getIndividual(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	ind, err := s.Individuals.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if ind == nil {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no individual profile with this id", nil)
		return
	}
	writeJSON(w, http.StatusOK, individualFromDomain(*ind))
}

func (s *Server) patchIndividual(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))

	var req patchProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	ind, err := s.Individuals.Patch(r.Context(), id, req.individualPatch())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, individualFromDomain(ind))
}

func (s *Server) deleteIndividual(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	removed, err := s.Individuals.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no individual profile with this id", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listIndividuals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	in := individuals.ListInput{
		NameQuery: optionalQuery(query.Get("q")),
		PageKey:   pageKeyQuery(query.Get("pageKey")),
	}
	for _, t := range query["tag"] {
		in.Tags = append(in.Tags, domain.IndividualTag(t))
	}
	for _, id := range query["organizationId"] {
		in.OrganizationIDs = append(in.OrganizationIDs, domain.ProfileID(id))
	}

	page, err := s.Individuals.List(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	out := pageDTO{Items: make([]profileReferenceDTO, 0, len(page.Items))}
	for _, hit := range page.Items {
		dto := individualReferenceFromDomain(hit.Reference)
		dto.Score = hit.Score
		out.Items = append(out.Items, dto)
	}
	out.NextPageKey = pageKeyString(page.NextPageKey)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) individualTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Tags []tagDetailsDTO `json:"tags"`
	}{Tags: tagCatalogDTO(s.Individuals.Tags())})
}

func optionalQuery(raw string) *string {
	if raw == "" {
		return nil
	}
	return &raw
}

func pageKeyQuery(raw string) *domain.ProfileID {
	if raw == "" {
		return nil
	}
	key := domain.ProfileID(raw)
	return &key
}
