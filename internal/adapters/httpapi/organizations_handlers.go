package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dansportalen/directory-api/internal/app/organizations"
	"github.com/dansportalen/directory-api/internal/domain"
)

func (s *Server) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	in := organizations.CreateInput{
		CreateFields: req.createFields(),
	}
	for _, t := range req.Tags {
		in.Tags = append(in.Tags, domain.OrganizationTag(t))
	}
	for _, e := range req.Members {
		in.Members = append(in.Members, organizations.MemberEdgeInput{
			IndividualID: domain.ProfileID(e.IndividualID),
			Title:        e.Title,
		})
	}

	org, err := s.Organizations.Create(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, organizationFromDomain(org))
}

func (s *Server) getOrganization(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	org, err := s.Organizations.Get(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if org == nil {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no organization profile with this id", nil)
		return
	}
	writeJSON(w, http.StatusOK, organizationFromDomain(*org))
}

func (s *Server) patchOrganization(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))

	var req patchProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	org, err := s.Organizations.Patch(r.Context(), id, req.organizationPatch())
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, organizationFromDomain(org))
}

func (s *Server) deleteOrganization(w http.ResponseWriter, r *http.Request) {
	id := domain.ProfileID(chi.URLParam(r, "profileID"))
	removed, err := s.Organizations.Delete(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if !removed {
		writeError(w, r, http.StatusNotFound, "PROFILE_NOT_FOUND", "no organization profile with this id", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listOrganizations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	in := organizations.ListInput{
		NameQuery: optionalQuery(query.Get("q")),
		PageKey:   pageKeyQuery(query.Get("pageKey")),
	}
	for _, t := range query["tag"] {
		in.Tags = append(in.Tags, domain.OrganizationTag(t))
	}
	for _, id := range query["memberId"] {
		in.MemberIDs = append(in.MemberIDs, domain.ProfileID(id))
	}

	page, err := s.Organizations.List(r.Context(), in)
	if err != nil {
		writeAppError(w, r, err)
		return
	}

	out := pageDTO{Items: make([]profileReferenceDTO, 0, len(page.Items))}
	for _, hit := range page.Items {
		dto := organizationReferenceFromDomain(hit.Reference)
		dto.Score = hit.Score
		out.Items = append(out.Items, dto)
	}
	out.NextPageKey = pageKeyString(page.NextPageKey)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) organizationTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Tags []tagDetailsDTO `json:"tags"`
	}{Tags: tagCatalogDTO(s.Organizations.Tags())})
}
