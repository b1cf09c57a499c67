package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dansportalen/directory-api/internal/domain"
)

type createUploadSlotRequest struct {
	UploaderID string `json:"uploaderId"`
}

type confirmImageRequest struct {
	ExternalID string `json:"externalId"`
	Variant    string `json:"variant"`
}

func (s *Server) createUploadSlot(w http.ResponseWriter, r *http.Request) {
	var req createUploadSlotRequest
	if !decodeBody(w, r, &req) {
		return
	}

	slot, err := s.Images.RequestUploadSlot(r.Context(), req.UploaderID)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, uploadSlotDTO{
		ExternalID: string(slot.ExternalID),
		UploadURL:  slot.UploadURL,
	})
}

func (s *Server) confirmImage(w http.ResponseWriter, r *http.Request) {
	var req confirmImageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	img, err := s.Images.Confirm(r.Context(), domain.ExternalAssetID(req.ExternalID), domain.ImageVariant(req.Variant))
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, imageFromDomain(img))
}

func (s *Server) getImage(w http.ResponseWriter, r *http.Request) {
	id := domain.ImageID(chi.URLParam(r, "imageID"))
	img, err := s.Images.GetByID(r.Context(), id)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	if img == nil {
		writeError(w, r, http.StatusNotFound, "IMAGE_NOT_FOUND", "no image with this id", nil)
		return
	}
	writeJSON(w, http.StatusOK, imageFromDomain(*img))
}

func (s *Server) deleteImage(w http.ResponseWriter, r *http.Request) {
	id := domain.ImageID(chi.URLParam(r, "imageID"))
	force := r.URL.Query().Get("force") == "true"

	if err := s.Images.Delete(r.Context(), id, force); err != nil {
		writeAppError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
