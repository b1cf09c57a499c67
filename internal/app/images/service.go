package images

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/assethost"
	clockport "github.com/dansportalen/directory-api/internal/ports/out/clock"
	"github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Service is the image registry. It coordinates the two-phase binding of
// external assets: a slot is allocated on the host, the client uploads to it
// directly, and only a confirmed (completed) upload becomes a local record.
type Service struct {
	host     assethost.Host
	images   imagerepo.Repository
	profiles profilerepo.Repository
	clk      clockport.Clock

	newImageID func() domain.ImageID
}

func NewService(host assethost.Host, images imagerepo.Repository, profiles profilerepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		host:     host,
		images:   images,
		profiles: profiles,
		clk:      clk,
		newImageID: func() domain.ImageID {
			return domain.ImageID(uuid.NewString())
		},
	}
}

// RequestUploadSlot allocates a destination on the external host. No local
// record is written; the slot only becomes an Image through Confirm.
func (s *Service) RequestUploadSlot(ctx context.Context, uploaderID string) (assethost.UploadSlot, error) {
	uploaderID = strings.TrimSpace(uploaderID)
	if uploaderID == "" {
		return assethost.UploadSlot{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid uploaderId",
			Details: map[string]any{"uploaderId": "must be non-empty"},
		}
	}
	return s.host.CreateUploadSlot(ctx, assethost.UploadMetadata{UploaderID: uploaderID})
}

// Confirm checks the upload with the host and persists the image record.
// Confirming the same external id twice returns the already-registered image
// rather than creating a duplicate.
func (s *Service) Confirm(ctx context.Context, externalID domain.ExternalAssetID, variant domain.ImageVariant) (domain.Image, error) {
	if externalID == "" {
		return domain.Image{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid externalId",
			Details: map[string]any{"externalId": "must be non-empty"},
		}
	}
	if !variant.IsValid() {
		return domain.Image{}, &Error{
			Status:  422,
			Code:    "VALIDATION_ERROR",
			Message: "invalid variant",
			Details: map[string]any{"variant": "must be one of cover, poster, square"},
		}
	}

	complete, err := s.host.IsUploadComplete(ctx, externalID)
	if err != nil {
		return domain.Image{}, err
	}
	if !complete {
		return domain.Image{}, &Error{
			Status:  409,
			Code:    "IMAGE_NOT_UPLOADED",
			Message: "the external host reports no completed upload for this asset",
			Details: map[string]any{"externalId": string(externalID)},
		}
	}

	rec, err := s.images.Create(ctx, imagerepo.Record{
		ID:         s.newImageID(),
		ExternalID: externalID,
		Variant:    variant,
		CreatedAt:  s.clk.Now(),
	})
	if err != nil {
		return domain.Image{}, err
	}
	return toDomain(rec), nil
}

// GetByID returns the image, or nil when it does not exist.
func (s *Service) GetByID(ctx context.Context, id domain.ImageID) (*domain.Image, error) {
	rec, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, imagerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	img := toDomain(rec)
	return &img, nil
}

// GetByExternalID returns the image bound to the external asset, or nil.
func (s *Service) GetByExternalID(ctx context.Context, externalID domain.ExternalAssetID) (*domain.Image, error) {
	rec, err := s.images.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, imagerepo.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	img := toDomain(rec)
	return &img, nil
}

// Delete removes the image from the host and then locally. Without force it
// is refused while any profile still binds the image. The external deletion
// runs first: if it fails, local state is left untouched.
func (s *Service) Delete(ctx context.Context, id domain.ImageID, force bool) error {
	rec, err := s.images.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, imagerepo.ErrNotFound) {
			return &Error{Status: 404, Code: "IMAGE_NOT_FOUND", Message: "image not found"}
		}
		return err
	}

	if !force {
		refs, err := s.profiles.CountImageReferences(ctx, id)
		if err != nil {
			return err
		}
		if refs > 0 {
			return &Error{
				Status:  409,
				Code:    "IMAGE_IN_USE",
				Message: "image is still referenced by profiles",
				Details: map[string]any{"references": refs},
			}
		}
	}

	if _, err := s.host.DeleteAsset(ctx, rec.ExternalID); err != nil {
		return err
	}
	_, err = s.images.Delete(ctx, id)
	return err
}

func toDomain(rec imagerepo.Record) domain.Image {
	return domain.Image{
		ID:         rec.ID,
		ExternalID: rec.ExternalID,
		Variant:    rec.Variant,
		CreatedAt:  rec.CreatedAt,
	}
}
