package domain

import "time"

type ImageVariant string

const (
	ImageVariantCover  ImageVariant = "cover"
	ImageVariantPoster ImageVariant = "poster"
	ImageVariantSquare ImageVariant = "square"
)

// IsValid reports whether v is a known image variant.
func (v ImageVariant) IsValid() bool {
	switch v {
	case ImageVariantCover, ImageVariantPoster, ImageVariantSquare:
		return true
	}
	return false
}

// Image is a locally registered binding to an asset on the external host.
// An Image record only exists once the host has confirmed a completed upload.
type Image struct {
	ID         ImageID
	ExternalID ExternalAssetID
	Variant    ImageVariant
	CreatedAt  time.Time
}
