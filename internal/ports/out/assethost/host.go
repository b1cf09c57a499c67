package assethost

import (
	"context"

	"github.com/dansportalen/directory-api/internal/domain"
)

// UploadSlot is a destination allocated on the external host. The caller
// uploads bytes directly to UploadURL; the directory never sees them.
type UploadSlot struct {
	ExternalID domain.ExternalAssetID
	UploadURL  string
}

// UploadMetadata is attached to a slot when it is allocated.
type UploadMetadata struct {
	UploaderID string
}

// Host is the contract with the external asset host. The directory only
// coordinates metadata and lifecycle state; it never transforms image bytes.
type Host interface {
	CreateUploadSlot(ctx context.Context, meta UploadMetadata) (UploadSlot, error)

	// IsUploadComplete reports whether the host holds a completed (non-draft)
	// upload for the asset. Missing assets report false.
	IsUploadComplete(ctx context.Context, externalID domain.ExternalAssetID) (bool, error)

	// DeleteAsset removes the asset on the host. It returns whether the host
	// actually held the asset.
	DeleteAsset(ctx context.Context, externalID domain.ExternalAssetID) (bool, error)
}
