package imagerepo

import (
	"context"
	"time"

	"github.com/dansportalen/directory-api/internal/domain"
)

// Record is the persistence shape of a registered image.
type Record struct {
	ID         domain.ImageID
	ExternalID domain.ExternalAssetID
	Variant    domain.ImageVariant
	CreatedAt  time.Time
}

// Repository provides access to persisted image records.
type Repository interface {
	// Create persists the record. Creation is idempotent by ExternalID: if a
	// record with the same external id already exists, the existing record is
	// returned unchanged and no new row is written.
	Create(ctx context.Context, rec Record) (Record, error)

	GetByID(ctx context.Context, id domain.ImageID) (Record, error)
	GetByExternalID(ctx context.Context, externalID domain.ExternalAssetID) (Record, error)

	// Delete removes the record and unlinks any profile image slots bound to
	// it. It returns whether a record was actually removed.
	Delete(ctx context.Context, id domain.ImageID) (bool, error)
}
