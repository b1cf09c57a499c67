// Package assethost holds the adapters behind ports/out/assethost.Host: an
// HTTP client for a real host and an in-memory fake for tests and the
// credential-less dev setup.
package assethost

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/assethost"
)

// Fake is an in-memory asset host. Uploads never actually happen; tests and
// the dev backend flip assets to completed with CompleteUpload.
type Fake struct {
	mu     sync.Mutex
	assets map[domain.ExternalAssetID]bool // true once the upload completed
}

func NewFake() *Fake {
	return &Fake{assets: make(map[domain.ExternalAssetID]bool)}
}

func (f *Fake) CreateUploadSlot(ctx context.Context, meta assethost.UploadMetadata) (assethost.UploadSlot, error) {
	_ = ctx
	_ = meta
	f.mu.Lock()
	defer f.mu.Unlock()

	id := domain.ExternalAssetID(uuid.NewString())
	f.assets[id] = false
	return assethost.UploadSlot{
		ExternalID: id,
		UploadURL:  fmt.Sprintf("https://assets.invalid/upload/%s", id),
	}, nil
}

func (f *Fake) IsUploadComplete(ctx context.Context, externalID domain.ExternalAssetID) (bool, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.assets[externalID], nil
}

func (f *Fake) DeleteAsset(ctx context.Context, externalID domain.ExternalAssetID) (bool, error) {
	_ = ctx
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.assets[externalID]
	delete(f.assets, externalID)
	return ok, nil
}

// CompleteUpload marks the asset as uploaded, as if the client had pushed
// bytes to the slot's upload URL.
func (f *Fake) CompleteUpload(externalID domain.ExternalAssetID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.assets[externalID]; ok {
		f.assets[externalID] = true
	}
}

// Register seeds an asset in the given upload state without going through
// CreateUploadSlot.
func (f *Fake) Register(externalID domain.ExternalAssetID, completed bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[externalID] = completed
}
