package images

import (
	"context"
	"errors"
	"testing"
	"time"

	fakehost "github.com/dansportalen/directory-api/internal/adapters/assethost"
	"github.com/dansportalen/directory-api/internal/adapters/memory"
	memclock "github.com/dansportalen/directory-api/internal/adapters/memory/clock"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

func newTestService(t *testing.T) (*Service, *fakehost.Fake, *memory.Store) {
	t.Helper()
	host := fakehost.NewFake()
	store := memory.NewStore()
	clk := memclock.NewManualClock(time.Unix(100, 0).UTC())
	return NewService(host, store.Images(), store.Profiles(), clk), host, store
}

func TestService_RequestUploadSlot(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	slot, err := svc.RequestUploadSlot(context.Background(), "uploader-1")
	if err != nil {
		t.Fatalf("RequestUploadSlot err=%v", err)
	}
	if slot.ExternalID == "" || slot.UploadURL == "" {
		t.Fatalf("slot=%+v, want external id and upload url", slot)
	}
}

func TestService_RequestUploadSlot_EmptyUploader(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	_, err := svc.RequestUploadSlot(context.Background(), "   ")
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 || ae.Code != "VALIDATION_ERROR" {
		t.Fatalf("err=%v, want VALIDATION_ERROR 422", err)
	}
}

func TestService_Confirm_NotUploaded(t *testing.T) {
	t.Parallel()

	svc, host, _ := newTestService(t)

	slot, err := svc.RequestUploadSlot(context.Background(), "uploader-1")
	if err != nil {
		t.Fatalf("RequestUploadSlot err=%v", err)
	}
	_ = host // upload never completed

	_, err = svc.Confirm(context.Background(), slot.ExternalID, domain.ImageVariantCover)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "IMAGE_NOT_UPLOADED" {
		t.Fatalf("err=%v, want IMAGE_NOT_UPLOADED 409", err)
	}
}

func TestService_Confirm_ThenGet(t *testing.T) {
	t.Parallel()

	svc, host, _ := newTestService(t)

	slot, err := svc.RequestUploadSlot(context.Background(), "uploader-1")
	if err != nil {
		t.Fatalf("RequestUploadSlot err=%v", err)
	}
	host.CompleteUpload(slot.ExternalID)

	img, err := svc.Confirm(context.Background(), slot.ExternalID, domain.ImageVariantPoster)
	if err != nil {
		t.Fatalf("Confirm err=%v", err)
	}
	if img.ExternalID != slot.ExternalID || img.Variant != domain.ImageVariantPoster {
		t.Fatalf("img=%+v", img)
	}

	got, err := svc.GetByID(context.Background(), img.ID)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if got == nil || got.ID != img.ID {
		t.Fatalf("got=%+v, want image %s", got, img.ID)
	}

	byExt, err := svc.GetByExternalID(context.Background(), slot.ExternalID)
	if err != nil {
		t.Fatalf("GetByExternalID err=%v", err)
	}
	if byExt == nil || byExt.ID != img.ID {
		t.Fatalf("byExt=%+v, want image %s", byExt, img.ID)
	}
}

func TestService_Confirm_Idempotent(t *testing.T) {
	t.Parallel()

	svc, host, _ := newTestService(t)

	slot, err := svc.RequestUploadSlot(context.Background(), "uploader-1")
	if err != nil {
		t.Fatalf("RequestUploadSlot err=%v", err)
	}
	host.CompleteUpload(slot.ExternalID)

	first, err := svc.Confirm(context.Background(), slot.ExternalID, domain.ImageVariantCover)
	if err != nil {
		t.Fatalf("first Confirm err=%v", err)
	}
	second, err := svc.Confirm(context.Background(), slot.ExternalID, domain.ImageVariantCover)
	if err != nil {
		t.Fatalf("second Confirm err=%v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("second confirm created a new image: %s != %s", second.ID, first.ID)
	}
}

func TestService_Confirm_InvalidVariant(t *testing.T) {
	t.Parallel()

	svc, host, _ := newTestService(t)

	slot, _ := svc.RequestUploadSlot(context.Background(), "uploader-1")
	host.CompleteUpload(slot.ExternalID)

	_, err := svc.Confirm(context.Background(), slot.ExternalID, domain.ImageVariant("banner"))
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 422 {
		t.Fatalf("err=%v, want VALIDATION_ERROR 422", err)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)

	err := svc.Delete(context.Background(), domain.ImageID("missing"), false)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 404 || ae.Code != "IMAGE_NOT_FOUND" {
		t.Fatalf("err=%v, want IMAGE_NOT_FOUND 404", err)
	}
}

func TestService_Delete_InUseAndForce(t *testing.T) {
	t.Parallel()

	svc, host, store := newTestService(t)
	ctx := context.Background()

	slot, _ := svc.RequestUploadSlot(ctx, "uploader-1")
	host.CompleteUpload(slot.ExternalID)
	img, err := svc.Confirm(ctx, slot.ExternalID, domain.ImageVariantCover)
	if err != nil {
		t.Fatalf("Confirm err=%v", err)
	}

	cover := img.ID
	if err := store.Profiles().Create(ctx, profilerepo.Record{
		ID:     domain.ProfileID("p-1"),
		Type:   domain.ProfileTypeIndividual,
		Name:   "Stina Lund",
		Images: domain.ImageSet{CoverID: &cover},
	}); err != nil {
		t.Fatalf("seed profile err=%v", err)
	}

	err = svc.Delete(ctx, img.ID, false)
	ae := (*Error)(nil)
	if !errors.As(err, &ae) || ae.Status != 409 || ae.Code != "IMAGE_IN_USE" {
		t.Fatalf("err=%v, want IMAGE_IN_USE 409", err)
	}

	if err := svc.Delete(ctx, img.ID, true); err != nil {
		t.Fatalf("force Delete err=%v", err)
	}

	// The referencing slot must be unbound, not dangling.
	rec, err := store.Profiles().GetByID(ctx, domain.ProfileID("p-1"))
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if rec.Images.CoverID != nil {
		t.Fatalf("cover slot still bound to %s after force delete", *rec.Images.CoverID)
	}

	got, err := svc.GetByID(ctx, img.ID)
	if err != nil {
		t.Fatalf("GetByID err=%v", err)
	}
	if got != nil {
		t.Fatalf("image still present after force delete")
	}
}

func TestService_Delete_ExternalFirst(t *testing.T) {
	t.Parallel()

	svc, host, _ := newTestService(t)
	ctx := context.Background()

	slot, _ := svc.RequestUploadSlot(ctx, "uploader-1")
	host.CompleteUpload(slot.ExternalID)
	img, err := svc.Confirm(ctx, slot.ExternalID, domain.ImageVariantSquare)
	if err != nil {
		t.Fatalf("Confirm err=%v", err)
	}

	if err := svc.Delete(ctx, img.ID, false); err != nil {
		t.Fatalf("Delete err=%v", err)
	}

	held, err := host.DeleteAsset(ctx, slot.ExternalID)
	if err != nil {
		t.Fatalf("DeleteAsset err=%v", err)
	}
	if held {
		t.Fatalf("host still held asset %s after delete", slot.ExternalID)
	}
}
