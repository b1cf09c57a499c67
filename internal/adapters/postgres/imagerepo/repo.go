package imagerepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/imagerepo"
)

// Repo is a Postgres implementation of imagerepo.Repository. Idempotent
// creation rides on the unique index over external_id; slot unlinking on
// delete rides on the ON DELETE SET NULL image foreign keys.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec imagerepo.Record) (imagerepo.Record, error) {
	ct, err := r.pool.Exec(ctx, `
		INSERT INTO images (id, external_id, variant, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (external_id) DO NOTHING
	`, string(rec.ID), string(rec.ExternalID), string(rec.Variant), rec.CreatedAt.UTC())
	if err != nil {
		return imagerepo.Record{}, err
	}
	if ct.RowsAffected() > 0 {
		return rec, nil
	}
	// Lost the race (or a retry): the earlier row wins.
	return r.GetByExternalID(ctx, rec.ExternalID)
}

func (r *Repo) GetByID(ctx context.Context, id domain.ImageID) (imagerepo.Record, error) {
	if !postgres.WellFormedID(string(id)) {
		return imagerepo.Record{}, imagerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_id, variant, created_at FROM images WHERE id = $1
	`, string(id))
	return scanRecord(row)
}

func (r *Repo) GetByExternalID(ctx context.Context, externalID domain.ExternalAssetID) (imagerepo.Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, external_id, variant, created_at FROM images WHERE external_id = $1
	`, string(externalID))
	return scanRecord(row)
}

func (r *Repo) Delete(ctx context.Context, id domain.ImageID) (bool, error) {
	if !postgres.WellFormedID(string(id)) {
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM images WHERE id = $1`, string(id))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func scanRecord(row pgx.Row) (imagerepo.Record, error) {
	var (
		rec     imagerepo.Record
		id, ext string
		variant string
	)
	if err := row.Scan(&id, &ext, &variant, &rec.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return imagerepo.Record{}, imagerepo.ErrNotFound
		}
		return imagerepo.Record{}, err
	}
	rec.ID = domain.ImageID(id)
	rec.ExternalID = domain.ExternalAssetID(ext)
	rec.Variant = domain.ImageVariant(variant)
	return rec, nil
}
