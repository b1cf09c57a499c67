package profilerepo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// similarityThreshold matches the pg_trgm default; hits below it never rank.
const similarityThreshold = 0.3

// Repo is a Postgres implementation of profilerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec profilerepo.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profiles (
			id, profile_type, name, description, links,
			cover_image_id, poster_image_id, square_image_id,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		string(rec.ID),
		string(rec.Type),
		rec.Name,
		rec.Description,
		rec.Links,
		imageIDArg(rec.Images.CoverID),
		imageIDArg(rec.Images.PosterID),
		imageIDArg(rec.Images.SquareID),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	return MapWriteError(err)
}

func (r *Repo) Update(ctx context.Context, rec profilerepo.Record) error {
	if !postgres.WellFormedID(string(rec.ID)) {
		return profilerepo.ErrNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE profiles
		SET name = $2,
		    description = $3,
		    links = $4,
		    cover_image_id = $5,
		    poster_image_id = $6,
		    square_image_id = $7,
		    updated_at = $8
		WHERE id = $1
	`,
		string(rec.ID),
		rec.Name,
		rec.Description,
		rec.Links,
		imageIDArg(rec.Images.CoverID),
		imageIDArg(rec.Images.PosterID),
		imageIDArg(rec.Images.SquareID),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return MapWriteError(err)
	}
	if ct.RowsAffected() == 0 {
		return profilerepo.ErrNotFound
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (profilerepo.Record, error) {
	if !postgres.WellFormedID(string(id)) {
		return profilerepo.Record{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, profile_type, name, description, links,
		       cover_image_id, poster_image_id, square_image_id,
		       created_at, updated_at
		FROM profiles
		WHERE id = $1
	`, string(id))
	return ScanRecord(row)
}

func (r *Repo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.ProfileReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return domain.ProfileReference{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT id, profile_type, name,
		       cover_image_id, poster_image_id, square_image_id
		FROM profiles
		WHERE id = $1
	`, string(id))
	return ScanReference(row)
}

func (r *Repo) GetTypeByID(ctx context.Context, id domain.ProfileID) (domain.ProfileType, error) {
	if !postgres.WellFormedID(string(id)) {
		return "", profilerepo.ErrNotFound
	}
	var typ string
	err := r.pool.QueryRow(ctx, `SELECT profile_type FROM profiles WHERE id = $1`, string(id)).Scan(&typ)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", profilerepo.ErrNotFound
		}
		return "", err
	}
	return domain.ProfileType(typ), nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	if !postgres.WellFormedID(string(id)) {
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, string(id))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) SearchReferencesByName(ctx context.Context, query string, limit, offset int) ([]profilerepo.ScoredReference, error) {
	rows, err := r.pool.Query(ctx, fmt.Sprintf(`
		SELECT id, profile_type, name,
		       cover_image_id, poster_image_id, square_image_id,
		       similarity(lower(name), lower($1)) AS score
		FROM profiles
		WHERE similarity(lower(name), lower($1)) >= %v
		ORDER BY score DESC, name COLLATE "swedish" ASC, id ASC
		LIMIT $2 OFFSET $3
	`, similarityThreshold), query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]profilerepo.ScoredReference, 0)
	for rows.Next() {
		var (
			id, typ, name        string
			cover, poster, square *string
			score                float64
		)
		if err := rows.Scan(&id, &typ, &name, &cover, &poster, &square, &score); err != nil {
			return nil, err
		}
		out = append(out, profilerepo.ScoredReference{
			Reference: domain.ProfileReference{
				ID:     domain.ProfileID(id),
				Type:   domain.ProfileType(typ),
				Name:   name,
				Images: ImageSet(cover, poster, square),
			},
			Score: score,
		})
	}
	return out, rows.Err()
}

func (r *Repo) CountImageReferences(ctx context.Context, id domain.ImageID) (int, error) {
	if !postgres.WellFormedID(string(id)) {
		return 0, nil
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT (SELECT count(*) FROM profiles WHERE cover_image_id = $1)
		     + (SELECT count(*) FROM profiles WHERE poster_image_id = $1)
		     + (SELECT count(*) FROM profiles WHERE square_image_id = $1)
	`, string(id)).Scan(&n)
	return n, err
}

// ScanRecord scans the full profile projection.
func ScanRecord(row pgx.Row) (profilerepo.Record, error) {
	var (
		rec                   profilerepo.Record
		id, typ               string
		links                 []string
		cover, poster, square *string
	)
	err := row.Scan(&id, &typ, &rec.Name, &rec.Description, &links,
		&cover, &poster, &square, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return profilerepo.Record{}, profilerepo.ErrNotFound
		}
		return profilerepo.Record{}, err
	}
	rec.ID = domain.ProfileID(id)
	rec.Type = domain.ProfileType(typ)
	rec.Links = links
	rec.Images = ImageSet(cover, poster, square)
	return rec, nil
}

// ScanReference scans the reduced profile projection.
func ScanReference(row pgx.Row) (domain.ProfileReference, error) {
	var (
		id, typ, name         string
		cover, poster, square *string
	)
	err := row.Scan(&id, &typ, &name, &cover, &poster, &square)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProfileReference{}, profilerepo.ErrNotFound
		}
		return domain.ProfileReference{}, err
	}
	return domain.ProfileReference{
		ID:     domain.ProfileID(id),
		Type:   domain.ProfileType(typ),
		Name:   name,
		Images: ImageSet(cover, poster, square),
	}, nil
}

// ImageSet converts scanned image columns into the domain shape.
func ImageSet(cover, poster, square *string) domain.ImageSet {
	return domain.ImageSet{
		CoverID:  imageID(cover),
		PosterID: imageID(poster),
		SquareID: imageID(square),
	}
}

func imageID(s *string) *domain.ImageID {
	if s == nil {
		return nil
	}
	id := domain.ImageID(*s)
	return &id
}

func imageIDArg(id *domain.ImageID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

// MapWriteError classifies base-profile write failures into the port's
// sentinel errors. The subtype repositories reuse it for their base-row
// writes.
func MapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := postgres.AsPgError(err); ok {
		switch pe.Code {
		case postgres.UniqueViolationCode:
			if pe.ConstraintName == "profiles_pkey" {
				return profilerepo.ErrAlreadyExists
			}
		case postgres.ForeignKeyViolationCode:
			switch pe.ConstraintName {
			case "profiles_cover_image_id_fkey", "profiles_poster_image_id_fkey", "profiles_square_image_id_fkey":
				return profilerepo.ErrInvalidImageRef
			}
		}
	}
	return err
}
