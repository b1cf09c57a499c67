package venuerepo

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	pgprofile "github.com/dansportalen/directory-api/internal/adapters/postgres/profilerepo"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
	"github.com/dansportalen/directory-api/internal/ports/out/venuerepo"
)

// hierarchyLockID keys the advisory lock that serializes structural venue
// writes. Concurrent re-parentings could otherwise each pass the cycle check
// and jointly commit a cycle.
const hierarchyLockID = 7231

// maxHierarchyDepth bounds ancestor walks so a corrupted parent chain cannot
// loop a query forever.
const maxHierarchyDepth = 64

// Repo is a Postgres implementation of venuerepo.Repository.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec venuerepo.Record) error {
	if rec.ParentID != nil && !postgres.WellFormedID(string(*rec.ParentID)) {
		return venuerepo.ErrParentNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertBase(ctx, tx, rec); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO venue_profiles (profile_id, lat, lng, permanently_closed, parent_id)
			VALUES ($1, $2, $3, $4, $5)
		`, string(rec.ID), rec.Coords.Lat, rec.Coords.Lng, rec.PermanentlyClosed, parentArg(rec.ParentID))
		if err != nil {
			if postgres.IsConstraintViolation(err, postgres.ForeignKeyViolationCode, "venue_profiles_parent_id_fkey") {
				return venuerepo.ErrParentNotFound
			}
			return err
		}
		return nil
	})
}

func (r *Repo) Update(ctx context.Context, rec venuerepo.Record) error {
	if !postgres.WellFormedID(string(rec.ID)) {
		return profilerepo.ErrNotFound
	}
	if rec.ParentID != nil && !postgres.WellFormedID(string(*rec.ParentID)) {
		return venuerepo.ErrParentNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		// Serialize structural writes so the cycle check below sees a frozen
		// hierarchy until this transaction commits.
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, hierarchyLockID); err != nil {
			return err
		}

		if rec.ParentID != nil {
			ok, err := parentChainClearOf(ctx, tx, *rec.ParentID, rec.ID)
			if err != nil {
				return err
			}
			if !ok {
				return &venuerepo.CycleError{OffendingID: rec.ID}
			}
		}

		ct, err := tx.Exec(ctx, `
			UPDATE profiles
			SET name = $2,
			    description = $3,
			    links = $4,
			    cover_image_id = $5,
			    poster_image_id = $6,
			    square_image_id = $7,
			    updated_at = $8
			WHERE id = $1 AND profile_type = 'venue'
		`,
			string(rec.ID),
			rec.Name,
			rec.Description,
			rec.Links,
			imageArg(rec.Images.CoverID),
			imageArg(rec.Images.PosterID),
			imageArg(rec.Images.SquareID),
			rec.UpdatedAt.UTC(),
		)
		if err != nil {
			return pgprofile.MapWriteError(err)
		}
		if ct.RowsAffected() == 0 {
			return profilerepo.ErrNotFound
		}

		_, err = tx.Exec(ctx, `
			UPDATE venue_profiles
			SET lat = $2, lng = $3, permanently_closed = $4, parent_id = $5
			WHERE profile_id = $1
		`, string(rec.ID), rec.Coords.Lat, rec.Coords.Lng, rec.PermanentlyClosed, parentArg(rec.ParentID))
		if err != nil {
			if postgres.IsConstraintViolation(err, postgres.ForeignKeyViolationCode, "venue_profiles_parent_id_fkey") {
				return venuerepo.ErrParentNotFound
			}
			return err
		}
		return nil
	})
}

// parentChainClearOf walks from newParent towards the root and reports
// whether the chain avoids excluded. A nonexistent parent yields an empty
// chain and passes; the FK on venue_profiles.parent_id rejects it at write
// time.
func parentChainClearOf(ctx context.Context, tx pgx.Tx, newParent, excluded domain.ProfileID) (bool, error) {
	if newParent == excluded {
		return false, nil
	}
	rows, err := tx.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT profile_id, parent_id, 1 AS depth
			FROM venue_profiles
			WHERE profile_id = $1
			UNION ALL
			SELECT v.profile_id, v.parent_id, c.depth + 1
			FROM venue_profiles v
			JOIN chain c ON v.profile_id = c.parent_id
			WHERE c.depth < $3
		)
		SELECT profile_id FROM chain WHERE profile_id = $2 LIMIT 1
	`, string(newParent), string(excluded), maxHierarchyDepth)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	if rows.Next() {
		return false, nil
	}
	return true, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (venuerepo.Record, error) {
	if !postgres.WellFormedID(string(id)) {
		return venuerepo.Record{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.profile_type, p.name, p.description, p.links,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       p.created_at, p.updated_at,
		       v.lat, v.lng, v.permanently_closed, v.parent_id
		FROM profiles p
		JOIN venue_profiles v ON v.profile_id = p.id
		WHERE p.id = $1
	`, string(id))

	var (
		rec                   venuerepo.Record
		pid, typ              string
		links                 []string
		cover, poster, square *string
		parent                *string
	)
	err := row.Scan(&pid, &typ, &rec.Name, &rec.Description, &links,
		&cover, &poster, &square, &rec.CreatedAt, &rec.UpdatedAt,
		&rec.Coords.Lat, &rec.Coords.Lng, &rec.PermanentlyClosed, &parent)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return venuerepo.Record{}, profilerepo.ErrNotFound
		}
		return venuerepo.Record{}, err
	}
	rec.ID = domain.ProfileID(pid)
	rec.Type = domain.ProfileType(typ)
	rec.Links = links
	rec.Images = pgprofile.ImageSet(cover, poster, square)
	if parent != nil {
		p := domain.ProfileID(*parent)
		rec.ParentID = &p
	}
	return rec, nil
}

func (r *Repo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.VenueReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return domain.VenueReference{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, referenceSelect+` WHERE p.id = $1`, string(id))
	ref, err := scanReference(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.VenueReference{}, profilerepo.ErrNotFound
		}
		return domain.VenueReference{}, err
	}
	return ref, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	if !postgres.WellFormedID(string(id)) {
		return false, nil
	}
	// venue_profiles.parent_id is ON DELETE SET NULL, so children of the
	// deleted venue become roots.
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM profiles WHERE id = $1 AND profile_type = 'venue'
	`, string(id))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) GetAncestors(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return nil, profilerepo.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, `
		WITH RECURSIVE chain AS (
			SELECT v.parent_id, 1 AS depth
			FROM venue_profiles v
			WHERE v.profile_id = $1
			UNION ALL
			SELECT v.parent_id, c.depth + 1
			FROM venue_profiles v
			JOIN chain c ON v.profile_id = c.parent_id
			WHERE c.depth < $2
		)
		SELECT p.id, p.profile_type, p.name,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       v.lat, v.lng, v.permanently_closed,
		       c.depth
		FROM chain c
		JOIN venue_profiles v ON v.profile_id = c.parent_id
		JOIN profiles p ON p.id = v.profile_id
		ORDER BY c.depth DESC
	`, string(id), maxHierarchyDepth)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.VenueReference, 0)
	for rows.Next() {
		var (
			rid, typ, name        string
			cover, poster, square *string
			ref                   domain.VenueReference
			depth                 int
		)
		if err := rows.Scan(&rid, &typ, &name, &cover, &poster, &square,
			&ref.Coords.Lat, &ref.Coords.Lng, &ref.PermanentlyClosed, &depth); err != nil {
			return nil, err
		}
		ref.ID = domain.ProfileID(rid)
		ref.Type = domain.ProfileType(typ)
		ref.Name = name
		ref.Images = pgprofile.ImageSet(cover, poster, square)
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *Repo) GetChildren(ctx context.Context, id domain.ProfileID) ([]domain.VenueReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return nil, profilerepo.ErrNotFound
	}
	rows, err := r.pool.Query(ctx, referenceSelect+` WHERE v.parent_id = $1`, string(id))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.VenueReference, 0)
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ref)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, f venuerepo.Filter) ([]venuerepo.ScoredReference, error) {
	sb := sq.Select(
		"p.id", "p.profile_type", "p.name",
		"p.cover_image_id", "p.poster_image_id", "p.square_image_id",
		"v.lat", "v.lng", "v.permanently_closed",
	).
		From("profiles p").
		Join("venue_profiles v ON v.profile_id = p.id").
		PlaceholderFormat(sq.Dollar)

	if f.NameQuery != nil {
		sb = sb.Column(sq.Expr("similarity(lower(p.name), lower(?)) AS score", *f.NameQuery)).
			Where(sq.Expr("similarity(lower(p.name), lower(?)) >= 0.3", *f.NameQuery))
	} else {
		sb = sb.Column("NULL::float8 AS score")
	}

	inner, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	var key *string
	if f.PageKey != nil {
		// A key that is not even id-shaped cannot appear in any result set.
		if !postgres.WellFormedID(string(*f.PageKey)) {
			return []venuerepo.ScoredReference{}, nil
		}
		k := string(*f.PageKey)
		key = &k
	}
	query, args := postgres.PageQuery(
		"id, profile_type, name, cover_image_id, poster_image_id, square_image_id, lat, lng, permanently_closed, score",
		inner, args, key, f.Limit,
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]venuerepo.ScoredReference, 0)
	for rows.Next() {
		var (
			id, typ, name         string
			cover, poster, square *string
			ref                   domain.VenueReference
			score                 *float64
		)
		if err := rows.Scan(&id, &typ, &name, &cover, &poster, &square,
			&ref.Coords.Lat, &ref.Coords.Lng, &ref.PermanentlyClosed, &score); err != nil {
			return nil, err
		}
		ref.ID = domain.ProfileID(id)
		ref.Type = domain.ProfileType(typ)
		ref.Name = name
		ref.Images = pgprofile.ImageSet(cover, poster, square)
		out = append(out, venuerepo.ScoredReference{Reference: ref, Score: score})
	}
	return out, rows.Err()
}

func (r *Repo) SearchByProximity(ctx context.Context, origin domain.Coords, maxMeters float64) ([]venuerepo.ProximityHit, error) {
	// earth_box against the gist index prunes candidates; earth_distance
	// recomputes the exact great-circle distance for the cutoff and order.
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.profile_type, p.name,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       v.lat, v.lng, v.permanently_closed,
		       earth_distance(ll_to_earth(v.lat, v.lng), ll_to_earth($1, $2)) AS distance
		FROM profiles p
		JOIN venue_profiles v ON v.profile_id = p.id
		WHERE earth_box(ll_to_earth($1, $2), $3) @> ll_to_earth(v.lat, v.lng)
		  AND earth_distance(ll_to_earth(v.lat, v.lng), ll_to_earth($1, $2)) <= $3
		ORDER BY distance ASC, p.id ASC
	`, origin.Lat, origin.Lng, maxMeters)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]venuerepo.ProximityHit, 0)
	for rows.Next() {
		var (
			rid, typ, name        string
			cover, poster, square *string
			hit                   venuerepo.ProximityHit
		)
		if err := rows.Scan(&rid, &typ, &name, &cover, &poster, &square,
			&hit.Reference.Coords.Lat, &hit.Reference.Coords.Lng,
			&hit.Reference.PermanentlyClosed, &hit.DistanceMeters); err != nil {
			return nil, err
		}
		hit.Reference.ID = domain.ProfileID(rid)
		hit.Reference.Type = domain.ProfileType(typ)
		hit.Reference.Name = name
		hit.Reference.Images = pgprofile.ImageSet(cover, poster, square)
		out = append(out, hit)
	}
	return out, rows.Err()
}

const referenceSelect = `
	SELECT p.id, p.profile_type, p.name,
	       p.cover_image_id, p.poster_image_id, p.square_image_id,
	       v.lat, v.lng, v.permanently_closed
	FROM profiles p
	JOIN venue_profiles v ON v.profile_id = p.id
`

func scanReference(row pgx.Row) (domain.VenueReference, error) {
	var (
		rid, typ, name        string
		cover, poster, square *string
		ref                   domain.VenueReference
	)
	err := row.Scan(&rid, &typ, &name, &cover, &poster, &square,
		&ref.Coords.Lat, &ref.Coords.Lng, &ref.PermanentlyClosed)
	if err != nil {
		return domain.VenueReference{}, err
	}
	ref.ID = domain.ProfileID(rid)
	ref.Type = domain.ProfileType(typ)
	ref.Name = name
	ref.Images = pgprofile.ImageSet(cover, poster, square)
	return ref, nil
}

func insertBase(ctx context.Context, tx pgx.Tx, rec venuerepo.Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profiles (
			id, profile_type, name, description, links,
			cover_image_id, poster_image_id, square_image_id,
			created_at, updated_at
		) VALUES ($1, 'venue', $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		string(rec.ID),
		rec.Name,
		rec.Description,
		rec.Links,
		imageArg(rec.Images.CoverID),
		imageArg(rec.Images.PosterID),
		imageArg(rec.Images.SquareID),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	return pgprofile.MapWriteError(err)
}

func parentArg(id *domain.ProfileID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}

func imageArg(id *domain.ImageID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
