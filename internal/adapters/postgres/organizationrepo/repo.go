package organizationrepo

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	pgprofile "github.com/dansportalen/directory-api/internal/adapters/postgres/profilerepo"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/organizationrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of organizationrepo.Repository. It
// shares the organization_members relation with the individual repository;
// writes here replace the organization's side of the edges.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec organizationrepo.Record) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertBase(ctx, tx, rec); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO organization_profiles (profile_id, tags) VALUES ($1, $2)
		`, string(rec.ID), tagStrings(rec.Tags))
		if err != nil {
			return err
		}
		return insertEdges(ctx, tx, rec.ID, rec.Members)
	})
}

func (r *Repo) Update(ctx context.Context, rec organizationrepo.Record) error {
	if !postgres.WellFormedID(string(rec.ID)) {
		return profilerepo.ErrNotFound
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		ct, err := tx.Exec(ctx, `
			UPDATE profiles
			SET name = $2,
			    description = $3,
			    links = $4,
			    cover_image_id = $5,
			    poster_image_id = $6,
			    square_image_id = $7,
			    updated_at = $8
			WHERE id = $1 AND profile_type = 'organization'
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

		if _, err := tx.Exec(ctx, `
			UPDATE organization_profiles SET tags = $2 WHERE profile_id = $1
		`, string(rec.ID), tagStrings(rec.Tags)); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM organization_members WHERE organization_id = $1
		`, string(rec.ID)); err != nil {
			return err
		}
		return insertEdges(ctx, tx, rec.ID, rec.Members)
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (organizationrepo.Record, error) {
	if !postgres.WellFormedID(string(id)) {
		return organizationrepo.Record{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.profile_type, p.name, p.description, p.links,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       p.created_at, p.updated_at,
		       o.tags
		FROM profiles p
		JOIN organization_profiles o ON o.profile_id = p.id
		WHERE p.id = $1
	`, string(id))

	var (
		rec                   organizationrepo.Record
		pid, typ              string
		links, tags           []string
		cover, poster, square *string
	)
	err := row.Scan(&pid, &typ, &rec.Name, &rec.Description, &links,
		&cover, &poster, &square, &rec.CreatedAt, &rec.UpdatedAt, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return organizationrepo.Record{}, profilerepo.ErrNotFound
		}
		return organizationrepo.Record{}, err
	}
	rec.ID = domain.ProfileID(pid)
	rec.Type = domain.ProfileType(typ)
	rec.Links = links
	rec.Images = pgprofile.ImageSet(cover, poster, square)
	rec.Tags = toTags(tags)

	rows, err := r.pool.Query(ctx, `
		SELECT individual_id, title
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY individual_id
	`, string(id))
	if err != nil {
		return organizationrepo.Record{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var indID, title string
		if err := rows.Scan(&indID, &title); err != nil {
			return organizationrepo.Record{}, err
		}
		rec.Members = append(rec.Members, organizationrepo.Edge{
			IndividualID: domain.ProfileID(indID),
			Title:        title,
		})
	}
	return rec, rows.Err()
}

func (r *Repo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.OrganizationReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return domain.OrganizationReference{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.profile_type, p.name,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       o.tags
		FROM profiles p
		JOIN organization_profiles o ON o.profile_id = p.id
		WHERE p.id = $1
	`, string(id))

	var (
		pid, typ, name        string
		cover, poster, square *string
		tags                  []string
	)
	err := row.Scan(&pid, &typ, &name, &cover, &poster, &square, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.OrganizationReference{}, profilerepo.ErrNotFound
		}
		return domain.OrganizationReference{}, err
	}
	return domain.OrganizationReference{
		ProfileReference: domain.ProfileReference{
			ID:     domain.ProfileID(pid),
			Type:   domain.ProfileType(typ),
			Name:   name,
			Images: pgprofile.ImageSet(cover, poster, square),
		},
		Tags: toTags(tags),
	}, nil
}

func (r *Repo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	if !postgres.WellFormedID(string(id)) {
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM profiles WHERE id = $1 AND profile_type = 'organization'
	`, string(id))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) List(ctx context.Context, f organizationrepo.Filter) ([]organizationrepo.ScoredReference, error) {
	sb := sq.Select(
		"p.id", "p.profile_type", "p.name",
		"p.cover_image_id", "p.poster_image_id", "p.square_image_id",
		"o.tags",
	).
		From("profiles p").
		Join("organization_profiles o ON o.profile_id = p.id").
		PlaceholderFormat(sq.Dollar)

	if f.NameQuery != nil {
		sb = sb.Column(sq.Expr("similarity(lower(p.name), lower(?)) AS score", *f.NameQuery)).
			Where(sq.Expr("similarity(lower(p.name), lower(?)) >= 0.3", *f.NameQuery))
	} else {
		sb = sb.Column("NULL::float8 AS score")
	}
	if len(f.Tags) > 0 {
		sb = sb.Where(sq.Expr("o.tags && ?", tagStrings(f.Tags)))
	}
	for _, memberID := range f.MemberIDs {
		// A malformed filter id matches no individual, so nothing matches.
		if !postgres.WellFormedID(string(memberID)) {
			return []organizationrepo.ScoredReference{}, nil
		}
		sb = sb.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM organization_members m WHERE m.organization_id = p.id AND m.individual_id = ?)",
			string(memberID),
		))
	}

	inner, args, err := sb.ToSql()
	if err != nil {
		return nil, err
	}

	var key *string
	if f.PageKey != nil {
		// A key that is not even id-shaped cannot appear in any result set.
		if !postgres.WellFormedID(string(*f.PageKey)) {
			return []organizationrepo.ScoredReference{}, nil
		}
		k := string(*f.PageKey)
		key = &k
	}
	query, args := postgres.PageQuery(
		"id, profile_type, name, cover_image_id, poster_image_id, square_image_id, tags, score",
		inner, args, key, f.Limit,
	)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]organizationrepo.ScoredReference, 0)
	for rows.Next() {
		var (
			id, typ, name         string
			cover, poster, square *string
			tags                  []string
			score                 *float64
		)
		if err := rows.Scan(&id, &typ, &name, &cover, &poster, &square, &tags, &score); err != nil {
			return nil, err
		}
		out = append(out, organizationrepo.ScoredReference{
			Reference: domain.OrganizationReference{
				ProfileReference: domain.ProfileReference{
					ID:     domain.ProfileID(id),
					Type:   domain.ProfileType(typ),
					Name:   name,
					Images: pgprofile.ImageSet(cover, poster, square),
				},
				Tags: toTags(tags),
			},
			Score: score,
		})
	}
	return out, rows.Err()
}

func insertBase(ctx context.Context, tx pgx.Tx, rec organizationrepo.Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profiles (
			id, profile_type, name, description, links,
			cover_image_id, poster_image_id, square_image_id,
			created_at, updated_at
		) VALUES ($1, 'organization', $2, $3, $4, $5, $6, $7, $8, $9)
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

func insertEdges(ctx context.Context, tx pgx.Tx, id domain.ProfileID, edges []organizationrepo.Edge) error {
	for _, e := range edges {
		if !postgres.WellFormedID(string(e.IndividualID)) {
			return organizationrepo.ErrEdgeTargetNotFound
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO organization_members (organization_id, individual_id, title)
			VALUES ($1, $2, $3)
		`, string(id), string(e.IndividualID), e.Title)
		if err != nil {
			if postgres.IsConstraintViolation(err, postgres.ForeignKeyViolationCode, "organization_members_individual_id_fkey") {
				return organizationrepo.ErrEdgeTargetNotFound
			}
			return err
		}
	}
	return nil
}

func tagStrings(tags []domain.OrganizationTag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func toTags(ss []string) []domain.OrganizationTag {
	out := make([]domain.OrganizationTag, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.OrganizationTag(s))
	}
	return out
}

func imageArg(id *domain.ImageID) *string {
	if id == nil {
		return nil
	}
	s := string(*id)
	return &s
}
