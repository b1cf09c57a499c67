package individualrepo

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/dansportalen/directory-api/internal/adapters/postgres"
	pgprofile "github.com/dansportalen/directory-api/internal/adapters/postgres/profilerepo"
	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/individualrepo"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// Repo is a Postgres implementation of individualrepo.Repository. Writes
// touch the base profiles row, the extension row and the membership edges in
// one transaction.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, rec individualrepo.Record) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := insertBase(ctx, tx, rec); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO individual_profiles (profile_id, tags) VALUES ($1, $2)
		`, string(rec.ID), tagStrings(rec.Tags))
		if err != nil {
			return err
		}
		return insertEdges(ctx, tx, rec.ID, rec.Organizations)
	})
}

func (r *Repo) Update(ctx context.Context, rec individualrepo.Record) error {
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
			WHERE id = $1 AND profile_type = 'individual'
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
			UPDATE individual_profiles SET tags = $2 WHERE profile_id = $1
		`, string(rec.ID), tagStrings(rec.Tags)); err != nil {
			return err
		}

		if _, err := tx.Exec(ctx, `
			DELETE FROM organization_members WHERE individual_id = $1
		`, string(rec.ID)); err != nil {
			return err
		}
		return insertEdges(ctx, tx, rec.ID, rec.Organizations)
	})
}

func (r *Repo) GetByID(ctx context.Context, id domain.ProfileID) (individualrepo.Record, error) {
	if !postgres.WellFormedID(string(id)) {
		return individualrepo.Record{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.profile_type, p.name, p.description, p.links,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       p.created_at, p.updated_at,
		       i.tags
		FROM profiles p
		JOIN individual_profiles i ON i.profile_id = p.id
		WHERE p.id = $1
	`, string(id))

	var (
		rec                   individualrepo.Record
		pid, typ              string
		links, tags           []string
		cover, poster, square *string
	)
	err := row.Scan(&pid, &typ, &rec.Name, &rec.Description, &links,
		&cover, &poster, &square, &rec.CreatedAt, &rec.UpdatedAt, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return individualrepo.Record{}, profilerepo.ErrNotFound
		}
		return individualrepo.Record{}, err
	}
	rec.ID = domain.ProfileID(pid)
	rec.Type = domain.ProfileType(typ)
	rec.Links = links
	rec.Images = pgprofile.ImageSet(cover, poster, square)
	rec.Tags = toTags(tags)

	rows, err := r.pool.Query(ctx, `
		SELECT organization_id, title
		FROM organization_members
		WHERE individual_id = $1
		ORDER BY organization_id
	`, string(id))
	if err != nil {
		return individualrepo.Record{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var orgID, title string
		if err := rows.Scan(&orgID, &title); err != nil {
			return individualrepo.Record{}, err
		}
		rec.Organizations = append(rec.Organizations, individualrepo.Edge{
			OrganizationID: domain.ProfileID(orgID),
			Title:          title,
		})
	}
	return rec, rows.Err()
}

func (r *Repo) GetReferenceByID(ctx context.Context, id domain.ProfileID) (domain.IndividualReference, error) {
	if !postgres.WellFormedID(string(id)) {
		return domain.IndividualReference{}, profilerepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `
		SELECT p.id, p.profile_type, p.name,
		       p.cover_image_id, p.poster_image_id, p.square_image_id,
		       i.tags
		FROM profiles p
		JOIN individual_profiles i ON i.profile_id = p.id
		WHERE p.id = $1
	`, string(id))
	return scanReference(row)
}

func (r *Repo) Delete(ctx context.Context, id domain.ProfileID) (bool, error) {
	if !postgres.WellFormedID(string(id)) {
		return false, nil
	}
	ct, err := r.pool.Exec(ctx, `
		DELETE FROM profiles WHERE id = $1 AND profile_type = 'individual'
	`, string(id))
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *Repo) List(ctx context.Context, f individualrepo.Filter) ([]individualrepo.ScoredReference, error) {
	sb := sq.Select(
		"p.id", "p.profile_type", "p.name",
		"p.cover_image_id", "p.poster_image_id", "p.square_image_id",
		"i.tags",
	).
		From("profiles p").
		Join("individual_profiles i ON i.profile_id = p.id").
		PlaceholderFormat(sq.Dollar)

	if f.NameQuery != nil {
		sb = sb.Column(sq.Expr("similarity(lower(p.name), lower(?)) AS score", *f.NameQuery)).
			Where(sq.Expr("similarity(lower(p.name), lower(?)) >= 0.3", *f.NameQuery))
	} else {
		sb = sb.Column("NULL::float8 AS score")
	}
	if len(f.Tags) > 0 {
		sb = sb.Where(sq.Expr("i.tags && ?", tagStrings(f.Tags)))
	}
	for _, orgID := range f.OrganizationIDs {
		// A malformed filter id matches no organization, so nothing matches.
		if !postgres.WellFormedID(string(orgID)) {
			return []individualrepo.ScoredReference{}, nil
		}
		sb = sb.Where(sq.Expr(
			"EXISTS (SELECT 1 FROM organization_members m WHERE m.individual_id = p.id AND m.organization_id = ?)",
			string(orgID),
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
			return []individualrepo.ScoredReference{}, nil
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

	out := make([]individualrepo.ScoredReference, 0)
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
		out = append(out, individualrepo.ScoredReference{
			Reference: domain.IndividualReference{
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

func insertBase(ctx context.Context, tx pgx.Tx, rec individualrepo.Record) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO profiles (
			id, profile_type, name, description, links,
			cover_image_id, poster_image_id, square_image_id,
			created_at, updated_at
		) VALUES ($1, 'individual', $2, $3, $4, $5, $6, $7, $8, $9)
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

func insertEdges(ctx context.Context, tx pgx.Tx, id domain.ProfileID, edges []individualrepo.Edge) error {
	for _, e := range edges {
		if !postgres.WellFormedID(string(e.OrganizationID)) {
			return individualrepo.ErrEdgeTargetNotFound
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO organization_members (organization_id, individual_id, title)
			VALUES ($1, $2, $3)
		`, string(e.OrganizationID), string(id), e.Title)
		if err != nil {
			if postgres.IsConstraintViolation(err, postgres.ForeignKeyViolationCode, "organization_members_organization_id_fkey") {
				return individualrepo.ErrEdgeTargetNotFound
			}
			return err
		}
	}
	return nil
}

func scanReference(row pgx.Row) (domain.IndividualReference, error) {
	var (
		id, typ, name         string
		cover, poster, square *string
		tags                  []string
	)
	err := row.Scan(&id, &typ, &name, &cover, &poster, &square, &tags)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.IndividualReference{}, profilerepo.ErrNotFound
		}
		return domain.IndividualReference{}, err
	}
	return domain.IndividualReference{
		ProfileReference: domain.ProfileReference{
			ID:     domain.ProfileID(id),
			Type:   domain.ProfileType(typ),
			Name:   name,
			Images: pgprofile.ImageSet(cover, poster, square),
		},
		Tags: toTags(tags),
	}, nil
}

func tagStrings(tags []domain.IndividualTag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}

func toTags(ss []string) []domain.IndividualTag {
	out := make([]domain.IndividualTag, 0, len(ss))
	for _, s := range ss {
		out = append(out, domain.IndividualTag(s))
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
