package postgres

import "fmt"

// listOrder is the total order of every filtered listing: similarity score
// first (when the filter ranked by name), then name under the Swedish
// collation, then id. No two rows ever tie.
func listOrder(alias string) string {
	return fmt.Sprintf(`%[1]s.score DESC NULLS LAST, %[1]s.name COLLATE "swedish" ASC, %[1]s.id ASC`, alias)
}

// PageQuery wraps inner, which must project id, name and score columns, into
// one listing page. With a page key the page resumes at the key's rank
// (inclusive); a key that no longer appears in the result set yields no
// rows. columns is the outer projection.
func PageQuery(columns, inner string, args []any, pageKey *string, limit int) (string, []any) {
	if pageKey == nil {
		sql := fmt.Sprintf(
			"SELECT %s FROM (%s) q ORDER BY %s LIMIT $%d",
			columns, inner, listOrder("q"), len(args)+1,
		)
		return sql, append(args, limit)
	}
	sql := fmt.Sprintf(`
		WITH ranked AS (
			SELECT q.*, row_number() OVER (ORDER BY %s) AS rn
			FROM (%s) q
		)
		SELECT %s
		FROM ranked
		WHERE rn >= (SELECT rn FROM ranked WHERE id = $%d)
		ORDER BY rn
		LIMIT $%d`,
		listOrder("q"), inner, columns, len(args)+1, len(args)+2,
	)
	return sql, append(args, *pageKey, limit)
}
