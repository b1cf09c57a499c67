package memory

import (
	"sort"
	"strings"

	"github.com/dansportalen/directory-api/internal/domain"
	"github.com/dansportalen/directory-api/internal/ports/out/profilerepo"
)

// similarityThreshold is the minimum name-similarity score a hit must reach
// to appear in a ranked search.
const similarityThreshold = 0.3

// rankedProfile is one candidate row of a filtered listing before paging.
type rankedProfile struct {
	rec   profilerepo.Record
	score *float64
}

// rankLocked sorts rows into the listing total order: score descending, name
// ascending under the Swedish collation, id ascending. Callers hold s.mu.
func (s *Store) rankLocked(rows []rankedProfile) {
	sort.SliceStable(rows, func(i, j int) bool {
		si, sj := scoreOf(rows[i]), scoreOf(rows[j])
		if si != sj {
			return si > sj
		}
		return s.compareNames(rows[i].rec.Name, rows[j].rec.Name, rows[i].rec.ID, rows[j].rec.ID) < 0
	})
}

func scoreOf(r rankedProfile) float64 {
	if r.score == nil {
		return 0
	}
	return *r.score
}

// pageRows resumes the sorted rows at pageKey (inclusive) and cuts them to
// limit. A key that no longer appears in the result set yields an empty page.
func pageRows(rows []rankedProfile, pageKey *domain.ProfileID, limit int) []rankedProfile {
	if pageKey != nil {
		start := -1
		for i, r := range rows {
			if r.rec.ID == *pageKey {
				start = i
				break
			}
		}
		if start < 0 {
			return nil
		}
		rows = rows[start:]
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows
}

// similarity scores name against query in [0,1] using word-padded trigrams,
// the way pg_trgm does. Equal normalized strings score 1.0.
func similarity(name, query string) float64 {
	a := normalizeForMatch(name)
	b := normalizeForMatch(query)
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ta := trigrams(a)
	tb := trigrams(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for t := range tb {
		if _, ok := ta[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}

func normalizeForMatch(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// trigrams extracts the trigram set of s with each word padded by two
// leading and one trailing space.
func trigrams(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := []rune("  " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			out[string(padded[i:i+3])] = struct{}{}
		}
	}
	return out
}
