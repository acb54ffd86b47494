// Package columns reconciles arbitrary spreadsheet headers with the canonical
// order fields.
package columns

import (
	"github.com/agext/levenshtein"

	"github.com/izabele-1801/agiliza-backend/constants"
)

// DefaultFloor is the minimum similarity ratio for a fuzzy header match.
const DefaultFloor = 0.6

// Mapping maps an observed header to its canonical field.
type Mapping map[string]constants.Field

// Mapper renames observed headers to canonical fields. A Mapper is immutable
// after New and safe for concurrent use.
type Mapper struct {
	aliases  map[constants.Field][]string
	priority []constants.Field
	floor    float64
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithFloor sets the similarity floor. Values outside (0,1] are ignored.
func WithFloor(f float64) Option {
	return func(m *Mapper) {
		if f > 0 && f <= 1 {
			m.floor = f
		}
	}
}

// WithAliases adds header spellings ahead of the defaults for each field.
func WithAliases(extra map[constants.Field][]string) Option {
	return func(m *Mapper) {
		for f, list := range extra {
			folded := make([]string, 0, len(list)+len(m.aliases[f]))
			for _, a := range list {
				folded = append(folded, Fold(a))
			}
			m.aliases[f] = append(folded, m.aliases[f]...)
		}
	}
}

// New builds a Mapper over constants.DefaultAliases.
func New(opts ...Option) *Mapper {
	m := &Mapper{
		aliases:  make(map[constants.Field][]string, len(constants.DefaultAliases)),
		priority: append([]constants.Field(nil), constants.FieldPriority...),
		floor:    DefaultFloor,
	}
	for f, list := range constants.DefaultAliases {
		for _, a := range list {
			m.aliases[f] = append(m.aliases[f], Fold(a))
		}
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

var defaultMapper = New()

// Map runs the default Mapper.
func Map(headers []string) Mapping {
	return defaultMapper.Map(headers)
}

// Map returns the observed-header to field renaming. Unmapped fields are absent.
func (m *Mapper) Map(headers []string) Mapping {
	out := Mapping{}
	for f, i := range m.Index(headers) {
		out[headers[i]] = f
	}
	return out
}

// Index returns the column index claimed by each field. Exact matches on a
// field name are claimed first, then exact alias matches, in priority order. The
// remaining fields then take the most similar unused header above the floor.
// A header is claimed at most once.
func (m *Mapper) Index(headers []string) map[constants.Field]int {
	folded := make([]string, len(headers))
	for i, h := range headers {
		folded[i] = Fold(h)
	}
	used := make([]bool, len(headers))
	out := map[constants.Field]int{}

	claim := func(match func(constants.Field, string) bool) {
		for _, f := range m.priority {
			if _, ok := out[f]; ok {
				continue
			}
			for i, h := range folded {
				if !used[i] && h != "" && match(f, h) {
					out[f] = i
					used[i] = true
					break
				}
			}
		}
	}
	claim(func(f constants.Field, h string) bool { return h == Fold(string(f)) })
	claim(func(f constants.Field, h string) bool { return contains(m.aliases[f], h) })

	for _, f := range m.priority {
		if _, ok := out[f]; ok {
			continue
		}
		best, bestScore := -1, 0.0
		for i, h := range folded {
			if used[i] || h == "" {
				continue
			}
			if s := m.score(f, h); s >= m.floor && s > bestScore {
				best, bestScore = i, s
			}
		}
		if best >= 0 {
			out[f] = best
			used[best] = true
		}
	}
	return out
}

func (m *Mapper) score(f constants.Field, header string) float64 {
	best := levenshtein.Similarity(header, Fold(string(f)), nil)
	for _, a := range m.aliases[f] {
		if s := levenshtein.Similarity(header, a, nil); s > best {
			best = s
		}
	}
	return best
}

// Similarity is the folded edit-distance ratio between two headers, in [0,1].
func Similarity(a, b string) float64 {
	return levenshtein.Similarity(Fold(a), Fold(b), nil)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
