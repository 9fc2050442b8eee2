package graph

import (
	"slices"
	"sort"

	"github.com/jacentio/cellgraph/docstore"
)

// sortDocuments stable-sorts docs by each order in turn.
func sortDocuments(docs []docstore.Document, orders []Order) {
	if len(orders) == 0 || len(docs) < 2 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, o := range orders {
			c := compareValues(docs[i][o.Column], docs[j][o.Column])
			if c == 0 {
				continue
			}
			if o.ascending() {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// withOrderColumns returns fields plus any order column it lacks, so a
// projected result still carries its sort keys. Nil fields means every field.
func withOrderColumns(fields []string, orders []Order) []string {
	if fields == nil {
		return nil
	}
	out := slices.Clip(fields)
	for _, o := range orders {
		if !slices.Contains(out, o.Column) {
			out = append(out, o.Column)
		}
	}
	return out
}

// Value ranks for mixed-type columns. Missing values sort lowest.
const (
	rankMissing = iota
	rankBool
	rankNumber
	rankString
	rankOther
)

func rank(v any) int {
	switch v.(type) {
	case nil:
		return rankMissing
	case bool:
		return rankBool
	case string:
		return rankString
	}
	if _, ok := docstore.AsFloat64(v); ok {
		return rankNumber
	}
	return rankOther
}

// compareValues orders two field values: by rank first, then by value within
// numbers, strings and booleans. Other values compare equal.
func compareValues(a, b any) int {
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case rankBool:
		ab, bb := a.(bool), b.(bool)
		switch {
		case ab == bb:
			return 0
		case !ab:
			return -1
		}
		return 1
	case rankNumber, rankString:
		if c, ok := docstore.Compare(a, b); ok {
			return c
		}
	}
	return 0
}
