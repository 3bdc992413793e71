package catalog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// IDsInDisplayOrder returns every id of c in the order a picker lists them:
// ranked (special) records first by rank, then the rest by locale collation
// of their display names. Equal names fall back to byte order, then id, so
// the order is total.
func IDsInDisplayOrder(c *Catalog) []string {
	var ranked, named []Record
	for _, r := range c.records {
		if r.SortRank != nil {
			ranked = append(ranked, r)
		} else {
			named = append(named, r)
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		a, b := *ranked[i].SortRank, *ranked[j].SortRank
		if a != b {
			return a < b
		}
		return ranked[i].ID < ranked[j].ID
	})

	// Collator keeps internal buffers; one per call.
	col := collate.New(language.Und)
	sort.Slice(named, func(i, j int) bool {
		a, b := named[i], named[j]
		if n := col.CompareString(a.DisplayName, b.DisplayName); n != 0 {
			return n < 0
		}
		if a.DisplayName != b.DisplayName {
			return a.DisplayName < b.DisplayName
		}
		return a.ID < b.ID
	})

	out := make([]string, 0, len(ranked)+len(named))
	for _, r := range ranked {
		out = append(out, r.ID)
	}
	for _, r := range named {
		out = append(out, r.ID)
	}
	return out
}

// RecordsInDisplayOrder is IDsInDisplayOrder resolved to records.
func RecordsInDisplayOrder(c *Catalog) []Record {
	ids := IDsInDisplayOrder(c)
	out := make([]Record, len(ids))
	for i, id := range ids {
		out[i] = c.records[id]
	}
	return out
}
