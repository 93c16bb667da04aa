package guides

import (
	"sort"
	"strings"

	"repairindex/normalize"
)

// Ranker deduplicates and orders a category's guide list.
type Ranker struct {
	tables Tables
}

// NewRanker creates a ranker using the supplied tag tables.
func NewRanker(tables Tables) *Ranker {
	return &Ranker{tables: tables}
}

// Rank returns the category's guides deduplicated by (title, url) and
// ordered by the 4-part key (archived, main teardown, tag priority,
// title/url). Archived guides always land at the bottom regardless of
// any other tag; among non-archived guides the main teardown comes
// first, then starred, then user-contributed, then the rest, each
// bucket alphabetical by case-insensitive title then url.
//
// When two input records share (title, url) the first one wins,
// including its tag set.
func (r *Ranker) Rank(category string, input []Guide) []Guide {
	type identity struct {
		title string
		url   string
	}
	seen := make(map[identity]struct{}, len(input))
	unique := make([]Guide, 0, len(input))
	for _, g := range input {
		title := strings.TrimSpace(g.Title)
		url := strings.TrimSpace(g.URL)
		if title == "" || url == "" {
			continue
		}
		id := identity{title: title, url: url}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		g.Title = title
		g.URL = url
		if g.Tags == nil {
			g.Tags = []string{}
		}
		unique = append(unique, g)
	}

	mainTitle := normalize.Key(category) + "_teardown"

	type sortKey struct {
		archived int
		main     int
		tagRank  int
		title    string
		url      string
	}
	type ranked struct {
		guide Guide
		key   sortKey
	}
	items := make([]ranked, len(unique))
	for i, g := range unique {
		k := sortKey{title: strings.ToLower(g.Title), url: g.URL}
		if hasTag(g.Tags, "archived") {
			// Archived overrides everything else; main and tag rank
			// are forced so an archived main teardown still sorts last.
			k.archived = 1
			k.main = 1
			k.tagRank = r.tables.DefaultPriority
		} else {
			k.main = 1
			if normalize.Key(g.Title) == mainTitle {
				k.main = 0
			}
			k.tagRank = r.tables.TagPriority(g.Tags)
		}
		items[i] = ranked{guide: g, key: k}
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].key, items[j].key
		if a.archived != b.archived {
			return a.archived < b.archived
		}
		if a.main != b.main {
			return a.main < b.main
		}
		if a.tagRank != b.tagRank {
			return a.tagRank < b.tagRank
		}
		if a.title != b.title {
			return a.title < b.title
		}
		return a.url < b.url
	})

	result := make([]Guide, len(items))
	for i, it := range items {
		result[i] = it.guide
	}
	return result
}
