// Package guides fetches, deduplicates and ranks teardown guides per
// device category.
package guides

// Guide is one teardown guide after flag mapping. Identity for
// deduplication is the exact (Title, URL) pair.
type Guide struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Tags       []string `json:"tags"`
	Difficulty *string  `json:"difficulty"`
}

// RawGuide is a guide record as returned by the listing endpoint.
// Records missing a title, url or category are discarded during
// aggregation.
type RawGuide struct {
	Title      string   `json:"title"`
	URL        string   `json:"url"`
	Category   string   `json:"category"`
	Flags      []string `json:"flags"`
	Difficulty *string  `json:"difficulty"`
}

// FlagTag maps one vendor flag onto a tag.
type FlagTag struct {
	Flag string
	Tag  string
}

// Tables holds the flag and priority configuration. It is built once at
// startup and injected into the ranker; nothing mutates it afterwards.
type Tables struct {
	// FlagTags is ordered so the derived tag list is stable.
	FlagTags []FlagTag
	// TagPriorities ranks tags within a sort bucket; tags not listed
	// get DefaultPriority.
	TagPriorities   map[string]int
	DefaultPriority int
}

// DefaultTables returns the fixed flag and priority configuration.
// Flags outside this table are reserved and ignored.
func DefaultTables() Tables {
	return Tables{
		FlagTags: []FlagTag{
			{Flag: "GUIDE_ARCHIVED", Tag: "archived"},
			{Flag: "GUIDE_STARRED", Tag: "starred"},
			{Flag: "GUIDE_USER_CONTRIBUTED", Tag: "user_contributed"},
		},
		TagPriorities: map[string]int{
			"starred":          0,
			"user_contributed": 1,
		},
		DefaultPriority: 2,
	}
}

// TagsFromFlags builds the stable tag list for a raw flag set.
func (t Tables) TagsFromFlags(rawFlags []string) []string {
	flagSet := make(map[string]struct{}, len(rawFlags))
	for _, f := range rawFlags {
		flagSet[f] = struct{}{}
	}
	tags := make([]string, 0, len(t.FlagTags))
	for _, ft := range t.FlagTags {
		if _, ok := flagSet[ft.Flag]; ok {
			tags = append(tags, ft.Tag)
		}
	}
	return tags
}

// TagPriority returns the best (lowest) priority among the tags.
func (t Tables) TagPriority(tags []string) int {
	best := t.DefaultPriority
	for _, tag := range tags {
		if p, ok := t.TagPriorities[tag]; ok && p < best {
			best = p
		}
	}
	return best
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
