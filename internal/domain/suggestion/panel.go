package suggestion

// ItemView is the display form of an Item.
type ItemView struct {
	Kind        Kind    `json:"kind"`
	Label       string  `json:"label"`
	Highlighted string  `json:"highlighted,omitempty"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
	Price       float64 `json:"price,omitempty"`
	URL         string  `json:"url,omitempty"`
}

// Section is the rendered output of one source.
type Section struct {
	Source SourceID   `json:"source"`
	Header string     `json:"header,omitempty"`
	Items  []ItemView `json:"items"`
}

// Panel is the two-region autocomplete layout.
type Panel struct {
	Left  []Section `json:"left"`
	Right []Section `json:"right"`
}

var (
	leftOrder  = []SourceID{RecentSearches, QuerySuggestionsInCategory, QuerySuggestions}
	rightOrder = []SourceID{Hits, Merch}
)

// BuildPanel partitions sections into regions by source identity. Left holds
// recent searches, then in-category, then cross-category suggestions; right
// holds hits, then merchandise. Both regions are non-nil even when empty.
func BuildPanel(sections []Section) Panel {
	byID := make(map[SourceID]Section, len(sections))
	for _, s := range sections {
		byID[s.Source] = s
	}
	return Panel{
		Left:  pick(byID, leftOrder),
		Right: pick(byID, rightOrder),
	}
}

func pick(byID map[SourceID]Section, order []SourceID) []Section {
	out := make([]Section, 0, len(order))
	for _, id := range order {
		s, ok := byID[id]
		if !ok {
			continue
		}
		if s.Items == nil {
			s.Items = []ItemView{}
		}
		out = append(out, s)
	}
	return out
}

// Empty reports whether no section carries items.
func (p Panel) Empty() bool {
	for _, region := range [][]Section{p.Left, p.Right} {
		for _, s := range region {
			if len(s.Items) > 0 {
				return false
			}
		}
	}
	return true
}
