package suggestion

import (
	"testing"

	"github.com/kailas-cloud/storefront/internal/domain/catalog"
	"github.com/kailas-cloud/storefront/internal/domain/query"
)

func TestItems_SelectionContract(t *testing.T) {
	hit := catalog.Hit{"objectID": "tent-1", "name": "Tent"}

	tests := []struct {
		name       string
		item       Item
		wantCommit bool
		commit     query.Commit
		wantNav    bool
		nav        string
	}{
		{
			name:       "recent search commits",
			item:       RecentSearch{Query: "tent", Category: "Outdoor"},
			wantCommit: true,
			commit:     query.Commit{Query: "tent", Category: "Outdoor"},
		},
		{
			name:       "suggestion commits",
			item:       QuerySuggestion{Query: "lamp", Category: "Lighting"},
			wantCommit: true,
			commit:     query.Commit{Query: "lamp", Category: "Lighting"},
		},
		{
			name:    "catalog hit navigates",
			item:    CatalogHit{Hit: hit},
			wantNav: true,
			nav:     "/product/tent-1",
		},
		{
			name:    "merch hit navigates",
			item:    MerchHit{Hit: hit},
			wantNav: true,
			nav:     "/product/tent-1",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, ok := tc.item.QueryCommit()
			if ok != tc.wantCommit {
				t.Fatalf("expected commit=%v, got %v", tc.wantCommit, ok)
			}
			if ok && c != tc.commit {
				t.Errorf("expected commit %+v, got %+v", tc.commit, c)
			}
			url, ok := tc.item.NavigationTarget()
			if ok != tc.wantNav {
				t.Fatalf("expected nav=%v, got %v", tc.wantNav, ok)
			}
			if ok && url != tc.nav {
				t.Errorf("expected nav %q, got %q", tc.nav, url)
			}
		})
	}
}

func TestBuildPanel_Partition(t *testing.T) {
	sections := []Section{
		{Source: Merch},
		{Source: QuerySuggestions},
		{Source: Hits, Items: []ItemView{{Label: "Tent"}}},
		{Source: RecentSearches},
		{Source: QuerySuggestionsInCategory},
	}

	p := BuildPanel(sections)

	wantLeft := []SourceID{RecentSearches, QuerySuggestionsInCategory, QuerySuggestions}
	if len(p.Left) != len(wantLeft) {
		t.Fatalf("expected %d left sections, got %d", len(wantLeft), len(p.Left))
	}
	for i, id := range wantLeft {
		if p.Left[i].Source != id {
			t.Errorf("left[%d]: expected %q, got %q", i, id, p.Left[i].Source)
		}
	}

	wantRight := []SourceID{Hits, Merch}
	if len(p.Right) != len(wantRight) {
		t.Fatalf("expected %d right sections, got %d", len(wantRight), len(p.Right))
	}
	for i, id := range wantRight {
		if p.Right[i].Source != id {
			t.Errorf("right[%d]: expected %q, got %q", i, id, p.Right[i].Source)
		}
	}
	if p.Right[1].Items == nil {
		t.Error("expected empty section items to be non-nil")
	}
}

func TestBuildPanel_EmptyRegions(t *testing.T) {
	p := BuildPanel(nil)
	if p.Left == nil || p.Right == nil {
		t.Fatal("expected non-nil regions")
	}
	if !p.Empty() {
		t.Error("expected empty panel")
	}
}
