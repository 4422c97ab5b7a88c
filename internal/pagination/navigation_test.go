package pagination

import (
	"fmt"
	"strings"
	"testing"
)

// describe renders items compactly: [n] is the current page, … an ellipsis.
func describe(items []Item) string {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch {
		case item.IsCurrent():
			parts = append(parts, fmt.Sprintf("[%d]", item.Label))
		case item.IsEllipsis():
			parts = append(parts, "…")
		default:
			parts = append(parts, fmt.Sprint(item.Label))
		}
	}
	return strings.Join(parts, " ")
}

func pageLinks(n int) []string {
	return Links("/", "index.html", n, false)
}

func TestNavigation(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		current     int
		pages       int
		surrounding int
		reversed    bool
		want        string
	}{
		"single page": {
			current: 0, pages: 1, surrounding: 5,
			want: "[1]",
		},
		"all pages fit": {
			current: 2, pages: 5, surrounding: 5,
			want: "1 2 [3] 4 5",
		},
		"gap after": {
			current: 0, pages: 10, surrounding: 2,
			want: "[1] 2 3 … 10",
		},
		"gap before": {
			current: 9, pages: 10, surrounding: 2,
			want: "1 … 8 9 [10]",
		},
		"gaps on both sides": {
			current: 5, pages: 12, surrounding: 2,
			want: "1 … 4 5 [6] 7 8 … 12",
		},
		"no ellipsis for adjacent first page": {
			current: 3, pages: 12, surrounding: 2,
			want: "1 2 3 [4] 5 6 … 12",
		},
		"reversed labels": {
			current: 0, pages: 4, surrounding: 5, reversed: true,
			want: "[4] 3 2 1",
		},
		"reversed with gap": {
			current: 0, pages: 10, surrounding: 2, reversed: true,
			want: "[10] 9 8 … 1",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := describe(Navigation(test.current, pageLinks(test.pages), test.surrounding, test.reversed))
			if got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

func TestNavigationLinks(t *testing.T) {
	t.Parallel()

	items := Navigation(1, pageLinks(3), DefaultSurrounding, false)
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Href != "/" || items[2].Href != "/index-2.html" {
		t.Errorf("unexpected links %q and %q", items[0].Href, items[2].Href)
	}
	if items[1].Href != "" {
		t.Errorf("expected no link for the current page, got %q", items[1].Href)
	}
}
