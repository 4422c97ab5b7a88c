package pagination

// DefaultSurrounding is how many pages on each side of the current page the
// navigation lists.
const DefaultSurrounding = 5

// Item is one entry of the page navigation.
type Item struct {
	// Label is the page number shown to readers.
	Label int

	// Href is the page's link. It's empty for the current page and for
	// ellipses.
	Href string

	current  bool
	ellipsis bool
}

// IsCurrent reports whether the item is the page being rendered.
func (i Item) IsCurrent() bool { return i.current }

// IsEllipsis reports whether the item stands for skipped pages.
func (i Item) IsEllipsis() bool { return i.ellipsis }

// Navigation lists the entries of the page navigation for the zero-based
// current page. The first and last pages and every page within surrounding
// of the current one are listed; a single ellipsis marks each gap. Labels
// count up from 1, or down to 1 when reversed.
func Navigation(current int, links []string, surrounding int, reversed bool) []Item {
	var items []Item
	last := len(links) - 1
	for i, link := range links {
		label := i + 1
		if reversed {
			label = len(links) - i
		}
		switch {
		case abs(i-current) <= surrounding || i == 0 || i == last:
			if i == current {
				items = append(items, Item{Label: label, current: true})
			} else {
				items = append(items, Item{Label: label, Href: link})
			}
		case i == current-surrounding-1 || i == current+surrounding+1:
			items = append(items, Item{ellipsis: true})
		}
	}
	return items
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
