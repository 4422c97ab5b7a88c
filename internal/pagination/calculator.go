// Package pagination computes how a list of posts is split into index pages,
// how those pages are named, and which page numbers the navigation shows.
package pagination

import (
	"path"
	"strconv"
	"strings"
)

// TotalPages returns how many pages total items need at perPage items each.
// There is always at least one page, so an empty index still renders.
//
// Examples:
//   - Total 0, PerPage 10 -> 1 page
//   - Total 10, PerPage 10 -> 1 page
//   - Total 11, PerPage 10 -> 2 pages
func TotalPages(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// Bounds returns the [start, end) slice bounds of the zero-based page within
// total items.
func Bounds(page, perPage, total int) (start, end int) {
	if perPage <= 0 {
		return 0, total
	}
	start = min(page*perPage, total)
	end = min(start+perPage, total)
	return start, end
}

// FileName returns the file the zero-based page is written to. The first
// page is indexFile itself; page n is indexFile with "-n" before its
// extension.
//
// Examples:
//   - Page 0, "index.html" -> "index.html"
//   - Page 2, "index.html" -> "index-2.html"
func FileName(page int, indexFile string) string {
	if page == 0 {
		return indexFile
	}
	ext := path.Ext(indexFile)
	return strings.TrimSuffix(indexFile, ext) + "-" + strconv.Itoa(page) + ext
}

// Links returns the URL path of every page of an index rooted at dir, which
// must end with a slash. The first page links to dir itself unless
// showIndexFile is set.
func Links(dir, indexFile string, pages int, showIndexFile bool) []string {
	links := make([]string, pages)
	for i := range links {
		if i == 0 && !showIndexFile {
			links[i] = dir
			continue
		}
		links[i] = dir + FileName(i, indexFile)
	}
	return links
}

// Neighbors returns the links of the pages before and after current. Either
// may be empty. The previous page holds newer posts; when reversed, the two
// are swapped.
func Neighbors(links []string, current int, reversed bool) (prev, next string) {
	if current > 0 && current-1 < len(links) {
		prev = links[current-1]
	}
	if current+1 < len(links) {
		next = links[current+1]
	}
	if reversed {
		prev, next = next, prev
	}
	return prev, next
}
