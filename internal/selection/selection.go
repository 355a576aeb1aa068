// Package selection implements the ordered, duplicate-free page selection
// used by the split tool.
package selection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/local/doctools/internal/docerr"
)

// Selection is an ordered set of 1-based page indices over a document of
// PageCount pages. Insertion order, not page number, is output order.
// The zero value is not usable; call New.
type Selection struct {
	pageCount int
	pages     []int
}

// New returns an empty selection over pageCount pages.
func New(pageCount int) Selection {
	return Selection{pageCount: pageCount}
}

// PageCount returns the page count the selection was built for.
func (s Selection) PageCount() int { return s.pageCount }

// Len returns the number of selected pages.
func (s Selection) Len() int { return len(s.pages) }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return len(s.pages) == 0 }

// Pages returns a copy of the selected pages in insertion order.
func (s Selection) Pages() []int {
	out := make([]int, len(s.pages))
	copy(out, s.pages)
	return out
}

// Contains reports whether page is selected.
func (s Selection) Contains(page int) bool {
	return s.index(page) >= 0
}

func (s Selection) index(page int) int {
	for i, p := range s.pages {
		if p == page {
			return i
		}
	}
	return -1
}

// Toggle returns a new selection with page's membership flipped. A newly
// selected page goes to the end; a removed page leaves the others in place.
func (s Selection) Toggle(page int) (Selection, error) {
	if page < 1 || page > s.pageCount {
		return s, docerr.Invalid("page %d out of range 1..%d", page, s.pageCount)
	}
	next := Selection{pageCount: s.pageCount}
	if i := s.index(page); i >= 0 {
		next.pages = make([]int, 0, len(s.pages)-1)
		next.pages = append(next.pages, s.pages[:i]...)
		next.pages = append(next.pages, s.pages[i+1:]...)
		return next, nil
	}
	next.pages = make([]int, 0, len(s.pages)+1)
	next.pages = append(next.pages, s.pages...)
	next.pages = append(next.pages, page)
	return next, nil
}

// FromPages replays pages as toggles, the same as clicking them in order:
// a page listed a second time is deselected, so 3,1,3 selects only 1.
func FromPages(pageCount int, pages []int) (Selection, error) {
	s := New(pageCount)
	for _, p := range pages {
		var err error
		if s, err = s.Toggle(p); err != nil {
			return Selection{}, err
		}
	}
	return s, nil
}

// Parse reads a comma separated list such as "3,1,5-7". Ranges expand in
// ascending or descending order as written.
func Parse(spec string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		lo, hi, isRange := strings.Cut(part, "-")
		a, err := strconv.Atoi(strings.TrimSpace(lo))
		if err != nil {
			return nil, docerr.Invalid("bad page %q", part)
		}
		if !isRange {
			out = append(out, a)
			continue
		}
		b, err := strconv.Atoi(strings.TrimSpace(hi))
		if err != nil {
			return nil, docerr.Invalid("bad page range %q", part)
		}
		step := 1
		if b < a {
			step = -1
		}
		for p := a; ; p += step {
			out = append(out, p)
			if p == b {
				break
			}
		}
	}
	if len(out) == 0 {
		return nil, docerr.Invalid("no pages given")
	}
	return out, nil
}

// Strings renders pages the way pdfcpu page selections expect them.
func Strings(pages []int) []string {
	out := make([]string, len(pages))
	for i, p := range pages {
		out[i] = strconv.Itoa(p)
	}
	return out
}

func (s Selection) String() string {
	return fmt.Sprintf("%v/%d", s.pages, s.pageCount)
}
