// Package listing resolves list-view query parameters (search, sort,
// pagination) against per-record-type allow-lists, so handlers never pass
// caller-controlled field names into a query.
package listing

import "strconv"

// PerPageChoices are the page sizes a list view accepts. Anything else
// falls back to DefaultPerPage.
var PerPageChoices = []int{10, 25, 50, 100}

const (
	DefaultPerPage = 10
	DefaultView    = "table"
)

// Params are the resolved list parameters, safe to apply to a query and
// echoed back to the caller for re-render.
type Params struct {
	Query   string
	Sort    string // resolved client-facing sort key
	OrderBy string // storage column the key resolved to
	Dir     string // "asc" or "desc"
	Page    int
	PerPage int
	View    string
}

// Order returns the ORDER BY clause for the resolved sort.
func (p Params) Order() string {
	return p.OrderBy + " " + p.Dir
}

// Raw carries the unresolved query-string values.
type Raw struct {
	Query   string
	Sort    string
	Dir     string
	Page    string
	PerPage string
	View    string
}

// Resolve normalizes raw parameters. Unrecognized sort keys fall back to
// defaultSort, directions other than "desc" become "asc", out-of-set page
// sizes become DefaultPerPage and page numbers below 1 become 1.
func Resolve(raw Raw, sortFields map[string]string, defaultSort string) Params {
	sort := raw.Sort
	orderBy, ok := sortFields[sort]
	if !ok {
		sort = defaultSort
		orderBy = sortFields[defaultSort]
	}

	dir := "asc"
	if raw.Dir == "desc" {
		dir = "desc"
	}

	page, err := strconv.Atoi(raw.Page)
	if err != nil || page < 1 {
		page = 1
	}

	perPage := DefaultPerPage
	if n, err := strconv.Atoi(raw.PerPage); err == nil {
		for _, choice := range PerPageChoices {
			if n == choice {
				perPage = n
				break
			}
		}
	}

	view := raw.View
	if view == "" {
		view = DefaultView
	}

	return Params{
		Query:   raw.Query,
		Sort:    sort,
		OrderBy: orderBy,
		Dir:     dir,
		Page:    page,
		PerPage: perPage,
		View:    view,
	}
}

// Page is the resolved pagination window over a counted result set.
type Page struct {
	Number     int
	PerPage    int
	TotalCount int64
	TotalPages int
	Offset     int
}

// Paginate clamps a requested page number to the valid range for the given
// total. Out-of-range pages degrade to the first or last page, never an
// error. An empty set still has one (empty) page.
func Paginate(total int64, page, perPage int) Page {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}
	return Page{
		Number:     page,
		PerPage:    perPage,
		TotalCount: total,
		TotalPages: totalPages,
		Offset:     (page - 1) * perPage,
	}
}

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// Prev is the previous page number, clamped to 1.
func (p Page) Prev() int {
	if p.Number <= 1 {
		return 1
	}
	return p.Number - 1
}

// Next is the next page number, clamped to the last page.
func (p Page) Next() int {
	if p.Number >= p.TotalPages {
		return p.TotalPages
	}
	return p.Number + 1
}
