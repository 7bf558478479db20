package listing

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

var sortFields = map[string]string{
	"name":       "name",
	"balance":    "balance",
	"created_at": "created_at",
}

func TestResolveDefaults(t *testing.T) {
	p := Resolve(Raw{}, sortFields, "name")

	assert.Equal(t, "name", p.Sort)
	assert.Equal(t, "name", p.OrderBy)
	assert.Equal(t, "asc", p.Dir)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, "table", p.View)
	assert.Equal(t, "name asc", p.Order())
}

func TestResolveUnknownSortFallsBack(t *testing.T) {
	p := Resolve(Raw{Sort: "evil_column; DROP TABLE", Dir: "desc"}, sortFields, "name")

	assert.Equal(t, "name", p.Sort)
	assert.Equal(t, "name desc", p.Order())
}

func TestResolveKnownSort(t *testing.T) {
	p := Resolve(Raw{Sort: "balance", Dir: "desc"}, sortFields, "name")

	assert.Equal(t, "balance", p.Sort)
	assert.Equal(t, "balance desc", p.Order())
}

func TestResolveDirNormalized(t *testing.T) {
	for _, dir := range []string{"", "asc", "ASC", "sideways"} {
		p := Resolve(Raw{Dir: dir}, sortFields, "name")
		assert.Equal(t, "asc", p.Dir, "dir=%q", dir)
	}
}

func TestResolvePerPageEnumeration(t *testing.T) {
	for _, choice := range PerPageChoices {
		p := Resolve(Raw{PerPage: strconv.Itoa(choice)}, sortFields, "name")
		assert.Equal(t, choice, p.PerPage)
	}

	// anything outside the enumeration falls back
	for _, raw := range []string{"37", "0", "-5", "10000", "abc"} {
		p := Resolve(Raw{PerPage: raw}, sortFields, "name")
		assert.Equal(t, DefaultPerPage, p.PerPage, "per_page=%q", raw)
	}
}

func TestResolvePage(t *testing.T) {
	assert.Equal(t, 3, Resolve(Raw{Page: "3"}, sortFields, "name").Page)
	assert.Equal(t, 1, Resolve(Raw{Page: "0"}, sortFields, "name").Page)
	assert.Equal(t, 1, Resolve(Raw{Page: "junk"}, sortFields, "name").Page)
}

func TestPaginateClamps(t *testing.T) {
	p := Paginate(25, 99, 10)
	assert.Equal(t, 3, p.Number)
	assert.Equal(t, 3, p.TotalPages)
	assert.Equal(t, 20, p.Offset)
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())
	assert.Equal(t, 2, p.Prev())
	assert.Equal(t, 3, p.Next())

	p = Paginate(25, 0, 10)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 0, p.Offset)
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())
}

func TestPaginateEmptySet(t *testing.T) {
	p := Paginate(0, 5, 10)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, int64(0), p.TotalCount)
}
