package catalog

import (
	"net/url"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/problem"
	"bookstore/internal/types"
)

func shelf() []*types.Book {
	return []*types.Book{
		{Id: 1, Title: "Dune", Authors: types.Authors{"Frank Herbert"}, PublishedYear: "1965", Acquired: true},
		{Id: 2, Title: "Foundation", Authors: types.Authors{"Isaac Asimov"}, PublishedYear: "1951", Acquired: false},
		{Id: 3, Title: "Good Omens", Authors: types.Authors{"Terry Pratchett", "Neil Gaiman"}, PublishedYear: "1990-05-01", Acquired: false},
		{Id: 4, Title: "Children of Dune", Authors: types.Authors{"Frank Herbert"}, PublishedYear: "1976-04", Acquired: true},
	}
}

func ids(m map[int64]struct{}) []int64 {
	ret := make([]int64, 0, len(m))
	for id := range m {
		ret = append(ret, id)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i] < ret[j] })
	return ret
}

func filterQuery(t *testing.T, records []*types.Book, query string) []int64 {
	t.Helper()

	q, err := url.ParseQuery(query)
	require.NoError(t, err)

	criteria, err := ParseCriteria(q)
	require.NoError(t, err)

	return ids(Filter(records, criteria))
}

func TestFilterScenario(t *testing.T) {
	records := []*types.Book{
		{Id: 1, Title: "Dune", Authors: types.Authors{"Frank Herbert"}, PublishedYear: "1965", Acquired: true},
		{Id: 2, Title: "Foundation", Authors: types.Authors{"Isaac Asimov"}, PublishedYear: "1951", Acquired: false},
	}

	assert.Equal(t, []int64{1}, filterQuery(t, records, "title=dune"))
	assert.Equal(t, []int64{1}, filterQuery(t, records, "from=1960"))
	assert.Equal(t, []int64{2}, filterQuery(t, records, "acquired=false"))
	assert.Empty(t, filterQuery(t, records, "title=dune&acquired=false"))
}

func TestFilterSingleCriteria(t *testing.T) {
	tests := []struct {
		query string
		want  []int64
	}{
		{"", []int64{1, 2, 3, 4}},
		{"title=DUNE", []int64{1, 4}},
		{"title=", []int64{1, 2, 3, 4}},
		{"authors=herbert", []int64{1, 4}},
		{"authors=t,neil", []int64{3}},
		{"acquired=TRUE", []int64{1, 4}},
		{"acquired=fa", []int64{2, 3}},
		{"acquired=e", []int64{1, 2, 3, 4}},
		{"from=1965", []int64{1, 3, 4}},
		{"to=1965", []int64{1, 2}},
		{"from=1970&to=1980", []int64{4}},
		{"title=zzz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := filterQuery(t, shelf(), tt.query)
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFilterIsIntersectionOfCriteria(t *testing.T) {
	records := shelf()
	queries := []string{
		"title=dune&acquired=true",
		"authors=herbert&from=1970",
		"title=o&to=1990&acquired=fa",
		"title=dune&authors=asimov",
	}

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			q, err := url.ParseQuery(query)
			require.NoError(t, err)

			criteria, err := ParseCriteria(q)
			require.NoError(t, err)

			expected := Filter(records, nil)
			for _, c := range criteria {
				single := Filter(records, Criteria{c})
				for id := range expected {
					if _, ok := single[id]; !ok {
						delete(expected, id)
					}
				}
			}

			assert.Equal(t, ids(expected), ids(Filter(records, criteria)))

			reversed := make(Criteria, len(criteria))
			for i, c := range criteria {
				reversed[len(criteria)-1-i] = c
			}
			assert.Equal(t, ids(expected), ids(Filter(records, reversed)))
		})
	}
}

func TestFilterYearBoundsAreInclusive(t *testing.T) {
	records := []*types.Book{{Id: 7, Title: "Edge", PublishedYear: "1984-06-08"}}

	assert.Equal(t, []int64{7}, filterQuery(t, records, "from=1984"))
	assert.Equal(t, []int64{7}, filterQuery(t, records, "to=1984"))
	assert.Empty(t, filterQuery(t, records, "from=1985"))
	assert.Empty(t, filterQuery(t, records, "to=1983"))
}

func TestFilterMalformedYearFailsClosed(t *testing.T) {
	records := append(shelf(),
		&types.Book{Id: 5, Title: "Undated", PublishedYear: "unknown"},
		&types.Book{Id: 6, Title: "Blank", PublishedYear: ""},
	)

	assert.Equal(t, []int64{1, 3, 4}, filterQuery(t, records, "from=1960"))
	assert.Equal(t, []int64{1, 2}, filterQuery(t, records, "to=1965"))
	assert.Equal(t, []int64{1, 2, 3, 4, 5, 6}, filterQuery(t, records, ""))
	assert.Equal(t, []int64{5}, filterQuery(t, records, "title=undated"))
}

func TestFilterValueIsNotTrimmed(t *testing.T) {
	records := []*types.Book{
		{Id: 1, Title: "The Book of Dust", Authors: types.Authors{"Philip Pullman"}, PublishedYear: "2017"},
		{Id: 2, Title: "Offshore", Authors: types.Authors{"Penelope Fitzgerald"}, PublishedYear: "1979"},
	}

	assert.Equal(t, []int64{1}, filterQuery(t, records, "title=%20of"))
	assert.Equal(t, []int64{1, 2}, filterQuery(t, records, "title=of"))
	assert.Equal(t, []int64{1, 2}, filterQuery(t, records, "title="))
}

func TestParseCriteriaErrors(t *testing.T) {
	_, err := ParseCriteria(url.Values{"genre": {"sf"}})
	require.Error(t, err)
	p, ok := problem.As(err)
	require.True(t, ok)
	assert.Equal(t, "No such filter", p.Category)
	assert.Equal(t, "Try one of these : [title authors acquired from to]", p.Hint)

	_, err = ParseCriteria(url.Values{"from": {"sixties"}})
	assert.ErrorIs(t, err, problem.ErrValidation)

	_, err = ParseCriteria(url.Values{"title": {"dune"}, "limit": {"10"}})
	assert.ErrorIs(t, err, problem.ErrValidation)
}

func TestSelectKeepsStoreOrder(t *testing.T) {
	criteria, err := ParseCriteria(url.Values{"authors": {"herbert"}})
	require.NoError(t, err)

	got := Select(shelf(), criteria)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].Id)
	assert.Equal(t, int64(4), got[1].Id)
}
