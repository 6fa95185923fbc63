// Package catalog holds the request-level logic of the book catalog: listing filters,
// manual creation and field edits. It works on plain records and never talks to storage.
package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"bookstore/internal/problem"
	"bookstore/internal/types"
)

const (
	FilterTitle    = "title"
	FilterAuthors  = "authors"
	FilterAcquired = "acquired"
	FilterFrom     = "from"
	FilterTo       = "to"
)

// FilterNames lists the recognized query parameters of the book listing, in display order.
var FilterNames = []string{FilterTitle, FilterAuthors, FilterAcquired, FilterFrom, FilterTo}

// Criterion is a single recognized filter with its value.
type Criterion struct {
	Name  string
	Value string

	match func(b *types.Book) bool
}

func (c Criterion) Matches(b *types.Book) bool {
	return c.match(b)
}

// Criteria are combined with logical AND.
type Criteria []Criterion

// ParseCriteria turns listing query parameters into criteria. Parameters with an empty value
// are dropped, so "title=" behaves as if title was not given at all.
func ParseCriteria(q url.Values) (Criteria, error) {
	for name := range q {
		if !isFilterName(name) {
			return nil, problem.Validation("No such filter", fmt.Sprintf("Try one of these : %v", FilterNames))
		}
	}

	criteria := make(Criteria, 0, len(q))
	for _, name := range FilterNames {
		value := q.Get(name)
		if value == "" {
			continue
		}

		c, err := NewCriterion(name, value)
		if err != nil {
			return nil, err
		}

		criteria = append(criteria, c)
	}

	return criteria, nil
}

func isFilterName(name string) bool {
	for _, n := range FilterNames {
		if n == name {
			return true
		}
	}
	return false
}

func NewCriterion(name, value string) (Criterion, error) {
	c := Criterion{Name: name, Value: value}
	needle := strings.ToLower(value)

	switch name {
	case FilterTitle:
		c.match = func(b *types.Book) bool {
			return strings.Contains(strings.ToLower(b.Title), needle)
		}
	case FilterAuthors:
		c.match = func(b *types.Book) bool {
			return strings.Contains(strings.ToLower(b.Authors.String()), needle)
		}
	case FilterAcquired:
		// Textual match against "true"/"false", not boolean equality: "fa" selects un-acquired books.
		c.match = func(b *types.Book) bool {
			return strings.Contains(strconv.FormatBool(b.Acquired), needle)
		}
	case FilterFrom, FilterTo:
		bound, err := strconv.Atoi(value)
		if err != nil {
			return Criterion{}, problem.Validation("Invalid value", fmt.Sprintf("%s must be a year, got %q", name, value))
		}

		from := name == FilterFrom
		c.match = func(b *types.Book) bool {
			year, ok := b.Year()
			if !ok {
				return false
			}
			if from {
				return year >= bound
			}
			return year <= bound
		}
	default:
		return Criterion{}, problem.Validation("No such filter", fmt.Sprintf("Try one of these : %v", FilterNames))
	}

	return c, nil
}

// Filter returns the ids of records satisfying every criterion: the intersection of the id sets
// each criterion matches on its own. No criteria match everything.
func Filter(records []*types.Book, criteria Criteria) map[int64]struct{} {
	result := make(map[int64]struct{}, len(records))
	for _, r := range records {
		result[r.Id] = struct{}{}
	}

	for _, c := range criteria {
		matched := make(map[int64]struct{})
		for _, r := range records {
			if c.Matches(r) {
				matched[r.Id] = struct{}{}
			}
		}

		for id := range result {
			if _, ok := matched[id]; !ok {
				delete(result, id)
			}
		}

		if len(result) == 0 {
			break
		}
	}

	return result
}

// Select returns the matching records in their original order.
func Select(records []*types.Book, criteria Criteria) []*types.Book {
	ids := Filter(records, criteria)

	ret := make([]*types.Book, 0, len(ids))
	for _, r := range records {
		if _, ok := ids[r.Id]; ok {
			ret = append(ret, r)
		}
	}

	return ret
}
