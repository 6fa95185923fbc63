package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"bookstore/internal/problem"
	"bookstore/internal/types"
)

// EditFields are the book fields a PATCH may touch.
var EditFields = []string{"title", "authors", "acquired", "external_id", "published_year", "thumbnail"}

// Patch holds the supplied edits; nil fields are left untouched.
type Patch struct {
	Title         *string
	Authors       types.Authors
	Acquired      *bool
	ExternalId    *string
	PublishedYear *string
	Thumbnail     *string

	clearExternalId bool
	clearThumbnail  bool
}

// ParsePatch checks every parameter name before interpreting any value, so an unknown name
// rejects the whole edit.
func ParsePatch(q url.Values) (*Patch, error) {
	for name := range q {
		if !isEditField(name) {
			return nil, problem.Validation("No such condition in database",
				"Try one of these : "+strings.Join(EditFields, ", "))
		}
	}

	if len(q) == 0 {
		return nil, problem.Validation("Nothing to edit", "Try one of these : "+strings.Join(EditFields, ", "))
	}

	p := &Patch{}
	for name := range q {
		value := q.Get(name)

		switch name {
		case "title":
			p.Title = &value
		case "authors":
			p.Authors = types.SplitAuthors(value)
		case "acquired":
			acquired, err := strconv.ParseBool(strings.TrimSpace(value))
			if err != nil {
				return nil, problem.Validation("Invalid value", fmt.Sprintf("acquired must be true or false, got %q", value))
			}
			p.Acquired = &acquired
		case "external_id":
			if strings.TrimSpace(value) == "" {
				p.clearExternalId = true
			} else {
				p.ExternalId = &value
			}
		case "published_year":
			p.PublishedYear = &value
		case "thumbnail":
			if strings.TrimSpace(value) == "" {
				p.clearThumbnail = true
			} else {
				p.Thumbnail = &value
			}
		}
	}

	return p, nil
}

func isEditField(name string) bool {
	for _, f := range EditFields {
		if f == name {
			return true
		}
	}
	return false
}

// Apply returns an edited copy of b; b itself is not modified.
func (p *Patch) Apply(b *types.Book) *types.Book {
	c := b.Clone()

	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Authors != nil {
		c.Authors = append(types.Authors(nil), p.Authors...)
	}
	if p.Acquired != nil {
		c.Acquired = *p.Acquired
	}
	if p.clearExternalId {
		c.ExternalId = nil
	} else if p.ExternalId != nil {
		id := *p.ExternalId
		c.ExternalId = &id
	}
	if p.PublishedYear != nil {
		c.PublishedYear = *p.PublishedYear
	}
	if p.clearThumbnail {
		c.Thumbnail = nil
	} else if p.Thumbnail != nil {
		t := *p.Thumbnail
		c.Thumbnail = &t
	}

	return c
}

type newBook struct {
	Title         string        `json:"title"`
	Authors       types.Authors `json:"authors"`
	Acquired      bool          `json:"acquired"`
	PublishedYear string        `json:"published_year"`
	Thumbnail     *string       `json:"thumbnail"`
}

// DecodeNewBook reads a manually added book from a JSON body or, when the body is empty,
// from query parameters. The result is not validated.
func DecodeNewBook(body io.Reader, q url.Values) (*types.Book, error) {
	var raw []byte
	if body != nil {
		var err error
		raw, err = io.ReadAll(body)
		if err != nil {
			return nil, fmt.Errorf("reading request body: %w", err)
		}
	}

	var nb newBook
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &nb); err != nil {
			return nil, problem.Validation("Invalid body", err.Error())
		}
	} else {
		nb.Title = q.Get("title")
		nb.Authors = types.SplitAuthors(q.Get("authors"))
		nb.PublishedYear = q.Get("published_year")
		if v := q.Get("thumbnail"); v != "" {
			nb.Thumbnail = &v
		}
		if v := strings.TrimSpace(q.Get("acquired")); v != "" {
			acquired, err := strconv.ParseBool(v)
			if err != nil {
				return nil, problem.Validation("Invalid value", fmt.Sprintf("acquired must be true or false, got %q", v))
			}
			nb.Acquired = acquired
		}
	}

	if nb.Thumbnail != nil && strings.TrimSpace(*nb.Thumbnail) == "" {
		nb.Thumbnail = nil
	}

	return &types.Book{
		Title:         strings.TrimSpace(nb.Title),
		Authors:       nb.Authors,
		Acquired:      nb.Acquired,
		PublishedYear: strings.TrimSpace(nb.PublishedYear),
		Thumbnail:     nb.Thumbnail,
	}, nil
}
