package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Authors is an ordered list of author names. On the JSON boundary it is written as a single
// comma-joined string, which is what existing clients expect; both that form and a plain array
// are accepted on input.
type Authors []string

func SplitAuthors(s string) Authors {
	parts := strings.Split(s, ",")

	ret := make(Authors, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			ret = append(ret, part)
		}
	}

	return ret
}

func (a Authors) String() string {
	return strings.Join(a, ",")
}

func (a Authors) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

func (a *Authors) UnmarshalJSON(bs []byte) error {
	var joined string
	if err := json.Unmarshal(bs, &joined); err == nil {
		*a = SplitAuthors(joined)
		return nil
	}

	var list []string
	if err := json.Unmarshal(bs, &list); err != nil {
		return fmt.Errorf("authors must be a string or an array of strings: %w", err)
	}

	*a = make(Authors, 0, len(list))
	for _, name := range list {
		if name = strings.TrimSpace(name); name != "" {
			*a = append(*a, name)
		}
	}

	return nil
}

// Value stores the list as a JSON array (jsonb column).
func (a Authors) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}

	bs, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}

	return string(bs), nil
}

func (a *Authors) Scan(src any) error {
	var bs []byte
	switch v := src.(type) {
	case nil:
		*a = nil
		return nil
	case []byte:
		bs = v
	case string:
		bs = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Authors", src)
	}

	var list []string
	if err := json.Unmarshal(bs, &list); err != nil {
		return err
	}

	*a = list
	return nil
}

type Book struct {
	Id            int64   `json:"id"`
	ExternalId    *string `json:"external_id" validate:"omitempty,max=200"`
	Title         string  `json:"title" validate:"required,max=200"`
	Authors       Authors `json:"authors" validate:"min=1,dive,required"`
	Acquired      bool    `json:"acquired"`
	PublishedYear string  `json:"published_year" validate:"required,max=20,published_year"`
	Thumbnail     *string `json:"thumbnail" validate:"omitempty,url"`
}

// Year returns the numeric year preceding the first '-' of PublishedYear.
// ok is false when that prefix is not an integer.
func (b *Book) Year() (year int, ok bool) {
	prefix, _, _ := strings.Cut(strings.TrimSpace(b.PublishedYear), "-")

	year, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}

	return year, true
}

func (b *Book) Clone() *Book {
	c := *b
	c.Authors = append(Authors(nil), b.Authors...)
	if b.ExternalId != nil {
		id := *b.ExternalId
		c.ExternalId = &id
	}
	if b.Thumbnail != nil {
		t := *b.Thumbnail
		c.Thumbnail = &t
	}

	return &c
}

// Candidate is a book descriptor returned by the metadata provider.
type Candidate struct {
	ExternalId    string   `json:"id" validate:"required,max=200"`
	Title         string   `json:"title" validate:"required,max=200"`
	Authors       []string `json:"authors" validate:"min=1,dive,required"`
	PublishedDate string   `json:"published_date" validate:"required,max=20,published_year"`
	Thumbnail     string   `json:"thumbnail,omitempty" validate:"omitempty,url"`
}

// IntoBook builds a fresh, un-acquired record. Id is left for the store to assign.
func (c *Candidate) IntoBook() *Book {
	externalId := c.ExternalId

	var thumbnail *string
	if c.Thumbnail != "" {
		t := c.Thumbnail
		thumbnail = &t
	}

	return &Book{
		ExternalId:    &externalId,
		Title:         c.Title,
		Authors:       append(Authors(nil), c.Authors...),
		Acquired:      false,
		PublishedYear: c.PublishedDate,
		Thumbnail:     thumbnail,
	}
}
