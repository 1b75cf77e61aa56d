package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Category groups students and sets the default ban length.
type Category struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Description        string `json:"description,omitempty"`
	DefaultBanDuration *int   `json:"defaultBanDuration,omitempty"`
}

// CategoryRef is the student's category field: either a bare identifier or an
// embedded category document.
type CategoryRef struct {
	ID       string
	Embedded *Category
}

// CategoryID returns a reference holding only an identifier.
func CategoryID(id string) CategoryRef {
	return CategoryRef{ID: id}
}

// EmbeddedCategory returns a reference carrying the full category.
func EmbeddedCategory(c Category) CategoryRef {
	return CategoryRef{ID: c.ID, Embedded: &c}
}

// IsZero reports whether the student has no category at all.
func (r CategoryRef) IsZero() bool {
	return r.ID == "" && r.Embedded == nil
}

// Value is the identifier used for filtering.
func (r CategoryRef) Value() string {
	if r.ID != "" {
		return r.ID
	}
	if r.Embedded != nil {
		return r.Embedded.ID
	}
	return ""
}

// MarshalJSON writes the embedded document when present, else the identifier.
func (r CategoryRef) MarshalJSON() ([]byte, error) {
	switch {
	case r.Embedded != nil:
		return json.Marshal(r.Embedded)
	case r.ID != "":
		return json.Marshal(r.ID)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, an object or null.
func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = CategoryRef{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	switch data[0] {
	case '"':
		return json.Unmarshal(data, &r.ID)
	case '{':
		var doc struct {
			Category
			MongoID string `json:"_id"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return err
		}
		c := doc.Category
		if c.ID == "" {
			c.ID = doc.MongoID
		}
		r.ID = c.ID
		r.Embedded = &c
		return nil
	default:
		return fmt.Errorf("category: unsupported json value %s", data)
	}
}
