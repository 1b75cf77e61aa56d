package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/noah-isme/library-console/pkg/datefmt"
)

// Student represents a library member as returned by the library API.
type Student struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	StudentCode string      `json:"studentId"`
	Email       string      `json:"email"`
	Phone       string      `json:"phone,omitempty"`
	DateOfBirth string      `json:"dateOfBirth,omitempty"`
	Category    CategoryRef `json:"category"`
	Banned      bool        `json:"banned"`
	BannedUntil *time.Time  `json:"bannedUntil,omitempty"`
	Image       string      `json:"image,omitempty"`
}

// CategoryValue is the value the category filter matches against.
func (s Student) CategoryValue() string {
	return s.Category.Value()
}

// UnmarshalJSON accepts the document-store "_id" key and date-only ban expiries.
func (s *Student) UnmarshalJSON(data []byte) error {
	type studentAlias Student
	var raw struct {
		studentAlias
		MongoID     string  `json:"_id"`
		BannedUntil *string `json:"bannedUntil"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Student(raw.studentAlias)
	if s.ID == "" {
		s.ID = raw.MongoID
	}
	s.BannedUntil = nil
	if raw.BannedUntil != nil && *raw.BannedUntil != "" {
		until, err := datefmt.ParseInstant(*raw.BannedUntil)
		if err != nil {
			return fmt.Errorf("student %s: bannedUntil: %w", s.ID, err)
		}
		s.BannedUntil = &until
	}
	return nil
}

// StudentDraft carries the editable student fields submitted on create or update.
// Every field is always sent so an update can clear optional values.
// DateOfBirth is already in storage form when it reaches the API client.
type StudentDraft struct {
	Name        string       `json:"name" validate:"required,max=120"`
	StudentCode string       `json:"studentId" validate:"required,max=64"`
	Email       string       `json:"email" validate:"required,email"`
	Phone       string       `json:"phone" validate:"omitempty,max=32"`
	DateOfBirth string       `json:"dateOfBirth"`
	Category    string       `json:"category"`
	Image       *ImageUpload `json:"-"`
}

// ImageUpload is an optional picture attached to a student draft.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}
