package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	MaxContentLength = 50
	MaxSubjectLength = 100
)

var ErrValidation = errors.New("validation failed")

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failing field of a request.
// errors.Is(err, ErrValidation) holds for any *ValidationError.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func (e *ValidationError) add(field, format string, args ...any) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) orNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

type MessageAddRequest struct {
	Message     string     `json:"message"`
	Subject     *string    `json:"subject"`
	RecipientID int        `json:"recipientId"`
	SenderID    int        `json:"senderId"`
	DateSent    *time.Time `json:"dateSent"`
	DateRead    *time.Time `json:"dateRead"`
}

func (r *MessageAddRequest) Validate() error {
	var v ValidationError
	r.validate(&v)
	return v.orNil()
}

func (r *MessageAddRequest) validate(v *ValidationError) {
	n := utf8.RuneCountInString(strings.TrimSpace(r.Message))
	switch {
	case n == 0:
		v.add("message", "is required")
	case n > MaxContentLength:
		v.add("message", "must be at most %d characters", MaxContentLength)
	}
	if r.Subject != nil && utf8.RuneCountInString(*r.Subject) > MaxSubjectLength {
		v.add("subject", "must be at most %d characters", MaxSubjectLength)
	}
	if r.RecipientID < 1 {
		v.add("recipientId", "must be at least 1")
	}
	if r.SenderID < 1 {
		v.add("senderId", "must be at least 1")
	}
	if r.DateRead != nil && r.DateSent != nil && r.DateRead.Before(*r.DateSent) {
		v.add("dateRead", "must not be before dateSent")
	}
}

type MessageUpdateRequest struct {
	MessageAddRequest
	ID int `json:"id"`
}

func (r *MessageUpdateRequest) Validate() error {
	var v ValidationError
	if r.ID < 1 {
		v.add("id", "must be at least 1")
	}
	r.validate(&v)
	return v.orNil()
}
