// Package models defines the core data structures for users and
// health-tracking records, along with the shared error taxonomy.
package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNotFound is returned when a record does not exist or belongs to a
// different owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("record not found")

// ErrEmailTaken is returned when registering with an email that is already in use.
var ErrEmailTaken = errors.New("email already in use")

// ErrConflict is returned when a record collides with the
// (owner, kind, date, type, created_at) uniqueness constraint.
var ErrConflict = errors.New("duplicate record")

// User represents an application user.
type User struct {
	// ID is the unique identifier for the user.
	ID string
	// FullName is the display name provided at registration.
	FullName string
	// Email is the unique login email of the user.
	Email string
	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash []byte
	// CreatedAt is the registration timestamp.
	CreatedAt time.Time
}

// Record is a single health-tracking entry of any kind (workout, meal, steps).
// Kind-specific values such as duration or calories live in Fields.
type Record struct {
	// ID is the unique identifier for the record.
	ID string
	// OwnerID references the user who created the record. Set once at
	// creation from the authenticated caller; never client-settable.
	OwnerID string
	// Kind names the resource schema this record belongs to.
	Kind string
	// Date is the calendar date of the activity (no time component).
	Date time.Time
	// Type is the category choice value ("cardio", "lunch", ...).
	// Empty for kinds without a category field.
	Type string
	// Status is the lifecycle choice value ("planned", "completed", ...).
	Status string
	// Description holds optional free-form notes.
	Description string
	// Fields holds the kind-specific values keyed by field name.
	Fields map[string]any
	// CreatedAt is the server-assigned creation timestamp. Immutable.
	CreatedAt time.Time
}

// ListFilter narrows a list query by exact-match values.
// Zero values mean "no filter" for the corresponding field.
type ListFilter struct {
	Date   *time.Time
	Type   string
	Status string
}

// OrderBy is a single (field, direction) ordering term.
type OrderBy struct {
	Field string
	Desc  bool
}

// ValidationError reports every invalid field of a request as a
// field-to-message map.
type ValidationError struct {
	Fields map[string]string
}

// Error implements the error interface. Field names are listed in
// sorted order so the message is deterministic.
func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("validation failed: %s", strings.Join(names, ", "))
}
