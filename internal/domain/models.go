package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNameWithoutSeparator is returned when a display name cannot be split
// into a first and a last name.
var ErrNameWithoutSeparator = errors.New("name must contain a first and a last name separated by a space")

// Employee represents the employee table
type Employee struct {
	ID        int64  `json:"id" db:"id"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Role      string `json:"role" db:"role"`
}

// NewEmployee builds a transient employee, ID is assigned by the store.
func NewEmployee(firstName, lastName, role string) Employee {
	return Employee{
		FirstName: firstName,
		LastName:  lastName,
		Role:      role,
	}
}

// Name joins first and last name.
func (e Employee) Name() string {
	return e.FirstName + " " + e.LastName
}

// SetName replaces first and last name from a combined display name.
// The employee is left untouched when the name cannot be split.
func (e *Employee) SetName(name string) error {
	first, last, err := SplitName(name)
	if err != nil {
		return err
	}
	e.FirstName = first
	e.LastName = last
	return nil
}

// IsNew reports whether the employee has not been persisted yet.
func (e Employee) IsNew() bool {
	return e.ID == 0
}

// Equal compares every field, ID included.
func (e Employee) Equal(other Employee) bool {
	return e == other
}

func (e Employee) String() string {
	return fmt.Sprintf("Employee{id=%d, firstName='%s', lastName='%s', role='%s'}", e.ID, e.FirstName, e.LastName, e.Role)
}

// SplitName cuts a display name at its first space. Everything after the
// first space is kept as the last name, so "Bilbo Baggins Jr" yields
// ("Bilbo", "Baggins Jr").
func SplitName(name string) (first, last string, err error) {
	first, last, found := strings.Cut(name, " ")
	if !found || first == "" || last == "" {
		return "", "", fmt.Errorf("%w: %q", ErrNameWithoutSeparator, name)
	}
	return first, last, nil
}
