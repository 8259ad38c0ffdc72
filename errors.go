package bieb

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Category sentinels. Every typed error below matches exactly one of these
// through errors.Is, so callers can branch on category without knowing the
// concrete type.
var (
	ErrNotFound  = errors.New("entity not found")
	ErrDuplicate = errors.New("duplicate entity")
	ErrDatabase  = errors.New("database failure")
)

// NotFoundError reports that a targeted read, update or delete matched no
// row where one was required.
type NotFoundError struct {
	Entity     string
	Identifier string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with identifier: %s", e.Entity, e.Identifier)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// DuplicateError reports a uniqueness violation on a natural key.
type DuplicateError struct {
	Entity string
	Field  string
	Value  string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s with %s '%s' already exists", e.Entity, e.Field, e.Value)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// ValidationError carries per-field messages. The store never produces one;
// it is raised by callers before persistence is invoked and defined here so
// the whole taxonomy lives in one package.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

// DatabaseError wraps a transport or driver failure. The cause stays
// reachable through Unwrap.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *DatabaseError) Is(target error) bool { return target == ErrDatabase }

func (e *DatabaseError) Unwrap() error { return e.Err }
