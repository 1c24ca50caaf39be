package contacts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrContactNotFound = errors.New("contact not found")
	ErrNothingToUpdate = errors.New("body must have at least one field")
	ErrContactExists   = errors.New("a contact with this email already exists")
)

// ValidationError lists the failing fields with the rule each one broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid contact: " + strings.Join(parts, ", ")
}
