package idgen

import (
	"strings"

	"github.com/google/uuid"
)

// NewFunc generates identifiers
var NewFunc = func() string { return uuid.New().String() }

// New returns a new unique identifier
func New() string { return NewFunc() }

// Short returns the leading group of a new identifier, used for boot ids
// printed by the console.
func Short() string {
	id := New()
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
