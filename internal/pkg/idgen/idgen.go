// Package idgen mints the opaque identifiers used for forms, questions,
// options and option links.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

type Generator interface {
	NewID() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) NewID() string { return f() }

// UUID returns random (v4) UUIDs.
func UUID() Generator {
	return Func(func() string { return uuid.NewString() })
}

// ULID returns lexicographically sortable ULIDs.
func ULID() Generator {
	return Func(func() string { return ulid.Make().String() })
}

// ByName resolves the ID_STRATEGY setting.
func ByName(name string) (Generator, error) {
	switch name {
	case "", "uuid":
		return UUID(), nil
	case "ulid":
		return ULID(), nil
	default:
		return nil, fmt.Errorf("unknown id strategy %q", name)
	}
}

// Sequence returns prefix-1, prefix-2, ... ; tests use it for readable ids.
func Sequence(prefix string) Generator {
	var n atomic.Int64
	return Func(func() string {
		return fmt.Sprintf("%s-%d", prefix, n.Add(1))
	})
}
