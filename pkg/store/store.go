// Package store defines the key-value capability the form engines persist through.
//
// Backends live in internal/pkg/store. Nothing at this layer validates what is
// stored: referential integrity between collections is the caller's job.
package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/paulexconde/formbuilder/pkg/fault"
)

// Fixed collection keys. Changing any of them orphans previously stored data.
const (
	KeyForms       = "forms"
	KeyQuestions   = "questions"
	KeyOptions     = "options"
	KeyOptionLinks = "optionLinks"
	KeyConditions  = "conditions"
)

// Keys lists every collection key in the order they are written on submit.
var Keys = []string{KeyForms, KeyQuestions, KeyOptions, KeyOptionLinks, KeyConditions}

// KV is a durable key-value store. Every Save is durable when it returns.
type KV interface {
	// Load returns fault.ErrNotFound when key was never saved.
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
	Close() error
}

// AfterSaveHook runs after a value has been durably saved. It has side effects
// only, so it cannot fail the save.
type AfterSaveHook func(ctx context.Context, key string, size int)

// Hooks for backends that support them.
type Hooks struct {
	AfterSave []AfterSaveHook
}

// LoadJSON decodes key into dst. An absent key leaves dst untouched and
// reports found == false.
func LoadJSON(ctx context.Context, kv KV, key string, dst any) (found bool, err error) {
	raw, err := kv.Load(ctx, key)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if len(raw) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fault.NewInternalError("decode "+key, err)
	}

	return true, nil
}

// SaveJSON encodes v and saves it under key.
func SaveJSON(ctx context.Context, kv KV, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fault.NewInternalError("encode "+key, err)
	}

	return kv.Save(ctx, key, raw)
}
