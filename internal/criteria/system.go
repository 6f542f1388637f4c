// Package criteria persists the ABC-XYZ cut-off configuration.
// A single criteria row exists; it is created with defaults on first load
// and only replaced by a validated save.
package criteria

import (
	"context"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

// System defines the public contract for the criteria store.
type System interface {
	Handler() *Handler

	// Load returns the persisted criteria, persisting defaults when none exist.
	Load(ctx context.Context) (abcxyz.Criteria, error)
	// Save merges patch over the current criteria, validates the result and
	// writes it atomically. Invalid criteria leave the stored value unchanged.
	Save(ctx context.Context, patch abcxyz.CriteriaPatch) (abcxyz.Criteria, error)
}
