// Package analysis orchestrates classification runs over the sales database
// or uploaded spreadsheets, persists their results and serves the latest one.
package analysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/pagination"
)

// System defines the public contract for classification runs.
type System interface {
	Handler() *Handler

	// RunDatabase classifies the sales database with the stored criteria.
	RunDatabase(ctx context.Context) (*Run, error)
	// RunImport classifies an uploaded spreadsheet and archives the file.
	RunImport(ctx context.Context, cmd ImportCommand) (*Run, error)
	Precheck(ctx context.Context) (*Precheck, error)
	// Latest returns the most recent run from source, or from any source
	// when source is nil. Results are cached per source for the configured TTL.
	Latest(ctx context.Context, source *Source) (*Run, error)
	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Summary], error)
	Find(ctx context.Context, id uuid.UUID) (*Run, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Export(ctx context.Context, id uuid.UUID, format imports.Format) (*File, error)
	Status() abcxyz.Status
}
