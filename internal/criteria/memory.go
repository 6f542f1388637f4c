package criteria

import (
	"context"
	"log/slog"
	"sync"

	"github.com/JaimeStill/verne/pkg/abcxyz"
)

type memory struct {
	mu       sync.RWMutex
	criteria *abcxyz.Criteria
	logger   *slog.Logger
}

// NewMemory creates an in-process criteria store. A nil initial value
// defers to defaults on first Load. An invalid initial value is rejected.
func NewMemory(initial *abcxyz.Criteria, logger *slog.Logger) (System, error) {
	if initial != nil {
		if err := initial.Validate(); err != nil {
			return nil, err
		}
		c := *initial
		initial = &c
	}
	return &memory{
		criteria: initial,
		logger:   logger.With("system", "criteria"),
	}, nil
}

func (m *memory) Handler() *Handler {
	return NewHandler(m, m.logger)
}

func (m *memory) Load(ctx context.Context) (abcxyz.Criteria, error) {
	m.mu.RLock()
	if m.criteria != nil {
		c := *m.criteria
		m.mu.RUnlock()
		return c, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.criteria == nil {
		d := abcxyz.DefaultCriteria()
		m.criteria = &d
	}
	return *m.criteria, nil
}

func (m *memory) Save(ctx context.Context, patch abcxyz.CriteriaPatch) (abcxyz.Criteria, error) {
	if patch.Empty() {
		return abcxyz.Criteria{}, ErrEmptyPatch
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	current := abcxyz.DefaultCriteria()
	if m.criteria != nil {
		current = *m.criteria
	}

	merged := patch.Apply(current)
	if err := merged.Validate(); err != nil {
		return abcxyz.Criteria{}, err
	}

	m.criteria = &merged
	m.logger.Info("criteria saved", "a_cut", merged.ACut, "b_cut", merged.BCut, "x_cut", merged.XCut, "y_cut", merged.YCut)
	return merged, nil
}
