package abcxyz

import (
	"context"
	"sync"
	"time"
)

// Stage is a state of the classification run state machine.
type Stage string

const (
	StageIdle           Stage = "idle"
	StageLoading        Stage = "loading"
	StageClassifyingABC Stage = "classifying_abc"
	StageClassifyingXYZ Stage = "classifying_xyz"
	StageAggregating    Stage = "aggregating"
	StageReady          Stage = "ready"
	StageFailed         Stage = "failed"
)

// Status is a snapshot of the run state machine.
type Status struct {
	Stage      Stage      `json:"stage"`
	Reason     string     `json:"reason,omitempty"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Products   int        `json:"products"`
}

// Source loads the dataset for a run.
type Source interface {
	Load(ctx context.Context) (*Dataset, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Dataset, error)

func (f SourceFunc) Load(ctx context.Context) (*Dataset, error) {
	return f(ctx)
}

// StaticSource serves an already loaded dataset.
func StaticSource(ds *Dataset) Source {
	return SourceFunc(func(context.Context) (*Dataset, error) {
		return ds, nil
	})
}

// Classify runs the pure pipeline on an in-memory dataset.
func Classify(ds *Dataset, c Criteria, opts Options) (*Result, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return classify(ds, c, opts.normalized(), func(Stage) {})
}

// Runner drives the run state machine. At most one run executes at a
// time; Run returns ErrRunInProgress otherwise.
type Runner struct {
	opts    Options
	observe func(Status)

	active sync.Mutex
	mu     sync.RWMutex
	status Status
}

// NewRunner creates an idle Runner. observe, when non-nil, receives every
// state transition.
func NewRunner(opts Options, observe func(Status)) *Runner {
	return &Runner{
		opts:    opts.normalized(),
		observe: observe,
		status:  Status{Stage: StageIdle},
	}
}

// Options returns the options applied to every run.
func (r *Runner) Options() Options {
	return r.opts
}

// Status returns the current state.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Reset returns a finished runner to Idle.
func (r *Runner) Reset() error {
	if !r.active.TryLock() {
		return ErrRunInProgress
	}
	defer r.active.Unlock()

	r.set(Status{Stage: StageIdle})
	return nil
}

// Run loads the dataset from src and classifies it with the criteria
// snapshot c. Source errors are returned unchanged.
func (r *Runner) Run(ctx context.Context, src Source, c Criteria) (*Result, error) {
	if !r.active.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.active.Unlock()

	started := time.Now().UTC()
	current := Status{StartedAt: &started}

	step := func(stage Stage) {
		current.Stage = stage
		r.set(current)
	}

	fail := func(err error) error {
		finished := time.Now().UTC()
		current.Stage = StageFailed
		current.Reason = err.Error()
		current.FinishedAt = &finished
		r.set(current)
		return err
	}

	if err := c.Validate(); err != nil {
		return nil, fail(err)
	}

	step(StageLoading)
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, fail(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fail(err)
	}
	if ds == nil {
		ds = &Dataset{}
	}
	current.Products = len(ds.Series)

	result, err := classify(ds, c, r.opts, step)
	if err != nil {
		return nil, fail(err)
	}

	finished := time.Now().UTC()
	current.FinishedAt = &finished
	step(StageReady)

	return result, nil
}

func (r *Runner) set(s Status) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()

	if r.observe != nil {
		r.observe(s)
	}
}

func classify(ds *Dataset, c Criteria, opts Options, step func(Stage)) (*Result, error) {
	if ds == nil {
		ds = &Dataset{}
	}

	step(StageClassifyingABC)
	if err := ValidateDataset(ds); err != nil {
		return nil, err
	}

	basis := SelectBasis(ds.Series)
	abc := ClassifyABC(ds.Series, c, basis)

	step(StageClassifyingXYZ)
	xyz := ClassifyXYZ(ds.Series, c, basis, opts.ZeroMean)

	step(StageAggregating)
	rows := make([]ClassifiedProduct, 0, len(ds.Series))
	totals := Totals{Basis: basis, Products: len(ds.Series)}

	for _, s := range Rank(ds.Series, basis) {
		key := s.Key()
		a := abc[key]
		x := xyz[key]

		row := ClassifiedProduct{
			ProductID:    s.ProductID,
			Name:         s.Name,
			Brand:        s.Brand,
			ABC:          a,
			XYZ:          x.Band,
			Combined:     string(a) + string(x.Band),
			TotalQty:     s.TotalQuantity(),
			TotalRevenue: s.TotalRevenue(),
			CV:           x.CV,
		}
		rows = append(rows, row)

		totals.Quantity += row.TotalQty
		totals.Revenue += row.TotalRevenue
	}

	months := ds.Months
	if months == nil {
		months = []string{}
	}

	return &Result{
		Months:    months,
		Rows:      rows,
		Matrix:    Aggregate(rows),
		Totals:    totals,
		TopSeries: SelectTopSeries(ds.Series, basis, opts.TopSeries),
	}, nil
}
