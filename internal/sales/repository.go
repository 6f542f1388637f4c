package sales

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/repository"
)

const (
	latestQuery = `SELECT MAX(v.fecha) FROM ventas v`

	catalogQuery = `
		SELECT p.id_producto, p.nombre_producto, COALESCE(m.nombre_marca, '')
		FROM productos p
		LEFT JOIN marcas m ON m.id_marca = p.id_marca
		ORDER BY p.id_producto`

	aggregateQuery = `
		SELECT v.id_producto, {month} AS periodo,
			SUM(v.cantidad),
			SUM(COALESCE(v.importe_total, v.cantidad * p.precio_unitario, 0))
		FROM ventas v
		JOIN productos p ON p.id_producto = v.id_producto
		WHERE v.fecha >= ? AND v.fecha < ?
		GROUP BY v.id_producto, {month}
		ORDER BY v.id_producto, periodo`

	countProductsQuery = `SELECT COUNT(*) FROM productos`

	countSalesQuery = `
		SELECT COUNT(*)
		FROM ventas v
		WHERE v.fecha >= ? AND v.fecha < ?`

	countMonthsQuery = `
		SELECT COUNT(DISTINCT {month})
		FROM ventas v
		WHERE v.fecha >= ? AND v.fecha < ?`
)

// Options bound the loader's window and query time.
type Options struct {
	WindowMonths int
	MinMonths    int
	QueryTimeout time.Duration
}

type repo struct {
	db      *sql.DB
	dialect Dialect
	opts    Options
	logger  *slog.Logger
	now     func() time.Time
}

// New creates a sales loader over db rendering queries for dialect.
func New(db *sql.DB, dialect Dialect, opts Options, logger *slog.Logger) System {
	if opts.WindowMonths <= 0 {
		opts.WindowMonths = 12
	}
	if opts.MinMonths <= 0 {
		opts.MinMonths = 1
	}
	return &repo{
		db:      db,
		dialect: dialect,
		opts:    opts,
		logger:  logger.With("system", "sales", "dialect", dialect.Name),
		now:     time.Now,
	}
}

func (r *repo) Source() abcxyz.Source {
	return abcxyz.SourceFunc(r.Load)
}

type product struct {
	id    int64
	name  string
	brand string
}

type aggregate struct {
	id       int64
	period   string
	quantity decimal.Decimal
	revenue  decimal.Decimal
}

func (r *repo) Load(ctx context.Context) (*abcxyz.Dataset, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	window, start, end, err := r.window(ctx)
	if err != nil {
		return nil, err
	}
	if window == nil {
		window, start, end = bounds(r.now(), r.opts.WindowMonths)
		r.logger.Warn("no sales recorded, classifying catalog over current window", "window_end", window[len(window)-1])
	}

	var (
		catalog    []product
		aggregates []aggregate
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		catalog, err = repository.QueryMany(gctx, r.db, catalogQuery, nil, scanProduct)
		return err
	})

	g.Go(func() error {
		var err error
		aggregates, err = repository.QueryMany(
			gctx, r.db, r.dialect.Render(aggregateQuery), []any{start, end}, scanAggregate,
		)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, unavailable("load sales", err)
	}

	ds, err := assemble(window, catalog, aggregates)
	if err != nil {
		return nil, err
	}

	r.logger.Info(
		"sales loaded",
		"products", len(ds.Series),
		"window_start", window[0],
		"window_end", window[len(window)-1],
		"issues", len(ds.Issues),
	)

	return ds, nil
}

// assemble zero-fills every catalog product over window and adds the
// monthly aggregates.
func assemble(window []string, catalog []product, aggregates []aggregate) (*abcxyz.Dataset, error) {
	b := abcxyz.NewBuilder(abcxyz.WithMonths(window))
	last := window[len(window)-1]

	names := make(map[int64]product, len(catalog))
	for i, p := range catalog {
		names[p.id] = p
		b.Add(abcxyz.Observation{
			Row:       i + 1,
			ProductID: p.id,
			Name:      p.name,
			Brand:     p.brand,
			Period:    last,
		})
	}

	for i, a := range aggregates {
		p := names[a.id]
		b.Add(abcxyz.Observation{
			Row:       i + 1,
			ProductID: a.id,
			Name:      p.name,
			Brand:     p.brand,
			Period:    a.period,
			Quantity:  a.quantity.InexactFloat64(),
			Revenue:   a.revenue.InexactFloat64(),
		})
	}

	return b.Build()
}

func (r *repo) Precheck(ctx context.Context) (*Precheck, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	window, start, end, err := r.window(ctx)
	if err != nil {
		return nil, err
	}

	var counts Counts

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return r.db.QueryRowContext(gctx, countProductsQuery).Scan(&counts.Products)
	})

	if window != nil {
		g.Go(func() error {
			return r.db.QueryRowContext(
				gctx, r.dialect.Render(countSalesQuery), start, end,
			).Scan(&counts.Sales)
		})

		g.Go(func() error {
			return r.db.QueryRowContext(
				gctx, r.dialect.Render(countMonthsQuery), start, end,
			).Scan(&counts.Months)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, unavailable("precheck sales", err)
	}

	p := counts.Evaluate(window, r.opts.MinMonths)
	r.logger.Debug("sales precheck", "ok", p.OK, "products", p.Products, "months", p.Months)
	return p, nil
}

// window resolves the trailing month axis ending at the latest sale and its
// half-open date bounds. A nil window means no sales exist.
func (r *repo) window(ctx context.Context) ([]string, time.Time, time.Time, error) {
	var latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, latestQuery).Scan(&latest); err != nil {
		return nil, time.Time{}, time.Time{}, unavailable("latest sale", err)
	}
	if !latest.Valid {
		return nil, time.Time{}, time.Time{}, nil
	}

	window, start, end := bounds(latest.Time, r.opts.WindowMonths)
	return window, start, end, nil
}

// bounds returns the n months ending at the month of t with their
// half-open date range.
func bounds(t time.Time, n int) ([]string, time.Time, time.Time) {
	window := abcxyz.TrailingMonths(t, n)
	start, _ := abcxyz.ParseMonth(window[0])
	last, _ := abcxyz.ParseMonth(window[len(window)-1])
	return window, start, last.AddDate(0, 1, 0)
}

func (r *repo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.opts.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.opts.QueryTimeout)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", abcxyz.ErrSourceUnavailable, op, err)
}

func scanProduct(s repository.Scanner) (product, error) {
	var p product
	err := s.Scan(&p.id, &p.name, &p.brand)
	return p, err
}

func scanAggregate(s repository.Scanner) (aggregate, error) {
	var a aggregate
	var quantity, revenue decimal.NullDecimal
	if err := s.Scan(&a.id, &a.period, &quantity, &revenue); err != nil {
		return a, err
	}
	a.quantity = quantity.Decimal
	a.revenue = revenue.Decimal
	return a, nil
}
