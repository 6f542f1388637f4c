package analysis

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/JaimeStill/verne/internal/criteria"
	"github.com/JaimeStill/verne/internal/imports"
	"github.com/JaimeStill/verne/internal/sales"
	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/pagination"
	"github.com/JaimeStill/verne/pkg/query"
	"github.com/JaimeStill/verne/pkg/repository"
	"github.com/JaimeStill/verne/pkg/storage"
)

const latestPrefix = "latest:"

func latestKey(source *Source) string {
	return latestPrefix + source.label()
}

const insertQuery = `
	INSERT INTO abcxyz_runs(
		id, source, filename, storage_key, criteria, basis, products,
		period_start, period_end, issue_count, result, issues
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	RETURNING created_at`

type repo struct {
	db         *sql.DB
	criteria   criteria.System
	sales      sales.System
	storage    storage.System
	runner     *abcxyz.Runner
	cache      *cache.Cache
	opts       Options
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis service implementing System. A single runner is
// shared by database and import runs, so at most one run executes at a time.
func New(
	db *sql.DB,
	criteria criteria.System,
	sales sales.System,
	storage storage.System,
	opts Options,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	logger = logger.With("system", "analysis")

	ttl := opts.ResultTTL
	if ttl <= 0 {
		ttl = cache.NoExpiration
	}

	observe := func(s abcxyz.Status) {
		logger.Debug("run stage", "stage", s.Stage, "products", s.Products)
	}

	return &repo{
		db:         db,
		criteria:   criteria,
		sales:      sales,
		storage:    storage,
		runner:     abcxyz.NewRunner(opts.Engine, observe),
		cache:      cache.New(ttl, 10*time.Minute),
		opts:       opts,
		logger:     logger,
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination, r.opts.MaxUploadSize)
}

func (r *repo) Status() abcxyz.Status {
	return r.runner.Status()
}

func (r *repo) RunDatabase(ctx context.Context) (*Run, error) {
	c, err := r.criteria.Load(ctx)
	if err != nil {
		return nil, err
	}

	result, issues, err := r.execute(ctx, r.sales.Source(), c)
	if err != nil {
		return nil, err
	}

	run := &Run{
		Summary: newSummary(uuid.New(), SourceDatabase, c, result, len(issues)),
		Result:  result,
		Issues:  issues,
	}

	if err := r.insert(ctx, run); err != nil {
		return nil, dbErrors.Map(err)
	}

	r.remember(run)
	return run, nil
}

func (r *repo) RunImport(ctx context.Context, cmd ImportCommand) (*Run, error) {
	upload, err := imports.Read(cmd.Filename, cmd.Data, r.opts.MaxUploadSize)
	if err != nil {
		return nil, err
	}

	c, err := r.criteria.Load(ctx)
	if err != nil {
		return nil, err
	}

	src := abcxyz.SourceFunc(func(context.Context) (*abcxyz.Dataset, error) {
		return upload.Dataset(r.opts.MaxMonths)
	})

	result, issues, err := r.execute(ctx, src, c)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	key := storageKey(id, upload.Filename)

	if err := r.storage.Upload(ctx, key, bytes.NewReader(upload.Data), upload.Format.ContentType()); err != nil {
		return nil, fmt.Errorf("archive import: %w", err)
	}

	run := &Run{
		Summary: newSummary(id, SourceImport, c, result, len(issues)),
		Result:  result,
		Issues:  issues,
	}
	run.Filename = &upload.Filename
	run.StorageKey = &key

	if err := r.insert(ctx, run); err != nil {
		if delErr := r.storage.Delete(ctx, key); delErr != nil {
			r.logger.Warn("compensating blob delete failed", "key", key, "error", delErr)
		}
		return nil, dbErrors.Map(err)
	}

	r.remember(run)
	return run, nil
}

func (r *repo) Precheck(ctx context.Context) (*Precheck, error) {
	c, err := r.criteria.Load(ctx)
	if err != nil {
		return nil, err
	}

	p, err := r.sales.Precheck(ctx)
	if err != nil {
		return nil, err
	}

	return &Precheck{Precheck: p, Config: c}, nil
}

func (r *repo) Latest(ctx context.Context, source *Source) (*Run, error) {
	key := latestKey(source)
	if cached, ok := r.cache.Get(key); ok {
		return cached.(*Run), nil
	}

	var filter *string
	if source != nil {
		s := string(*source)
		filter = &s
	}

	q, args := query.
		NewBuilder(runProjection, defaultSort).
		WhereEquals("Source", filter).
		BuildFirst()

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		err = dbErrors.Map(err)
		if errors.Is(err, ErrNotFound) && source != nil {
			return nil, fmt.Errorf("%w for source %s", ErrNotFound, *source)
		}
		return nil, err
	}

	r.cache.SetDefault(key, &run)
	return &run, nil
}

func (r *repo) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Summary], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(summaryProjection, defaultSort).
		WhereSearch(page.Search, "Filename")

	filters.Apply(qb).OrderByFields(page.Sort)

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.PageSize, page.Offset())
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanSummary)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	result := pagination.NewPageResult(items, total, page)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := query.NewBuilder(runProjection).BuildSingle("ID", id)

	run, err := repository.QueryOne(ctx, r.db, q, args, scanRun)
	if err != nil {
		return nil, dbErrors.Map(err)
	}
	return &run, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	run, err := r.Find(ctx, id)
	if err != nil {
		return err
	}

	_, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (struct{}, error) {
		return struct{}{}, repository.ExecExpectOne(
			ctx, tx,
			"DELETE FROM abcxyz_runs WHERE id = $1",
			id,
		)
	})

	if err != nil {
		return dbErrors.Map(err)
	}

	r.forget()

	if run.StorageKey != nil {
		if delErr := r.storage.Delete(ctx, *run.StorageKey); delErr != nil {
			r.logger.Warn(
				"blob delete failed after DB delete",
				"key", *run.StorageKey,
				"error", delErr,
			)
		}
	}

	r.logger.Info("run deleted", "id", id)
	return nil
}

func (r *repo) Export(ctx context.Context, id uuid.UUID, format imports.Format) (*File, error) {
	run, err := r.Find(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := imports.Export(run.Result, format)
	if err != nil {
		return nil, err
	}

	base := "abcxyz_" + run.CreatedAt.UTC().Format("20060102_150405")
	return &File{
		Filename:    format.Filename(base),
		ContentType: format.ContentType(),
		Data:        data,
	}, nil
}

// execute runs src through the shared runner, keeping the ingestion issues
// the source reported.
func (r *repo) execute(ctx context.Context, src abcxyz.Source, c abcxyz.Criteria) (*abcxyz.Result, []abcxyz.Issue, error) {
	issues := []abcxyz.Issue{}

	capture := abcxyz.SourceFunc(func(ctx context.Context) (*abcxyz.Dataset, error) {
		ds, err := src.Load(ctx)
		if ds != nil && len(ds.Issues) > 0 {
			issues = ds.Issues
		}
		return ds, err
	})

	result, err := r.runner.Run(ctx, capture, c)
	if err != nil {
		return nil, nil, err
	}
	return result, issues, nil
}

func (r *repo) insert(ctx context.Context, run *Run) error {
	criteriaJSON, err := json.Marshal(run.Criteria)
	if err != nil {
		return fmt.Errorf("marshal criteria: %w", err)
	}
	resultJSON, err := json.Marshal(run.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	issuesJSON, err := json.Marshal(run.Issues)
	if err != nil {
		return fmt.Errorf("marshal issues: %w", err)
	}

	args := []any{
		run.ID,
		string(run.Source),
		run.Filename,
		run.StorageKey,
		criteriaJSON,
		string(run.Basis),
		run.Products,
		run.PeriodStart,
		run.PeriodEnd,
		run.IssueCount,
		resultJSON,
		issuesJSON,
	}

	created, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (time.Time, error) {
		var t time.Time
		err := tx.QueryRowContext(ctx, insertQuery, args...).Scan(&t)
		return t, err
	})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	run.CreatedAt = created
	return nil
}

// remember replaces the cached latest run for any source and for the
// run's own source.
func (r *repo) remember(run *Run) {
	source := run.Source
	r.cache.SetDefault(latestKey(nil), run)
	r.cache.SetDefault(latestKey(&source), run)

	r.logger.Info("run completed",
		"id", run.ID,
		"source", run.Source,
		"basis", run.Basis,
		"products", run.Products,
		"issues", run.IssueCount,
	)
}

// forget drops every cached latest run.
func (r *repo) forget() {
	r.cache.Delete(latestKey(nil))
	for _, source := range []Source{SourceDatabase, SourceImport} {
		r.cache.Delete(latestKey(&source))
	}
}

func storageKey(id uuid.UUID, filename string) string {
	return fmt.Sprintf("imports/%s/%s", id, filename)
}
