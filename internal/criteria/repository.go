package criteria

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JaimeStill/verne/pkg/abcxyz"
	"github.com/JaimeStill/verne/pkg/repository"
)

const (
	selectQuery = `
		SELECT a_cut, b_cut, x_cut, y_cut
		FROM abcxyz_criteria
		WHERE id = 1`

	lockQuery = selectQuery + `
		FOR UPDATE`

	seedQuery = `
		INSERT INTO abcxyz_criteria(id, a_cut, b_cut, x_cut, y_cut)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING`

	upsertQuery = `
		INSERT INTO abcxyz_criteria(id, a_cut, b_cut, x_cut, y_cut)
		VALUES (1, $1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET a_cut = EXCLUDED.a_cut,
			b_cut = EXCLUDED.b_cut,
			x_cut = EXCLUDED.x_cut,
			y_cut = EXCLUDED.y_cut,
			updated_at = NOW()
		RETURNING a_cut, b_cut, x_cut, y_cut`
)

type repo struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a PostgreSQL-backed criteria store implementing System.
func New(db *sql.DB, logger *slog.Logger) System {
	return &repo{
		db:     db,
		logger: logger.With("system", "criteria"),
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger)
}

func (r *repo) Load(ctx context.Context) (abcxyz.Criteria, error) {
	c, err := repository.QueryOne(ctx, r.db, selectQuery, nil, scanCriteria)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return abcxyz.Criteria{}, fmt.Errorf("load criteria: %w", err)
	}

	c, err = repository.WithTx(ctx, r.db, func(tx *sql.Tx) (abcxyz.Criteria, error) {
		d := abcxyz.DefaultCriteria()
		if _, err := tx.ExecContext(ctx, seedQuery, d.ACut, d.BCut, d.XCut, d.YCut); err != nil {
			return abcxyz.Criteria{}, err
		}
		return repository.QueryOne(ctx, tx, selectQuery, nil, scanCriteria)
	})
	if err != nil {
		return abcxyz.Criteria{}, fmt.Errorf("seed criteria: %w", err)
	}

	r.logger.Info("criteria initialized with defaults")
	return c, nil
}

func (r *repo) Save(ctx context.Context, patch abcxyz.CriteriaPatch) (abcxyz.Criteria, error) {
	if patch.Empty() {
		return abcxyz.Criteria{}, ErrEmptyPatch
	}

	c, err := repository.WithTx(ctx, r.db, func(tx *sql.Tx) (abcxyz.Criteria, error) {
		current, err := repository.QueryOne(ctx, tx, lockQuery, nil, scanCriteria)
		if errors.Is(err, sql.ErrNoRows) {
			current = abcxyz.DefaultCriteria()
		} else if err != nil {
			return abcxyz.Criteria{}, err
		}

		merged := patch.Apply(current)
		if err := merged.Validate(); err != nil {
			return abcxyz.Criteria{}, err
		}

		args := []any{merged.ACut, merged.BCut, merged.XCut, merged.YCut}
		return repository.QueryOne(ctx, tx, upsertQuery, args, scanCriteria)
	})

	if err != nil {
		err = repository.Errors{Invalid: ErrInvalidValue}.Map(err)
		if errors.Is(err, ErrInvalidValue) {
			return abcxyz.Criteria{}, err
		}
		return abcxyz.Criteria{}, fmt.Errorf("save criteria: %w", err)
	}

	r.logger.Info(
		"criteria saved",
		"a_cut", c.ACut,
		"b_cut", c.BCut,
		"x_cut", c.XCut,
		"y_cut", c.YCut,
	)
	return c, nil
}

func scanCriteria(s repository.Scanner) (abcxyz.Criteria, error) {
	var c abcxyz.Criteria
	err := s.Scan(&c.ACut, &c.BCut, &c.XCut, &c.YCut)
	return c, err
}
