package repository_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/JaimeStill/verne/pkg/repository"
)

var (
	errNotFound  = errors.New("run not found")
	errDuplicate = errors.New("run already exists")
	errInvalid   = errors.New("invalid criteria")
)

func TestErrorsMap(t *testing.T) {
	all := repository.Errors{NotFound: errNotFound, Duplicate: errDuplicate, Invalid: errInvalid}
	other := errors.New("connection reset")

	tests := []struct {
		name   string
		errors repository.Errors
		err    error
		want   error
	}{
		{"nil", all, nil, nil},
		{"no rows", all, sql.ErrNoRows, errNotFound},
		{"wrapped no rows", all, fmt.Errorf("find run: %w", sql.ErrNoRows), errNotFound},
		{"postgres unique", all, &pgconn.PgError{Code: "23505"}, errDuplicate},
		{"postgres check", all, &pgconn.PgError{Code: "23514"}, errInvalid},
		{"postgres not null", all, &pgconn.PgError{Code: "23502"}, errInvalid},
		{"mysql duplicate entry", all, &mysql.MySQLError{Number: 1062}, errDuplicate},
		{"mysql check", all, &mysql.MySQLError{Number: 3819}, errInvalid},
		{"postgres foreign key passes through", all, &pgconn.PgError{Code: "23503"}, nil},
		{"unrelated passes through", all, other, other},
		{"unset target passes through", repository.Errors{NotFound: errNotFound}, &pgconn.PgError{Code: "23505"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.errors.Map(tt.err)

			switch {
			case tt.err == nil:
				if got != nil {
					t.Errorf("Map(nil) = %v", got)
				}
			case tt.want == nil:
				if got != tt.err {
					t.Errorf("Map() = %v, want original %v", got, tt.err)
				}
			case !errors.Is(got, tt.want):
				t.Errorf("Map() = %v, want %v", got, tt.want)
			}
		})
	}
}
