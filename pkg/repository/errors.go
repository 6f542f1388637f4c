package repository

import (
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes.
const (
	pgUniqueViolation = "23505"
	pgCheckViolation  = "23514"
	pgNotNull         = "23502"
)

// MySQL and MariaDB server error numbers.
const (
	myDuplicateEntry     = 1062
	myCheckViolation     = 3819
	myColumnCannotBeNull = 1048
)

// Errors holds the domain errors driver failures translate to. A nil
// field leaves the matching failure unchanged.
type Errors struct {
	NotFound  error
	Duplicate error
	Invalid   error
}

// Map translates err for the PostgreSQL and MySQL drivers: missing rows
// become NotFound, unique violations Duplicate, and check or not-null
// violations Invalid. Anything else is returned as is.
func (e Errors) Map(err error) error {
	if err == nil {
		return nil
	}

	var target error
	switch {
	case errors.Is(err, sql.ErrNoRows):
		target = e.NotFound
	case isCode(err, pgUniqueViolation, myDuplicateEntry):
		target = e.Duplicate
	case isCode(err, pgCheckViolation, myCheckViolation), isCode(err, pgNotNull, myColumnCannotBeNull):
		target = e.Invalid
	}

	if target == nil {
		return err
	}
	return target
}

func isCode(err error, pg string, my uint16) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pg
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == my
	}

	return false
}
