package database

import "errors"

// ErrNotReady wraps failures to reach the database server.
var ErrNotReady = errors.New("database not ready")
