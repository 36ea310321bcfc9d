package whoscored

import "github.com/cockroachdb/errors"

var (
	// ErrDriver marks browser launch and navigation failures.
	ErrDriver = errors.New("browser driver failure")
	// ErrTableNotFound means the stats element is missing from the rendered page.
	ErrTableNotFound = errors.New("stats table not found")
	// ErrSchemaMismatch is returned when a table has no stat columns to coerce.
	ErrSchemaMismatch = errors.New("stats table schema mismatch")
	// ErrPersist marks artifact write failures.
	ErrPersist = errors.New("persist failure")
)
