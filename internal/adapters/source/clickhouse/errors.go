package clickhouse

import "errors"

// Sentinel kinds for source result errors.
var (
	ErrColumnCount = errors.New("unexpected column count")
	ErrNullMonth   = errors.New("null month")
	ErrNonFinite   = errors.New("non-finite metric")
)
