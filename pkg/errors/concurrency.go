package errors

// ConcurrencyError is a specialized error type for the core's protocol-level
// concurrency failures: shutdown in progress, a second writer rejected, or a
// mutating call against a read-only handle.
type ConcurrencyError struct {
	*baseError
	operation string // What call was rejected, e.g. "Register", "Flush", "Merge".
}

// NewConcurrencyError creates a new concurrency-specific error.
func NewConcurrencyError(err error, code ErrorCode, msg string) *ConcurrencyError {
	return &ConcurrencyError{baseError: NewBaseError(err, code, msg)}
}

// WithOperation records which call was rejected.
func (ce *ConcurrencyError) WithOperation(operation string) *ConcurrencyError {
	ce.operation = operation
	return ce
}

// Operation returns the call that was rejected.
func (ce *ConcurrencyError) Operation() string {
	return ce.operation
}

// ResourceError is a specialized error type for exhaustion of a bounded
// resource: the active partition set, the reader-slot semaphore, or
// update-lexicon memory.
type ResourceError struct {
	*baseError
	resource string // Which bounded resource was exhausted, e.g. "partitions", "readers".
	limit    int    // The configured limit that was reached.
}

// NewResourceError creates a new resource-exhaustion error.
func NewResourceError(err error, code ErrorCode, msg string) *ResourceError {
	return &ResourceError{baseError: NewBaseError(err, code, msg)}
}

// WithResource records which bounded resource was exhausted.
func (re *ResourceError) WithResource(resource string) *ResourceError {
	re.resource = resource
	return re
}

// WithLimit records the configured limit that was reached.
func (re *ResourceError) WithLimit(limit int) *ResourceError {
	re.limit = limit
	return re
}

// Resource returns the name of the exhausted resource.
func (re *ResourceError) Resource() string {
	return re.resource
}

// Limit returns the configured limit that was reached.
func (re *ResourceError) Limit() int {
	return re.limit
}

// ErrShuttingDown is returned by the manager's Ingest, Query, Register and
// Close once shutdown has been initiated; callers should stop issuing new operations.
func ErrShuttingDown(operation string) *ConcurrencyError {
	return NewConcurrencyError(nil, ErrorCodeShuttingDown, "operation rejected: shutdown in progress").
		WithOperation(operation)
}

// ErrConcurrentUpdate is returned when a second writer attempts to mutate a
// single-writer structure (the update lexicon, a partition writer).
func ErrConcurrentUpdate(operation string) *ConcurrencyError {
	return NewConcurrencyError(nil, ErrorCodeConcurrentUpdate, "operation rejected: a writer is already active").
		WithOperation(operation)
}

// ErrReadOnly is returned when a mutating call is made against a read-only
// handle.
func ErrReadOnly(operation string) *ConcurrencyError {
	return NewConcurrencyError(nil, ErrorCodeReadOnly, "operation rejected: handle is read-only").
		WithOperation(operation)
}

// ErrResourceExhausted is returned when a bounded resource has no remaining
// capacity, e.g. the active set already holds MAX_INDEX_COUNT partitions.
func ErrResourceExhausted(resource string, limit int) *ResourceError {
	return NewResourceError(nil, ErrorCodeResourceExhausted, "resource exhausted").
		WithResource(resource).
		WithLimit(limit)
}
