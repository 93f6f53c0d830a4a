package result

// Outcome is implemented by response types that can express failure as a value.
// AsFailure returns a failure of the receiver's own concrete type carrying err.
type Outcome interface {
	IsSuccess() bool
	Err() error
	AsFailure(err error) any
}

// Result is the outcome of an operation without a payload.
// The zero value is a success.
type Result struct {
	err error
}

// Success returns a successful Result.
func Success() Result {
	return Result{}
}

// Failure returns a failed Result. A nil error is replaced with ErrUnknown
// so that a failure can never be mistaken for success.
func Failure(err error) Result {
	if err == nil {
		err = ErrUnknown
	}
	return Result{err: err}
}

// IsSuccess reports whether the operation succeeded.
func (r Result) IsSuccess() bool { return r.err == nil }

// Err returns the failure cause, or nil on success.
func (r Result) Err() error { return r.err }

// AsFailure implements Outcome.
func (r Result) AsFailure(err error) any { return Failure(err) }

// Of is the outcome of an operation producing a value of type T.
type Of[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](v T) Of[T] {
	return Of[T]{value: v}
}

// Fail returns a failed outcome. A nil error is replaced with ErrUnknown.
func Fail[T any](err error) Of[T] {
	if err == nil {
		err = ErrUnknown
	}
	return Of[T]{err: err}
}

// Value returns the wrapped value and whether the outcome is a success.
// On failure the zero value of T is returned.
func (o Of[T]) Value() (T, bool) {
	if o.err != nil {
		var zero T
		return zero, false
	}
	return o.value, true
}

// IsSuccess reports whether the operation succeeded.
func (o Of[T]) IsSuccess() bool { return o.err == nil }

// Err returns the failure cause, or nil on success.
func (o Of[T]) Err() error { return o.err }

// AsFailure implements Outcome.
func (o Of[T]) AsFailure(err error) any { return Fail[T](err) }

// Unwrap converts o into a plain (value, error) pair.
func (o Of[T]) Unwrap() (T, error) {
	if o.err != nil {
		var zero T
		return zero, o.err
	}
	return o.value, nil
}
