// Package result provides outcome values returned by request handlers.
//
// A Result reports success or failure of an operation that produces no value.
// Of[T] does the same for operations that produce a value of type T.
// Failures carry a plain error; the error kinds in this package
// (ValidationError, NotFoundError, UnexpectedError, DomainError) cover the
// cases the messaging core produces itself.
//
// Both outcome types implement Outcome, which lets generic code build a
// failure value of the same concrete type without knowing T:
//
//	var zero result.Of[User]
//	failed := zero.AsFailure(result.NewValidationError(
//		result.ValidationFailure{Field: "Email", Message: "is required"},
//	)).(result.Of[User])
package result
