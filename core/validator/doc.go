// Package validator validates request structs with go-playground/validator
// tags and reports violations as result.ValidationFailure values, the shape
// the validation behavior expects.
//
// # Basic Usage
//
//	type CreateUser struct {
//		request.CreateCommand[string]
//		Name  string `validate:"required,max=50"`
//		Email string `validate:"required,email"`
//	}
//
//	v := validator.New()
//	vs := behavior.NewValidators()
//	behavior.AddValidator(vs, validator.For[CreateUser](v))
//
// Field names in failures are the Go field path below the request struct,
// for example "Email" or "Address.City". Use WithFieldNameTag to report a tag
// value such as the json name instead.
//
// # Custom Rules
//
//	err := v.RegisterRule("slug", func(fl playground.FieldLevel) bool {
//		return slugPattern.MatchString(fl.Field().String())
//	}, "must be a valid slug")
package validator
