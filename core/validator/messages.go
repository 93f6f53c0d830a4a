package validator

import (
	"reflect"

	playground "github.com/go-playground/validator/v10"
)

func defaultMessage(fe playground.FieldError) string {
	param := fe.Param()
	sized := isSized(fe.Kind())

	switch fe.Tag() {
	case "required", "required_if", "required_unless", "required_with", "required_without":
		return "is required"
	case "min", "gte":
		if sized {
			return "must contain at least " + param + " " + unit(fe.Kind())
		}
		return "must be at least " + param
	case "max", "lte":
		if sized {
			return "must contain at most " + param + " " + unit(fe.Kind())
		}
		return "must be at most " + param
	case "len":
		if sized {
			return "must contain exactly " + param + " " + unit(fe.Kind())
		}
		return "must be equal to " + param
	case "gt":
		return "must be greater than " + param
	case "lt":
		return "must be less than " + param
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4", "uuid7":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + param
	case "alphanum":
		return "must contain only letters and digits"
	case "alpha":
		return "must contain only letters"
	case "numeric", "number":
		return "must be numeric"
	case "datetime":
		return "must match the date format " + param
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}

func isSized(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Slice, reflect.Array, reflect.Map:
		return true
	default:
		return false
	}
}

func unit(k reflect.Kind) string {
	if k == reflect.String {
		return "characters"
	}
	return "items"
}
