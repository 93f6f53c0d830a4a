package request

import (
	"fmt"
	"reflect"
)

// isNil reports whether v is nil or a typed nil of a nilable kind.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

func typeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

func errUnexpectedRequest(sig Signature, req any) error {
	return fmt.Errorf("%w: %s expects %s, got %T", ErrUnexpectedRequest, sig, typeString(sig.Request), req)
}
