package notification

import (
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
)

// Notification is implemented by every outbox message, normally by embedding Base.
type Notification interface {
	Meta() Base
}

// Base carries the metadata shared by all notifications.
type Base struct {
	ID        uuid.UUID        `json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	Sender    string           `json:"sender,omitempty"`
	Result    ProcessingResult `json:"result"`
}

// NewBase returns metadata with a fresh time-ordered id.
func NewBase(sender string) Base {
	return Base{
		ID:        uuid.Must(uuid.NewV7()),
		CreatedAt: time.Now().UTC(),
		Sender:    sender,
	}
}

// Meta returns b itself.
func (b Base) Meta() Base { return b }

// WithResult returns a copy of n carrying r. n itself is not modified.
// Base may be embedded directly or promoted through other embedded structs.
// Notifications without a reachable Base yield ErrInvalidState.
func WithResult(n Notification, r ProcessingResult) (Notification, error) {
	if isNil(n) {
		return nil, ErrNilNotification
	}
	if b, ok := n.(Base); ok {
		b.Result = r
		return b, nil
	}
	if b, ok := n.(*Base); ok {
		cp := *b
		cp.Result = r
		return &cp, nil
	}

	v := reflect.ValueOf(n)
	var cp reflect.Value
	switch {
	case v.Kind() == reflect.Pointer && v.Elem().Kind() == reflect.Struct:
		cp = reflect.New(v.Elem().Type())
		cp.Elem().Set(v.Elem())
		if !setResult(cp.Elem(), r) {
			return nil, invalidState(n)
		}
	case v.Kind() == reflect.Struct:
		cp = reflect.New(v.Type()).Elem()
		cp.Set(v)
		if !setResult(cp, r) {
			return nil, invalidState(n)
		}
	default:
		return nil, invalidState(n)
	}
	return cp.Interface().(Notification), nil
}

// Validate reports whether n can be written to an outbox: it must be non-nil,
// carry an id and be able to hold a processing result.
func Validate(n Notification) error {
	if isNil(n) {
		return ErrNilNotification
	}
	meta := n.Meta()
	if meta.ID == uuid.Nil {
		return fmt.Errorf("%w: %T", ErrMissingID, n)
	}
	if _, err := WithResult(n, meta.Result); err != nil {
		return err
	}
	return nil
}

var (
	baseType    = reflect.TypeFor[Base]()
	basePtrType = reflect.TypeFor[*Base]()
)

// setResult writes r into the Base promoted to the struct v. Embedded
// pointers on the way are replaced by copies so the source stays untouched.
func setResult(v reflect.Value, r ProcessingResult) bool {
	f, ok := v.Type().FieldByName("Base")
	if !ok || !f.Anonymous || (f.Type != baseType && f.Type != basePtrType) {
		return false
	}

	for _, i := range f.Index {
		if v.Kind() == reflect.Pointer {
			if v = detach(v); !v.IsValid() {
				return false
			}
		}
		v = v.Field(i)
	}
	if v.Type() == basePtrType {
		if v = detach(v); !v.IsValid() {
			return false
		}
	}
	if !v.CanSet() {
		return false
	}

	v.FieldByName("Result").Set(reflect.ValueOf(r))
	return true
}

// detach points the pointer field p at a copy of its target and returns the
// copy. It returns the zero Value when p is nil or not settable.
func detach(p reflect.Value) reflect.Value {
	if p.IsNil() || !p.CanSet() {
		return reflect.Value{}
	}
	cp := reflect.New(p.Type().Elem())
	cp.Elem().Set(p.Elem())
	p.Set(cp)
	return cp.Elem()
}

// isNil reports whether n is nil or a typed nil pointer.
func isNil(n Notification) bool {
	if n == nil {
		return true
	}
	v := reflect.ValueOf(n)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func invalidState(n Notification) error {
	return fmt.Errorf("%w: %T", ErrInvalidState, n)
}
