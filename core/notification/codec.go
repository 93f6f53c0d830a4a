package notification

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sync"

	"github.com/tidwall/gjson"
)

var (
	typesMu sync.RWMutex
	types   = make(map[string]reflect.Type)

	typeNameCache sync.Map // reflect.Type -> string
)

// RegisterType makes N decodable by Decode under its bare type name.
// It panics if a different type already uses the same name.
//
// Names omit the package path, so users.Registered and billing.Registered
// collide. Give notification types distinct names.
func RegisterType[N Notification]() {
	t := reflect.TypeFor[N]()
	name := typeNameOf(t)

	typesMu.Lock()
	defer typesMu.Unlock()

	if existing, ok := types[name]; ok && existing != t {
		panic(fmt.Sprintf("notification type %q already registered as %s", name, existing))
	}
	types[name] = t
}

// TypeName returns the registry name of n's type. For a Raw it is the
// name the entry was stored under.
func TypeName(n Notification) string {
	if isNil(n) {
		return ""
	}
	if r, ok := rawOf(n); ok {
		return r.Type
	}
	return typeNameOf(reflect.TypeOf(n))
}

func typeNameOf(t reflect.Type) string {
	if name, ok := typeNameCache.Load(t); ok {
		return name.(string)
	}

	original := t
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	name := t.Name()
	if name == "" {
		name = t.String()
	}

	typeNameCache.Store(original, name)
	return name
}

// Encode returns the type name and JSON payload of n.
func Encode(n Notification) (string, []byte, error) {
	if isNil(n) {
		return "", nil, ErrNilNotification
	}
	if r, ok := rawOf(n); ok {
		return r.Type, r.Payload, nil
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return "", nil, fmt.Errorf("encode notification %T: %w", n, err)
	}
	return TypeName(n), payload, nil
}

// Decode rebuilds a notification of the registered type typeName from payload.
func Decode(typeName string, payload []byte) (Notification, error) {
	typesMu.RLock()
	t, ok := types[typeName]
	typesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	target := t
	if t.Kind() == reflect.Pointer {
		target = t.Elem()
	}
	v := reflect.New(target)
	if err := json.Unmarshal(payload, v.Interface()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, typeName, err)
	}
	if t.Kind() != reflect.Pointer {
		v = v.Elem()
	}

	n, ok := v.Interface().(Notification)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not implement Notification", ErrInvalidPayload, typeName)
	}
	return n, nil
}

// envelope is the self-describing form used by stores that keep a single blob.
type envelope struct {
	Type         string           `json:"type"`
	Result       ProcessingResult `json:"result"`
	Notification json.RawMessage  `json:"notification"`
}

// EncodeEnvelope encodes n together with its type name and processing result.
func EncodeEnvelope(n Notification) ([]byte, error) {
	name, payload, err := Encode(n)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: name, Result: n.Meta().Result, Notification: payload})
}

// DecodeEnvelope decodes data produced by EncodeEnvelope. The envelope's
// result replaces the one embedded in the body.
func DecodeEnvelope(data []byte) (Notification, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: malformed envelope", ErrInvalidPayload)
	}
	typeName := gjson.GetBytes(data, "type").String()
	payload := gjson.GetBytes(data, "notification")
	if typeName == "" || !payload.Exists() {
		return nil, fmt.Errorf("%w: envelope without type or body", ErrInvalidPayload)
	}
	n, err := Decode(typeName, []byte(payload.Raw))
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(data, "result")
	if !result.Exists() {
		return n, nil
	}
	var r ProcessingResult
	if err := json.Unmarshal([]byte(result.Raw), &r); err != nil {
		return nil, fmt.Errorf("%w: envelope result: %v", ErrInvalidPayload, err)
	}
	return WithResult(n, r)
}

// PeekType returns the type name stored in an envelope without decoding the body.
func PeekType(data []byte) string {
	return gjson.GetBytes(data, "type").String()
}
