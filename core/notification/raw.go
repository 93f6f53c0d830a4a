package notification

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Raw is a stored notification whose type is not registered in this process.
// It keeps the metadata and the encoded body, so the entry can still be
// listed, marked and encoded again under its original type name.
//
// Handlers are never subscribed to Raw, so a publisher records such entries
// as having no handlers.
type Raw struct {
	Base
	Type    string          `json:"-"`
	Payload json.RawMessage `json:"-"`
}

// DecodeStored decodes like Decode, but returns a Raw for unregistered types
// instead of ErrUnknownType. Stores use it so a single foreign entry does not
// make a whole listing unreadable.
func DecodeStored(typeName string, payload []byte) (Notification, error) {
	n, err := Decode(typeName, payload)
	if !errors.Is(err, ErrUnknownType) {
		return n, err
	}

	var base Base
	if err := json.Unmarshal(payload, &base); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidPayload, typeName, err)
	}
	return Raw{Base: base, Type: typeName, Payload: slices.Clone(payload)}, nil
}

func rawOf(n Notification) (Raw, bool) {
	switch r := n.(type) {
	case Raw:
		return r, true
	case *Raw:
		if r == nil {
			return Raw{}, false
		}
		return *r, true
	default:
		return Raw{}, false
	}
}
