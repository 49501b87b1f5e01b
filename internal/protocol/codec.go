package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrUnknownType = errors.New("unknown message type")
	ErrNilMessage  = errors.New("nil message")
)

// DecodeError means one frame could not be turned into a Message.
// The frame boundary is intact, so the connection can keep reading.
type DecodeError struct {
	Type Kind
	Err  error
}

func (e *DecodeError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("decode message: %v", e.Err)
	}
	return fmt.Sprintf("decode %q message: %v", e.Type, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

type envelope struct {
	Type Kind            `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, ErrNilMessage
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", m.Kind(), err)
	}
	return json.Marshal(envelope{Type: m.Kind(), Data: data})
}

// Decode returns a pointer to the concrete message struct for the envelope's type.
// Any failure is a *DecodeError.
func Decode(b []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, &DecodeError{Err: err}
	}
	factory, ok := factories[env.Type]
	if !ok {
		return nil, &DecodeError{Type: env.Type, Err: ErrUnknownType}
	}
	m := factory()
	if len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, m); err != nil {
			return nil, &DecodeError{Type: env.Type, Err: err}
		}
	}
	return m, nil
}
