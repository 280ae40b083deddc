package ankiconnect

import (
	"bytes"
	"encoding/json"
	"fmt"

	"yanki-connect/internal/domain"
)

// request is the body posted for every action. Params is omitted for
// parameterless actions and Key when no credential is configured.
type request struct {
	Action  string `json:"action"`
	Params  any    `json:"params,omitempty"`
	Version int    `json:"version"`
	Key     string `json:"key,omitempty"`
}

// Envelope is an untyped AnkiConnect response. Error is nil on success; when it
// is set Result must be ignored.
type Envelope struct {
	Error  *string         `json:"error"`
	Result json.RawMessage `json:"result"`
}

// Failed reports whether the server returned an in-band error.
func (e *Envelope) Failed() bool { return e.Error != nil }

// Response is the typed form of Envelope for one catalog action.
type Response[R any] struct {
	Action string  `json:"-"`
	Error  *string `json:"error"`
	Result R       `json:"result"`
}

// Err returns the in-band error as an *ActionError, or nil.
func (r *Response[R]) Err() error {
	if r.Error == nil {
		return nil
	}
	return &ActionError{Action: r.Action, Message: *r.Error}
}

var jsonNull = []byte("null")

// decodeEnvelope validates a response body. Bytes that are not JSON at all are
// a transport failure; a JSON value that is not an object carrying both the
// error and result keys is a malformed envelope.
func decodeEnvelope(body []byte) (*Envelope, error) {
	if !json.Valid(body) {
		return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrTransport, "response body is not valid JSON")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrMalformedResponse, "response is not a JSON object")
	}

	rawErr, ok := fields["error"]
	if !ok {
		return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrMalformedResponse, "response is missing required error field")
	}
	rawResult, ok := fields["result"]
	if !ok {
		return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrMalformedResponse, "response is missing required result field")
	}

	env := &Envelope{Result: rawResult}
	if !bytes.Equal(bytes.TrimSpace(rawErr), jsonNull) {
		var msg string
		if err := json.Unmarshal(rawErr, &msg); err != nil {
			return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrMalformedResponse,
				fmt.Sprintf("error field is neither a string nor null: %s", rawErr))
		}
		env.Error = &msg
	}
	return env, nil
}

// typed converts env into a Response[R]. The result is only decoded when the
// envelope carries no error.
func typed[R any](action string, env *Envelope) (*Response[R], error) {
	resp := &Response[R]{Action: action, Error: env.Error}
	if env.Error != nil || len(env.Result) == 0 {
		return resp, nil
	}
	if err := json.Unmarshal(env.Result, &resp.Result); err != nil {
		return nil, domain.NewDomainError("ankiconnect.decode", domain.ErrMalformedResponse,
			fmt.Sprintf("%s result does not match %T: %v", action, resp.Result, err))
	}
	return resp, nil
}

// NoResult is the result type of actions whose result carries no information.
// It accepts any JSON value.
type NoResult struct{}

// UnmarshalJSON discards the value.
func (*NoResult) UnmarshalJSON([]byte) error { return nil }

// FalseOr holds results that are either a value or the literal false (or null)
// when nothing matched, such as retrieveMediaFile.
type FalseOr[T any] struct {
	Value T
	Valid bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *FalseOr[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("false")) || bytes.Equal(trimmed, jsonNull) {
		var zero T
		f.Value, f.Valid = zero, false
		return nil
	}
	if err := json.Unmarshal(trimmed, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FalseOr[T]) MarshalJSON() ([]byte, error) {
	if !f.Valid {
		return []byte("false"), nil
	}
	return json.Marshal(f.Value)
}
