package api

import (
	"encoding/json"
	"errors"
)

// envelope is the {success, data, error} wrapper every endpoint returns.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Code    string          `json:"code,omitempty"`
}

// envelopeError accepts both `"error": "text"` and
// `"error": {"message": "...", "code": "..."}`.
type envelopeError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e *envelopeError) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		e.Message = s
		return nil
	}

	type plain envelopeError
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return errors.New("error field is neither a string nor an object")
	}
	*e = envelopeError(p)
	return nil
}
