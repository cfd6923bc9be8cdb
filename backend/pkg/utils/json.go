package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// ExtraDataAfterJSONError is returned when a payload contains data after the
// first JSON value.
type ExtraDataAfterJSONError struct{}

func (e *ExtraDataAfterJSONError) Error() string {
	return "extra data after JSON object"
}

// ToJSON serializes v to JSON without escaping HTML characters.
func ToJSON(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	// Encode appends a trailing newline
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ToJSONIndent serializes v to indented JSON without escaping HTML characters.
func ToJSONIndent(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ToJSONStream writes v as JSON to w without escaping HTML characters.
func ToJSONStream(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// ToJSONStreamIndent writes v as indented JSON to w without escaping HTML
// characters.
func ToJSONStreamIndent(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// FromJSON deserializes b into T. Unknown fields are rejected, as is any data
// after the first JSON value. Empty input yields the zero value.
//
//nolint:ireturn // Generic functions must return type parameter T
func FromJSON[T any](b []byte) (T, error) {
	var res T

	if len(bytes.TrimSpace(b)) == 0 {
		return res, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()

	if err := dec.Decode(&res); err != nil {
		return res, err
	}

	if err := ensureEOF(dec); err != nil {
		var zero T

		return zero, err
	}

	return res, nil
}

// FromJSONStream deserializes a single JSON value from r into T. Unknown
// fields are rejected, as is any data after the first JSON value.
//
//nolint:ireturn // Generic functions must return type parameter T
func FromJSONStream[T any](r io.Reader) (T, error) {
	var res T

	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&res); err != nil {
		return res, err
	}

	if err := ensureEOF(dec); err != nil {
		var zero T

		return zero, err
	}

	return res, nil
}

func ensureEOF(dec *json.Decoder) error {
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return &ExtraDataAfterJSONError{}
	}

	return nil
}
