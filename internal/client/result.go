package client

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Result is the decoded JSON body of a gateway call. Callers must check
// OK before trusting any other field.
type Result struct {
	raw    json.RawMessage
	fields map[string]json.RawMessage
}

// FailureResult builds the uniform failure envelope.
func FailureResult(message string) Result {
	raw, _ := json.Marshal(map[string]any{
		"status":  0,
		"error":   true,
		"message": message,
	})
	return ParseResult(raw)
}

// ParseResult never fails. An empty or malformed body gives an empty Result.
func ParseResult(body []byte) Result {
	body = bytes.TrimSpace(body)
	var fields map[string]json.RawMessage
	if len(body) == 0 || json.Unmarshal(body, &fields) != nil {
		return Result{}
	}
	return Result{raw: json.RawMessage(body), fields: fields}
}

func (r Result) Empty() bool { return len(r.fields) == 0 }

// Raw returns the body verbatim, or "{}" for an empty result.
func (r Result) Raw() json.RawMessage {
	if len(r.raw) == 0 {
		return json.RawMessage("{}")
	}
	return r.raw
}

func (r Result) MarshalJSON() ([]byte, error) { return r.Raw(), nil }

// Status is the gateway's numeric status discriminator, 0 when absent.
func (r Result) Status() int {
	n, _ := strconv.Atoi(r.String("status"))
	return n
}

func (r Result) IsError() bool {
	var b bool
	if json.Unmarshal(r.fields["error"], &b) == nil && b {
		return true
	}
	return false
}

// OK is true only for status=1 without the error flag.
func (r Result) OK() bool { return r.Status() == 1 && !r.IsError() }

// Message reads "msg" (gateway) or "message" (failure envelope).
func (r Result) Message() string {
	if m := r.String("msg"); m != "" {
		return m
	}
	return r.String("message")
}

func (r Result) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// String renders a scalar field as text. Numbers keep their JSON form.
func (r Result) String(key string) string {
	return rawString(r.fields[key])
}

// Decode unmarshals one top-level field into v.
func (r Result) Decode(key string, v any) error {
	raw, ok := r.fields[key]
	if !ok {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// DecodeAll unmarshals the whole body into v.
func (r Result) DecodeAll(v any) error {
	return json.Unmarshal(r.Raw(), v)
}

func rawString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	return strings.Trim(string(raw), `"`)
}

// Text accepts a JSON string, number or null. The gateway is not
// consistent about quoting ids and amounts.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	*t = Text(rawString(b))
	return nil
}

func (t Text) String() string { return string(t) }
