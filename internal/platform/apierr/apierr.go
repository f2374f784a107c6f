// Package apierr defines the single error shape every caller of the course API
// observes. Transport failures are classified into exactly one Kind so consumers
// switch on Kind (or Status for HTTP errors) instead of probing fields.
package apierr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"sort"
	"strings"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindHTTP       Kind = "http"
	KindNetwork    Kind = "network"
	KindTimeout    Kind = "timeout"
	KindUnexpected Kind = "unexpected"
)

const (
	MsgTimeout    = "Request timeout"
	MsgNoResponse = "No response received from server"
	MsgUnexpected = "An unexpected error occurred"
	MsgValidation = "Validation failed"
)

type Error struct {
	Kind    Kind
	Status  int
	Message string
	Body    json.RawMessage
	Headers http.Header
	// Fields holds per-field messages for validation failures and for HTTP 400
	// bodies shaped like {"field": ["msg", ...]}.
	Fields map[string]string
	Stack  string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case KindHTTP:
		return fmt.Sprintf("api error: status=%d message=%s", e.Status, e.Message)
	case KindValidation:
		if len(e.Fields) == 0 {
			return e.Message
		}
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, k+": "+e.Fields[k])
		}
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	default:
		return e.Message
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Decode unmarshals the HTTP body into v.
func (e *Error) Decode(v any) error {
	if e == nil || len(e.Body) == 0 {
		return errors.New("no error body")
	}
	return json.Unmarshal(e.Body, v)
}

func HTTP(status int, message string, body []byte, headers http.Header) *Error {
	if strings.TrimSpace(message) == "" {
		message = MsgUnexpected
	}
	var raw json.RawMessage
	if len(body) > 0 && json.Valid(body) {
		raw = append(json.RawMessage(nil), body...)
	}
	return &Error{
		Kind:    KindHTTP,
		Status:  status,
		Message: message,
		Body:    raw,
		Headers: headers,
		Fields:  fieldErrors(raw),
	}
}

func Network(err error) *Error {
	return &Error{Kind: KindNetwork, Message: MsgNoResponse, Err: err}
}

func Timeout(err error) *Error {
	return &Error{Kind: KindTimeout, Message: MsgTimeout, Err: err}
}

// Unexpected wraps local failures. The stack is captured only when withStack is
// set (development mode).
func Unexpected(err error, withStack bool) *Error {
	msg := MsgUnexpected
	if err != nil && strings.TrimSpace(err.Error()) != "" {
		msg = err.Error()
	}
	out := &Error{Kind: KindUnexpected, Message: msg, Err: err}
	if withStack {
		out.Stack = string(debug.Stack())
	}
	return out
}

func Validation(fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Message: MsgValidation, Fields: fields}
}

func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) && e != nil {
		return e, true
	}
	return nil, false
}

// From normalizes any error into an *Error. Already-normalized errors pass through.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout(err)
	}
	return Unexpected(err, false)
}

func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }
func IsNotFound(err error) bool     { return hasStatus(err, http.StatusNotFound) }
func IsForbidden(err error) bool    { return hasStatus(err, http.StatusForbidden) }

func IsKind(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}

func hasStatus(err error, status int) bool {
	e, ok := As(err)
	return ok && e.Kind == KindHTTP && e.Status == status
}

func fieldErrors(body json.RawMessage) map[string]string {
	if len(body) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	out := map[string]string{}
	for k, v := range obj {
		switch k {
		case "message", "detail", "error", "status", "success", "code":
			continue
		}
		var list []string
		if err := json.Unmarshal(v, &list); err == nil && len(list) > 0 {
			out[k] = strings.Join(list, " ")
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
