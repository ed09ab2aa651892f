package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/marketplace-client/pkg/errors"
	"github.com/angelmondragon/marketplace-client/pkg/types"
)

// Response is a successful (2xx) API answer.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the payload into dest. A top-level {"data": ...} envelope
// is unwrapped first.
func (r *Response) Decode(dest any) error {
	if r == nil || dest == nil {
		return nil
	}
	payload := bytes.TrimSpace(r.Body)
	if len(payload) == 0 {
		return nil
	}
	if data, ok := envelopeData(payload); ok {
		payload = data
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response body")
	}
	return nil
}

func envelopeData(payload []byte) (json.RawMessage, bool) {
	if len(payload) == 0 || payload[0] != '{' {
		return nil, false
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, false
	}
	data, ok := envelope["data"]
	if !ok {
		return nil, false
	}
	return data, true
}

// HTTPError carries a non-2xx answer untouched so callers can inspect it.
type HTTPError struct {
	StatusCode int
	Method     string
	Path       string
	Body       []byte
}

func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message()
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// HTTPStatus implements the status hook read by pkg/errors.Dump.
func (e *HTTPError) HTTPStatus() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type errorBody struct {
	Message string          `json:"message"`
	Code    string          `json:"code"`
	Error   json.RawMessage `json:"error"`
	Errors  []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

func (e *HTTPError) apiError() (types.APIError, bool) {
	if e == nil || len(bytes.TrimSpace(e.Body)) == 0 {
		return types.APIError{}, false
	}
	var body errorBody
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return types.APIError{}, false
	}
	return types.DecodeAPIError(body.Error)
}

func (e *HTTPError) parse() (code, message string) {
	if e == nil || len(bytes.TrimSpace(e.Body)) == 0 {
		return "", ""
	}
	var body errorBody
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return "", ""
	}
	if len(body.Error) > 0 {
		if nested, ok := types.DecodeAPIError(body.Error); ok {
			code, message = nested.Code, nested.Message
		} else {
			var plain string
			if err := json.Unmarshal(body.Error, &plain); err == nil {
				message = plain
			}
		}
	}
	if code == "" {
		code = body.Code
	}
	if message == "" {
		message = body.Message
	}
	if len(body.Errors) > 0 {
		if code == "" {
			code = body.Errors[0].Code
		}
		if message == "" {
			message = body.Errors[0].Message
		}
	}
	return strings.TrimSpace(code), strings.TrimSpace(message)
}

// FieldErrors returns the per-field validation messages of an envelope body.
func (e *HTTPError) FieldErrors() map[string]string {
	apiErr, ok := e.apiError()
	if !ok {
		return nil
	}
	return apiErr.FieldErrors()
}

// RequestID returns the request id the server echoed in the error body.
func (e *HTTPError) RequestID() string {
	apiErr, _ := e.apiError()
	return apiErr.RequestID
}

// Message extracts the human readable server message, if the body carries one.
func (e *HTTPError) Message() string {
	_, msg := e.parse()
	return msg
}

// Code returns the structured error code reported by the backend, if any.
func (e *HTTPError) Code() string {
	code, _ := e.parse()
	return code
}

// ErrorCode is Code as a typed code. Bodies without one fall back to the
// code closest to the status.
func (e *HTTPError) ErrorCode() pkgerrors.Code {
	if e == nil {
		return ""
	}
	if code := e.Code(); code != "" {
		return pkgerrors.Code(code)
	}
	return pkgerrors.CodeForStatus(e.StatusCode)
}

// AsHTTPError returns the *HTTPError in err's chain.
func AsHTTPError(err error) (*HTTPError, bool) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr, true
	}
	return nil, false
}

// MessageFrom returns the best user-facing text for err: the server message
// for HTTP errors, the typed message for local errors, otherwise fallback.
func MessageFrom(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if httpErr, ok := AsHTTPError(err); ok {
		if msg := httpErr.Message(); msg != "" {
			return msg
		}
		return fallback
	}
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		if pkgerrors.IsLocal(err) {
			return typed.Message()
		}
	}
	return fallback
}
