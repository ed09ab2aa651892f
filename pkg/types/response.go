package types

import "encoding/json"

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the body of a rejected request. Details is a field → message
// map for validation failures and code-specific data otherwise. RequestID
// echoes X-Request-Id so client and server logs can be joined.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// FieldErrors returns Details as a field → message map when it has that shape.
func (e APIError) FieldErrors() map[string]string {
	raw, ok := e.Details.(map[string]any)
	if !ok {
		if typed, ok := e.Details.(map[string]string); ok {
			return typed
		}
		return nil
	}
	out := make(map[string]string, len(raw))
	for field, msg := range raw {
		if s, ok := msg.(string); ok {
			out[field] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DecodeAPIError reads the nested {"error": {...}} object of an error body.
// ok is false when error is absent or not an object.
func DecodeAPIError(raw json.RawMessage) (APIError, bool) {
	var apiErr APIError
	if len(raw) == 0 || raw[0] != '{' {
		return apiErr, false
	}
	if err := json.Unmarshal(raw, &apiErr); err != nil {
		return APIError{}, false
	}
	return apiErr, true
}
