package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrConnectivity is the fixed detail text used whenever no response
// arrived at all. Callers must surface this text verbatim, never the raw
// transport error.
const ErrConnectivity = "Network error. Please check your connection."

// APIError is the single normalized failure shape for every call.
// StatusCode 0 means the request never reached the server.
type APIError struct {
	Detail     string `json:"detail"`
	StatusCode int    `json:"status_code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d detail=%s", e.StatusCode, e.Detail)
}

// IsNotFound reports whether err is a normalized 404.
func IsNotFound(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == http.StatusNotFound
}

// IsConnectivity reports whether err is a no-response network failure.
func IsConnectivity(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.StatusCode == 0
}

// errorBody covers the two body shapes the server uses for failures.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// normalizeResponse maps a non-2xx response body to an APIError,
// preferring the body's detail field, then message, then a generic text.
func normalizeResponse(status int, body []byte) *APIError {
	var eb errorBody
	detail := "An error occurred"
	if len(body) > 0 {
		if err := json.Unmarshal(body, &eb); err == nil {
			switch {
			case eb.Detail != "":
				detail = eb.Detail
			case eb.Message != "":
				detail = eb.Message
			}
		}
	}
	return &APIError{Detail: detail, StatusCode: status}
}

// normalizeTransport maps a transport-level failure: no response at all
// becomes the fixed connectivity error, anything else keeps its message
// under a generic 500.
func normalizeTransport(err error, responded bool) *APIError {
	if !responded {
		return &APIError{Detail: ErrConnectivity, StatusCode: 0}
	}
	return &APIError{Detail: err.Error(), StatusCode: http.StatusInternalServerError}
}
