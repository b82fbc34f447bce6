package twitter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is a non-2xx response from the X API.
type APIError struct {
	StatusCode int
	Title      string
	Detail     string
	Code       int
	Body       string
}

func (e *APIError) Error() string {
	switch {
	case e.Title != "" || e.Detail != "":
		return fmt.Sprintf("twitter: status %d: %s: %s", e.StatusCode, e.Title, e.Detail)
	case e.Code != 0:
		return fmt.Sprintf("twitter: status %d: code %d: %s", e.StatusCode, e.Code, e.Detail)
	default:
		return fmt.Sprintf("twitter: status %d: %s", e.StatusCode, e.Body)
	}
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// diagnoseError reads both the v2 problem shape {"title","detail"} and the
// v1.1 shape {"errors":[{"code","message"}]}.
func diagnoseError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: strings.TrimSpace(string(body))}
	if len(apiErr.Body) > 512 {
		apiErr.Body = apiErr.Body[:512]
	}

	var v2 struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &v2); err == nil && (v2.Title != "" || v2.Detail != "") {
		apiErr.Title = v2.Title
		apiErr.Detail = v2.Detail
		return apiErr
	}

	var v1 struct {
		Errors []struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &v1); err == nil && len(v1.Errors) > 0 {
		apiErr.Code = v1.Errors[0].Code
		apiErr.Detail = v1.Errors[0].Message
	}
	return apiErr
}
