package github

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/go-github/v80/github"
)

// maxErrorBody limits how much of an error response body is kept for diagnosis.
const maxErrorBody = 16 << 10

// responseDetails extracts the status code and body of a failed go-github call.
// apiError is true if GitHub answered with an error response (as opposed to
// a transport failure or a response that could not be decoded).
func responseDetails(resp *github.Response, err error) (status int, body string, apiError bool) {
	var httpResp *http.Response
	var message string

	var (
		errResp   *github.ErrorResponse
		rateErr   *github.RateLimitError
		abuseErr  *github.AbuseRateLimitError
		acceptErr *github.AcceptedError
	)
	switch {
	case errors.As(err, &errResp):
		httpResp, message, apiError = errResp.Response, errResp.Message, true
	case errors.As(err, &rateErr):
		httpResp, message, apiError = rateErr.Response, rateErr.Message, true
	case errors.As(err, &abuseErr):
		httpResp, message, apiError = abuseErr.Response, abuseErr.Message, true
	case errors.As(err, &acceptErr):
		return http.StatusAccepted, string(acceptErr.Raw), true
	}

	if httpResp == nil && resp != nil {
		httpResp = resp.Response
	}
	if httpResp == nil {
		return 0, "", apiError
	}
	status = httpResp.StatusCode

	// go-github re-populates the body of error responses after decoding them
	if apiError && httpResp.Body != nil {
		data, readErr := io.ReadAll(io.LimitReader(httpResp.Body, maxErrorBody))
		if readErr == nil {
			body = strings.TrimSpace(string(data))
		}
	}
	if body == "" {
		body = message
	}
	return status, body, apiError
}

func isSuccess(status int) bool {
	return status >= 200 && status <= 299
}
