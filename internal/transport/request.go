package transport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/agentstation/storefront/pkg/constants"
	"github.com/agentstation/storefront/pkg/errors"
)

// DecodeJSON decodes a response body into target.
func DecodeJSON(resp *Response, source string, target any) error {
	if err := json.Unmarshal(resp.Body, target); err != nil {
		return errors.WrapParse("json", source, err)
	}
	return nil
}

func readResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// Classify maps a transport failure onto the error taxonomy. parent is the
// caller's context and call is the per-attempt context derived from it.
func Classify(parent, call context.Context, operation string, limit time.Duration, err error) error {
	return classify(parent, call, operation, limit, err)
}

func classify(parent, call context.Context, operation string, limit time.Duration, err error) error {
	switch {
	case stderrors.Is(parent.Err(), context.Canceled):
		return fmt.Errorf("%s: %w", operation, errors.ErrCanceled)
	case stderrors.Is(call.Err(), context.DeadlineExceeded), stderrors.Is(err, context.DeadlineExceeded):
		return &errors.TimeoutError{
			Operation: operation,
			Duration:  limit.String(),
			Message:   "upstream did not answer in time",
			Err:       err,
		}
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) && netErr.Timeout() {
		return &errors.TimeoutError{
			Operation: operation,
			Duration:  limit.String(),
			Message:   "network timeout",
			Err:       err,
		}
	}
	return &errors.UpstreamError{
		Endpoint: operation,
		Body:     err.Error(),
		Err:      err,
	}
}

func truncate(body []byte) string {
	if len(body) > constants.MaxErrorBodySize {
		return string(body[:constants.MaxErrorBodySize]) + "...(truncated)"
	}
	return string(body)
}
