package remote

import (
	"context"
	"fmt"
	"io"
)

// Fetch opens the content of a remote item. The caller must close the body.
func (c *Client) Fetch(ctx context.Context, id string) (io.ReadCloser, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", id).
		SetQueryParam("querySuffix", "?download=true").
		SetRetryCount(0).
		DisableAutoReadResponse().
		Get(contentPath)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &RetrievalError{
			ID:        id,
			Code:      CodeNetworkError,
			Message:   err.Error(),
			Retryable: true,
			Err:       err,
		}
	}

	if resp.IsErrorState() {
		status := resp.GetStatusCode()
		if resp.Body != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
		}

		if isAuthStatus(status) {
			return nil, fmt.Errorf("retrieval of %s returned status %d: %w", id, status, ErrSessionExpired)
		}

		code, retryable := classifyStatus(status)
		return nil, &RetrievalError{
			ID:         id,
			Code:       code,
			StatusCode: status,
			Message:    resp.Status,
			Retryable:  retryable,
		}
	}

	if resp.Body == nil {
		return nil, &RetrievalError{
			ID:      id,
			Code:    CodeInvalidResponse,
			Message: "empty response body",
		}
	}

	return resp.Body, nil
}
