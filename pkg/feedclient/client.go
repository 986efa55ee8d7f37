package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultTimeout = 30 * time.Second

// ErrRejected is returned when the endpoint refuses a request (bad nonce,
// missing fields).
var ErrRejected = errors.New("feed request rejected")

// StatusError reports a non-success response of the async endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("feed endpoint returned %d %s", e.Code, http.StatusText(e.Code))
}

// Unwrap maps client errors to ErrRejected.
func (e *StatusError) Unwrap() error {
	if e.Code >= 400 && e.Code < 500 {
		return ErrRejected
	}
	return nil
}

// Request is one async filter or load-more call.
type Request struct {
	Nonce     string
	FeedName  string
	SessionID string
	// Params is the URL-encoded serialisation of the filter form.
	Params string
	// Append is "false" to replace, an offset to append at it, or "true" to
	// append at the server-side count.
	Append string
}

// Response is the body of a successful async call. Optional fields are nil
// when the server omitted them.
type Response struct {
	PostItems  []string `json:"post_items"`
	Pagination *string  `json:"paginaton,omitempty"`
	Summary    *string  `json:"summary,omitempty"`
	Offset     *int     `json:"offset,omitempty"`
	Found      *int     `json:"found,omitempty"`
	PostsCount *int     `json:"posts_count,omitempty"`
}

// Exhausted reports whether nothing is left to load after this response.
func (r Response) Exhausted() bool {
	if r.Found == nil || *r.Found == 0 || r.Offset == nil {
		return true
	}
	return *r.Offset == *r.Found
}

// Client calls the async feed endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a client for the endpoint URL. httpClient may be nil.
func NewClient(endpoint string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{endpoint: endpoint, httpClient: httpClient}
}

// Filter sends req and decodes the fragments.
func (c *Client) Filter(ctx context.Context, req Request) (Response, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return Response{}, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("action", "feed-filter")
	q.Set("nonce", req.Nonce)
	q.Set("feedFilter", "true")
	q.Set("feedAppend", req.Append)
	q.Set("feedName", req.FeedName)
	q.Set("params", req.Params)
	q.Set("unique_id", req.SessionID)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Response{}, &StatusError{Code: resp.StatusCode}
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Response{}, fmt.Errorf("decode feed response: %w", err)
	}
	return out, nil
}
