package httpclient

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RestyClient adapts resty.Client to the Client and Poster interfaces.
type RestyClient struct {
	client *resty.Client
}

var (
	_ Client        = (*RestyClient)(nil)
	_ LimitedClient = (*RestyClient)(nil)
	_ Poster        = (*RestyClient)(nil)
)

// NewRestyClient creates a new RestyClient with the specified timeout.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return &RestyClient{client: newRestyBaseClient(timeout)}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	return newRestyBaseClient(timeout)
}

// newRestyBaseClient creates a new resty.Client with the specified timeout.
func newRestyBaseClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	c.SetTimeout(timeout)
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// GetLimited streams the body through an io.LimitReader instead of letting resty buffer all of it.
func (r *RestyClient) GetLimited(ctx context.Context, url string, headers map[string]string, maxBytes int64) (Response, error) {
	if maxBytes <= 0 {
		return r.Get(ctx, url, headers)
	}
	req := r.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	resp, err := req.Get(url)
	if err != nil {
		return nil, err
	}
	raw := resp.RawBody()
	if raw == nil {
		return &bufferedResponse{status: resp.StatusCode()}, nil
	}
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &bufferedResponse{body: body, status: resp.StatusCode()}, nil
}

// PostJSON sends body encoded as JSON.
func (r *RestyClient) PostJSON(ctx context.Context, url string, headers map[string]string, body any) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetBody(body)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// PostFile uploads the file at path as a multipart form field along with form values.
func (r *RestyClient) PostFile(ctx context.Context, url string, headers map[string]string, field, path string, form map[string]string) (Response, error) {
	req := r.client.R().
		SetContext(ctx).
		SetFile(field, path)
	if len(form) > 0 {
		req.SetFormData(form)
	}
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}

	resp, err := req.Post(url)
	if err != nil {
		return nil, err
	}
	return &restyResponseAdapter{resp: resp}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte    { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int { return r.resp.StatusCode() }

type bufferedResponse struct {
	body   []byte
	status int
}

func (r *bufferedResponse) Body() []byte    { return r.body }
func (r *bufferedResponse) StatusCode() int { return r.status }

// CheckStatus returns an error carrying a body snippet for non-2xx responses.
func CheckStatus(resp Response) error {
	if resp == nil {
		return fmt.Errorf("nil response")
	}
	if code := resp.StatusCode(); code < 200 || code > 299 {
		return fmt.Errorf("status %d body: %s", code, Snippet(resp.Body()))
	}
	return nil
}

// Snippet trims a response body for error messages.
func Snippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return s[:maxLen] + "..."
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
