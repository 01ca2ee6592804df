package httpclient

import "context"

// Response is a minimal HTTP response contract.
type Response interface {
	Body() []byte
	StatusCode() int
}

// Client abstracts HTTP calls so callers can inject mocks or different transports.
type Client interface {
	Get(ctx context.Context, url string, headers map[string]string) (Response, error)
}

// LimitedClient reads at most maxBytes of the response body and drops the rest unread.
type LimitedClient interface {
	GetLimited(ctx context.Context, url string, headers map[string]string, maxBytes int64) (Response, error)
}

// Poster sends request bodies: JSON documents or a single multipart file upload.
type Poster interface {
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) (Response, error)
	PostFile(ctx context.Context, url string, headers map[string]string, field, path string, form map[string]string) (Response, error)
}
