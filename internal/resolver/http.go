package resolver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pipecast/pipecast/internal/stream"
)

// HTTPSource is a stream source backed by a single GET of a direct URL.
// It is the minimal built-in transport; anything smarter (HLS, RTMP, ...)
// comes from an external resolver.
type HTTPSource struct {
	client *http.Client
	url    string
}

func NewHTTPSource(client *http.Client, rawURL string) *HTTPSource {
	if client == nil {
		client = &http.Client{Timeout: 0} // streaming reads must not time out
	}
	return &HTTPSource{client: client, url: rawURL}
}

func (s *HTTPSource) TransportKind() string {
	return "http"
}

// URL exposes the direct URL for passthrough delivery.
func (s *HTTPSource) URL() string {
	return s.url
}

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, stream.OpenError("", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, stream.OpenError("", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = resp.Body.Close()
		return nil, stream.OpenError("", fmt.Errorf("unexpected status %s", resp.Status))
	}
	return resp.Body, nil
}

// Direct resolves targets that are plain http(s) URLs into a single "live"
// variant. Anything else is ErrNoSource.
type Direct struct {
	Client *http.Client
}

func (d Direct) Resolve(_ context.Context, target string) (*stream.Variants, error) {
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, fmt.Errorf("%w: %s", ErrNoSource, target)
	}
	src := NewHTTPSource(d.Client, target)
	variants := stream.NewVariants()
	variants.Put("live", src)
	variants.PutSynonym("best", src)
	variants.PutSynonym("worst", src)
	return variants, nil
}
