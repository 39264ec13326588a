package brokerapi

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type TransportRequest struct {
	Method  string
	Path    string
	Query   url.Values
	Body    []byte
	Headers http.Header
	Timeout time.Duration
}

type TransportResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Transport sends one request to the brokerage and returns whatever came back. It does
// not interpret status codes.
type Transport interface {
	Send(ctx context.Context, req TransportRequest) (TransportResponse, error)
	Close() error
}

type HTTPTransport struct {
	baseURL string
	client  *http.Client
}

func (t *HTTPTransport) Send(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	u := t.baseURL + req.Path
	if len(req.Query) > 0 {
		u = u + "?" + req.Query.Encode()
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, body)
	if err != nil {
		return TransportResponse{}, fmt.Errorf("HTTPTransport.Send: failed to create request: %w", err)
	}

	for k, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}

	if req.Body != nil && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	res, err := t.client.Do(httpReq)
	if err != nil {
		return TransportResponse{}, fmt.Errorf("HTTPTransport.Send: %s %s: %w", req.Method, req.Path, err)
	}

	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return TransportResponse{}, fmt.Errorf("HTTPTransport.Send: failed to read body: %w", err)
	}

	return TransportResponse{
		StatusCode: res.StatusCode,
		Headers:    res.Header,
		Body:       resBody,
	}, nil
}

func (t *HTTPTransport) Close() error {
	t.client.CloseIdleConnections()
	return nil
}

func NewHTTPTransport(baseURL string) *HTTPTransport {
	return &HTTPTransport{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}
