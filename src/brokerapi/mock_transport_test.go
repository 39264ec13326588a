package brokerapi

import (
	"context"
	"fmt"
	"sync"
)

type MockTransport struct {
	mu       sync.Mutex
	handlers map[string]func(req TransportRequest) (TransportResponse, error)
	requests []TransportRequest
}

func (m *MockTransport) Handle(method, path string, fn func(req TransportRequest) (TransportResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[method+" "+path] = fn
}

func (m *MockTransport) Send(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn, found := m.handlers[req.Method+" "+req.Path]
	m.mu.Unlock()

	if !found {
		return TransportResponse{StatusCode: 404, Body: []byte(`{"message":"not found"}`)}, nil
	}

	return fn(req)
}

func (m *MockTransport) Close() error {
	return nil
}

func (m *MockTransport) Requests(method, path string) []TransportRequest {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []TransportRequest
	for _, r := range m.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}

	return out
}

func jsonResponse(status int, body string) (TransportResponse, error) {
	return TransportResponse{StatusCode: status, Body: []byte(body)}, nil
}

func tokenHandler(token string, expiresIn int) func(req TransportRequest) (TransportResponse, error) {
	return func(req TransportRequest) (TransportResponse, error) {
		return jsonResponse(200, fmt.Sprintf(`{"access_token":%q,"token_type":"Bearer","expires_in":%d}`, token, expiresIn))
	}
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		handlers: make(map[string]func(req TransportRequest) (TransportResponse, error)),
	}
}

// blockingTokenTransport holds the token request until release is closed and fails
// it if the request context was cancelled in the meantime.
type blockingTokenTransport struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingTokenTransport() *blockingTokenTransport {
	return &blockingTokenTransport{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (b *blockingTokenTransport) Send(ctx context.Context, req TransportRequest) (TransportResponse, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release

	if err := ctx.Err(); err != nil {
		return TransportResponse{}, err
	}

	return jsonResponse(200, `{"access_token":"shared","expires_in":3600}`)
}

func (b *blockingTokenTransport) Close() error {
	return nil
}
