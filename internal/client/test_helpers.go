package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	internalhttp "github.com/fivetwenty-io/brightpearl/internal/http"
	"github.com/fivetwenty-io/brightpearl/pkg/brightpearl"
)

// TestAccountID is the account used by NewTestClient.
const TestAccountID = "acme"

// NewTestClient creates a client for a test server with retries disabled.
func NewTestClient(serverURL string, opts ...internalhttp.Option) *Client {
	config := brightpearl.NewConfig(serverURL, TestAccountID, "app-ref", "token-123")
	config.MaxRetries = 0

	client, err := New(context.Background(), config, opts...)
	if err != nil {
		panic(err)
	}

	return client
}

// RecordedRequest is one request seen by a TestServer.
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// TestResponse is one canned reply. A string Body is written verbatim;
// anything else is JSON-encoded.
type TestResponse struct {
	StatusCode int
	Body       interface{}
	Headers    map[string]string
}

// TestServer replays canned responses in order, repeating the last one,
// and records every request it receives.
type TestServer struct {
	*httptest.Server

	mu        sync.Mutex
	requests  []RecordedRequest
	responses []TestResponse
}

// NewTestServer starts a TestServer closed at the end of the test.
func NewTestServer(t *testing.T, responses ...TestResponse) *TestServer {
	t.Helper()

	server := &TestServer{responses: responses}
	server.Server = httptest.NewServer(http.HandlerFunc(server.handle))
	t.Cleanup(server.Close)

	return server
}

// Requests returns a copy of the recorded requests.
func (s *TestServer) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]RecordedRequest(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *TestServer) LastRequest() RecordedRequest {
	requests := s.Requests()
	if len(requests) == 0 {
		return RecordedRequest{}
	}

	return requests[len(requests)-1]
}

func (s *TestServer) handle(writer http.ResponseWriter, request *http.Request) {
	body, _ := io.ReadAll(request.Body)

	s.mu.Lock()
	index := len(s.requests)
	s.requests = append(s.requests, RecordedRequest{
		Method: request.Method,
		Path:   request.URL.Path,
		Query:  request.URL.Query(),
		Body:   body,
	})

	response := TestResponse{StatusCode: http.StatusOK, Body: map[string]interface{}{}}
	if len(s.responses) > 0 {
		response = s.responses[min(index, len(s.responses)-1)]
	}
	s.mu.Unlock()

	for key, value := range response.Headers {
		writer.Header().Set(key, value)
	}

	if response.StatusCode == 0 {
		response.StatusCode = http.StatusOK
	}

	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(response.StatusCode)

	switch body := response.Body.(type) {
	case nil:
	case string:
		_, _ = writer.Write([]byte(body))
	default:
		_ = json.NewEncoder(writer).Encode(body)
	}
}

// SearchPage builds a search payload with positional rows.
func SearchPage(columns []string, rows ...[]interface{}) map[string]interface{} {
	descriptors := make([]interface{}, len(columns))
	for i, name := range columns {
		descriptors[i] = map[string]interface{}{"name": name}
	}

	results := make([]interface{}, len(rows))
	for i, row := range rows {
		results[i] = row
	}

	return map[string]interface{}{
		"response": map[string]interface{}{
			"metaData": map[string]interface{}{"columns": descriptors},
			"results":  results,
		},
	}
}

// SearchPageOfSize builds a single-column search payload with n rows.
func SearchPageOfSize(start, n int) map[string]interface{} {
	rows := make([][]interface{}, n)
	for i := range rows {
		rows[i] = []interface{}{start + i}
	}

	return SearchPage([]string{"orderId"}, rows...)
}
