package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/micky-code/school-management-system-SMS--sub000/core/fetch"
)

// Servers of a simulated Backend. The authenticated tier and the first attempt of a write
// hit Primary.
const (
	Primary = "primary"
	Public  = "public"
	Direct  = "direct"
)

// Reply is a canned answer.
type Reply struct {
	Status int
	Body   string
	// Delay holds the answer back; the request context still cancels it.
	Delay time.Duration
	// Drop closes the connection without answering.
	Drop bool
}

// Request is a recorded incoming request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// Backend simulates the three bases of the read chain with one httptest server each.
// Unregistered routes answer 404.
type Backend struct {
	servers map[string]*httptest.Server

	mu       sync.Mutex
	routes   map[string]map[string]http.HandlerFunc
	defaults map[string]http.HandlerFunc
	requests map[string][]Request
}

func NewBackend(t *testing.T) *Backend {
	t.Helper()
	b := &Backend{
		servers:  make(map[string]*httptest.Server),
		routes:   make(map[string]map[string]http.HandlerFunc),
		defaults: make(map[string]http.HandlerFunc),
		requests: make(map[string][]Request),
	}
	for _, name := range []string{Primary, Public, Direct} {
		name := name
		b.routes[name] = make(map[string]http.HandlerFunc)
		b.servers[name] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			b.serve(name, w, r)
		}))
	}
	t.Cleanup(b.Close)
	return b
}

// Config points an engine at the backend.
func (b *Backend) Config() fetch.Config {
	return fetch.Config{
		BaseURL:       b.URL(Primary),
		PublicBaseURL: b.URL(Public),
		DirectBaseURL: b.URL(Direct),
		Timeout:       2 * time.Second,
	}
}

func (b *Backend) URL(server string) string { return b.servers[server].URL }

// Handle registers a canned reply for `method path` on server.
func (b *Backend) Handle(server, method, path string, r Reply) {
	b.HandleFunc(server, method, path, r.handler())
}

func (b *Backend) HandleFunc(server, method, path string, fn http.HandlerFunc) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.routes[server][method+" "+path] = fn
}

// Default sets the reply of every unregistered route on server.
func (b *Backend) Default(server string, r Reply) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaults[server] = r.handler()
}

// Down shuts server down: further attempts fail with a connection error.
func (b *Backend) Down(server string) {
	b.servers[server].Close()
}

func (b *Backend) Close() {
	for _, srv := range b.servers {
		srv.Close()
	}
}

// Hits returns the number of requests server received.
func (b *Backend) Hits(server string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests[server])
}

// Requests returns the requests server received, oldest first.
func (b *Backend) Requests(server string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests[server]))
	copy(out, b.requests[server])
	return out
}

func (b *Backend) serve(server string, w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	b.mu.Lock()
	b.requests[server] = append(b.requests[server], Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})
	fn, ok := b.routes[server][r.Method+" "+r.URL.Path]
	if !ok {
		fn = b.defaults[server]
	}
	b.mu.Unlock()

	if fn == nil {
		fn = Reply{Status: http.StatusNotFound, Body: `{"message":"not found"}`}.handler()
	}
	fn(w, r)
}

func (rp Reply) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rp.Delay > 0 {
			select {
			case <-time.After(rp.Delay):
			case <-r.Context().Done():
				return
			}
		}
		if rp.Drop {
			if hj, ok := w.(http.Hijacker); ok {
				if conn, _, err := hj.Hijack(); err == nil {
					conn.Close()
					return
				}
			}
			panic(http.ErrAbortHandler)
		}
		status := rp.Status
		if status == 0 {
			status = http.StatusOK
		}
		if rp.Body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, rp.Body)
	}
}

// JSON is a 200 reply with body.
func JSON(body string) Reply {
	return Reply{Status: http.StatusOK, Body: body}
}
