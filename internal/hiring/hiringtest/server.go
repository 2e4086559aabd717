// Package hiringtest runs an in-process fake of the hiring backend for tests.
package hiringtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
)

// Secret signs the tokens minted by Token.
var Secret = []byte("hiringtest-secret")

// Request is what the fake backend saw.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
	ContentType   string
	Body          []byte
}

// Server is an httptest server whose routes are registered by the test through Router.
// Routes are mounted under /api like the real backend.
type Server struct {
	*httptest.Server
	Router chi.Router

	mu       sync.Mutex
	requests []Request
}

// NewServer starts a fake backend and stops it when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{Router: chi.NewRouter()}

	root := chi.NewRouter()
	root.Use(s.record)
	root.Mount("/api", s.Router)

	s.Server = httptest.NewServer(root)
	t.Cleanup(s.Close)

	return s
}

// APIURL is the base URL clients should use.
func (s *Server) APIURL() string {
	return s.URL + "/api"
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests hit method and path.
func (s *Server) Count(method, path string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = readAll(r)
		}

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method:        r.Method,
			Path:          strings.TrimPrefix(r.URL.Path, "/api"),
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Raw writes body verbatim as JSON content.
func Raw(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// Detail writes a backend error in the {"detail": "..."} form.
func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, map[string]string{"detail": detail})
}

// Token mints an HS256 token with sub and exp claims, like the backend does.
func Token(t testing.TB, subject string, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString(Secret)
	if err != nil {
		t.Fatalf("minting token: %v", err)
	}

	return token
}
