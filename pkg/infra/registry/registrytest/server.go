// Package registrytest provides an in-process fake of the registry API.
package registrytest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/bdifget/pkg/domain/model"
)

// Server serves /informations and /documents/* from an in-memory catalog
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	records       []model.ResultItem
	total         *int
	listingStatus int
	listingBody   string
	documents     map[string][]byte
	docStatus     map[string]int
	truncated     map[string]bool
	docDelay      time.Duration
	queries       []url.Values
	headers       []http.Header
	requests      []Request

	listingCalls  atomic.Int32
	documentCalls atomic.Int32
	inFlight      atomic.Int32
	maxInFlight   atomic.Int32
}

// Request is one served request as seen by the recording middleware
type Request struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
}

// Option configures the fake server
type Option func(*Server)

// WithRecords sets the listing records in result order
func WithRecords(records ...model.ResultItem) Option {
	return func(s *Server) {
		s.records = append(s.records, records...)
	}
}

// WithCatalog adds n records with one PDF each, named doc-000.pdf onward.
// Every document is registered with content "content of <name>".
func WithCatalog(n int) Option {
	return func(s *Server) {
		for i := 0; i < n; i++ {
			name := fmt.Sprintf("doc-%03d.pdf", i)
			path := "files/" + name
			s.records = append(s.records, model.ResultItem{
				Documents: []model.DocumentDescriptor{{FileName: name, RetrievalPath: path}},
			})
			s.documents[path] = []byte("content of " + name)
		}
	}
}

// WithTotal overrides the total reported by the listing endpoint
func WithTotal(total int) Option {
	return func(s *Server) {
		s.total = &total
	}
}

// WithListingStatus makes every listing request answer with status
func WithListingStatus(status int) Option {
	return func(s *Server) {
		s.listingStatus = status
	}
}

// WithListingBody makes every listing request answer with a raw body
func WithListingBody(body string) Option {
	return func(s *Server) {
		s.listingBody = body
	}
}

// WithDocument registers document content under a retrieval path
func WithDocument(path string, content []byte) Option {
	return func(s *Server) {
		s.documents[path] = content
	}
}

// WithDocumentStatus makes the document at path answer with status
func WithDocumentStatus(path string, status int) Option {
	return func(s *Server) {
		s.docStatus[path] = status
	}
}

// WithTruncatedDocument announces the full length of path but closes the
// connection after half of the content.
func WithTruncatedDocument(path string) Option {
	return func(s *Server) {
		s.truncated[path] = true
	}
}

// WithDocumentDelay holds every document response for d before writing
func WithDocumentDelay(d time.Duration) Option {
	return func(s *Server) {
		s.docDelay = d
	}
}

// New starts a fake registry. It is closed by t.Cleanup.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()

	s := &Server{
		documents: make(map[string][]byte),
		docStatus: make(map[string]int),
		truncated: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(s)
	}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(s.record)
	router.Get("/informations", s.handleListing)
	router.Get("/documents/*", s.handleDocument)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)

	return s
}

// record keeps method, path and final status of every request
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.requests = append(s.requests, Request{
				Method:   r.Method,
				Path:     r.URL.Path,
				Status:   ww.Status(),
				Duration: time.Since(start),
			})
		}()

		next.ServeHTTP(ww, r)
	})
}

// Requests returns every served request in completion order
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// ListingCalls returns the number of listing requests served
func (s *Server) ListingCalls() int {
	return int(s.listingCalls.Load())
}

// DocumentCalls returns the number of document requests served
func (s *Server) DocumentCalls() int {
	return int(s.documentCalls.Load())
}

// MaxInFlight returns the highest number of concurrent document requests seen
func (s *Server) MaxInFlight() int {
	return int(s.maxInFlight.Load())
}

// Queries returns the query parameters of every listing request in order
func (s *Server) Queries() []url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]url.Values(nil), s.queries...)
}

// Headers returns the request headers of every request in arrival order
func (s *Server) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]http.Header(nil), s.headers...)
}

func (s *Server) handleListing(w http.ResponseWriter, r *http.Request) {
	s.listingCalls.Add(1)

	query := r.URL.Query()
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	if s.listingStatus != 0 {
		w.WriteHeader(s.listingStatus)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if s.listingBody != "" {
		_, _ = w.Write([]byte(s.listingBody))
		return
	}

	from, _ := strconv.Atoi(query.Get("From"))
	size, _ := strconv.Atoi(query.Get("Size"))
	from = min(max(from, 0), len(s.records))
	end := min(from+max(size, 0), len(s.records))

	total := len(s.records)
	if s.total != nil {
		total = *s.total
	}

	resp := struct {
		Total  int                `json:"total"`
		Result []model.ResultItem `json:"result"`
	}{
		Total:  total,
		Result: s.records[from:end],
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	s.documentCalls.Add(1)

	current := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxInFlight.Load()
		if current <= seen || s.maxInFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	s.mu.Lock()
	s.headers = append(s.headers, r.Header.Clone())
	s.mu.Unlock()

	if s.docDelay > 0 {
		time.Sleep(s.docDelay)
	}

	path := chi.URLParam(r, "*")
	if status, ok := s.docStatus[path]; ok {
		w.WriteHeader(status)
		return
	}

	content, ok := s.documents[path]
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	if s.truncated[path] {
		_, _ = w.Write(content[:len(content)/2])
		return
	}
	_, _ = w.Write(content)
}
