package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/manuelmanso/etfoptimizer/internal/clients/optimizer"
	"github.com/manuelmanso/etfoptimizer/internal/domain"
)

// Matching ETF counts reported by the fake service.
const (
	TotalETFs        = 2000
	MatchingDefault  = 812
	MatchingCurrency = 120 // when a fund currency filter is set
)

// Service is an in-process optimization service. Optimize calls can be held
// until the test releases them.
type Service struct {
	server *httptest.Server

	mu             sync.Mutex
	catalogStatus  int
	optimizeStatus int
	optimizeBody   []byte
	hold           chan struct{}
	previews       []domain.ETFFilters
	optimizes      []domain.OptimizeRequest
}

// NewService starts a fake service that is closed when the test ends.
func NewService(t *testing.T) *Service {
	t.Helper()
	s := &Service{
		catalogStatus:  http.StatusOK,
		optimizeStatus: http.StatusOK,
		optimizeBody:   SampleResultJSON(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/parameters", s.handleCatalog)
	mux.HandleFunc("POST /api/etfsMatchingFilters", s.handlePreview)
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	s.server = httptest.NewServer(mux)
	t.Cleanup(func() {
		s.Release()
		s.server.Close()
	})
	return s
}

// URL returns the service base address.
func (s *Service) URL() string {
	return s.server.URL + "/api"
}

// Client returns a client for the service.
func (s *Service) Client() *optimizer.Client {
	return optimizer.NewClient(s.URL(), 5*time.Second, nil, zerolog.Nop())
}

// FailCatalog makes the catalog endpoint answer with status.
func (s *Service) FailCatalog(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalogStatus = status
}

// SetOptimizeResponse sets the status and body of later optimize calls.
func (s *Service) SetOptimizeResponse(status int, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.optimizeStatus = status
	s.optimizeBody = body
}

// Hold makes optimize calls block until Release.
func (s *Service) Hold() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold == nil {
		s.hold = make(chan struct{})
	}
}

// Release unblocks held optimize calls.
func (s *Service) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hold != nil {
		close(s.hold)
		s.hold = nil
	}
}

// PreviewRequests returns the filters of every preview query received.
func (s *Service) PreviewRequests() []domain.ETFFilters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ETFFilters(nil), s.previews...)
}

// OptimizeRequests returns every optimize body received.
func (s *Service) OptimizeRequests() []domain.OptimizeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OptimizeRequest(nil), s.optimizes...)
}

func (s *Service) handleCatalog(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	status := s.catalogStatus
	s.mu.Unlock()

	if status != http.StatusOK {
		writeJSON(w, status, map[string]string{"error": "catalog unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, NewCatalogFixture())
}

func (s *Service) handlePreview(w http.ResponseWriter, r *http.Request) {
	var req domain.PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.previews = append(s.previews, req.ETFFilters)
	s.mu.Unlock()

	matching := MatchingDefault
	if req.ETFFilters.FundCurrency != nil {
		matching = MatchingCurrency
	}
	writeJSON(w, http.StatusOK, domain.PreviewCount{Matching: matching, Total: TotalETFs})
}

func (s *Service) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req domain.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.optimizes = append(s.optimizes, req)
	hold := s.hold
	status, body := s.optimizeStatus, s.optimizeBody
	s.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-r.Context().Done():
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
