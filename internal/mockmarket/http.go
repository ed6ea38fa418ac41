package mockmarket

import (
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/okian/cartola/pkg/logger"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server answers the three upstream endpoints from a generated dataset.
type Server struct {
	mu      sync.Mutex
	cfg     Config
	dataset Dataset
	rng     *rand.Rand
	logger  logger.Logger
}

// NewServer generates the dataset for cfg.
func NewServer(cfg Config, l logger.Logger) *Server {
	if l == nil {
		l = logger.Nop()
	}
	return &Server{
		cfg:     cfg,
		dataset: Generate(cfg),
		rng:     rand.New(rand.NewSource(cfg.Seed + 1)),
		logger:  l,
	}
}

// Dataset returns the served documents.
func (s *Server) Dataset() Dataset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dataset
}

// SetOpen flips the market status.
func (s *Server) SetOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dataset.Status.MarketStatus = marketClosed
	if open {
		s.dataset.Status.MarketStatus = marketOpen
	}
}

// Handler returns the HTTP routes, rooted like the public API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/atletas/mercado", s.serve(func(d Dataset) any { return d.Market }))
	mux.HandleFunc("/partidas", s.serve(func(d Dataset) any { return d.Matches }))
	mux.HandleFunc("/mercado/status", s.serve(func(d Dataset) any { return d.Status }))
	return mux
}

func (s *Server) serve(pick func(Dataset) any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		w.Header().Set("X-Request-Id", requestID)

		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if s.cfg.Latency > 0 {
			select {
			case <-time.After(s.cfg.Latency):
			case <-r.Context().Done():
				return
			}
		}

		s.mu.Lock()
		fail := s.cfg.FailRate > 0 && s.rng.Float64() < s.cfg.FailRate
		doc := pick(s.dataset)
		s.mu.Unlock()

		if fail {
			s.logger.Debug(r.Context(), "injected failure",
				logger.String("path", r.URL.Path),
				logger.String("requestID", requestID))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(doc); err != nil {
			s.logger.Error(r.Context(), "failed to encode document", logger.Error(err))
		}
	}
}
