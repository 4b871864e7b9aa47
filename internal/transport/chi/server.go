package chi

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/storefront/internal/domain"
	"github.com/kailas-cloud/storefront/internal/domain/query"
	"github.com/kailas-cloud/storefront/internal/domain/suggestion"
	"github.com/kailas-cloud/storefront/internal/usecase/autocomplete"
	cataloguc "github.com/kailas-cloud/storefront/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/storefront/internal/usecase/health"
	"github.com/kailas-cloud/storefront/internal/usecase/panel"
)

// SessionConfig holds websocket panel session settings.
type SessionConfig struct {
	Debounce       time.Duration
	AllowedOrigins []string // empty = same host only
}

// Server serves the storefront HTTP API.
type Server struct {
	catalog       *cataloguc.Service
	autocomplete  *autocomplete.Aggregator
	history       panel.HistoryWriter
	health        *healthuc.Service
	sessions      SessionConfig
	upgrader      websocket.Upgrader
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. history can be nil.
func NewServer(
	catalog *cataloguc.Service,
	agg *autocomplete.Aggregator,
	history panel.HistoryWriter,
	health *healthuc.Service,
	sessions SessionConfig,
	logger *zap.Logger,
) *Server {
	s := &Server{
		catalog:       catalog,
		autocomplete:  agg,
		history:       history,
		health:        health,
		sessions:      sessions,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(sessions.AllowedOrigins),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.SearchProducts)
	r.Get("/products/{id}", s.GetProduct)
	r.Get("/autocomplete", s.Autocomplete)
	r.Get("/autocomplete/ws", s.AutocompleteSession)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "route not found")
	})
}

// SearchProducts handles GET /search.
func (s *Server) SearchProducts(w http.ResponseWriter, r *http.Request) {
	st, err := stateFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	res, err := s.catalog.Search(r.Context(), st)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// GetProduct handles GET /products/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := s.catalog.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// AutocompleteResponse is the one-shot panel for a draft.
type AutocompleteResponse struct {
	Query    string           `json:"query"`
	Category string           `json:"category,omitempty"`
	Panel    suggestion.Panel `json:"panel"`
}

// Autocomplete handles GET /autocomplete. It waits for every source and
// returns the merged panel. The request carries no identity, so no recent
// searches are served.
func (s *Server) Autocomplete(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	draft, category := q.Get("q"), q.Get("category")
	if len(draft) > cataloguc.MaxQueryLength {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "query too long")
		return
	}

	set := s.autocomplete.Sources("", category)
	ems := s.autocomplete.Collect(r.Context(), set, draft)

	writeJSON(w, http.StatusOK, AutocompleteResponse{
		Query:    draft,
		Category: category,
		Panel:    autocomplete.Panel(set, ems),
	})
}

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status healthuc.Status                 `json:"status"`
	Checks map[string]healthuc.CheckResult `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: report.Status,
		Checks: report.Checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}

// stateFromQuery reads q, category and page.
func stateFromQuery(r *http.Request) (query.State, error) {
	q := r.URL.Query()
	st := query.State{Text: q.Get("q"), Category: q.Get("category")}
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return query.State{}, fmt.Errorf("%w: page must be a non-negative integer", domain.ErrInvalidQuery)
		}
		st.Page = n
	}
	return st, nil
}

// originChecker allows the listed origins. Without a list the upgrader's
// same-host check applies.
func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}
