package receipt

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"
	"golang.org/x/time/rate"
)

// Server handles HTTP requests for extractions
type Server struct {
	service     *Service
	basicAuth   BasicAuth
	mux         *http.ServeMux
	limiter     *rate.Limiter
	corsOrigins []string
	handler     http.Handler
	httpServer  *http.Server
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// ServerOption configures optional Server behaviour
type ServerOption func(*Server)

// WithRateLimit limits extraction requests to perSecond with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) ServerOption {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), max(burst, 1))
	}
}

// WithCORSOrigins restricts cross-origin requests to origins. Empty allows any origin.
func WithCORSOrigins(origins ...string) ServerOption {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, basicAuth BasicAuth, opts ...ServerOption) *Server {
	return NewServerWithMux(service, basicAuth, http.NewServeMux(), opts...)
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, basicAuth BasicAuth, mux *http.ServeMux, opts ...ServerOption) *Server {
	s := &Server{
		service:   service,
		basicAuth: basicAuth,
		mux:       mux,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()

	origins := s.corsOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.handler = cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         3600,
	}).Handler(s.mux)

	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}

	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicAuth.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicAuth.Password)) == 1
	return userOK && passOK
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Snap2Invoice"`)
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	}
}

// rateLimit middleware, a no-op without a limiter
func (s *Server) rateLimit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	s.mux.HandleFunc("GET /api/extractions/{id}/invoice-items", s.requireAuth(s.handleInvoiceItems))
	s.mux.HandleFunc("GET /api/extractions/{id}/document", s.requireAuth(s.handleGetDocument))
	s.mux.HandleFunc("GET /api/extractions/{id}", s.requireAuth(s.handleGetExtraction))
	s.mux.HandleFunc("DELETE /api/extractions/{id}", s.requireAuth(s.handleDeleteExtraction))
	s.mux.HandleFunc("GET /api/extractions", s.requireAuth(s.handleListExtractions))
	s.mux.HandleFunc("POST /api/extractions", s.requireAuth(s.rateLimit(s.handleCreateExtraction)))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops a started server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}
