package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"carteira/internal/log"
	"carteira/internal/middleware/ratelimit"
	"carteira/internal/middleware/security"
	"carteira/internal/middleware/trace"
	"carteira/internal/services"
)

// Services are the use cases the API exposes.
type Services struct {
	Transactions   *services.TransactionService
	Accounts       *services.AccountService
	PaymentMethods *services.PaymentMethodService
	Dashboard      *services.DashboardService
}

type Server struct {
	http.Server
	svc      Services
	now      func() time.Time
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, svc Services, logger *log.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		svc:      svc,
		now:      time.Now,
		limiter:  ratelimit.NewLimiter(ratelimit.DefaultConfig()),
		detector: security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)
	mux.HandleFunc("GET /api/categories", handleCategories)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/bills/manual", s.handleManualBills)

	mux.HandleFunc("GET /api/accounts", s.handleListAccounts)
	mux.HandleFunc("POST /api/accounts", s.handleCreateAccount)
	mux.HandleFunc("PUT /api/accounts/{id}/balance", s.handleSetBalance)
	mux.HandleFunc("POST /api/accounts/{id}/recompute", s.handleRecompute)

	mux.HandleFunc("GET /api/payment-methods", s.handleListPaymentMethods)
	mux.HandleFunc("POST /api/payment-methods", s.handleCreatePaymentMethod)
	mux.HandleFunc("POST /api/payment-methods/{id}/default", s.handleSetDefaultPaymentMethod)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, writeRateLimited)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.detector.Middleware(h)
	h = s.tracer.Handler(h)
	h = log.Middleware(logger)(h)
	s.Handler = h

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func writeRateLimited(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(r, http.StatusTooManyRequests, "rate limit exceeded").Write(w)
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
