// Package server provides the HTTP REST API for the talent tracker.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcus/talent-tracker/internal/analysis"
	"github.com/marcus/talent-tracker/internal/assembly"
	"github.com/marcus/talent-tracker/internal/config"
	"github.com/marcus/talent-tracker/internal/db"
	"github.com/marcus/talent-tracker/internal/llm"
	"github.com/marcus/talent-tracker/internal/orchestrator"
	"github.com/marcus/talent-tracker/internal/server/middleware"
	"github.com/marcus/talent-tracker/internal/server/ratelimit"
	"github.com/marcus/talent-tracker/internal/storage"
)

// Server represents the HTTP server
type Server struct {
	httpServer  *http.Server
	db          *db.DB
	llmClient   llm.Client
	orch        *orchestrator.Orchestrator
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// Config holds server configuration
type Config struct {
	Port         int
	DatabaseURL  string
	APIKey       string
	UseBrowser   bool
	Orchestrator orchestrator.Config
}

// New creates a new server instance
func New(cfg Config) (*Server, error) {
	ctx := context.Background()

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to create inference client: %w", err)
	}

	fetcher := storage.NewClient(60 * time.Second)
	fetcher.UseBrowser = cfg.UseBrowser

	s := &Server{
		db:        database,
		llmClient: llmClient,
		orch: orchestrator.New(
			database,
			assembly.NewAssembler(database, fetcher),
			analysis.NewExecutor(llmClient),
			cfg.Orchestrator,
		),
	}

	s.rateLimiter = ratelimit.New(ratelimit.FromEnv())

	// Auth is optional: mutating routes require a bearer token only when
	// JWT_SECRET is set. Tokens come from the token CLI subcommand.
	if os.Getenv("JWT_SECRET") != "" {
		jwtConfig, err := config.JWTFromEnv()
		if err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to create JWT config: %w", err)
		}
		s.jwtService = NewJWTService(jwtConfig)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	// Pipeline template catalog
	mux.HandleFunc("POST /templates", s.protect(s.handleCreateTemplate))
	mux.HandleFunc("GET /templates", s.handleListTemplates)
	mux.HandleFunc("GET /templates/{id}", s.handleGetTemplate)
	mux.HandleFunc("POST /templates/{id}/stages", s.protect(s.handleCreateStage))
	mux.HandleFunc("POST /stages/{id}/prompts", s.protect(s.handleCreatePrompt))

	// Candidates and derived entities
	mux.HandleFunc("POST /candidates", s.protect(s.handleCreateCandidate))
	mux.HandleFunc("GET /candidates", s.handleListCandidates)
	mux.HandleFunc("GET /candidates/{id}", s.handleGetCandidate)
	mux.HandleFunc("PUT /candidates/{id}/stage", s.protect(s.handleUpdateCandidateStage))
	mux.HandleFunc("GET /candidates/{id}/profile", s.handleGetProfile)
	mux.HandleFunc("GET /candidates/{id}/preferences", s.handleGetPreferences)
	mux.HandleFunc("GET /candidates/{id}/summaries/{stage}", s.handleGetStageSummary)
	mux.HandleFunc("POST /candidates/{id}/stages/{stage}/summarize", s.protect(s.handleSummarizeStage))

	// Attachments
	mux.HandleFunc("POST /candidates/{id}/attachments", s.protect(s.handleCreateAttachment))
	mux.HandleFunc("GET /candidates/{id}/attachments", s.handleListAttachments)
	mux.HandleFunc("GET /attachments/{id}", s.handleGetAttachment)

	// Processing
	mux.HandleFunc("POST /attachments/{id}/jobs", s.protect(s.handleTriggerAttachment))
	mux.HandleFunc("POST /attachments/{id}/process", s.protect(s.handleProcessAttachment))
	mux.HandleFunc("GET /attachments/{id}/jobs", s.handleListAttachmentJobs)

	// Jobs
	mux.HandleFunc("GET /jobs", s.handleListJobs)
	mux.HandleFunc("GET /jobs/stale", s.handleListStaleJobs)
	mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
	mux.HandleFunc("POST /jobs/{id}/run", s.protect(s.handleRunJob))
	mux.HandleFunc("POST /jobs/{id}/rerun", s.protect(s.handleRerunJob))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // Long timeout for synchronous processing runs
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// protect wraps a handler with bearer-token auth when a JWT secret is
// configured; otherwise the handler is served unauthenticated.
func (s *Server) protect(handler http.HandlerFunc) http.HandlerFunc {
	if s.jwtService == nil {
		return handler
	}
	wrapped := middleware.RequireAuth(s.jwtService.Verify)(handler)
	return wrapped.ServeHTTP
}

// Start begins listening for requests
func (s *Server) Start() error {
	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	if err := s.llmClient.Close(); err != nil {
		log.Printf("Error closing inference client: %v", err)
	}
	s.db.Close()
	log.Println("Server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// withRateLimit adds rate limiting middleware
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := s.extractClientID(r)

		decision := s.rateLimiter.Check(clientID, r.Method, r.URL.Path)
		if !decision.Allowed {
			s.setRateLimitHeaders(w, decision)
			s.rateLimitResponse(w, decision)
			return
		}

		s.setRateLimitHeaders(w, decision)
		next.ServeHTTP(w, r)
	})
}

// withLogging adds request logging
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("[%s] %s %s", r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// extractClientID extracts the client identifier from the request.
// For MVP, this uses the IP address from RemoteAddr.
// In the future, this could use X-Forwarded-For header (only from trusted proxies).
func (s *Server) extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// setRateLimitHeaders copies the limiter decision into the standard
// X-RateLimit headers.
func (s *Server) setRateLimitHeaders(w http.ResponseWriter, d ratelimit.Decision) {
	if d.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", d.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", d.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", d.Reset.Unix()))
	}
}

// rateLimitResponse writes a 429 Too Many Requests response with the tier
// that refused the request.
func (s *Server) rateLimitResponse(w http.ResponseWriter, d ratelimit.Decision) {
	response := map[string]interface{}{
		"error":     "rate_limit_exceeded",
		"message":   "Rate limit exceeded. Please try again later.",
		"tier":      d.Tier,
		"limit":     d.Limit,
		"remaining": d.Remaining,
		"reset_at":  d.Reset.Format(time.RFC3339),
	}

	if d.RetryAfter > 0 {
		response["retry_after"] = int(d.RetryAfter.Seconds())
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(d.RetryAfter.Seconds())))
	}

	log.Printf("[rate-limit] tier=%s limit=%d remaining=%d reset=%s",
		d.Tier, d.Limit, d.Remaining, d.Reset.Format(time.RFC3339))

	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
