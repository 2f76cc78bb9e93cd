package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"voterdesk/internal/constants"
	"voterdesk/internal/httputil"
	"voterdesk/internal/middleware"
	"voterdesk/internal/models"
	"voterdesk/internal/notify"
	"voterdesk/internal/ratelimit"
	"voterdesk/internal/service"
	"voterdesk/pkg/media"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router       *mux.Router
	logger       *logrus.Logger
	cfg          *models.Config
	dispatcher   *service.Dispatcher
	reconciler   *service.Reconciler
	ledger       *service.Ledger
	mediaHandler media.Handler
	hub          *notify.Hub
	limiter      ratelimit.Store
	server       *http.Server
}

func NewServer(cfg *models.Config, dispatcher *service.Dispatcher, reconciler *service.Reconciler, ledger *service.Ledger, mediaHandler media.Handler, hub *notify.Hub, limiter ratelimit.Store, logger *logrus.Logger) *Server {
	s := &Server{
		router:       mux.NewRouter(),
		logger:       logger,
		cfg:          cfg,
		dispatcher:   dispatcher,
		reconciler:   reconciler,
		ledger:       ledger,
		mediaHandler: mediaHandler,
		hub:          hub,
		limiter:      limiter,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.Observability(s.logger))

	// Health check
	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)

	// Provider webhook: GET is the verification handshake, POST carries
	// event envelopes.
	s.router.HandleFunc("/webhook", s.handleWebhookVerify()).Methods(http.MethodGet)
	s.router.Handle("/webhook", s.sourceThrottled(s.handleWebhookEvent())).Methods(http.MethodPost)

	// Operator API. Endpoints that reach the provider sit behind the
	// per-operator rate limit.
	api := s.router.PathPrefix("/api").Subrouter()
	api.Handle("/messages/send", s.rateLimited(s.handleSendText())).Methods(http.MethodPost)
	api.Handle("/messages/send-template", s.rateLimited(s.handleSendTemplate())).Methods(http.MethodPost)
	api.Handle("/messages/send-media", s.rateLimited(s.handleSendMedia())).Methods(http.MethodPost)
	api.Handle("/media/upload", s.rateLimited(s.handleMediaUpload())).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id}/messages", s.handleHistory()).Methods(http.MethodGet)
	api.HandleFunc("/messages/{id}/read", s.handleMarkRead()).Methods(http.MethodPost)

	// Realtime notification channel
	s.router.HandleFunc("/ws", s.handleRealtime()).Methods(http.MethodGet)

	// Mirrored media files
	s.router.PathPrefix("/media/").Handler(
		http.StripPrefix("/media/", http.FileServer(http.Dir(s.cfg.Media.StoreDir))))
}

// sourceThrottled throttles webhook deliveries per source address so a
// misbehaving caller cannot flood the reconciler.
func (s *Server) sourceThrottled(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := "webhook:" + httputil.GetClientIP(r)
		if !s.limiter.Allow(key) {
			s.logger.WithField(service.LogFieldRemoteIP, httputil.GetClientIP(r)).
				Warn("Webhook source rate limit exceeded")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimited rejects requests once the calling operator exhausts their
// token bucket. Requests without an operator id share one bucket.
func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		operatorID := r.Header.Get("X-Operator-ID")
		if operatorID == "" {
			operatorID = "anonymous"
		}

		if !s.limiter.Allow(operatorID) {
			s.logger.WithField(service.LogFieldOperatorID, operatorID).Warn("Operator rate limit exceeded")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) Start() error {
	port := s.cfg.Server.Port
	if port <= 0 {
		port = constants.DefaultServerPort
	}

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.cfg.Server.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.Server.WriteTimeoutSec) * time.Second,
		IdleTimeout:  time.Duration(s.cfg.Server.IdleTimeoutSec) * time.Second,
	}

	s.logger.Infof("Starting server on port %d", port)
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
