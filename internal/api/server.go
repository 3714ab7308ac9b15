// Package api provides the console's HTTP API.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/recipients"
	"github.com/vesting-console/internal/service"
	"github.com/vesting-console/internal/types"
)

// PanelServiceInterface defines the panel operations the handlers need
type PanelServiceInterface interface {
	Balances(ctx context.Context, wallet string, tokens []string) (*service.WalletBalances, error)
	SubmitPayroll(ctx context.Context, composer *recipients.Composer, token string, decimals int32) (*service.Preview, error)
	SubmitVesting(ctx context.Context, composer *recipients.Composer, terms service.VestingTerms) (*service.Preview, error)
	SubmitLock(ctx context.Context, wallet string, req service.LockRequest) (*service.Preview, error)
	ClaimFaucet(ctx context.Context, wallet, token string) (*service.Preview, error)
}

// NotificationSource is drained by the console UI
type NotificationSource interface {
	Drain() []types.Notification
}

// Server represents the HTTP API server.
type Server struct {
	router        *mux.Router
	httpServer    *http.Server
	provider      *service.ContactsProvider
	panels        PanelServiceInterface
	notifications NotificationSource
	sessions      *composeSessions
	config        *ServerConfig
	logger        *logging.Logger
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	WalletRPS       int           // requests per second per wallet
	ComposeIdleTTL  time.Duration // 0 uses defaultComposeIdleTTL

	// Defaults for the payroll and vesting panels when the request names no token
	PayrollToken    string
	PayrollDecimals int32
}

// NewServer creates a new API server instance.
func NewServer(
	config *ServerConfig,
	provider *service.ContactsProvider,
	panels PanelServiceInterface,
	notifications NotificationSource,
	logger *logging.Logger,
) *Server {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}

	s := &Server{
		router:        mux.NewRouter(),
		provider:      provider,
		panels:        panels,
		notifications: notifications,
		sessions:      newComposeSessions(config.ComposeIdleTTL, maxComposeSessions),
		config:        config,
		logger:        logger.WithComponent("api"),
	}

	s.setupRouter()

	return s
}

// setupRouter configures the router with middleware and routes
func (s *Server) setupRouter() {
	rateLimiter := NewRateLimiter(s.config.WalletRPS)

	// Set up middleware (order matters!)
	s.router.Use(LoggingMiddleware(s.logger))
	s.router.Use(RecoveryMiddleware)
	s.router.Use(CORSMiddleware)
	s.router.Use(RateLimitMiddleware(rateLimiter))
	s.router.Use(CompressionMiddleware)
	s.router.Use(s.provider.Middleware)

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.config.Host, s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	api := s.router.PathPrefix("/api").Subrouter()

	// Session
	api.HandleFunc("/session/wallet", s.handleSetWallet).Methods("PUT")
	api.HandleFunc("/notifications", s.handleNotifications).Methods("GET")

	// Contacts
	api.HandleFunc("/contacts", s.handleListContacts).Methods("GET")
	api.HandleFunc("/contacts", s.handleCreateContact).Methods("POST")
	api.HandleFunc("/contacts/reload", s.handleReloadContacts).Methods("POST")
	api.HandleFunc("/contacts/search", s.handleSearchContacts).Methods("GET")
	api.HandleFunc("/contacts/count", s.handleCountContacts).Methods("GET")
	api.HandleFunc("/contacts/{id}", s.handleUpdateContact).Methods("PUT")
	api.HandleFunc("/contacts/{id}", s.handleDeleteContact).Methods("DELETE")

	// Recipient composition
	api.HandleFunc("/compose", s.handleCreateCompose).Methods("POST")
	api.HandleFunc("/compose/{sid}", s.handleGetCompose).Methods("GET")
	api.HandleFunc("/compose/{sid}", s.handleDeleteCompose).Methods("DELETE")
	api.HandleFunc("/compose/{sid}/entries", s.handleAddEntry).Methods("POST")
	api.HandleFunc("/compose/{sid}/entries/{index:[0-9]+}", s.handleUpdateEntry).Methods("PUT")
	api.HandleFunc("/compose/{sid}/entries/{index:[0-9]+}", s.handleRemoveEntry).Methods("DELETE")
	api.HandleFunc("/compose/{sid}/contacts", s.handleComposeContacts).Methods("GET")
	api.HandleFunc("/compose/{sid}/selected/{contactId}", s.handleSelectContact).Methods("POST")
	api.HandleFunc("/compose/{sid}/selected/{contactId}", s.handleDeselectContact).Methods("DELETE")
	api.HandleFunc("/compose/{sid}/payroll", s.handleSubmitPayroll).Methods("POST")
	api.HandleFunc("/compose/{sid}/vesting", s.handleSubmitVesting).Methods("POST")

	// Panels
	api.HandleFunc("/locks", s.handleSubmitLock).Methods("POST")
	api.HandleFunc("/faucet", s.handleClaimFaucet).Methods("POST")
	api.HandleFunc("/dashboard/balances", s.handleBalances).Methods("GET")
}

// Handler returns the configured router
func (s *Server) Handler() http.Handler {
	return s.router
}

// handleHealth handles health check requests.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "vesting-console",
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.WithField("addr", s.httpServer.Addr).Info("starting API server")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
