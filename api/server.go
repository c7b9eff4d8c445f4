// Package api exposes the ledger to its collaborators (vault, bridge,
// indexers) over HTTP. Caller identity travels in the X-Caller-Address
// header; authorization itself lives in the service layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shubhamku044/cross-chain-rebase-token/accrual"
	"github.com/shubhamku044/cross-chain-rebase-token/service"
	log "github.com/sirupsen/logrus"
)

// CallerHeader carries the caller identity on every request.
const CallerHeader = "X-Caller-Address"

// Server is the HTTP front of the ledger
type Server struct {
	ledger service.LedgerService
	rates  service.RateService
	roles  service.RoleService
	http   *http.Server
}

// NewServer creates a new API server
func NewServer(addr string, ledger service.LedgerService, rates service.RateService, roles service.RoleService) *Server {
	s := &Server{
		ledger: ledger,
		rates:  rates,
		roles:  roles,
	}
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Router builds the chi router with all ledger routes
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/rate", s.handleGetGlobalRate)
		r.Put("/rate", s.handleSetGlobalRate)
		r.Get("/rate/history", s.handleRateHistory)

		r.Post("/mint", s.handleMint)
		r.Post("/burn", s.handleBurn)
		r.Post("/transfer", s.handleTransfer)
		r.Post("/transfer-from", s.handleTransferFrom)
		r.Post("/approve", s.handleApprove)
		r.Get("/allowance", s.handleAllowance)

		r.Route("/accounts/{address}", func(r chi.Router) {
			r.Get("/", s.handleGetAccount)
			r.Get("/balance", s.handleBalance)
			r.Get("/principal", s.handlePrincipal)
			r.Get("/rate", s.handleAccountRate)
			r.Get("/entries", s.handleEntries)
		})

		r.Get("/roles", s.handleListRoles)
		r.Post("/roles", s.handleGrantRole)
		r.Delete("/roles/{account}", s.handleRevokeRole)
	})

	return r
}

// Start begins serving requests. Blocks until the server stops.
func (s *Server) Start() error {
	log.WithField("addr", s.http.Addr).Info("HTTP server listening")
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// caller extracts the caller identity from the request
func caller(r *http.Request) string {
	return r.Header.Get(CallerHeader)
}

// parseAmount parses a decimal amount string. The literal "max" selects
// the maximum sentinel meaning "the full live balance".
func parseAmount(s string) (*big.Int, error) {
	if s == "max" {
		return accrual.MaxAmount, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if v.Cmp(accrual.MaxAmount) > 0 {
		return nil, fmt.Errorf("amount %q exceeds the maximum representable value", s)
	}
	return v, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors to HTTP statuses. The typed errors
// carry their offending values in the message for diagnostics.
func respondError(w http.ResponseWriter, err error) {
	var unauthorized *service.UnauthorizedError
	var rateIncrease *service.RateIncreaseError
	var insufficientPrincipal *service.InsufficientPrincipalError
	var insufficientAllowance *service.InsufficientAllowanceError

	switch {
	case errors.As(err, &unauthorized):
		respondJSON(w, http.StatusForbidden, errorResponse{Error: err.Error()})
	case errors.As(err, &rateIncrease),
		errors.As(err, &insufficientPrincipal),
		errors.As(err, &insufficientAllowance):
		respondJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
	default:
		log.WithError(err).Error("Unexpected error handling request")
		respondJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func respondBadRequest(w http.ResponseWriter, err error) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}
