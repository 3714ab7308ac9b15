package api

import (
	"net/http"
	"strings"

	"github.com/vesting-console/internal/service"
)

// sessionWallet returns the connected wallet, or writes a 400 when there is none
func sessionWallet(w http.ResponseWriter, r *http.Request) (string, bool) {
	wallet := service.MustContactStore(r.Context()).Wallet()
	if wallet == "" {
		respondError(w, http.StatusBadRequest, ErrCodeNoWallet, "Connect a wallet first", nil)
		return "", false
	}
	return wallet, true
}

// handleSubmitLock handles POST /api/locks
func (s *Server) handleSubmitLock(w http.ResponseWriter, r *http.Request) {
	var req service.LockRequest
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	wallet := service.MustContactStore(r.Context()).Wallet()
	if wallet == "" && strings.TrimSpace(req.Beneficiary) == "" {
		respondError(w, http.StatusBadRequest, ErrCodeNoWallet, "Connect a wallet or name a beneficiary", nil)
		return
	}
	if req.Token == "" {
		req.Token = s.config.PayrollToken
	}

	preview, err := s.panels.SubmitLock(r.Context(), wallet, req)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// handleClaimFaucet handles POST /api/faucet
func (s *Server) handleClaimFaucet(w http.ResponseWriter, r *http.Request) {
	wallet, ok := sessionWallet(w, r)
	if !ok {
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := parseOptionalJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if req.Token == "" {
		req.Token = s.config.PayrollToken
	}

	preview, err := s.panels.ClaimFaucet(r.Context(), wallet, req.Token)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// handleBalances handles GET /api/dashboard/balances?token=...&token=...
func (s *Server) handleBalances(w http.ResponseWriter, r *http.Request) {
	wallet, ok := sessionWallet(w, r)
	if !ok {
		return
	}

	tokens := r.URL.Query()["token"]
	if len(tokens) == 0 && s.config.PayrollToken != "" {
		tokens = []string{s.config.PayrollToken}
	}

	balances, err := s.panels.Balances(r.Context(), wallet, tokens)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, balances)
}
