package api

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/mux"

	"github.com/vesting-console/internal/models"
	"github.com/vesting-console/internal/service"
)

// handleSetWallet handles PUT /api/session/wallet - switch the connected wallet.
// An empty address disconnects.
func (s *Server) handleSetWallet(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Address string `json:"address"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	address := strings.TrimSpace(req.Address)
	if address != "" && !common.IsHexAddress(address) {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid wallet address", map[string]interface{}{
			"address": req.Address,
		})
		return
	}

	store := service.MustContactStore(r.Context())
	if err := store.SetWallet(r.Context(), address); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, store.Snapshot())
}

// handleListContacts handles GET /api/contacts
func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, service.MustContactStore(r.Context()).Snapshot())
}

// handleReloadContacts handles POST /api/contacts/reload
func (s *Server) handleReloadContacts(w http.ResponseWriter, r *http.Request) {
	store := service.MustContactStore(r.Context())
	if err := store.LoadContacts(r.Context()); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// handleCreateContact handles POST /api/contacts
func (s *Server) handleCreateContact(w http.ResponseWriter, r *http.Request) {
	var input models.WorkerInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	created, err := service.MustContactStore(r.Context()).CreateContact(r.Context(), &input)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// handleUpdateContact handles PUT /api/contacts/{id}
func (s *Server) handleUpdateContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var patch models.WorkerPatch
	if err := parseJSONBody(r, &patch); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	if patch.IsEmpty() {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Nothing to update", nil)
		return
	}

	updated, err := service.MustContactStore(r.Context()).UpdateContact(r.Context(), id, &patch)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, updated)
}

// handleDeleteContact handles DELETE /api/contacts/{id}
func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := service.MustContactStore(r.Context()).DeleteContact(r.Context(), id); err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"id":      id,
	})
}

// handleSearchContacts handles GET /api/contacts/search?q=. The result
// replaces the session's contact list; an empty q restores it.
func (s *Server) handleSearchContacts(w http.ResponseWriter, r *http.Request) {
	store := service.MustContactStore(r.Context())
	if err := store.SearchContacts(r.Context(), r.URL.Query().Get("q")); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, store.Snapshot())
}

// handleCountContacts handles GET /api/contacts/count
func (s *Server) handleCountContacts(w http.ResponseWriter, r *http.Request) {
	store := service.MustContactStore(r.Context())
	count, err := store.CountActive(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"wallet": store.Wallet(),
		"active": count,
	})
}

// handleNotifications handles GET /api/notifications
func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": s.notifications.Drain(),
	})
}
