package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/recipients"
	"github.com/vesting-console/internal/service"
)

// composeSessionFor resolves {sid} or writes a 404
func (s *Server) composeSessionFor(w http.ResponseWriter, r *http.Request) (*composeSession, bool) {
	sid := mux.Vars(r)["sid"]
	session, ok := s.sessions.get(sid)
	if !ok {
		respondServiceError(w, r, apperrors.NewNotFoundError("compose session", sid))
		return nil, false
	}
	return session, true
}

// handleCreateCompose handles POST /api/compose
func (s *Server) handleCreateCompose(w http.ResponseWriter, r *http.Request) {
	session := s.sessions.create()
	respondJSON(w, http.StatusCreated, session.view())
}

// handleGetCompose handles GET /api/compose/{sid}
func (s *Server) handleGetCompose(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, session.view())
}

// handleDeleteCompose handles DELETE /api/compose/{sid}
func (s *Server) handleDeleteCompose(w http.ResponseWriter, r *http.Request) {
	sid := mux.Vars(r)["sid"]
	if !s.sessions.remove(sid) {
		respondServiceError(w, r, apperrors.NewNotFoundError("compose session", sid))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAddEntry handles POST /api/compose/{sid}/entries
func (s *Server) handleAddEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}
	session.composer.AddEntry()
	respondJSON(w, http.StatusCreated, session.view())
}

// handleUpdateEntry handles PUT /api/compose/{sid}/entries/{index}
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	var req struct {
		Address string `json:"address"`
		Amount  string `json:"amount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	if err := session.composer.UpdateEntry(index, req.Address, req.Amount); err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, session.view())
}

// handleRemoveEntry handles DELETE /api/compose/{sid}/entries/{index}
func (s *Server) handleRemoveEntry(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	index, _ := strconv.Atoi(mux.Vars(r)["index"])
	session.composer.RemoveEntry(index)
	respondJSON(w, http.StatusOK, session.view())
}

// handleComposeContacts handles GET /api/compose/{sid}/contacts?q= - the
// contact picker, filtered locally without touching the session's list
func (s *Server) handleComposeContacts(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	selector := recipients.NewSelector(service.MustContactStore(r.Context()), session.composer)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"options": selector.Options(r.URL.Query().Get("q")),
	})
}

// handleSelectContact handles POST /api/compose/{sid}/selected/{contactId}
func (s *Server) handleSelectContact(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	contactID := mux.Vars(r)["contactId"]
	contact, found := service.MustContactStore(r.Context()).FindContact(contactID)
	if !found {
		respondServiceError(w, r, apperrors.NewNotFoundError("contact", contactID))
		return
	}

	if !session.composer.SelectContact(contact) {
		respondError(w, http.StatusConflict, ErrCodeAlreadySelected, "Contact is already selected", map[string]interface{}{
			"contactId": contactID,
		})
		return
	}
	respondJSON(w, http.StatusOK, session.view())
}

// handleDeselectContact handles DELETE /api/compose/{sid}/selected/{contactId}.
// It works off the session's own selection, so a contact hidden by a search
// can still be deselected.
func (s *Server) handleDeselectContact(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	session.composer.DeselectContact(mux.Vars(r)["contactId"])
	respondJSON(w, http.StatusOK, session.view())
}

// handleSubmitPayroll handles POST /api/compose/{sid}/payroll
func (s *Server) handleSubmitPayroll(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	var req struct {
		Token    string `json:"token"`
		Decimals *int32 `json:"decimals"`
	}
	if err := parseOptionalJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	token, decimals := s.tokenDefaults(req.Token, req.Decimals)

	preview, err := s.panels.SubmitPayroll(r.Context(), session.composer, token, decimals)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.finishCompose(session, preview)
	respondJSON(w, http.StatusOK, preview)
}

// handleSubmitVesting handles POST /api/compose/{sid}/vesting
func (s *Server) handleSubmitVesting(w http.ResponseWriter, r *http.Request) {
	session, ok := s.composeSessionFor(w, r)
	if !ok {
		return
	}

	// Decimals shadows the embedded field so an omitted value can be told apart from 0
	var req struct {
		service.VestingTerms
		Decimals *int32 `json:"decimals"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}
	terms := req.VestingTerms
	terms.Token, terms.Decimals = s.tokenDefaults(terms.Token, req.Decimals)

	preview, err := s.panels.SubmitVesting(r.Context(), session.composer, terms)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	s.finishCompose(session, preview)
	respondJSON(w, http.StatusOK, preview)
}

// finishCompose drops a session whose batch went out to the wallet. A
// preview-only request keeps the session for the next attempt.
func (s *Server) finishCompose(session *composeSession, preview *service.Preview) {
	if preview == nil || !preview.Submitted {
		return
	}
	s.sessions.remove(session.id)
	s.logger.WithField("session_id", session.id).Debug("compose session closed after submit")
}

// tokenDefaults fills in the configured payroll token when the request has none
func (s *Server) tokenDefaults(token string, decimals *int32) (string, int32) {
	if token == "" {
		return s.config.PayrollToken, s.config.PayrollDecimals
	}
	if decimals == nil {
		return token, s.config.PayrollDecimals
	}
	return token, *decimals
}
