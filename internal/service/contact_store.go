package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	apperrors "github.com/vesting-console/internal/errors"
	"github.com/vesting-console/internal/logging"
	"github.com/vesting-console/internal/models"
)

// ContactsAPI is the part of the contacts client the store depends on
type ContactsAPI interface {
	CreateWorker(ctx context.Context, input *models.WorkerInput) (*models.Worker, error)
	GetWorkersByWallet(ctx context.Context, address string) ([]models.Worker, error)
	SearchWorkers(ctx context.Context, query, ownerAddress string) ([]models.Worker, error)
	UpdateWorker(ctx context.Context, id string, patch *models.WorkerPatch) (*models.Worker, error)
	DeleteWorker(ctx context.Context, id string) (string, error)
	CountActive(ctx context.Context, savedBy string) (int, error)
}

// ContactStoreConfig holds optional store behaviour
type ContactStoreConfig struct {
	// ReconcileAfterMutation re-fetches the owner's list after every successful
	// create, update or delete instead of editing the local copy.
	ReconcileAfterMutation bool
	Logger                 *logging.Logger
}

// State is a point-in-time copy of the store
type State struct {
	Wallet   string          `json:"wallet"`
	Contacts []models.Worker `json:"contacts"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
}

// ContactStore is the client-side view of the connected wallet's contacts.
// Every mutation goes through the contacts API; the local list is edited only
// after the server accepted the change.
type ContactStore struct {
	client    ContactsAPI
	notifier  Notifier
	logger    *logging.Logger
	reconcile bool

	mu         sync.RWMutex
	wallet     string
	contacts   []models.Worker
	inFlight   int
	lastErr    error
	mounted    bool
	generation uint64 // bumped on wallet change so late responses for the old wallet are dropped
}

// NewContactStore creates a store. notifier may be nil.
func NewContactStore(client ContactsAPI, notifier Notifier, cfg *ContactStoreConfig) *ContactStore {
	if cfg == nil {
		cfg = &ContactStoreConfig{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}

	return &ContactStore{
		client:    client,
		notifier:  notifier,
		logger:    logger.WithComponent("contact_store"),
		reconcile: cfg.ReconcileAfterMutation,
		contacts:  []models.Worker{},
	}
}

// Mount performs the initial load. Only the first call does anything.
func (s *ContactStore) Mount(ctx context.Context) error {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return nil
	}
	s.mounted = true
	s.mu.Unlock()

	return s.LoadContacts(ctx)
}

// SetWallet switches the tracked wallet. A different address clears the list
// and reloads it; the same address is a no-op.
func (s *ContactStore) SetWallet(ctx context.Context, address string) error {
	address = strings.TrimSpace(address)

	s.mu.Lock()
	if strings.EqualFold(s.wallet, address) {
		s.mu.Unlock()
		return nil
	}
	s.wallet = address
	s.contacts = []models.Worker{}
	s.lastErr = nil
	s.generation++
	s.mu.Unlock()

	s.logger.WithField("wallet", address).Info("tracked wallet changed")
	return s.LoadContacts(ctx)
}

// LoadContacts fetches the wallet's contacts and replaces the local list.
// Without a wallet there is nothing to load and it returns nil.
func (s *ContactStore) LoadContacts(ctx context.Context) error {
	wallet, gen := s.current()
	if wallet == "" {
		return nil
	}

	s.begin()
	defer s.end()

	workers, err := s.client.GetWorkersByWallet(ctx, wallet)
	if err != nil {
		s.fail("Failed to load contacts", err)
		return err
	}

	s.mu.Lock()
	if gen == s.generation {
		s.contacts = nonNil(workers)
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.logger.WithFields(map[string]interface{}{
		"wallet": wallet,
		"count":  len(workers),
	}).Debug("contacts loaded")
	return nil
}

// CreateContact saves a new contact owned by the current wallet and appends it
// to the local list. Duplicates are not detected.
func (s *ContactStore) CreateContact(ctx context.Context, input *models.WorkerInput) (*models.Worker, error) {
	wallet, gen := s.current()
	if input == nil {
		err := apperrors.NewValidationError("contact", "input is required")
		s.fail("Failed to create contact", err)
		return nil, err
	}
	if wallet == "" {
		err := apperrors.NewValidationError("wallet", "no wallet connected")
		s.fail("Failed to create contact", err)
		return nil, err
	}

	body := *input
	body.SavedBy = wallet

	s.begin()
	defer s.end()

	created, err := s.client.CreateWorker(ctx, &body)
	if err != nil {
		s.fail("Failed to create contact", err)
		return nil, err
	}

	s.mu.Lock()
	if gen == s.generation {
		s.contacts = append(s.contacts, *created)
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.notifier.Success("Contact created successfully")
	s.reconcileAfterMutation(ctx)
	return created, nil
}

// UpdateContact applies a partial update and replaces the local entry by id
func (s *ContactStore) UpdateContact(ctx context.Context, id string, patch *models.WorkerPatch) (*models.Worker, error) {
	_, gen := s.current()
	if patch == nil {
		patch = &models.WorkerPatch{}
	}

	s.begin()
	defer s.end()

	updated, err := s.client.UpdateWorker(ctx, id, patch)
	if err != nil {
		s.fail("Failed to update contact", err)
		return nil, err
	}

	s.mu.Lock()
	if gen == s.generation {
		for i := range s.contacts {
			if s.contacts[i].ID == id {
				s.contacts[i] = *updated
				break
			}
		}
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.notifier.Success("Contact updated successfully")
	s.reconcileAfterMutation(ctx)
	return updated, nil
}

// DeleteContact deletes a contact and removes it from the local list. An id
// that is not in the local list leaves the list untouched.
func (s *ContactStore) DeleteContact(ctx context.Context, id string) error {
	_, gen := s.current()

	s.begin()
	defer s.end()

	if _, err := s.client.DeleteWorker(ctx, id); err != nil {
		s.fail("Failed to delete contact", err)
		return err
	}

	s.mu.Lock()
	if gen == s.generation {
		for i := range s.contacts {
			if s.contacts[i].ID == id {
				s.contacts = append(s.contacts[:i:i], s.contacts[i+1:]...)
				break
			}
		}
		s.lastErr = nil
	}
	s.mu.Unlock()

	s.notifier.Success("Contact deleted successfully")
	s.reconcileAfterMutation(ctx)
	return nil
}

// SearchContacts replaces the local list with the server's matches for query.
// An empty query reloads the full list, which is the only way back from a search.
func (s *ContactStore) SearchContacts(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.LoadContacts(ctx)
	}

	wallet, gen := s.current()
	if wallet == "" {
		return nil
	}

	s.begin()
	defer s.end()

	workers, err := s.client.SearchWorkers(ctx, query, wallet)
	if err != nil {
		s.fail("Failed to search contacts", err)
		return err
	}

	s.mu.Lock()
	if gen == s.generation {
		s.contacts = nonNil(workers)
		s.lastErr = nil
	}
	s.mu.Unlock()
	return nil
}

// CountActive asks the server how many active contacts the wallet owns
func (s *ContactStore) CountActive(ctx context.Context) (int, error) {
	wallet, _ := s.current()
	if wallet == "" {
		return 0, apperrors.NewValidationError("wallet", "no wallet connected")
	}

	s.begin()
	defer s.end()

	count, err := s.client.CountActive(ctx, wallet)
	if err != nil {
		s.fail("Failed to count contacts", err)
		return 0, err
	}
	return count, nil
}

// Contacts returns a copy of the local list
func (s *ContactStore) Contacts() []models.Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Worker, len(s.contacts))
	copy(out, s.contacts)
	return out
}

// FindContact looks up a contact in the local list
func (s *ContactStore) FindContact(id string) (models.Worker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.contacts {
		if c.ID == id {
			return c, true
		}
	}
	return models.Worker{}, false
}

// Wallet returns the tracked wallet address
func (s *ContactStore) Wallet() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet
}

// Loading reports whether any API call is in flight
func (s *ContactStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inFlight > 0
}

// Err returns the error of the last failed operation, cleared by the next success
func (s *ContactStore) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// Snapshot returns the whole state at once
func (s *ContactStore) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state := State{
		Wallet:   s.wallet,
		Contacts: make([]models.Worker, len(s.contacts)),
		Loading:  s.inFlight > 0,
	}
	copy(state.Contacts, s.contacts)
	if s.lastErr != nil {
		state.Error = s.lastErr.Error()
	}
	return state
}

func (s *ContactStore) current() (string, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wallet, s.generation
}

func (s *ContactStore) begin() {
	s.mu.Lock()
	s.inFlight++
	s.mu.Unlock()
}

func (s *ContactStore) end() {
	s.mu.Lock()
	s.inFlight--
	s.mu.Unlock()
}

func (s *ContactStore) reconcileAfterMutation(ctx context.Context) {
	if !s.reconcile {
		return
	}
	if err := s.LoadContacts(ctx); err != nil {
		s.logger.WithError(err).Warn("reconcile after mutation failed, keeping local edit")
	}
}

func (s *ContactStore) fail(action string, err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	s.logger.WithError(err).Warn(action)
	s.notifier.Failure(fmt.Sprintf("%s: %s", action, userMessage(err)))
}

// userMessage is the part of err worth showing to a person
func userMessage(err error) string {
	var reqErr *apperrors.RequestError
	if stderrors.As(err, &reqErr) && reqErr.Message != "" {
		return reqErr.Message
	}
	if apperrors.IsNetwork(err) {
		return "contacts service is unreachable"
	}
	return err.Error()
}

func nonNil(workers []models.Worker) []models.Worker {
	if workers == nil {
		return []models.Worker{}
	}
	return workers
}
