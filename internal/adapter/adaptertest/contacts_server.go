// Package adaptertest provides an in-memory contacts API for tests.
package adaptertest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/vesting-console/internal/models"
	"github.com/vesting-console/internal/types"
)

type failure struct {
	status  int
	message string
}

// ContactsServer mimics the remote contacts API routes over httptest.
type ContactsServer struct {
	*httptest.Server

	mu       sync.Mutex
	workers  []models.Worker
	calls    map[string]int
	headers  []http.Header
	failNext *failure
}

// NewContactsServer starts a fake contacts API. Close it when done.
func NewContactsServer() *ContactsServer {
	s := &ContactsServer{calls: make(map[string]int)}

	router := mux.NewRouter()
	router.Use(s.record)
	router.HandleFunc("/", s.handleCreate).Methods(http.MethodPost)
	router.HandleFunc("/", s.handleList).Methods(http.MethodGet)
	router.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	router.HandleFunc("/count/{savedBy}", s.handleCount).Methods(http.MethodGet)
	router.HandleFunc("/{id}", s.handleGet).Methods(http.MethodGet)
	router.HandleFunc("/{id}", s.handleUpdate).Methods(http.MethodPut)
	router.HandleFunc("/{id}", s.handleDelete).Methods(http.MethodDelete)

	s.Server = httptest.NewServer(router)
	return s
}

// Seed stores workers as if they had been created earlier
func (s *ContactsServer) Seed(workers ...models.Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, w := range workers {
		if w.ID == "" {
			w.ID = uuid.New().String()
		}
		s.workers = append(s.workers, w)
	}
}

// FailNext makes the next request fail with status and message
func (s *ContactsServer) FailNext(status int, message string) {
	s.mu.Lock()
	s.failNext = &failure{status: status, message: message}
	s.mu.Unlock()
}

// Calls returns how many times "METHOD /path-template" was hit
func (s *ContactsServer) Calls(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[key]
}

// Headers returns the headers of every request received so far
func (s *ContactsServer) Headers() []http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]http.Header, len(s.headers))
	copy(out, s.headers)
	return out
}

// Workers returns a copy of the stored workers
func (s *ContactsServer) Workers() []models.Worker {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Worker, len(s.workers))
	copy(out, s.workers)
	return out
}

func (s *ContactsServer) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				template = tpl
			}
		}

		s.mu.Lock()
		s.calls[r.Method+" "+template]++
		s.headers = append(s.headers, r.Header.Clone())
		fail := s.failNext
		s.failNext = nil
		s.mu.Unlock()

		if fail != nil {
			writeJSON(w, fail.status, map[string]string{"message": fail.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *ContactsServer) handleCreate(w http.ResponseWriter, r *http.Request) {
	var input models.WorkerInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}
	if input.WalletAddress == "" || input.SavedBy == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "walletAddress and savedBy are required"})
		return
	}

	now := time.Now().UTC()
	worker := models.Worker{
		ID:            uuid.New().String(),
		FullName:      input.FullName,
		WalletAddress: input.WalletAddress,
		Email:         input.Email,
		Label:         input.Label,
		SavedBy:       input.SavedBy,
		IsActive:      input.IsActive == nil || *input.IsActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	s.mu.Lock()
	s.workers = append(s.workers, worker)
	s.mu.Unlock()

	writeJSON(w, http.StatusCreated, types.Envelope[models.Worker]{Data: worker, Message: "Worker created successfully"})
}

func (s *ContactsServer) handleList(w http.ResponseWriter, r *http.Request) {
	savedBy := r.URL.Query().Get("savedBy")

	s.mu.Lock()
	result := []models.Worker{}
	for _, worker := range s.workers {
		if savedBy == "" || strings.EqualFold(worker.SavedBy, savedBy) {
			result = append(result, worker)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.Envelope[[]models.Worker]{Data: result, Message: "Workers retrieved"})
}

func (s *ContactsServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.ToLower(r.URL.Query().Get("q"))
	savedBy := r.URL.Query().Get("savedBy")

	s.mu.Lock()
	result := []models.Worker{}
	for _, worker := range s.workers {
		if savedBy != "" && !strings.EqualFold(worker.SavedBy, savedBy) {
			continue
		}
		haystack := strings.ToLower(strings.Join([]string{worker.FullName, worker.WalletAddress, worker.Email, worker.Label}, " "))
		if strings.Contains(haystack, q) {
			result = append(result, worker)
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.Envelope[[]models.Worker]{Data: result, Message: "Search completed"})
}

func (s *ContactsServer) handleCount(w http.ResponseWriter, r *http.Request) {
	savedBy := mux.Vars(r)["savedBy"]

	s.mu.Lock()
	count := 0
	for _, worker := range s.workers {
		if worker.IsActive && strings.EqualFold(worker.SavedBy, savedBy) {
			count++
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.Envelope[int]{Data: count, Message: "Count retrieved"})
}

func (s *ContactsServer) handleGet(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	idx := s.indexOf(mux.Vars(r)["id"])
	var worker models.Worker
	if idx >= 0 {
		worker = s.workers[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Worker not found"})
		return
	}
	writeJSON(w, http.StatusOK, types.Envelope[models.Worker]{Data: worker, Message: "Worker retrieved"})
}

func (s *ContactsServer) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch models.WorkerPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return
	}

	s.mu.Lock()
	idx := s.indexOf(mux.Vars(r)["id"])
	if idx < 0 {
		s.mu.Unlock()
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Worker not found"})
		return
	}
	worker := &s.workers[idx]
	if patch.FullName != nil {
		worker.FullName = *patch.FullName
	}
	if patch.WalletAddress != nil {
		worker.WalletAddress = *patch.WalletAddress
	}
	if patch.Email != nil {
		worker.Email = *patch.Email
	}
	if patch.Label != nil {
		worker.Label = *patch.Label
	}
	if patch.IsActive != nil {
		worker.IsActive = *patch.IsActive
	}
	worker.UpdatedAt = time.Now().UTC()
	updated := *worker
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, types.Envelope[models.Worker]{Data: updated, Message: "Worker updated successfully"})
}

func (s *ContactsServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	idx := s.indexOf(mux.Vars(r)["id"])
	if idx >= 0 {
		s.workers = append(s.workers[:idx], s.workers[idx+1:]...)
	}
	s.mu.Unlock()

	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Worker not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Worker deleted successfully"})
}

// indexOf must be called with s.mu held
func (s *ContactsServer) indexOf(id string) int {
	for i, worker := range s.workers {
		if worker.ID == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
