// Package testutil provides a fake eggsplain backend for handler and
// client tests: an httptest server speaking the small slice of the Admin
// API the dashboard depends on.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// BackendUser is the user record shape served by the fake backend
type BackendUser struct {
	ID    int            `json:"id"`
	Email string         `json:"email"`
	Name  string         `json:"name,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

// FakeBackend is an in-memory stand-in for the eggsplain Admin API
type FakeBackend struct {
	Server   *httptest.Server
	AdminKey string

	mu     sync.Mutex
	nextID int
	users  map[string]*BackendUser // keyed by email
	tokens map[string]int          // token value to user id
}

// NewFakeBackend starts a fake backend that accepts the given admin key.
// It is shut down automatically when the test finishes.
func NewFakeBackend(t *testing.T, adminKey string) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		AdminKey: adminKey,
		nextID:   1,
		users:    map[string]*BackendUser{},
		tokens:   map[string]int{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /meetings", b.handleMeetings)
	mux.HandleFunc("GET /admin/users", b.adminOnly(b.handleListUsers))
	mux.HandleFunc("GET /admin/users/email/{email}", b.adminOnly(b.handleUserByEmail))
	mux.HandleFunc("GET /admin/users/{id}", b.adminOnly(b.handleUserByID))
	mux.HandleFunc("POST /admin/users", b.adminOnly(b.handleCreateUser))
	mux.HandleFunc("POST /admin/users/{id}/tokens", b.adminOnly(b.handleCreateToken))
	mux.HandleFunc("PATCH /admin/users/{id}", b.adminOnly(b.handleUpdateUser))

	b.Server = httptest.NewServer(mux)
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the backend base URL
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

// AddUser seeds a user and returns its record
func (b *FakeBackend) AddUser(email string) *BackendUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &BackendUser{ID: b.nextID, Email: email, Data: map[string]any{}}
	b.nextID++
	b.users[email] = u
	return u
}

// AddToken registers a valid user token for the given user id
func (b *FakeBackend) AddToken(token string, userID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[token] = userID
}

// User returns the stored record for the address, or nil
func (b *FakeBackend) User(email string) *BackendUser {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.users[email]
}

func (b *FakeBackend) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Admin-API-Key") != b.AdminKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (b *FakeBackend) handleMeetings(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	_, ok := b.tokens[r.Header.Get("X-API-Key")]
	b.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, []any{})
}

func (b *FakeBackend) handleListUsers(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	users := make([]*BackendUser, 0, len(b.users))
	for _, u := range b.users {
		users = append(users, u)
	}
	writeJSON(w, http.StatusOK, users)
}

func (b *FakeBackend) handleUserByEmail(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[r.PathValue("email")]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (b *FakeBackend) handleUserByID(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	for _, u := range b.users {
		if fmt.Sprint(u.ID) == id {
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
}

func (b *FakeBackend) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email is required"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[req.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "User already exists"})
		return
	}
	u := &BackendUser{ID: b.nextID, Email: req.Email, Name: req.Name, Data: map[string]any{}}
	b.nextID++
	b.users[req.Email] = u
	writeJSON(w, http.StatusCreated, u)
}

func (b *FakeBackend) handleCreateToken(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	for _, u := range b.users {
		if fmt.Sprint(u.ID) == id {
			token := fmt.Sprintf("tok-%s-%d", strings.ReplaceAll(u.Email, "@", "-"), len(b.tokens)+1)
			b.tokens[token] = u.ID
			writeJSON(w, http.StatusCreated, map[string]any{"id": len(b.tokens), "token": token})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
}

func (b *FakeBackend) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.PathValue("id")
	for _, u := range b.users {
		if fmt.Sprint(u.ID) == id {
			if patch.Data != nil {
				u.Data = patch.Data
			}
			writeJSON(w, http.StatusOK, u)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
