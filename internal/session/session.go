package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"storefront/internal/api"
	"storefront/internal/models"
)

// AuthError means the auth endpoint answered but no usable token/user
// came back, or the call itself was rejected.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return e.Reason }

// ValidationError is a client-side precondition failure; nothing was sent.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const minPasswordLen = 6

// credentials is the single-row table holding the persisted identity,
// the durable analog of the SPA's localStorage token/user pair.
type credentials struct {
	ID       int64 `gorm:"primaryKey"`
	Token    string
	UserJSON string
}

// OpenState opens (creating if needed) the client state database.
func OpenState(path string) (*gorm.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&credentials{}); err != nil {
		return nil, err
	}
	return db, nil
}

// Store holds the current authenticated identity.
type Store struct {
	Client *api.Client
	Log    *slog.Logger

	db    *gorm.DB
	mu    sync.Mutex
	token string
	user  *models.User
}

// New builds a session store and rehydrates identity from the state
// database when a previous login is still persisted.
func New(db *gorm.DB, log *slog.Logger) *Store {
	s := &Store{Log: log, db: db}

	var creds credentials
	if err := db.First(&creds, 1).Error; err == nil && creds.Token != "" && creds.UserJSON != "" {
		var user models.User
		if err := json.Unmarshal([]byte(creds.UserJSON), &user); err == nil {
			s.token = creds.Token
			s.user = &user
		}
	}
	return s
}

// Token implements api.TokenSource.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Current returns the signed-in user, or nil.
func (s *Store) Current() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) Login(ctx context.Context, email, password string) error {
	raw, err := s.Client.Login(ctx, email, password)
	if err != nil {
		return &AuthError{Reason: authDetail(err, "Login failed")}
	}
	return s.accept(raw)
}

func (s *Store) Register(ctx context.Context, email, password, name string) error {
	if len(password) < minPasswordLen {
		return ValidationError("password must be at least 6 characters")
	}
	raw, err := s.Client.Register(ctx, email, password, name)
	if err != nil {
		return &AuthError{Reason: authDetail(err, "Registration failed")}
	}
	return s.accept(raw)
}

// accept pulls token and user out of an auth response, tolerating both
// known shapes: token under accessToken or token, user under user or as
// the whole payload.
func (s *Store) accept(raw json.RawMessage) error {
	var payload struct {
		AccessToken string          `json:"accessToken"`
		Token       string          `json:"token"`
		User        json.RawMessage `json:"user"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return &AuthError{Reason: "Invalid response from server"}
	}

	token := payload.AccessToken
	if token == "" {
		token = payload.Token
	}

	userRaw := payload.User
	if len(userRaw) == 0 {
		userRaw = raw
	}
	var user models.User
	if err := json.Unmarshal(userRaw, &user); err != nil {
		return &AuthError{Reason: "Invalid response from server"}
	}

	if token == "" || user.ID == 0 {
		return &AuthError{Reason: "Invalid response from server"}
	}

	if err := s.persist(token, &user); err != nil {
		s.Log.Error("persist session", "error", err)
	}

	s.mu.Lock()
	s.token = token
	s.user = &user
	s.mu.Unlock()
	return nil
}

// SetUser replaces the stored user (profile updates) keeping the token.
func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	token := s.token
	s.user = user
	s.mu.Unlock()

	if err := s.persist(token, user); err != nil {
		s.Log.Error("persist session", "error", err)
	}
}

// Logout clears persisted and in-memory identity. No remote call is made.
func (s *Store) Logout() {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	if err := s.db.Delete(&credentials{}, 1).Error; err != nil {
		s.Log.Error("clear session state", "error", err)
	}
}

func (s *Store) persist(token string, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	creds := credentials{ID: 1, Token: token, UserJSON: string(data)}
	return s.db.Save(&creds).Error
}

func authDetail(err error, fallback string) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		if d := apiErr.Detail(); d != "" {
			return d
		}
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
