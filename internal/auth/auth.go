package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"storefront/backend/internal/domain"
	"storefront/backend/internal/kv"
	"storefront/backend/internal/xid"
)

const (
	// DefaultSessionTTL is the sliding session window. Every successful
	// validation pushes the expiry out by this much.
	DefaultSessionTTL = 30 * time.Minute

	stateKey = "auth_state_v1"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserExists         = errors.New("user already exists")
)

type session struct {
	UserID    string    `json:"userId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type storedUser struct {
	User         domain.User `json:"user"`
	PasswordHash string      `json:"passwordHash"`
}

// Service owns user accounts and sessions. All state is in memory, with a
// JSON snapshot written through to the kv store after every mutation so a
// restart picks up where it left off.
type Service struct {
	mu         sync.RWMutex
	users      map[string]*storedUser
	byEmail    map[string]string
	sessions   map[string]session
	sessionTTL time.Duration
	state      kv.Store
}

type persistedState struct {
	Users        map[string]*storedUser `json:"users"`
	UsersByEmail map[string]string      `json:"usersByEmail"`
	Sessions     map[string]session     `json:"sessions"`
}

func NewService(state kv.Store, sessionTTL time.Duration) *Service {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	svc := &Service{
		users:      make(map[string]*storedUser),
		byEmail:    make(map[string]string),
		sessions:   make(map[string]session),
		sessionTTL: sessionTTL,
		state:      state,
	}
	// context.Background() is appropriate here because this is a startup
	// operation that runs before any request context exists.
	svc.restore(context.Background())
	return svc
}

// RegisterCustomer creates a customer account. Email is the unique login key.
func (s *Service) RegisterCustomer(ctx context.Context, name, email, password, phone, deliveryAddress string) (domain.User, error) {
	return s.register(ctx, domain.RoleCustomer, name, email, password, phone, deliveryAddress, nil)
}

// RegisterAdmin creates an admin account with the given permissions. Intended
// for seeding and for existing admins provisioning staff.
func (s *Service) RegisterAdmin(ctx context.Context, name, email, password, phone string, permissions []string) (domain.User, error) {
	return s.register(ctx, domain.RoleAdmin, name, email, password, phone, "", permissions)
}

func (s *Service) register(ctx context.Context, role, name, email, password, phone, deliveryAddress string, permissions []string) (domain.User, error) {
	if len(strings.TrimSpace(password)) < 6 {
		return domain.User{}, fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}

	userID := xid.New("usr")
	var (
		user domain.User
		err  error
	)
	if role == domain.RoleAdmin {
		user, err = domain.NewAdmin(userID, name, email, phone, permissions)
	} else {
		user, err = domain.NewCustomer(userID, name, email, phone, deliveryAddress)
	}
	if err != nil {
		return domain.User{}, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	if _, taken := s.byEmail[user.Email]; taken {
		s.mu.Unlock()
		return domain.User{}, fmt.Errorf("%w: email %s", ErrUserExists, user.Email)
	}
	s.users[user.UserID] = &storedUser{User: user, PasswordHash: hash}
	s.byEmail[user.Email] = user.UserID
	s.mu.Unlock()

	s.persist(ctx)
	return user, nil
}

// Login verifies credentials and opens a session. The returned token is the
// opaque session id, not a signed credential.
func (s *Service) Login(ctx context.Context, email, password string) (domain.User, string, time.Time, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	s.mu.RLock()
	userID, ok := s.byEmail[email]
	var stored *storedUser
	if ok {
		stored = s.users[userID]
	}
	s.mu.RUnlock()

	if stored == nil || !verifyPassword(stored.PasswordHash, password) {
		return domain.User{}, "", time.Time{}, ErrInvalidCredentials
	}

	token := xid.Token()
	expiresAt := time.Now().UTC().Add(s.sessionTTL)

	s.mu.Lock()
	s.sessions[token] = session{UserID: stored.User.UserID, ExpiresAt: expiresAt}
	s.mu.Unlock()

	s.persist(ctx)
	return stored.User, token, expiresAt, nil
}

// ValidateSession checks a session token and, when valid, slides its expiry
// forward by the session TTL. Expired sessions are removed lazily here.
func (s *Service) ValidateSession(ctx context.Context, token string) (domain.User, time.Time, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	sess, ok := s.sessions[token]
	if !ok {
		s.mu.Unlock()
		return domain.User{}, time.Time{}, ErrSessionExpired
	}
	if now.After(sess.ExpiresAt) {
		delete(s.sessions, token)
		s.mu.Unlock()
		s.persist(ctx)
		return domain.User{}, time.Time{}, ErrSessionExpired
	}
	sess.ExpiresAt = now.Add(s.sessionTTL)
	s.sessions[token] = sess
	stored := s.users[sess.UserID]
	s.mu.Unlock()

	if stored == nil {
		return domain.User{}, time.Time{}, ErrSessionExpired
	}
	s.persist(ctx)
	return stored.User, sess.ExpiresAt, nil
}

// Logout drops the session. Logging out an unknown token is a no-op.
func (s *Service) Logout(ctx context.Context, token string) {
	s.mu.Lock()
	_, ok := s.sessions[token]
	delete(s.sessions, token)
	s.mu.Unlock()
	if ok {
		s.persist(ctx)
	}
}

// ChangePassword verifies the old password before setting the new one, then
// revokes every other session the user holds.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword, keepToken string) error {
	if len(strings.TrimSpace(newPassword)) < 6 {
		return fmt.Errorf("%w: password must be at least 6 characters", domain.ErrInvalidInput)
	}

	s.mu.Lock()
	stored, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return ErrInvalidCredentials
	}
	if !verifyPassword(stored.PasswordHash, oldPassword) {
		s.mu.Unlock()
		return ErrInvalidCredentials
	}
	hash, err := hashPassword(newPassword)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("hash password: %w", err)
	}
	stored.PasswordHash = hash
	for token, sess := range s.sessions {
		if sess.UserID == userID && token != keepToken {
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

func (s *Service) GetUser(userID string) (domain.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[userID]
	if !ok {
		return domain.User{}, false
	}
	return stored.User, true
}

// CheckPermission reports whether the user may perform the named action.
// Admins need the matching permission grant; customers always fail.
func (s *Service) CheckPermission(userID, permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored, ok := s.users[userID]
	if !ok {
		return false
	}
	return stored.User.HasPermission(permission)
}

// UpdateUser applies fn to the stored user under the write lock and persists
// the result. Used for cart attachment, order history and admin audit stamps.
func (s *Service) UpdateUser(ctx context.Context, userID string, fn func(*domain.User)) error {
	s.mu.Lock()
	stored, ok := s.users[userID]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("user %s: %w", userID, ErrInvalidCredentials)
	}
	fn(&stored.User)
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// SeedAdmin creates an admin account if the email is not already registered.
func (s *Service) SeedAdmin(ctx context.Context, name, email, password string, permissions []string) {
	if strings.TrimSpace(password) == "" {
		return
	}
	if _, err := s.RegisterAdmin(ctx, name, email, password, "", permissions); err != nil && !errors.Is(err, ErrUserExists) {
		log.Printf("[auth] WARN: seed admin %s: %v", email, err)
	}
}

func (s *Service) persist(ctx context.Context) {
	if s.state == nil {
		return
	}
	s.mu.RLock()
	snapshot := persistedState{Users: s.users, UsersByEmail: s.byEmail, Sessions: s.sessions}
	payload, err := json.Marshal(snapshot)
	s.mu.RUnlock()
	if err != nil {
		log.Printf("[auth] WARN: encode state: %v", err)
		return
	}
	if err := s.state.Set(ctx, stateKey, payload); err != nil {
		log.Printf("[auth] WARN: persist state: %v", err)
	}
}

func (s *Service) restore(ctx context.Context) {
	if s.state == nil {
		return
	}
	payload, found, err := s.state.Get(ctx, stateKey)
	if err != nil {
		log.Printf("[auth] WARN: load state: %v", err)
		return
	}
	if !found {
		return
	}
	var snapshot persistedState
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		log.Printf("[auth] WARN: decode state: %v", err)
		return
	}

	now := time.Now().UTC()
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, stored := range snapshot.Users {
		if stored == nil || stored.User.UserID == "" {
			continue
		}
		s.users[userID] = stored
		s.byEmail[stored.User.Email] = userID
	}
	// Older snapshots carried no index; entries are only trusted when they
	// point at a restored user.
	for email, userID := range snapshot.UsersByEmail {
		if _, ok := s.users[userID]; ok {
			s.byEmail[email] = userID
		}
	}
	for token, sess := range snapshot.Sessions {
		if now.After(sess.ExpiresAt) {
			continue
		}
		s.sessions[token] = sess
	}
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
