// Package account handles registration, credentials and API key
// authentication.
package account

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
	"panel-backend/internal/store"
)

const (
	// IdentifierLength is the length of the public part of an API key.
	IdentifierLength = 16
	// SecretLength is the length of the private part of an API key.
	SecretLength = 32

	keyCacheTTL = time.Minute
)

const tokenAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// Approvals is the part of the approvals service registration depends on.
type Approvals interface {
	Enabled(ctx context.Context) (bool, error)
	AnnounceRegistration(ctx context.Context, user *model.User)
}

// RegisterRequest is the sign-up form.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,alphanum,max=191"`
	Email    string `json:"email" binding:"required,email,max=191"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest exchanges credentials for a new API key.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PasswordRequest changes the caller's password.
type PasswordRequest struct {
	CurrentPassword      string `json:"current_password" binding:"required"`
	Password             string `json:"password" binding:"required,min=8"`
	PasswordConfirmation string `json:"password_confirmation" binding:"required"`
}

// NewUser describes an account created by an administrator.
type NewUser struct {
	Username  string
	Email     string
	Password  string
	RootAdmin bool
	Verified  bool
}

// Service manages accounts and API keys.
type Service struct {
	store     store.Store
	approvals Approvals
	keys      *cache.Cache
	cost      int
}

// NewService creates an account service.
func NewService(s store.Store, approvals Approvals) *Service {
	return &Service{
		store:     s,
		approvals: approvals,
		keys:      cache.New(keyCacheTTL, 5*time.Minute),
		cost:      bcrypt.DefaultCost,
	}
}

// Register creates a new account. When approvals are enabled the account
// starts unapproved and the approvals webhook is told about it.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*model.User, error) {
	enabled, err := s.approvals.Enabled(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.create(ctx, NewUser{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	}, !enabled)
	if err != nil {
		return nil, err
	}

	if enabled {
		s.approvals.AnnounceRegistration(ctx, user)
	}
	return user, nil
}

// CreateUser creates an approved account, typically from the CLI.
func (s *Service) CreateUser(ctx context.Context, u NewUser) (*model.User, error) {
	return s.create(ctx, u, true)
}

func (s *Service) create(ctx context.Context, u NewUser, approved bool) (*model.User, error) {
	email := strings.ToLower(strings.TrimSpace(u.Email))
	if _, err := s.store.UserByEmail(ctx, email); err == nil {
		return nil, apperr.Display("The email %s is already in use.", email)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}
	if _, err := s.store.UserByUsername(ctx, u.Username); err == nil {
		return nil, apperr.Display("The username %s is already in use.", u.Username)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:  u.Username,
		Email:     email,
		Password:  string(hash),
		RootAdmin: u.RootAdmin,
		Verified:  u.Verified,
		Approved:  approved,
	}
	err = s.store.CreateUser(ctx, user)
	if errors.Is(err, store.ErrDuplicate) {
		// Lost a race with another sign-up for the same name or email.
		return nil, apperr.Display("The username or email is already in use.")
	}
	if err != nil {
		return nil, err
	}
	log.WithField("user_id", user.ID).Infof("Created account %s", user.Username)
	return user, nil
}

// Login checks the credentials and issues a new API key. The returned string
// is the bearer token and is not stored anywhere in clear text.
func (s *Service) Login(ctx context.Context, req LoginRequest) (string, *model.User, error) {
	invalid := apperr.Display("These credentials do not match our records.")

	user, err := s.store.UserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, apperr.ErrNotFound) {
		return "", nil, invalid
	}
	if err != nil {
		return "", nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return "", nil, invalid
	}

	if err := s.CheckApproved(ctx, user); err != nil {
		return "", nil, err
	}

	token, err := s.CreateAPIKey(ctx, user.ID, "login")
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// UpdatePassword replaces the user's password after checking the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID int64, req PasswordRequest) error {
	if req.Password != req.PasswordConfirmation {
		return apperr.Display("The password confirmation does not match.")
	}

	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return apperr.Display("The password provided was not valid.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Password updated")
	return nil
}

// CreateAPIKey issues a new API key for the user and returns its token.
func (s *Service) CreateAPIKey(ctx context.Context, userID int64, memo string) (string, error) {
	identifier, err := randomString(IdentifierLength)
	if err != nil {
		return "", err
	}
	secret, err := randomString(SecretLength)
	if err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}

	key := &model.APIKey{
		UserID:     userID,
		Identifier: identifier,
		Token:      string(hash),
		Memo:       memo,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return "", err
	}
	return identifier + secret, nil
}

// Authenticate resolves a bearer token to its user. Verified tokens are
// cached for a minute as a user id; the user row is always read fresh so
// approvals, denials and verification apply on the next request.
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if len(token) != IdentifierLength+SecretLength {
		return nil, apperr.ErrUnauthenticated
	}

	sum := sha256.Sum256([]byte(token))
	cacheKey := hex.EncodeToString(sum[:])
	if cached, found := s.keys.Get(cacheKey); found {
		user, err := s.store.UserByID(ctx, cached.(int64))
		if errors.Is(err, apperr.ErrNotFound) {
			s.keys.Delete(cacheKey)
			return nil, apperr.ErrUnauthenticated
		}
		if err != nil {
			return nil, err
		}
		return user, nil
	}

	key, err := s.store.APIKeyByIdentifier(ctx, token[:IdentifierLength])
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(key.Token), []byte(token[IdentifierLength:])) != nil {
		return nil, apperr.ErrUnauthenticated
	}
	if key.User.ID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	if err := s.store.TouchAPIKey(ctx, key.ID, time.Now().UTC()); err != nil {
		log.WithField("api_key_id", key.ID).Warnf("Failed to update key usage: %v", err)
	}

	s.keys.Set(cacheKey, key.UserID, cache.DefaultExpiration)
	user := key.User
	return &user, nil
}

// CheckApproved returns apperr.ErrForbidden when approvals are enabled and
// the user has not been approved yet.
func (s *Service) CheckApproved(ctx context.Context, user *model.User) error {
	if user.Approved || user.RootAdmin {
		return nil
	}
	enabled, err := s.approvals.Enabled(ctx)
	if err != nil {
		return err
	}
	if enabled {
		return apperr.ErrForbidden
	}
	return nil
}

func randomString(n int) (string, error) {
	limit := big.NewInt(int64(len(tokenAlphabet)))
	b := make([]byte, n)
	for i := range b {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to generate random string: %w", err)
		}
		b[i] = tokenAlphabet[idx.Int64()]
	}
	return string(b), nil
}
