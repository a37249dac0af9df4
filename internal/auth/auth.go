// Package auth manages expert accounts and the bearer tokens guarding the
// API. Passwords are bcrypt-hashed; tokens are HS256 JWTs.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/handoverhq/handover/internal/apperr"
	"github.com/handoverhq/handover/internal/store"
)

// Expert is a registered account. The password hash never leaves the package.
type Expert struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	Name         string    `json:"name,omitempty"`
	Role         string    `json:"role,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Public is the account view returned by the API.
type Public struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func (e *Expert) Public() *Public {
	return &Public{ID: e.ID, Username: e.Username, Name: e.Name, Role: e.Role, CreatedAt: e.CreatedAt}
}

func key(id string) string { return "experts/" + id }

type Service struct {
	store  store.Store
	secret []byte
	ttl    time.Duration
}

func NewService(st store.Store, secret string, ttl time.Duration) *Service {
	return &Service{store: st, secret: []byte(secret), ttl: ttl}
}

// Register creates an account. Usernames are unique, case-insensitively.
func (s *Service) Register(ctx context.Context, username, password, name, role string) (*Expert, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 {
		return nil, apperr.Validation("username must be at least 3 characters")
	}
	if len(password) < 6 {
		return nil, apperr.Validation("password must be at least 6 characters")
	}
	existing, err := s.byUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict("username %q is already taken", username)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	expert := &Expert{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Put(ctx, key(expert.ID), expert); err != nil {
		return nil, fmt.Errorf("store expert: %w", err)
	}
	return expert, nil
}

func (s *Service) byUsername(ctx context.Context, username string) (*Expert, error) {
	ids, err := s.store.List(ctx, "experts")
	if err != nil {
		return nil, fmt.Errorf("list experts: %w", err)
	}
	for _, id := range ids {
		var e Expert
		if err := s.store.Get(ctx, key(id), &e); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("load expert %s: %w", id, err)
		}
		if strings.EqualFold(e.Username, username) {
			return &e, nil
		}
	}
	return nil, nil
}

// Login verifies the credentials and mints a token. The same error covers an
// unknown username and a wrong password.
func (s *Service) Login(ctx context.Context, username, password string) (string, *Expert, error) {
	expert, err := s.byUsername(ctx, username)
	if err != nil {
		return "", nil, err
	}
	if expert == nil {
		return "", nil, apperr.Validation("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(expert.PasswordHash), []byte(password)); err != nil {
		return "", nil, apperr.Validation("invalid username or password")
	}
	token, err := s.mint(expert)
	if err != nil {
		return "", nil, err
	}
	return token, expert, nil
}

type claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func (s *Service) mint(expert *Expert) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: expert.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   expert.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the account it names.
func (s *Service) Verify(ctx context.Context, tokenString string) (*Expert, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Validation("invalid or expired token")
	}
	return s.Get(ctx, c.Subject)
}

func (s *Service) Get(ctx context.Context, id string) (*Expert, error) {
	var e Expert
	if err := s.store.Get(ctx, key(id), &e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("expert %s not found", id)
		}
		return nil, fmt.Errorf("load expert %s: %w", id, err)
	}
	return &e, nil
}

// UpdateInput carries profile edits; nil means leave as is.
type UpdateInput struct {
	Name *string
	Role *string
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*Expert, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		e.Name = *in.Name
	}
	if in.Role != nil {
		e.Role = *in.Role
	}
	e.UpdatedAt = time.Now().UTC()
	if err := s.store.Put(ctx, key(id), e); err != nil {
		return nil, fmt.Errorf("store expert %s: %w", id, err)
	}
	return e, nil
}

// Count returns the number of registered experts.
func (s *Service) Count(ctx context.Context) (int, error) {
	ids, err := s.store.List(ctx, "experts")
	if err != nil {
		return 0, fmt.Errorf("list experts: %w", err)
	}
	return len(ids), nil
}
