package services

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"booking-system/config"
	"booking-system/internal/status"
	"booking-system/utils"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"golang.org/x/crypto/bcrypt"
)

// AuthService is the single source of truth for credential hashing and
// session tokens. Every component that needs the caller identity goes
// through it; no handler decodes tokens on its own.
type AuthService struct {
	app core.App
	cfg *config.Config
}

func NewAuthService(app core.App, cfg *config.Config) *AuthService {
	return &AuthService{
		app: app,
		cfg: cfg,
	}
}

// Register creates a user record with a hashed credential and a fresh
// per-user secret seed for final-key derivation.
func (s *AuthService) Register(username, email, password string) (*core.Record, error) {
	if username == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: username, email and password are required", status.ErrValidation)
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	secret, err := utils.GenerateSecretKey()
	if err != nil {
		return nil, fmt.Errorf("generate secret key: %w", err)
	}

	collection, err := s.app.FindCollectionByNameOrId("users")
	if err != nil {
		return nil, err
	}

	user := core.NewRecord(collection)
	user.Set("username", username)
	user.Set("email", email)
	user.Set("password_hash", hash)
	user.Set("is_admin", false)
	user.Set("secret_key", secret)

	// The unique indexes are the authoritative duplicate guard: a
	// check-then-insert would let two concurrent registers through. A
	// rejected save is classified by looking up which value is taken.
	if err := s.app.Save(user); err != nil {
		if taken, _ := s.app.FindFirstRecordByFilter("users", "email = {:email}", dbx.Params{"email": email}); taken != nil {
			return nil, status.ErrEmailTaken
		}
		if taken, _ := s.app.FindFirstRecordByFilter("users", "username = {:username}", dbx.Params{"username": username}); taken != nil {
			return nil, fmt.Errorf("%w: username already taken", status.ErrValidation)
		}
		return nil, fmt.Errorf("save user: %w", err)
	}

	slog.Info("user registered", "user", user.Id, "email", email)
	return user, nil
}

// Login verifies the credential and issues a session token.
func (s *AuthService) Login(email, password string) (string, error) {
	user, err := s.app.FindFirstRecordByFilter("users", "email = {:email}", dbx.Params{"email": email})
	if err != nil || user == nil {
		return "", status.ErrBadCredentials
	}

	if !s.VerifyPassword(password, user.GetString("password_hash")) {
		return "", status.ErrBadCredentials
	}

	return s.IssueToken(email)
}

func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (s *AuthService) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// IssueToken signs an HS256 token carrying the user email as subject.
func (s *AuthService) IssueToken(email string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   email,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// DecodeToken validates a token and returns the subject email.
func (s *AuthService) DecodeToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", status.ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", status.ErrInvalidToken
	}
	return claims.Subject, nil
}

// UserFromRequest resolves the caller from the Authorization header.
// A token for a deleted user is treated the same as an invalid token.
func (s *AuthService) UserFromRequest(e *core.RequestEvent) (*core.Record, error) {
	header := e.Request.Header.Get("Authorization")
	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || tokenString == "" {
		return nil, status.ErrInvalidToken
	}

	email, err := s.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	user, err := s.app.FindFirstRecordByFilter("users", "email = {:email}", dbx.Params{"email": email})
	if err != nil || user == nil {
		return nil, status.ErrInvalidToken
	}

	return user, nil
}

// RequireAdmin rejects callers without the role flag.
func (s *AuthService) RequireAdmin(user *core.Record) error {
	if !user.GetBool("is_admin") {
		return status.ErrForbidden
	}
	return nil
}

// UserSecret returns the caller's proof seed, assigning one on first use
// for accounts created before the seed existed.
func (s *AuthService) UserSecret(user *core.Record) (string, error) {
	if secret := user.GetString("secret_key"); secret != "" {
		return secret, nil
	}

	secret, err := utils.GenerateSecretKey()
	if err != nil {
		return "", err
	}

	user.Set("secret_key", secret)
	if err := s.app.Save(user); err != nil {
		return "", err
	}
	return secret, nil
}

// IsAuthError reports whether err belongs to the credential/token family.
func IsAuthError(err error) bool {
	return errors.Is(err, status.ErrInvalidToken) || errors.Is(err, status.ErrBadCredentials)
}
