package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"todo-platform/internal/audit"
	"todo-platform/internal/users"
	"todo-platform/pkg/logger"
)

// Encryptor obscures refresh tokens at rest.
type Encryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

const defaultStoreTimeout = 2 * time.Second

// Service implements the credential and session flows on top of Manager.
type Service struct {
	users     users.Repository
	tokens    *Manager
	hasher    *PasswordHasher
	enc       Encryptor
	audit     *audit.Service
	avatarURL string
	timeout   time.Duration
}

type ServiceDeps struct {
	Users            users.Repository
	Tokens           *Manager
	Hasher           *PasswordHasher
	Encryptor        Encryptor
	Audit            *audit.Service
	DefaultAvatarURL string
	// StoreTimeout bounds each user repository call. Zero means 2s.
	StoreTimeout time.Duration
}

func NewService(d ServiceDeps) (*Service, error) {
	if d.Users == nil || d.Tokens == nil || d.Hasher == nil || d.Encryptor == nil {
		return nil, errors.New("auth: users, tokens, hasher and encryptor are required")
	}
	timeout := d.StoreTimeout
	if timeout <= 0 {
		timeout = defaultStoreTimeout
	}
	return &Service{
		timeout:   timeout,
		users:     d.Users,
		tokens:    d.Tokens,
		hasher:    d.Hasher,
		enc:       d.Encryptor,
		audit:     d.Audit,
		avatarURL: d.DefaultAvatarURL,
	}, nil
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

func (s *Service) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// NormalizeEmail is applied to every email before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (users.User, error) {
	email := NormalizeEmail(in.Email)
	lookupCtx, cancel := s.storeCtx(ctx)
	_, err := s.users.FindByEmail(lookupCtx, email)
	cancel()
	if err == nil {
		return users.User{}, users.ErrEmailTaken
	} else if !errors.Is(err, users.ErrNotFound) {
		return users.User{}, fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return users.User{}, fmt.Errorf("hash password: %w", err)
	}

	createCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	u, err := s.users.Create(createCtx, users.User{
		Name:            strings.TrimSpace(in.Name),
		Email:           email,
		Role:            users.RoleUser,
		PasswordHash:    hash,
		ProfileImageURL: s.avatarURL,
	})
	if err != nil {
		return users.User{}, err
	}
	authEvents.WithLabelValues("register", "ok").Inc()
	s.audit.Record(ctx, audit.EventTypeRegister, u.ID, u.Email, "")
	return u, nil
}

// Login returns ErrInvalidCredentials for both unknown email and wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	email = NormalizeEmail(email)
	lookupCtx, cancel := s.storeCtx(ctx)
	u, err := s.users.FindByEmail(lookupCtx, email)
	cancel()
	if err != nil && !errors.Is(err, users.ErrNotFound) {
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Check(u.PasswordHash, password)
	if err != nil {
		return TokenPair{}, fmt.Errorf("check password: %w", err)
	}
	if !ok {
		authEvents.WithLabelValues("login", "invalid_credentials").Inc()
		s.audit.Record(ctx, audit.EventTypeLoginFailed, u.ID, email, "")
		return TokenPair{}, ErrInvalidCredentials
	}

	pair, err := s.issueAndEncrypt(u)
	if err != nil {
		return TokenPair{}, err
	}
	persistCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.users.SetRefreshToken(persistCtx, u.ID, pair.encrypted); err != nil {
		return TokenPair{}, fmt.Errorf("persist refresh token: %w", err)
	}

	authEvents.WithLabelValues("login", "ok").Inc()
	s.audit.Record(ctx, audit.EventTypeLogin, u.ID, u.Email, "")
	return pair.TokenPair, nil
}

// Refresh exchanges a refresh token for a new pair. The presented token must
// equal the one stored for the user; any other valid-looking token (already
// rotated out, or presented after logout) is treated as reuse and ends the session.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	p, err := s.tokens.Validate(refreshToken, TokenTypeRefresh)
	if err != nil {
		tokenValidations.WithLabelValues(string(TokenTypeRefresh), reasonOf(err)).Inc()
		logger.From(ctx).Debug("refresh token rejected", "reason", reasonOf(err), "token", TokenPrefix(refreshToken))
		return TokenPair{}, err
	}

	var (
		out    TokenPair
		reused bool
	)
	rotateCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	err = s.users.RotateRefreshToken(rotateCtx, p.UserID, func(u users.User) (string, error) {
		if !s.matchesStored(u.RefreshTokenEncrypted, refreshToken) {
			reused = true
			return "", nil
		}
		pair, err := s.issueAndEncrypt(u)
		if err != nil {
			return "", err
		}
		out = pair.TokenPair
		return pair.encrypted, nil
	})
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return TokenPair{}, tokenErr(ReasonRevoked, errors.New("user no longer exists"))
		}
		return TokenPair{}, fmt.Errorf("rotate refresh token: %w", err)
	}
	if reused {
		authEvents.WithLabelValues("refresh", "reuse").Inc()
		logger.From(ctx).Warn("refresh token reuse detected", "user_id", p.UserID, "token", TokenPrefix(refreshToken))
		s.audit.Record(ctx, audit.EventTypeRefreshReuse, p.UserID, p.Email, "stored session revoked")
		return TokenPair{}, tokenErr(ReasonRevoked, errors.New("refresh token does not match active session"))
	}

	tokenValidations.WithLabelValues(string(TokenTypeRefresh), "ok").Inc()
	authEvents.WithLabelValues("refresh", "ok").Inc()
	s.audit.Record(ctx, audit.EventTypeRefresh, p.UserID, p.Email, "")
	return out, nil
}

// Logout clears the stored refresh token. Outstanding access tokens stay valid until they expire.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	clearCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	if err := s.users.SetRefreshToken(clearCtx, userID, ""); err != nil {
		return fmt.Errorf("clear refresh token: %w", err)
	}
	authEvents.WithLabelValues("logout", "ok").Inc()
	s.audit.Record(ctx, audit.EventTypeLogout, userID, "", "")
	return nil
}

type encryptedPair struct {
	TokenPair
	encrypted string
}

func (s *Service) issueAndEncrypt(u users.User) (encryptedPair, error) {
	pair, err := s.tokens.IssuePair(Subject{UserID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return encryptedPair{}, fmt.Errorf("issue tokens: %w", err)
	}
	ct, err := s.enc.Encrypt(pair.RefreshToken)
	if err != nil {
		return encryptedPair{}, fmt.Errorf("encrypt refresh token: %w", err)
	}
	return encryptedPair{TokenPair: pair, encrypted: ct}, nil
}

func (s *Service) matchesStored(stored, presented string) bool {
	if stored == "" {
		return false
	}
	plain, err := s.enc.Decrypt(stored)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(plain), []byte(presented)) == 1
}

func reasonOf(err error) string {
	var te *TokenError
	if errors.As(err, &te) {
		return string(te.Reason)
	}
	return string(ReasonMalformed)
}
