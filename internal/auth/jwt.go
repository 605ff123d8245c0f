package auth

import (
	"errors"
	"time"

	"todo-platform/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Manager issues and validates HS256 tokens. Each token kind has its own
// secret, so a token can only verify under the key of the kind it was issued as.
type Manager struct {
	keys     map[TokenType][]byte
	ttls     map[TokenType]time.Duration
	issuer   string
	audience string
	clock    func() time.Time
}

func NewManager(cfg config.AuthConfig) (*Manager, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("JWT_ACCESS_SECRET and JWT_REFRESH_SECRET are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, errors.New("token TTLs must be positive")
	}

	return &Manager{
		keys: map[TokenType][]byte{
			TokenTypeAccess:  []byte(cfg.AccessSecret),
			TokenTypeRefresh: []byte(cfg.RefreshSecret),
		},
		ttls: map[TokenType]time.Duration{
			TokenTypeAccess:  cfg.AccessTokenTTL,
			TokenTypeRefresh: cfg.RefreshTokenTTL,
		},
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		clock:    time.Now,
	}, nil
}

/* ===================== ISSUE TOKENS ===================== */

func (m *Manager) IssueAccessToken(s Subject) (string, error) {
	return m.issue(TokenTypeAccess, s)
}

func (m *Manager) IssueRefreshToken(s Subject) (string, error) {
	return m.issue(TokenTypeRefresh, s)
}

func (m *Manager) IssuePair(s Subject) (TokenPair, error) {
	access, err := m.IssueAccessToken(s)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := m.IssueRefreshToken(s)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// AccessTTL is exposed for the token response body.
func (m *Manager) AccessTTL() time.Duration { return m.ttls[TokenTypeAccess] }

/* ===================== VALIDATE TOKEN ===================== */

// Validate verifies tokenString under the key of kind and returns the principal.
// Errors are always *TokenError:
//   - expired: signature valid, exp in the past (no leeway)
//   - wrong-scope: signature only verifies under the other kind's key, or token_type mismatches
//   - malformed: anything else
func (m *Manager) Validate(tokenString string, kind TokenType) (Principal, error) {
	key, ok := m.keys[kind]
	if !ok {
		return Principal{}, tokenErr(ReasonMalformed, errors.New("unknown token kind"))
	}

	var claims Claims
	if err := m.verifySignature(tokenString, key, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			var other Claims
			if m.verifySignature(tokenString, m.keys[otherKind(kind)], &other) == nil {
				return Principal{}, tokenErr(ReasonWrongScope, err)
			}
		}
		return Principal{}, tokenErr(ReasonMalformed, err)
	}

	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(m.clock),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}
	if err := jwt.NewValidator(opts...).Validate(claims.RegisteredClaims); err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Principal{}, tokenErr(ReasonExpired, err)
		}
		return Principal{}, tokenErr(ReasonMalformed, err)
	}

	if claims.TokenType != kind {
		return Principal{}, tokenErr(ReasonWrongScope, errors.New("token_type mismatch"))
	}
	if claims.Subject == "" {
		return Principal{}, tokenErr(ReasonMalformed, errors.New("sub missing"))
	}
	if claims.UserID <= 0 {
		return Principal{}, tokenErr(ReasonMalformed, errors.New("user_id missing"))
	}

	return Principal{UserID: claims.UserID, Email: claims.Subject, Role: claims.Role}, nil
}

// verifySignature checks structure, algorithm and MAC only; time claims are validated separately.
// Strict decoding rejects non-canonical base64, so the padding bits of the last
// signature character cannot be altered.
func (m *Manager) verifySignature(tokenString string, key []byte, claims *Claims) error {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithStrictDecoding(),
		jwt.WithoutClaimsValidation(),
	)
	_, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return key, nil
	})
	return err
}

/* ===================== INTERNAL ISSUE ===================== */

func (m *Manager) issue(kind TokenType, s Subject) (string, error) {
	if s.UserID <= 0 || s.Email == "" {
		return "", errors.New("subject requires user id and email")
	}
	now := m.clock()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.Email,
			Issuer:    m.issuer,
			Audience:  audienceOrNil(m.audience),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttls[kind])),
			ID:        uuid.NewString(),
		},
		UserID:    s.UserID,
		Role:      s.Role,
		TokenType: kind,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.keys[kind])
}

func otherKind(k TokenType) TokenType {
	if k == TokenTypeAccess {
		return TokenTypeRefresh
	}
	return TokenTypeAccess
}

func audienceOrNil(aud string) jwt.ClaimStrings {
	if aud == "" {
		return nil
	}
	return jwt.ClaimStrings{aud}
}

// TokenPrefix returns a short, log-safe fragment of a token.
func TokenPrefix(token string) string {
	const n = 10
	if len(token) <= n {
		return "***"
	}
	return token[:n] + "..."
}
