package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// Issuer and audience are fixed constants; tokens minted elsewhere do
	// not verify here.
	Issuer   = "gcg-document-hub"
	Audience = "gcg-users"
)

// Claims is the signed payload embedded in every token.
type Claims struct {
	UserID          string `json:"userId"`
	Email           string `json:"email"`
	Role            Role   `json:"role"`
	DirektoratID    string `json:"direktoratId,omitempty"`
	SubdirektoratID string `json:"subdirektoratId,omitempty"`
	DivisiID        string `json:"divisiId,omitempty"`
	jwt.RegisteredClaims
}

// ClaimsFor builds the minimal claim set for an identity.
func ClaimsFor(id Identity) Claims {
	return Claims{
		UserID:          id.ID,
		Email:           id.Email,
		Role:            id.Role,
		DirektoratID:    id.DirektoratID,
		SubdirektoratID: id.SubdirektoratID,
		DivisiID:        id.DivisiID,
	}
}

// TokenPair bundles freshly issued credentials. ExpiresIn is the access
// token lifetime in whole seconds.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
}

// TokenService signs and verifies access and refresh tokens. The two
// kinds use independent secrets and validity windows; a token signed with
// one secret never verifies against the other.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessWindow  time.Duration
	refreshWindow time.Duration
	now           func() time.Time
}

// TokenOption configures TokenService behavior.
type TokenOption func(*TokenService)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) TokenOption {
	return func(s *TokenService) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewTokenService constructs a TokenService from the configured secrets
// and validity windows.
func NewTokenService(accessSecret, refreshSecret string, accessWindow, refreshWindow time.Duration, opts ...TokenOption) (*TokenService, error) {
	if strings.TrimSpace(accessSecret) == "" || strings.TrimSpace(refreshSecret) == "" {
		return nil, ErrInvalidInput
	}
	if accessSecret == refreshSecret {
		return nil, ErrInvalidInput
	}
	if accessWindow <= 0 || refreshWindow <= 0 {
		return nil, ErrInvalidInput
	}
	s := &TokenService{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessWindow:  accessWindow,
		refreshWindow: refreshWindow,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// IssueAccessToken signs claims with the access secret and the access
// validity window.
func (s *TokenService) IssueAccessToken(claims Claims) (string, error) {
	return s.sign(claims, s.accessSecret, s.accessWindow)
}

// IssueRefreshToken signs claims with the refresh secret and the longer
// refresh validity window.
func (s *TokenService) IssueRefreshToken(claims Claims) (string, error) {
	return s.sign(claims, s.refreshSecret, s.refreshWindow)
}

// IssueTokenPair issues both tokens for the same claim set.
func (s *TokenService) IssueTokenPair(claims Claims) (TokenPair, error) {
	access, err := s.IssueAccessToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.IssueRefreshToken(claims)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.accessWindow.Seconds()),
	}, nil
}

// VerifyAccessToken validates signature, issuer, audience and expiry
// against the access secret.
func (s *TokenService) VerifyAccessToken(token string) (*Claims, error) {
	return s.verify(token, s.accessSecret)
}

// VerifyRefreshToken is the refresh-secret counterpart of
// VerifyAccessToken.
func (s *TokenService) VerifyRefreshToken(token string) (*Claims, error) {
	return s.verify(token, s.refreshSecret)
}

func (s *TokenService) sign(claims Claims, secret []byte, window time.Duration) (string, error) {
	if strings.TrimSpace(claims.UserID) == "" {
		return "", ErrInvalidInput
	}
	now := s.now().UTC()
	claims.Issuer = Issuer
	claims.Audience = jwt.ClaimStrings{Audience}
	claims.Subject = claims.UserID
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(window))
	claims.ID = uuid.NewString()

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) verify(token string, secret []byte) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return secret, nil
	},
		jwt.WithIssuer(Issuer),
		jwt.WithAudience(Audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Decode returns the embedded claims without checking the signature.
// Diagnostics only; never a basis for an authorization decision.
func (s *TokenService) Decode(token string) *Claims {
	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil
	}
	return claims
}

// IsExpired reports whether the token's expiry timestamp is in the past.
// Undecodable tokens and tokens without an expiry count as expired.
func (s *TokenService) IsExpired(token string) bool {
	claims := s.Decode(token)
	if claims == nil || claims.ExpiresAt == nil {
		return true
	}
	return s.now().After(claims.ExpiresAt.Time)
}
