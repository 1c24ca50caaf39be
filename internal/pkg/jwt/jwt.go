package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Scope tags the purpose of a token. Every verification states the scope it
// expects, so a token minted for one purpose is never accepted for another.
type Scope string

const (
	ScopeAccess            Scope = "access"
	ScopeRefresh           Scope = "refresh"
	ScopeEmailVerification Scope = "email_verification"
	ScopePasswordReset     Scope = "password_reset"
)

const (
	DefaultAccessTTL       = 15 * time.Minute
	DefaultRefreshTTL      = 7 * 24 * time.Hour
	DefaultVerificationTTL = 15 * time.Minute
	DefaultResetTTL        = 15 * time.Minute
)

var (
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrScopeMismatch    = errors.New("token scope mismatch")
	ErrUnknownScope     = errors.New("unknown token scope")
	ErrUnsupportedAlg   = errors.New("unsupported signing algorithm")
	ErrEmptySecret      = errors.New("signing secret is empty")
)

type Config struct {
	Secret          string
	Algorithm       string // HS256, HS384 or HS512
	AccessTTL       time.Duration
	RefreshTTL      time.Duration
	VerificationTTL time.Duration
	ResetTTL        time.Duration
}

type Claims struct {
	Scope Scope `json:"scope"`
	jwtlib.RegisteredClaims
}

// Service issues and verifies scoped tokens with a single HMAC key.
type Service struct {
	secret []byte
	method jwtlib.SigningMethod
	ttls   map[Scope]time.Duration
	now    func() time.Time
}

func New(cfg Config) (*Service, error) {
	if strings.TrimSpace(cfg.Secret) == "" {
		return nil, ErrEmptySecret
	}

	alg := strings.ToUpper(strings.TrimSpace(cfg.Algorithm))
	if alg == "" {
		alg = jwtlib.SigningMethodHS256.Alg()
	}
	method, ok := jwtlib.GetSigningMethod(alg).(*jwtlib.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlg, cfg.Algorithm)
	}

	return &Service{
		secret: []byte(cfg.Secret),
		method: method,
		ttls: map[Scope]time.Duration{
			ScopeAccess:            orDefault(cfg.AccessTTL, DefaultAccessTTL),
			ScopeRefresh:           orDefault(cfg.RefreshTTL, DefaultRefreshTTL),
			ScopeEmailVerification: orDefault(cfg.VerificationTTL, DefaultVerificationTTL),
			ScopePasswordReset:     orDefault(cfg.ResetTTL, DefaultResetTTL),
		},
		now: time.Now,
	}, nil
}

// Issue signs a token for subject using the default lifetime of scope.
func (s *Service) Issue(subject string, scope Scope) (string, error) {
	ttl, ok := s.ttls[scope]
	if !ok {
		return "", ErrUnknownScope
	}
	return s.IssueWithTTL(subject, scope, ttl)
}

// IssueWithTTL signs a token whose lifetime overrides the scope default.
// A non-positive ttl yields a token that is already expired.
func (s *Service) IssueWithTTL(subject string, scope Scope, ttl time.Duration) (string, error) {
	if _, ok := s.ttls[scope]; !ok {
		return "", ErrUnknownScope
	}

	now := s.now()
	claims := Claims{
		Scope: scope,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwtlib.NewWithClaims(s.method, claims)
	return token.SignedString(s.secret)
}

// Verify checks signature, expiry and scope, and returns the subject.
func (s *Service) Verify(token string, expected Scope) (string, error) {
	claims, err := s.Decode(token, expected)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// Decode is Verify returning the full claim set.
func (s *Service) Decode(token string, expected Scope) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwtlib.ParseWithClaims(token, claims, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	},
		jwtlib.WithValidMethods([]string{s.method.Alg()}),
		jwtlib.WithExpirationRequired(),
		jwtlib.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}

	if claims.Scope != expected {
		return nil, ErrScopeMismatch
	}
	return claims, nil
}

// TTL returns the default lifetime configured for scope.
func (s *Service) TTL(scope Scope) time.Duration {
	return s.ttls[scope]
}

func orDefault(d, def time.Duration) time.Duration {
	if d == 0 {
		return def
	}
	return d
}
