package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/nikolayk812/storefront/internal/domain"
)

const (
	claimUserID  = "userId"
	bearerPrefix = "Bearer "
)

// Resolver maps a bearer credential to a Principal.
type Resolver struct {
	secret []byte
	now    func() time.Time
}

func NewResolver(secret string) (*Resolver, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("secret is empty")
	}

	return &Resolver{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// Resolve never fails: absent, malformed, expired or wrongly signed tokens yield the anonymous principal.
func (r *Resolver) Resolve(token string) domain.Principal {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Anonymous()
	}

	claims, err := r.parse(token)
	if err != nil {
		return domain.Anonymous()
	}

	if userID, ok := claims[claimUserID].(string); ok && userID != "" {
		return domain.NewPrincipal(userID)
	}

	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return domain.NewPrincipal(sub)
	}

	return domain.Anonymous()
}

// ResolveHeader resolves the value of an Authorization header.
func (r *Resolver) ResolveHeader(header string) domain.Principal {
	if !strings.HasPrefix(header, bearerPrefix) {
		return domain.Anonymous()
	}

	return r.Resolve(strings.TrimPrefix(header, bearerPrefix))
}

// Issue signs an HS256 token for userID, intended for local tooling and tests.
func (r *Resolver) Issue(userID string, ttl time.Duration) (string, error) {
	if userID == "" {
		return "", errors.New("userID is empty")
	}

	now := r.now()
	claims := jwt.MapClaims{
		claimUserID: userID,
		"sub":       userID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
	if err != nil {
		return "", fmt.Errorf("token.SignedString: %w", err)
	}

	return signed, nil
}

func (r *Resolver) parse(token string) (jwt.MapClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{
		jwt.SigningMethodHS256.Alg(),
		jwt.SigningMethodHS384.Alg(),
		jwt.SigningMethodHS512.Alg(),
	}))

	claims := jwt.MapClaims{}
	parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parser.ParseWithClaims: %w", err)
	}

	if !parsed.Valid {
		return nil, errors.New("invalid token")
	}

	return claims, nil
}
