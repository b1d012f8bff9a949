package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

const (
	RoleAdmin    = "ADMIN"
	RoleMerchant = "MERCHANT"
)

// Claims are the fields the backend's login endpoint puts in its access tokens.
type Claims struct {
	SessionID string   `json:"sid"`
	Roles     []string `json:"roles"`
	// Merchants lists the merchant ids a MERCHANT-role user may manage.
	Merchants []string `json:"merchants"`
	jwt.RegisteredClaims
}

type TokenValidator interface {
	Validate(token string) (*Claims, error)
}

// JWTValidator verifies RS256 tokens when a public key is configured, HS256 otherwise.
type JWTValidator struct {
	secret    []byte
	publicKey *rsa.PublicKey
	now       func() time.Time
}

func NewJWTValidator(secret string) *JWTValidator {
	return &JWTValidator{secret: []byte(strings.TrimSpace(secret)), now: time.Now}
}

// NewJWTValidatorWithPublicKey prefers RS256 with publicKeyPEM; an empty or unparsable key leaves
// the validator on the HMAC secret.
func NewJWTValidatorWithPublicKey(secret, publicKeyPEM string) *JWTValidator {
	v := NewJWTValidator(secret)
	pemKey := strings.TrimSpace(publicKeyPEM)
	if pemKey == "" {
		return v
	}
	if key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey)); err == nil {
		v.publicKey = key
	}
	return v
}

func (v *JWTValidator) parser() (*jwt.Parser, jwt.Keyfunc) {
	opts := []jwt.ParserOption{jwt.WithLeeway(5 * time.Second), jwt.WithTimeFunc(v.now)}
	if v.publicKey != nil {
		key := v.publicKey
		return jwt.NewParser(append(opts, jwt.WithValidMethods([]string{"RS256", "RS384", "RS512"}))...),
			func(*jwt.Token) (any, error) { return key, nil }
	}
	secret := v.secret
	return jwt.NewParser(append(opts, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))...),
		func(*jwt.Token) (any, error) { return secret, nil }
}

// Validate parses token and fills in a session id when the token carries none: the "sid" claim,
// then "jti", then subject and expiry.
func (v *JWTValidator) Validate(token string) (*Claims, error) {
	if token = strings.TrimSpace(token); token == "" {
		return nil, ErrMissingToken
	}
	if v.publicKey == nil && len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: jwt key not configured", ErrInvalidToken)
	}

	parser, keyFunc := v.parser()
	claims := new(Claims)
	if _, err := parser.ParseWithClaims(token, claims, keyFunc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	claims.SessionID = sessionIDFor(claims)
	return claims, nil
}

func sessionIDFor(c *Claims) string {
	switch {
	case c.SessionID != "":
		return c.SessionID
	case c.ID != "":
		return c.ID
	case c.ExpiresAt != nil:
		return fmt.Sprintf("%s:%d", c.Subject, c.ExpiresAt.Unix())
	default:
		return c.Subject
	}
}

// HasRole compares case-insensitively.
func (c *Claims) HasRole(role string) bool {
	return slices.ContainsFunc(c.Roles, func(r string) bool {
		return strings.EqualFold(strings.TrimSpace(r), role)
	})
}
