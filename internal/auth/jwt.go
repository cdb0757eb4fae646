package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// JWTService signs and validates bearer access tokens.
type JWTService struct {
	signingKey jwk.Key
	issuer     string
	expiry     time.Duration
}

// TokenClaims carries the validated claims of an access token.
type TokenClaims struct {
	UserID uuid.UUID
	Phone  string
}

// NewJWTService builds a HS256 signer around the shared secret.
func NewJWTService(signingKey []byte, issuer string, expiry time.Duration) (*JWTService, error) {
	key, err := jwk.FromRaw(signingKey)
	if err != nil {
		return nil, fmt.Errorf("auth: create jwk: %w", err)
	}
	if err := key.Set(jwk.AlgorithmKey, jwa.HS256); err != nil {
		return nil, fmt.Errorf("auth: set algorithm: %w", err)
	}
	return &JWTService{signingKey: key, issuer: issuer, expiry: expiry}, nil
}

// GenerateToken issues a signed access token for the user.
func (s *JWTService) GenerateToken(ctx context.Context, userID uuid.UUID, phone string) (string, error) {
	now := time.Now()
	token, err := jwt.NewBuilder().
		Issuer(s.issuer).
		Subject(userID.String()).
		IssuedAt(now).
		Expiration(now.Add(s.expiry)).
		Claim("phone", phone).
		Build()
	if err != nil {
		return "", fmt.Errorf("auth: build token: %w", err)
	}
	signed, err := jwt.Sign(token, jwt.WithKey(jwa.HS256, s.signingKey))
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return string(signed), nil
}

// ValidateToken parses and validates a bearer token string.
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*TokenClaims, error) {
	parsed, err := jwt.Parse([]byte(tokenString), jwt.WithKey(jwa.HS256, s.signingKey), jwt.WithIssuer(s.issuer))
	if err != nil {
		return nil, fmt.Errorf("auth: parse token: %w", err)
	}
	if err := jwt.Validate(parsed); err != nil {
		return nil, fmt.Errorf("auth: validate token: %w", err)
	}
	userID, err := uuid.Parse(parsed.Subject())
	if err != nil {
		return nil, fmt.Errorf("auth: invalid subject: %w", err)
	}
	phone, _ := parsed.Get("phone")
	phoneStr, _ := phone.(string)
	return &TokenClaims{UserID: userID, Phone: phoneStr}, nil
}
