package service

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"veriform/internal/config"
	"veriform/internal/domain"
)

// Claims is the identity carried by an access token. Tokens are issued by
// the identity provider; this service only verifies them.
type Claims struct {
	UserID uuid.UUID       `json:"uid"`
	Email  string          `json:"email"`
	Role   domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	ValidateToken(tokenStr string) (*Claims, error)
}

type jwtVerifier struct {
	secret []byte
	issuer string
}

// NewTokenVerifier creates an HMAC-SHA256 TokenVerifier.
func NewTokenVerifier(cfg *config.JWTConfig) TokenVerifier {
	return &jwtVerifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer}
}

func (v *jwtVerifier) ValidateToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, domain.ErrUnauthorized
	}
	if claims.UserID == uuid.Nil || !domain.ValidUserRoles[claims.Role] {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}
