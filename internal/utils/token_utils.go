package utils

import (
	"time"

	"github.com/SscSPs/booking_settlement/internal/core/domain"
	"github.com/golang-jwt/jwt/v5"
)

// CallerClaims are the JWT claims issued by the identity provider.
// The subject is the caller ID.
type CallerClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// GenerateCallerJWT signs an HS256 token for the caller. Used by operators and tests
// to mint tokens the way the identity provider does.
func GenerateCallerJWT(caller domain.Caller, secret string, expiryDuration time.Duration, issuer string) (string, error) {
	now := time.Now()
	claims := CallerClaims{
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   caller.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiryDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidateCallerJWT parses a token string, validates its signature and standard claims.
// An empty issuer disables the issuer check.
func ParseAndValidateCallerJWT(tokenString string, secretKey string, issuer string) (*CallerClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	claims := &CallerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secretKey), nil
	}, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	return claims, nil
}
