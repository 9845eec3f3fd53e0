// Package jwtauth issues and validates the bearer tokens used by member and
// admin routes. Token mechanics are deliberately boring: HS256, short TTL,
// claims carrying the member id and role.
package jwtauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"studbook/internal/platform/middleware"
	id "studbook/pkg/domain"
	dErrors "studbook/pkg/domain-errors"
)

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	MemberID string `json:"member_id"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func New(signingKey string, issuer string) *Service {
	return &Service{signingKey: []byte(signingKey), issuer: issuer}
}

// GenerateToken signs a token for the given member and role.
func (s *Service) GenerateToken(memberID id.MemberID, role string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		MemberID: memberID.String(),
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning middleware claims.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid or expired token")
	}
	memberID, err := id.ParseMemberID(claims.MemberID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "invalid token subject")
	}
	return &middleware.JWTClaims{MemberID: memberID, Role: claims.Role}, nil
}
