package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"volunteerhub/internal/domain"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

type jwtTokens struct {
	secret []byte
}

// NewJWTTokens returns a TokenIssuer/TokenVerifier pair backed by HS256 JWTs
// signed with the given secret. The subject claim carries the user's email
// identity and a custom claim carries the role.
func NewJWTTokens(secret string) (domain.TokenIssuer, domain.TokenVerifier) {
	t := &jwtTokens{secret: []byte(secret)}
	return t, t
}

func (t *jwtTokens) Issue(email string, role domain.Role, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

func (t *jwtTokens) Verify(tokenString string) (domain.Actor, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return domain.Actor{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid || claims.Subject == "" {
		return domain.Actor{}, fmt.Errorf("invalid token")
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		role = domain.RoleVolunteer
	}
	return domain.Actor{Email: claims.Subject, Role: role}, nil
}
