// Package auth issues and verifies the bearer tokens used by all
// three portals. Tokens are HS256 JWTs carrying the principal kind so
// a student token can never reach school-only routes.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/tobenna/quizforge/internal/model"
)

// ErrInvalidToken covers expired, malformed, and wrongly-signed tokens.
var ErrInvalidToken = errors.New("auth: invalid token")

const tokenTTL = 24 * time.Hour

type Service struct {
	hmac []byte
}

func NewService(secret string) *Service {
	return &Service{hmac: []byte(secret)}
}

type Claims struct {
	Kind model.PrincipalKind `json:"kind"`
	jwt.RegisteredClaims
}

// Issue signs a token for the given principal.
func (s *Service) Issue(p model.Principal) (string, error) {
	now := time.Now()
	claims := &Claims{
		Kind: p.Kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(p.ID, 10),
			Issuer:    "quizforge",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.hmac)
}

// Parse verifies a token and returns the principal it names.
func (s *Service) Parse(tokenStr string) (model.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.hmac, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return model.Principal{}, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	switch claims.Kind {
	case model.KindIndividual, model.KindSchool, model.KindStudent:
	default:
		return model.Principal{}, ErrInvalidToken
	}
	return model.Principal{Kind: claims.Kind, ID: id}, nil
}

// HashPassword returns the bcrypt hash of a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether the password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
