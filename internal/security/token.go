package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Purpose binds a token to the flow it was issued for.
type Purpose string

const (
	PurposeSession       Purpose = "session"
	PurposePasswordReset Purpose = "password_reset"
)

type Claims struct {
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
}

func NewTokenService(secret, issuer string) *TokenService {
	return &TokenService{secret: []byte(secret), issuer: issuer, now: time.Now}
}

// Issue signs an HS256 token for subject valid for ttl.
func (s *TokenService) Issue(subject string, purpose Purpose, ttl time.Duration) (Token, error) {
	if subject == "" {
		return Token{}, errors.New("token subject is required")
	}

	jti, err := uuid.NewV4()
	if err != nil {
		return Token{}, fmt.Errorf("generate token id: %w", err)
	}

	now := s.now()
	expiresAt := now.Add(ttl)
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti.String(),
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	value, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}

	return Token{Value: value, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Verify checks signature, algorithm, issuer, expiry and purpose. Every
// failure is reported as ErrInvalidToken.
func (s *TokenService) Verify(value string, purpose Purpose) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	claims := &Claims{}
	token, err := parser.ParseWithClaims(value, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Purpose != purpose || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
