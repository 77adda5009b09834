package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken covers malformed tokens and signature mismatches.
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject is returned for a correctly signed token without a userId claim.
	ErrMissingSubject = errors.New("token has no subject")
)

// TokenManager issues and verifies HS256 bearer tokens. Tokens carry no
// expiry and stay valid until the secret is rotated.
type TokenManager struct {
	secret []byte
	parser *jwt.Parser
}

// NewTokenManager builds a new manager. The secret is copied and never mutated.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
		),
	}
}

// Claims describes JWT payload.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs a token for userID. Output is deterministic for a
// given secret and userID.
func (tm *TokenManager) GenerateToken(userID string) (string, error) {
	claims := &Claims{UserID: userID}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ParseToken validates the signature and structure and returns the claims.
func (tm *TokenManager) ParseToken(tokenStr string) (*Claims, error) {
	parsed, err := tm.parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SubjectFromToken decodes tokenStr and returns its userId claim. It does no
// I/O.
func (tm *TokenManager) SubjectFromToken(tokenStr string) (string, error) {
	claims, err := tm.ParseToken(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.UserID == "" {
		return "", ErrMissingSubject
	}
	return claims.UserID, nil
}
