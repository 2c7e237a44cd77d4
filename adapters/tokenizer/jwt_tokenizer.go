package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/veritick/veritick/core"
	"github.com/veritick/veritick/ports"
)

const AudienceOperator = "session:operator"

// DefaultOperatorTokenTTL bounds how long an operator console can drive
// a generator session before re-authenticating.
const DefaultOperatorTokenTTL = 12 * time.Hour

// JWTTokenizer implements the OperatorTokenizer interface using JWT.
type JWTTokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
}

// NewJWTTokenizer creates a new JWT operator tokenizer.
func NewJWTTokenizer(signKey *ecdsa.PrivateKey) ports.OperatorTokenizer {
	return &JWTTokenizer{signKey: signKey, ttl: DefaultOperatorTokenTTL}
}

// IssueOperatorToken mints a signed token bound to a session id.
func (j *JWTTokenizer) IssueOperatorToken(sessionID string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceOperator},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(j.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signedToken, nil
}

// VerifyOperatorToken validates a token and returns its session id.
func (j *JWTTokenizer) VerifyOperatorToken(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &j.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceOperator))

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", core.ErrInvalidRequest
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok {
		return "", fmt.Errorf("invalid claims type")
	}

	return claims.Subject, nil
}
