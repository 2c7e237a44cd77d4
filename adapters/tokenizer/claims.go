package tokenizer

import "github.com/golang-jwt/jwt/v5"

// OperatorClaims are the claims carried by an operator session token.
// The subject is the generator session id the token is bound to.
type OperatorClaims struct {
	jwt.RegisteredClaims
}
