package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims are the claims carried by an access credential.
// The subject is the wallet address as the client supplied it.
type AccessClaims struct {
	jwt.RegisteredClaims
}
