package auth

import (
	"crypto/sha256"
	"encoding/hex"

	jwtgo "github.com/golang-jwt/jwt/v5"
)

// customClaims binds a token to a single bridge request. The bridge host recomputes both fields from the request it
// receives and rejects the call when either differs.
type customClaims struct {
	BodyHash      string `json:"bodyHash"`
	MethodAndPath string `json:"methodAndPath"`
	jwtgo.RegisteredClaims
}

// HashBody returns the SHA-256 hash of the body.
func HashBody(body []byte) string {
	hashedBodyBytes := sha256.Sum256(body)
	return hex.EncodeToString(hashedBodyBytes[:])
}
