package core

import (
	"strings"
	"time"
)

// CredentialTTL is the fixed lifetime of an issued credential
const CredentialTTL = 10 * time.Minute

// Credential represents a short-lived proof that a wallet was authenticated
type Credential struct {
	Token     string    // Opaque signed token presented back on every request
	Subject   string    // Ethereum address exactly as supplied at authentication
	IssuedAt  time.Time // When the credential was created
	ExpiresAt time.Time // When the credential stops being valid
}

// SameAddress reports whether two textual renderings name the same wallet.
// Hex addresses are case-insensitive; mixed-case (EIP-55) and lower-case
// forms of one address always compare equal. No other normalisation applies.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}

// PartitionKey maps an authenticated subject to its storage partition name.
// Every casing of one wallet lands in the same partition.
func PartitionKey(subject string) string {
	return strings.ToLower(subject)
}
