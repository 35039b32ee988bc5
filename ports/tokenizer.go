package ports

import "time"

// Tokenizer issues and validates expiring credentials
type Tokenizer interface {
	// Issue creates a signed credential for subject, valid from issuedAt
	Issue(subject string, issuedAt time.Time) (string, error)

	// Validate checks signature, issuer, audience and expiry and returns the subject
	Validate(token string) (string, error)
}
