package core

import "errors"

var (
	ErrInvalidSignature     = errors.New("invalid signature")
	ErrAddressMismatch      = errors.New("recovered address does not match claim")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrVerificationFailed   = errors.New("signature verification failed")
	ErrUnreadableArtifact   = errors.New("file or signature artifact unreadable")

	ErrCredentialExpired = errors.New("credential has expired")
	ErrCredentialInvalid = errors.New("invalid credential")

	ErrNotFound      = errors.New("not found")
	ErrInvalidPath   = errors.New("invalid path")
	ErrAlreadyExists = errors.New("already exists")
	ErrEmptyRequest  = errors.New("nothing to process")
)
