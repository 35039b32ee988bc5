package service

import (
	"log/slog"

	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/internal/eth"
	"github.com/layer-3/walletvault/ports"
)

// FileVerifier checks detached signatures over the SHA-256 hash of file
// content. It fails closed: anything it cannot decide is false.
type FileVerifier struct {
	logger *slog.Logger
}

// NewFileVerifier creates a new file signature verifier
func NewFileVerifier(logger *slog.Logger) *FileVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileVerifier{logger: logger}
}

var _ ports.SignatureVerifier = (*FileVerifier)(nil)

// Verify reports whether signature over the content hash of fileBytes was
// produced by claimedAddress. Empty content is unverifiable.
func (v *FileVerifier) Verify(fileBytes []byte, signature string, claimedAddress string) (ok bool) {
	if len(fileBytes) == 0 {
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			v.logger.Error("signature verification panicked", "panic", r)
			ok = false
		}
	}()

	recovered, err := eth.RecoverHex(eth.ContentHash(fileBytes), signature)
	if err != nil {
		v.logger.Warn("file signature unreadable", "address", claimedAddress, "err", err)
		return false
	}

	if !core.SameAddress(recovered.Hex(), claimedAddress) {
		v.logger.Warn("file signed by another wallet", "address", claimedAddress, "recovered", recovered.Hex())
		return false
	}

	return true
}
