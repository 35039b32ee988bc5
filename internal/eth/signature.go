// Package eth recovers Ethereum wallet addresses from secp256k1 signatures
// and computes the two digests the service signs over: the personal_sign
// message hash used for login and the SHA-256 content hash used for files.
package eth

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletvault/core"
)

const (
	// SignatureLength is the size of an (r, s, v) signature in bytes
	SignatureLength = crypto.SignatureLength

	// DigestLength is the size of the digest a signature is produced over
	DigestLength = 32

	personalMessagePrefix = "\x19Ethereum Signed Message:\n"
)

// PersonalMessageHash returns the Keccak-256 digest of msg wrapped in the
// personal_sign envelope. The length is the UTF-8 byte length of msg.
func PersonalMessageHash(msg string) []byte {
	prefixed := personalMessagePrefix + strconv.Itoa(len(msg)) + msg
	return crypto.Keccak256([]byte(prefixed))
}

// ContentHash returns the SHA-256 digest of file content. Detached file
// signatures are produced over this digest, not over a Keccak hash.
func ContentHash(data []byte) []byte {
	sum := sha256.Sum256(data)
	return sum[:]
}

// DecodeSignature parses the hex transport form of a signature.
// The 0x prefix is optional and surrounding whitespace is ignored.
func DecodeSignature(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		s = "0x" + s
	}

	sig, err := hexutil.Decode(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("failed to decode signature: %w", core.ErrInvalidSignature)
	}
	if len(sig) != SignatureLength {
		return nil, fmt.Errorf("signature must be %d bytes: %w", SignatureLength, core.ErrInvalidSignature)
	}

	return sig, nil
}

// RecoverAddress returns the address whose key produced sig over hash.
// It never compares against an expected address.
func RecoverAddress(hash, sig []byte) (common.Address, error) {
	if len(hash) != DigestLength {
		return common.Address{}, fmt.Errorf("digest must be %d bytes: %w", DigestLength, core.ErrInvalidSignature)
	}
	if len(sig) != SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes: %w", SignatureLength, core.ErrInvalidSignature)
	}

	// Work on a copy so the caller's v byte is left untouched
	normalized := make([]byte, SignatureLength)
	copy(normalized, sig)

	switch v := normalized[crypto.RecoveryIDOffset]; v {
	case 0, 1:
	case 27, 28:
		normalized[crypto.RecoveryIDOffset] = v - 27
	default:
		return common.Address{}, fmt.Errorf("invalid recovery id %d: %w", v, core.ErrInvalidSignature)
	}

	pub, err := crypto.SigToPub(hash, normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", core.ErrInvalidSignature)
	}

	return crypto.PubkeyToAddress(*pub), nil
}

// RecoverHex is RecoverAddress over the hex transport form of sig
func RecoverHex(hash []byte, sig string) (common.Address, error) {
	decoded, err := DecodeSignature(sig)
	if err != nil {
		return common.Address{}, err
	}
	return RecoverAddress(hash, decoded)
}

// Sign produces a wallet-style signature (v in {27, 28}) over hash.
// It backs the developer signing command and tests; the server never holds keys.
func Sign(hash []byte, hexKey string) (string, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return "", fmt.Errorf("failed to parse private key: %w", err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27

	return hexutil.Encode(sig), nil
}

// AddressOf returns the checksummed address for a hex private key
func AddressOf(hexKey string) (common.Address, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(key.PublicKey), nil
}
