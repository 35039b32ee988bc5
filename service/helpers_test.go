package service

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/internal/eth"
	"github.com/stretchr/testify/require"
)

// Throwaway keys; never use them for anything real
const (
	walletKeyA = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	walletKeyB = "8da4ef21b864d2cc526dbdb2a120bd2874c36c9d0a1fb7f8c63d7f7a8b41de8f"
)

type wallet struct {
	key     string
	address string
}

func newWallet(t *testing.T, key string) wallet {
	t.Helper()
	addr, err := eth.AddressOf(key)
	require.NoError(t, err)
	return wallet{key: key, address: addr.Hex()}
}

func (w wallet) signChallenge(t *testing.T, challenge string) string {
	t.Helper()
	sig, err := eth.Sign(eth.PersonalMessageHash(challenge), w.key)
	require.NoError(t, err)
	return sig
}

func (w wallet) signFile(t *testing.T, content []byte) string {
	t.Helper()
	sig, err := eth.Sign(eth.ContentHash(content), w.key)
	require.NoError(t, err)
	return sig
}

func randomWallet(t *testing.T) wallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	hexKey := hex.EncodeToString(crypto.FromECDSA(key))
	return newWallet(t, hexKey)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []core.StorageEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event core.StorageEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []core.StorageEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]core.StorageEventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
