package main

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/layer-3/walletvault/core"
	"github.com/layer-3/walletvault/internal/eth"
)

const testKey = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" INFO ":  slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestSignFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "report.txt")
	content := []byte("quarterly numbers")
	require.NoError(t, os.WriteFile(p, content, 0o644))

	sig, err := signFile(p, testKey, true)
	require.NoError(t, err)

	stored, err := os.ReadFile(p + core.SignatureSuffix)
	require.NoError(t, err)
	assert.Equal(t, sig, string(stored))

	want, err := eth.AddressOf(testKey)
	require.NoError(t, err)
	got, err := eth.RecoverHex(eth.ContentHash(content), sig)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSignFile_Rejects(t *testing.T) {
	dir := t.TempDir()

	_, err := signFile(filepath.Join(dir, "missing.txt"), testKey, false)
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	_, err = signFile(empty, testKey, true)
	assert.Error(t, err)
	assert.NoFileExists(t, empty+core.SignatureSuffix)
}

func TestSignCommand_Message(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"sign", "--key", testKey, "--message", "hello"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())

	want, err := eth.Sign(eth.PersonalMessageHash("hello"), testKey)
	require.NoError(t, err)
	assert.Contains(t, out.String(), want)
}
