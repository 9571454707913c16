// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonce(t *testing.T) {
	nonce1, err := GenerateNonce()
	require.NoError(t, err)

	nonce2, err := GenerateNonce()
	require.NoError(t, err)

	assert.True(t, nonce1.Equal(nonce1))
	assert.False(t, nonce1.Equal(nonce2))
}

func TestNonceEqual(t *testing.T) {
	var a, b Nonce
	a.Bytes[0] = 224
	b.Bytes[0] = 224
	assert.True(t, a.Equal(b))

	b.Bytes[31] = 1
	assert.False(t, a.Equal(b))
}

func TestNonceFileRoundTrip(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	nonce, err := GenerateNonce()
	require.NoError(t, err)

	require.NoError(t, WriteNonceFile(repo, nonce))

	contents, err := os.ReadFile(filepath.Join(repo.GetGitDir(), NonceFileName))
	require.NoError(t, err)
	assert.Equal(t, nonce.Bytes[:], contents)

	read, err := ReadNonceFile(repo)
	require.NoError(t, err)
	assert.True(t, nonce.Equal(read))
}

func TestReadNonceFileMissing(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	_, err := ReadNonceFile(repo)
	assert.ErrorIs(t, err, ErrNoNonce)
}

func TestReadNonceFileCorrupt(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	require.NoError(t, os.WriteFile(filepath.Join(repo.GetGitDir(), NonceFileName), []byte("short"), 0o600))

	_, err := ReadNonceFile(repo)
	assert.ErrorIs(t, err, ErrCorruptNonce)
}
