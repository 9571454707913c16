// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/polysync/git-rsl/internal/gitinterface"
)

const (
	// NonceFileName is the name of the nonce file in the repository metadata
	// directory (GIT_DIR).
	NonceFileName = "NONCE"

	nonceLength = 32
)

var (
	ErrRngUnavailable = errors.New("unable to obtain randomness for nonce")
	ErrCorruptNonce   = errors.New("nonce file does not contain exactly 32 bytes")
	ErrNoNonce        = errors.New("nonce file not found, was the repository initialized?")
)

// Nonce is a developer's freshness token: 32 random bytes, rotated on every
// secure-fetch.
type Nonce struct {
	Bytes [nonceLength]byte `json:"bytes"`
}

// GenerateNonce draws a fresh nonce from the operating system's CSPRNG.
func GenerateNonce() (Nonce, error) {
	var nonce Nonce
	if _, err := rand.Read(nonce.Bytes[:]); err != nil {
		return Nonce{}, errors.Join(ErrRngUnavailable, err)
	}

	return nonce, nil
}

// Equal compares two nonces in constant time.
func (n Nonce) Equal(other Nonce) bool {
	return subtle.ConstantTimeCompare(n.Bytes[:], other.Bytes[:]) == 1
}

// ReadNonceFile loads the repository's nonce. A missing file after init is a
// configuration error surfaced as ErrNoNonce; a file of the wrong size is
// reported as corrupt.
func ReadNonceFile(repo *gitinterface.Repository) (Nonce, error) {
	contents, err := os.ReadFile(nonceFilePath(repo))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Nonce{}, ErrNoNonce
		}
		return Nonce{}, fmt.Errorf("unable to read nonce: %w", err)
	}

	if len(contents) != nonceLength {
		return Nonce{}, ErrCorruptNonce
	}

	var nonce Nonce
	copy(nonce.Bytes[:], contents)
	return nonce, nil
}

// WriteNonceFile persists the nonce in the repository metadata directory,
// replacing any previous nonce.
func WriteNonceFile(repo *gitinterface.Repository, nonce Nonce) error {
	if err := os.WriteFile(nonceFilePath(repo), nonce.Bytes[:], 0o600); err != nil {
		return fmt.Errorf("unable to write nonce: %w", err)
	}

	return nil
}

func nonceFilePath(repo *gitinterface.Repository) string {
	return filepath.Join(repo.GetGitDir(), NonceFileName)
}
