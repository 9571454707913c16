// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"bytes"
	"encoding/hex"
	"errors"
)

const (
	sha1HashLength   = 20
	sha256HashLength = 32
)

var (
	ErrInvalidHashEncoding = errors.New("hash string is not hex encoded")
	ErrInvalidHashLength   = errors.New("hash string is wrong length")
)

// Hash represents a Git object ID.
type Hash []byte

// ZeroHash is a Hash that consists of all zeroes, the way Git represents an
// unborn reference.
var ZeroHash = Hash(make([]byte, sha1HashLength))

func (h Hash) String() string {
	return hex.EncodeToString(h)
}

func (h Hash) Equal(other Hash) bool {
	return bytes.Equal(h, other)
}

func (h Hash) IsZero() bool {
	return len(h) == 0 || h.Equal(ZeroHash)
}

// NewHash returns a Hash object after ensuring the input string is a correctly
// encoded Git object ID of a known length.
func NewHash(h string) (Hash, error) {
	raw, err := hex.DecodeString(h)
	if err != nil {
		return ZeroHash, ErrInvalidHashEncoding
	}

	if len(raw) != sha1HashLength && len(raw) != sha256HashLength {
		return ZeroHash, ErrInvalidHashLength
	}

	return Hash(raw), nil
}
