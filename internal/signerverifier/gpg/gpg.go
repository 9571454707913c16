// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

// Package gpg provides the OpenPGP flavor of the signing capability, using
// armored detached signatures.
package gpg

import (
	"bytes"
	"errors"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/polysync/git-rsl/internal/signerverifier"
)

var ErrNoPrivateKey = errors.New("keyring does not contain a private key")

// Signer signs payloads with an OpenPGP private key.
type Signer struct {
	entity *openpgp.Entity
}

// NewSignerFromArmoredKey returns a Signer for the first key carrying private
// key material in the armored keyring.
func NewSignerFromArmoredKey(keyBytes []byte) (*Signer, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyBytes))
	if err != nil {
		return nil, err
	}

	for _, entity := range keyring {
		if entity.PrivateKey != nil {
			return &Signer{entity: entity}, nil
		}
	}

	return nil, ErrNoPrivateKey
}

// NewSignerFromEntity returns a Signer for an in-memory OpenPGP entity. This
// is used in tests.
func NewSignerFromEntity(entity *openpgp.Entity) *Signer {
	return &Signer{entity: entity}
}

func (s *Signer) Sign(payload []byte) (string, error) {
	sig := new(strings.Builder)
	if err := openpgp.ArmoredDetachSign(sig, s.entity, bytes.NewReader(payload), nil); err != nil {
		return "", err
	}

	return sig.String(), nil
}

// Verifier checks armored detached signatures against a keyring of trusted
// public keys.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifierFromArmoredKey returns a Verifier trusting the keys in the
// armored keyring.
func NewVerifierFromArmoredKey(keyBytes []byte) (*Verifier, error) {
	keyring, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyBytes))
	if err != nil {
		return nil, err
	}

	return &Verifier{keyring: keyring}, nil
}

// NewVerifierFromEntities returns a Verifier trusting the specified in-memory
// entities. This is used in tests.
func NewVerifierFromEntities(entities ...*openpgp.Entity) *Verifier {
	return &Verifier{keyring: openpgp.EntityList(entities)}
}

func (v *Verifier) Verify(payload []byte, signature string) error {
	_, err := openpgp.CheckArmoredDetachedSignature(v.keyring, bytes.NewReader(payload), strings.NewReader(signature), nil)
	if err != nil {
		return errors.Join(signerverifier.ErrSignatureVerificationFailed, err)
	}

	return nil
}
