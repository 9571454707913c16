// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

// Package ssh provides the SSH signature flavor of the signing capability.
package ssh

import (
	"bytes"
	"errors"

	"github.com/hiddeco/sshsig"
	"github.com/polysync/git-rsl/internal/signerverifier"
	"golang.org/x/crypto/ssh"
)

const namespaceSSHSignature = "git"

// Signer signs payloads with an SSH private key in the `git` signature
// namespace, matching Git's own SSH signing behavior.
type Signer struct {
	signer ssh.Signer
}

// NewSignerFromPrivateKey returns a Signer for the PEM encoded SSH private
// key.
func NewSignerFromPrivateKey(pemBytes []byte) (*Signer, error) {
	signer, err := ssh.ParsePrivateKey(pemBytes)
	if err != nil {
		return nil, err
	}

	return &Signer{signer: signer}, nil
}

func (s *Signer) Sign(payload []byte) (string, error) {
	sshSig, err := sshsig.Sign(bytes.NewReader(payload), s.signer, sshsig.HashSHA512, namespaceSSHSignature)
	if err != nil {
		return "", err
	}

	return string(sshsig.Armor(sshSig)), nil
}

// Verifier checks SSH signatures against a trusted public key.
type Verifier struct {
	public ssh.PublicKey
}

// NewVerifierFromAuthorizedKey returns a Verifier trusting the public key in
// OpenSSH authorized_keys format.
func NewVerifierFromAuthorizedKey(keyBytes []byte) (*Verifier, error) {
	public, _, _, _, err := ssh.ParseAuthorizedKey(keyBytes)
	if err != nil {
		return nil, err
	}

	return &Verifier{public: public}, nil
}

func (v *Verifier) Verify(payload []byte, signature string) error {
	sig, err := sshsig.Unarmor([]byte(signature))
	if err != nil {
		return errors.Join(signerverifier.ErrSignatureVerificationFailed, err)
	}

	if err := sshsig.Verify(bytes.NewReader(payload), sig, v.public, sshsig.HashSHA512, namespaceSSHSignature); err != nil {
		return errors.Join(signerverifier.ErrSignatureVerificationFailed, err)
	}

	return nil
}
