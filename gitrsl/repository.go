// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

// Package gitrsl exposes the user-facing secure push, secure fetch, and init
// workflows over a repository's Reference State Log.
package gitrsl

import (
	"fmt"
	"os"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/rsl"
	"github.com/polysync/git-rsl/internal/signerverifier"
	"github.com/polysync/git-rsl/internal/signerverifier/gpg"
	"github.com/polysync/git-rsl/internal/signerverifier/ssh"
)

// DefaultRetryLimit bounds each orchestrator's retry loops.
const DefaultRetryLimit = 5

const (
	signingFormatGPG = "gpg"
	signingFormatSSH = "ssh"

	trustedKeysConfigKey = "rsl.trustedkeys"
)

// Repository is the handle over which secure operations are invoked. It
// carries the version control adapter and the signing capability; process-wide
// state does not exist.
type Repository struct {
	r          *gitinterface.Repository
	signer     signerverifier.Signer
	verifier   signerverifier.SignatureVerifier
	retryLimit int
}

// Option configures a Repository handle.
type Option func(*Repository)

// WithSigner overrides the signer inferred from the Git config, for example
// with an in-memory signer.
func WithSigner(signer signerverifier.Signer) Option {
	return func(r *Repository) {
		r.signer = signer
	}
}

// WithSignatureVerifier overrides the verifier inferred from the Git config.
func WithSignatureVerifier(verifier signerverifier.SignatureVerifier) Option {
	return func(r *Repository) {
		r.verifier = verifier
	}
}

// WithRetryLimit overrides the default retry bound for the push and fetch
// state machines.
func WithRetryLimit(limit int) Option {
	return func(r *Repository) {
		if limit > 0 {
			r.retryLimit = limit
		}
	}
}

// LoadRepository returns a Repository handle for the repository at the
// specified path.
func LoadRepository(repositoryPath string, opts ...Option) (*Repository, error) {
	gitRepo, err := gitinterface.LoadRepository(repositoryPath)
	if err != nil {
		return nil, err
	}

	repo := &Repository{r: gitRepo, retryLimit: DefaultRetryLimit}
	for _, fn := range opts {
		fn(repo)
	}

	return repo, nil
}

// GitRepository returns the underlying version control adapter.
func (r *Repository) GitRepository() *gitinterface.Repository {
	return r.r
}

// ensureSigner loads the signer from the Git config if one was not supplied.
// The signing key is read from `user.signingkey` and interpreted per
// `gpg.format`.
func (r *Repository) ensureSigner() error {
	if r.signer != nil {
		return nil
	}

	config, err := r.r.GetGitConfig()
	if err != nil {
		return err
	}

	keyPath := config["user.signingkey"]
	if keyPath == "" {
		return signerverifier.ErrSigningKeyNotSpecified
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("unable to read signing key: %w", err)
	}

	switch config["gpg.format"] {
	case "", signingFormatGPG:
		r.signer, err = gpg.NewSignerFromArmoredKey(keyBytes)
	case signingFormatSSH:
		r.signer, err = ssh.NewSignerFromPrivateKey(keyBytes)
	default:
		return signerverifier.ErrUnknownSigningMethod
	}

	return err
}

// ensureVerifier loads the verifier for the trusted keys named by the
// `rsl.trustedkeys` Git config entry if one was not supplied.
func (r *Repository) ensureVerifier() error {
	if r.verifier != nil {
		return nil
	}

	config, err := r.r.GetGitConfig()
	if err != nil {
		return err
	}

	keyPath := config[trustedKeysConfigKey]
	if keyPath == "" {
		return fmt.Errorf("%w: set %s to the trusted keyring path", signerverifier.ErrSigningKeyNotSpecified, trustedKeysConfigKey)
	}

	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return fmt.Errorf("unable to read trusted keys: %w", err)
	}

	switch config["gpg.format"] {
	case "", signingFormatGPG:
		r.verifier, err = gpg.NewVerifierFromArmoredKey(keyBytes)
	case signingFormatSSH:
		r.verifier, err = ssh.NewVerifierFromAuthorizedKey(keyBytes)
	default:
		return signerverifier.ErrUnknownSigningMethod
	}

	return err
}

// fetchRSL updates the remote tracking RSL ref. A remote that does not carry
// the RSL branch yet is not an error; the tracker is simply left unset.
func (r *Repository) fetchRSL(remoteName string) error {
	refSpec := gitinterface.RefSpec(rsl.Ref, remoteName, true)
	if err := r.r.FetchRefSpec(remoteName, []string{refSpec}); err != nil {
		if isMissingRemoteRef(err) {
			return nil
		}
		return err
	}

	return nil
}

// pushRSL pushes the local RSL branch to the remote. The push is fast-forward
// only so a concurrent writer surfaces as ErrNonFastForward.
func (r *Repository) pushRSL(remoteName string) error {
	return r.r.Push(remoteName, []string{rsl.Ref})
}

// rewindLocalRSL discards unpublished RSL commits by moving the branch back to
// the specified tip and refreshing the checked out copy.
func (r *Repository) rewindLocalRSL(tip gitinterface.Hash) error {
	if err := r.r.SetReference(rsl.Ref, tip); err != nil {
		return err
	}

	return r.r.CheckoutBranch(rsl.Ref)
}
