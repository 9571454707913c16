// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/signerverifier"
)

var (
	// ErrNonLinearRSL indicates the remote RSL tip is not a descendant of the
	// last tip this client accepted.
	ErrNonLinearRSL = errors.New("remote RSL is not a fast-forward of the local RSL")

	// ErrBadSignature indicates a push entry commit's signature did not verify
	// under a trusted key.
	ErrBadSignature = errors.New("push entry carries an invalid signature")

	// ErrBrokenHashChain indicates a push entry's prev_hash does not match the
	// hash of its predecessor.
	ErrBrokenHashChain = errors.New("push entry does not chain to its predecessor")

	// ErrMissingNonce indicates the client's nonce appears neither in the live
	// nonce bag nor in any newly seen push entry, so the remote may be
	// replaying stale state.
	ErrMissingNonce = errors.New("client nonce is missing from the remote RSL state")
)

// ValidateRSL checks that the remote RSL view is an acceptable successor of
// the local one: the remote tip must descend from the local tip, every new
// push entry must be correctly signed and chain by hash onto its predecessor,
// and the client's own nonce must be visible in the new state (the freshness
// rule). Bookkeeping commits interleaved with push entries are ignored.
func ValidateRSL(repo *gitinterface.Repository, local, remote *View, ownNonce Nonce, liveBag *NonceBag, verifier signerverifier.SignatureVerifier) error {
	if remote.Head.Equal(local.Head) {
		slog.Debug("Local and remote RSLs have the same tip, nothing to validate")
		return nil
	}

	descendant, err := repo.KnowsCommit(remote.Head, local.Head)
	if err != nil {
		return err
	}
	if !descendant {
		return ErrNonLinearRSL
	}

	expectedPrev := ""
	if local.LastPushEntry != nil {
		expectedPrev, err = local.LastPushEntry.Hash()
		if err != nil {
			return err
		}
	}

	slog.Debug(fmt.Sprintf("Walking RSL commits from '%s' to '%s'...", local.Head.String(), remote.Head.String()))
	commitIDs, err := repo.GetCommitsBetween(remote.Head, local.Head)
	if err != nil {
		return err
	}

	newEntries := []*PushEntry{}
	for _, commitID := range commitIDs {
		message, err := repo.GetCommitMessage(commitID)
		if err != nil {
			return err
		}

		entry, ok := ParsePushEntryFromCommitMessage(message)
		if !ok {
			// Nonce bag bookkeeping commit
			continue
		}

		if err := repo.VerifyCommitSignature(commitID, verifier); err != nil {
			return errors.Join(ErrBadSignature, err)
		}

		if entry.PrevHash != expectedPrev {
			return fmt.Errorf("%w: entry '%s' expected prev_hash '%s', has '%s'", ErrBrokenHashChain, commitID.String(), expectedPrev, entry.PrevHash)
		}

		expectedPrev, err = entry.Hash()
		if err != nil {
			return err
		}

		newEntries = append(newEntries, entry)
	}

	if !nonceObserved(ownNonce, liveBag, newEntries) {
		return ErrMissingNonce
	}

	slog.Debug("Remote RSL validated")
	return nil
}

// nonceObserved implements the freshness rule: the client's nonce must either
// still be in the live nonce bag, or appear in the bag snapshot of one of the
// newly seen push entries (meaning another client carried it forward).
func nonceObserved(ownNonce Nonce, liveBag *NonceBag, newEntries []*PushEntry) bool {
	if liveBag != nil && liveBag.Contains(ownNonce) {
		return true
	}

	for _, entry := range newEntries {
		if entry.NonceBag.Contains(ownNonce) {
			return true
		}
	}

	return false
}
