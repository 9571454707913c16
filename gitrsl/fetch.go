// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitrsl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/rsl"
)

// SecureFetch fetches the specified branches after proving the remote's state
// is recorded in the RSL, then rotates this client's nonce and publishes the
// updated nonce bag. A branch whose advertised tip has no corresponding push
// entry fails with guidance: someone pushed outside the RSL.
func (r *Repository) SecureFetch(ctx context.Context, remoteName string, branchNames ...string) error {
	state, err := r.saveWorkspace()
	if err != nil {
		return err
	}
	defer r.restoreWorkspace(state)

	return r.secureFetch(ctx, remoteName, branchNames)
}

func (r *Repository) secureFetch(ctx context.Context, remoteName string, branchNames []string) error {
	if err := r.ensureVerifier(); err != nil {
		return err
	}

	refNames := make([]string, 0, len(branchNames))
	for _, branchName := range branchNames {
		refNames = append(refNames, gitinterface.BranchReferenceName(branchName))
	}

	if err := r.fetchRSL(remoteName); err != nil {
		return fmt.Errorf("unable to fetch RSL, check your connection: %w", err)
	}

	if err := r.initializeRSLIfNeeded(ctx, remoteName); err != nil {
		return err
	}

	if err := r.r.CheckoutBranch(rsl.Ref); err != nil {
		return err
	}

	var lastErr error
	for store := 0; store < r.retryLimit; store++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := r.fetchBranchesWithinRSL(ctx, remoteName, refNames); err != nil {
			return err
		}

		retry, err := r.recordFetch(remoteName)
		if err != nil {
			if retry {
				slog.Debug(fmt.Sprintf("Unable to store fetch record, retrying: %v", err))
				lastErr = err
				continue
			}
			return err
		}

		return nil
	}

	return errors.Join(ErrExhaustedRetries, fmt.Errorf("couldn't store new fetch entry in RSL, check your connection and try again: %w", lastErr))
}

// fetchBranchesWithinRSL is the inner loop of the fetch state machine: fetch
// the RSL, require a push entry for each requested branch, fetch the branches,
// and confirm each newly fetched tip matches the entry's recorded tip. A
// mismatch resets the remote tracking RSL to the local RSL and retries; the
// bound exhausting means the remote state was produced outside the RSL.
func (r *Repository) fetchBranchesWithinRSL(ctx context.Context, remoteName string, refNames []string) error {
	for attempt := 0; attempt < r.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		slog.Debug("Fetching RSL from remote...")
		if err := r.fetchRSL(remoteName); err != nil {
			return err
		}

		remoteView, err := rsl.ReadRemoteView(r.r, remoteName)
		if err != nil {
			return err
		}

		// Reject if one of the branches has no push entry at all.
		for _, refName := range refNames {
			entry, err := rsl.FindLastPushEntryForRef(r.r, remoteView.Head, refName)
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("%w (branch '%s' has no push records)", ErrOutsideRSL, refName)
			}
		}

		slog.Debug("Fetching branches from remote...")
		if err := r.r.Fetch(remoteName, refNames, false); err != nil {
			return err
		}

		if ok, err := r.advertisedTipsMatchEntries(remoteName, remoteView.Head, refNames); err != nil {
			return err
		} else if ok {
			return nil
		}

		// The advertised tips do not match the log; drop the fetched RSL state
		// and retry from the last trusted view.
		slog.Debug("Fetched branch tips do not match RSL records, retrying...")
		localTip, err := r.r.GetReference(rsl.Ref)
		if err != nil {
			return err
		}
		if err := r.r.SetReference(rsl.RemoteTrackerRef(remoteName), localTip); err != nil {
			return err
		}
	}

	return ErrOutsideRSL
}

// advertisedTipsMatchEntries checks that every fetched remote tracking tip
// equals the tip recorded by the branch's most recent push entry.
func (r *Repository) advertisedTipsMatchEntries(remoteName string, remoteRSLHead gitinterface.Hash, refNames []string) (bool, error) {
	for _, refName := range refNames {
		entry, err := rsl.FindLastPushEntryForRef(r.r, remoteRSLHead, refName)
		if err != nil {
			return false, err
		}
		if entry == nil {
			return false, nil
		}

		advertisedTip, err := r.r.GetReference(gitinterface.RemoteRef(refName, remoteName))
		if err != nil {
			return false, err
		}

		if !entry.TargetID.Equal(advertisedTip) {
			slog.Debug(fmt.Sprintf("Branch '%s' is at '%s' but RSL records '%s'", refName, advertisedTip.String(), entry.TargetID.String()))
			return false, nil
		}
	}

	return true, nil
}

// recordFetch is the outer loop body: validate the fetched RSL, fast-forward
// the local RSL, rotate this client's nonce in the bag, and push the updated
// bag. The first return value reports whether the caller may retry.
func (r *Repository) recordFetch(remoteName string) (bool, error) {
	localView, err := rsl.ReadLocalView(r.r)
	if err != nil {
		return false, err
	}
	remoteView, err := rsl.ReadRemoteView(r.r, remoteName)
	if err != nil {
		return false, err
	}

	ownNonce, err := rsl.ReadNonceFile(r.r)
	if err != nil {
		return false, err
	}

	liveBag, err := rsl.ReadNonceBagAt(r.r, remoteView.Head)
	if err != nil {
		return false, err
	}

	slog.Debug("Validating remote RSL...")
	if err := rsl.ValidateRSL(r.r, localView, remoteView, ownNonce, liveBag, r.verifier); err != nil {
		return false, r.failValidation(remoteName, localView.Head, err)
	}

	if err := r.r.FastForward(rsl.Ref, remoteView.Head); err != nil {
		return false, err
	}

	// Rotate the nonce: drop the previous one from the bag, insert a fresh
	// one, and publish the updated bag. The nonce file is only replaced once
	// the push lands, so a failed round can be retried with the old nonce.
	freshNonce, err := rsl.GenerateNonce()
	if err != nil {
		return false, err
	}

	bag := liveBag.Clone()
	bag.Remove(ownNonce)
	bag.Insert(freshNonce)

	if err := rsl.WriteNonceBagFile(r.r, bag); err != nil {
		return false, err
	}
	if _, err := rsl.CommitNonceBag(r.r, bag); err != nil {
		return false, err
	}

	slog.Debug("Pushing updated nonce bag to remote...")
	if err := r.pushRSL(remoteName); err != nil {
		if rewindErr := r.rewindLocalRSL(remoteView.Head); rewindErr != nil {
			return false, rewindErr
		}
		return true, err
	}

	if err := rsl.WriteNonceFile(r.r, freshNonce); err != nil {
		return false, err
	}

	return false, nil
}
