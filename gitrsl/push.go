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

// SecurePush records a push entry for each branch in the RSL and pushes the
// RSL and the branches to the remote. Concurrent pushers are serialized by the
// server's compare-and-swap over the RSL ref: the loser observes a
// non-fast-forward rejection, rebuilds its entry against the new tip, and
// retries within the configured bound.
func (r *Repository) SecurePush(ctx context.Context, remoteName string, branchNames ...string) error {
	state, err := r.saveWorkspace()
	if err != nil {
		return err
	}
	defer r.restoreWorkspace(state)

	return r.securePush(ctx, remoteName, branchNames)
}

func (r *Repository) securePush(ctx context.Context, remoteName string, branchNames []string) error {
	if err := r.ensureSigner(); err != nil {
		return err
	}
	if err := r.ensureVerifier(); err != nil {
		return err
	}

	refNames := make([]string, 0, len(branchNames))
	for _, branchName := range branchNames {
		refNames = append(refNames, gitinterface.BranchReferenceName(branchName))
	}

	// Initial RSL fetch, retried on transport failures.
	var err error
	for attempt := 0; attempt < r.retryLimit; attempt++ {
		if err = r.fetchRSL(remoteName); err == nil {
			break
		}
		slog.Debug(fmt.Sprintf("Fetching RSL failed, retrying: %v", err))
	}
	if err != nil {
		return fmt.Errorf("unable to fetch RSL, check your connection: %w", err)
	}

	if err := r.initializeRSLIfNeeded(ctx, remoteName); err != nil {
		return err
	}

	if err := r.r.CheckoutBranch(rsl.Ref); err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt < r.retryLimit; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		slog.Debug("Fetching RSL from remote...")
		if err := r.fetchRSL(remoteName); err != nil {
			lastErr = err
			continue
		}

		retry, err := r.recordAndPush(remoteName, refNames)
		if err != nil {
			if retry {
				slog.Debug(fmt.Sprintf("RSL advanced on remote, rebuilding entry: %v", err))
				lastErr = err
				continue
			}
			return err
		}

		return nil
	}

	return errors.Join(ErrExhaustedRetries, lastErr)
}

// recordAndPush performs one round of the push state machine after the RSL
// fetch: read views, validate, fast-forward the local RSL, append entries, and
// push. The first return value reports whether the caller may retry.
func (r *Repository) recordAndPush(remoteName string, refNames []string) (bool, error) {
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

	prevHash := ""
	if remoteView.LastPushEntry != nil {
		prevHash, err = remoteView.LastPushEntry.Hash()
		if err != nil {
			return false, err
		}
	}

	// Append one entry per branch, chaining hashes in order.
	for _, refName := range refNames {
		tip, err := r.r.GetReference(refName)
		if err != nil {
			return false, err
		}

		entry := rsl.NewPushEntry(refName, tip, prevHash, liveBag)
		if _, err := rsl.CommitPushEntry(r.r, entry, r.signer); err != nil {
			return false, err
		}

		prevHash, err = entry.Hash()
		if err != nil {
			return false, err
		}
	}

	slog.Debug("Pushing RSL to remote...")
	if err := r.pushRSL(remoteName); err != nil {
		if errors.Is(err, gitinterface.ErrNonFastForward) {
			// Another client's entry landed first. Discard ours and rebuild
			// against the new tip.
			if rewindErr := r.rewindLocalRSL(remoteView.Head); rewindErr != nil {
				return false, rewindErr
			}
			return true, err
		}
		return false, err
	}

	slog.Debug("Pushing branches to remote...")
	if err := r.r.Push(remoteName, refNames); err != nil {
		return false, errors.Join(ErrPushingBranch, err)
	}

	return false, nil
}

// failValidation resets the remote tracking RSL to the last known-good local
// tip so the repository remains usable, then surfaces the validation error.
func (r *Repository) failValidation(remoteName string, localHead gitinterface.Hash, cause error) error {
	if err := r.r.SetReference(rsl.RemoteTrackerRef(remoteName), localHead); err != nil {
		slog.Warn(fmt.Sprintf("Unable to reset remote tracking RSL: %v", err))
	}

	return errors.Join(ErrInvalidRSL, cause)
}
