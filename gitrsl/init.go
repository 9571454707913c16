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

// InitializeRSL bootstraps the Reference State Log for the repository and the
// specified remote. Three cases apply, decided by where the RSL branch already
// exists: nowhere (create and publish it), only on the remote (adopt it and
// register this client's nonce), or both (no action). A local RSL without a
// remote counterpart is a configuration error.
func (r *Repository) InitializeRSL(ctx context.Context, remoteName string) error {
	state, err := r.saveWorkspace()
	if err != nil {
		return err
	}
	defer r.restoreWorkspace(state)

	if err := r.fetchRSL(remoteName); err != nil {
		return err
	}

	return r.initializeRSLIfNeeded(ctx, remoteName)
}

// initializeRSLIfNeeded runs the three-case bootstrap without touching the
// workspace guard. The remote tracking RSL ref must be up to date.
func (r *Repository) initializeRSLIfNeeded(ctx context.Context, remoteName string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	remoteExists := true
	if _, err := r.r.GetReference(rsl.RemoteTrackerRef(remoteName)); err != nil {
		if !errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return err
		}
		remoteExists = false
	}

	localExists := true
	if _, err := r.r.GetReference(rsl.Ref); err != nil {
		if !errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return err
		}
		localExists = false
	}

	switch {
	case !remoteExists && !localExists:
		return r.initializeRSLGlobal(remoteName)
	case remoteExists && !localExists:
		return r.initializeRSLLocal(remoteName)
	case remoteExists && localExists:
		return nil
	default:
		return ErrRSLConfiguration
	}
}

// initializeRSLGlobal creates the RSL from scratch: genesis commit, this
// client's nonce, the initial nonce bag, the first push entry, and the push
// publishing the new branch.
func (r *Repository) initializeRSLGlobal(remoteName string) error {
	slog.Debug("Initializing Reference State Log for this repository...")

	if err := r.ensureSigner(); err != nil {
		return err
	}

	if _, err := rsl.CreateGenesis(r.r); err != nil {
		return err
	}

	if err := r.r.CheckoutBranch(rsl.Ref); err != nil {
		return err
	}

	nonce, err := rsl.GenerateNonce()
	if err != nil {
		return err
	}
	if err := rsl.WriteNonceFile(r.r, nonce); err != nil {
		return err
	}

	bag := rsl.NewNonceBag()
	bag.Insert(nonce)
	if err := rsl.WriteNonceBagFile(r.r, bag); err != nil {
		return err
	}
	if _, err := rsl.CommitNonceBag(r.r, bag); err != nil {
		return err
	}

	tip, err := r.r.GetReference(rsl.Ref)
	if err != nil {
		return err
	}

	entry := rsl.NewPushEntry(rsl.Ref, tip, "", bag)
	if _, err := rsl.CommitPushEntry(r.r, entry, r.signer); err != nil {
		return err
	}

	if err := r.pushRSL(remoteName); err != nil {
		return err
	}

	slog.Debug("Published new RSL branch")
	return nil
}

// initializeRSLLocal adopts an existing remote RSL: the local branch is
// created at the remote tip and this client's fresh nonce is registered in the
// bag and pushed.
func (r *Repository) initializeRSLLocal(remoteName string) error {
	slog.Debug("Initializing local Reference State Log based on existing remote RSL...")

	remoteTip, err := r.r.GetReference(rsl.RemoteTrackerRef(remoteName))
	if err != nil {
		return err
	}

	if err := r.r.SetReference(rsl.Ref, remoteTip); err != nil {
		return err
	}
	if err := r.r.CheckoutBranch(rsl.Ref); err != nil {
		return err
	}

	nonce, err := rsl.GenerateNonce()
	if err != nil {
		return err
	}
	if err := rsl.WriteNonceFile(r.r, nonce); err != nil {
		return err
	}

	bag, err := rsl.ReadNonceBagAt(r.r, remoteTip)
	if err != nil {
		if !errors.Is(err, rsl.ErrNoNonceBagInTree) {
			return err
		}
		bag = rsl.NewNonceBag()
	}

	bag.Insert(nonce)
	if err := rsl.WriteNonceBagFile(r.r, bag); err != nil {
		return err
	}
	if _, err := rsl.CommitNonceBag(r.r, bag); err != nil {
		return err
	}

	if err := r.pushRSL(remoteName); err != nil {
		return fmt.Errorf("unable to publish nonce registration: %w", err)
	}

	return nil
}
