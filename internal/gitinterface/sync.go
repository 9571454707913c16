// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
	"fmt"
	"strings"
)

const DefaultRemoteName = "origin"

// ErrNonFastForward is returned when the server rejects a push because the
// pushed ref does not fast-forward the ref on the remote, or when a
// fast-forward-only fetch cannot update the local tracking ref.
var ErrNonFastForward = errors.New("remote ref has advanced, update is not a fast-forward")

// PushRefSpec pushes the specified refspecs to the remote.
func (r *Repository) PushRefSpec(remoteName string, refSpecs []string) error {
	args := []string{"push", remoteName}
	args = append(args, refSpecs...)

	_, err := r.executor(args...).withEnv(r.credentialEnv(remoteName)...).executeString()
	if err != nil {
		if isNonFastForward(err) {
			return errors.Join(ErrNonFastForward, err)
		}
		return fmt.Errorf("unable to push: %w", err)
	}

	return nil
}

// Push pushes the specified refs to the remote. The refspecs are marked as
// fast-forward only, meaning the server-side compare-and-swap over each ref
// surfaces as ErrNonFastForward.
func (r *Repository) Push(remoteName string, refs []string) error {
	refSpecs := make([]string, 0, len(refs))
	for _, ref := range refs {
		refSpecs = append(refSpecs, RefSpec(ref, "", true))
	}

	return r.PushRefSpec(remoteName, refSpecs)
}

// FetchRefSpec fetches the specified refspecs from the remote.
func (r *Repository) FetchRefSpec(remoteName string, refSpecs []string) error {
	args := []string{"fetch", remoteName}
	args = append(args, refSpecs...)

	_, err := r.executor(args...).withEnv(r.credentialEnv(remoteName)...).executeString()
	if err != nil {
		if isNonFastForward(err) {
			return errors.Join(ErrNonFastForward, err)
		}
		return fmt.Errorf("unable to fetch: %w", err)
	}

	return nil
}

// Fetch fetches the specified refs from the remote, updating the corresponding
// remote tracking references. The operation is idempotent.
func (r *Repository) Fetch(remoteName string, refs []string, fastForwardOnly bool) error {
	refSpecs := make([]string, 0, len(refs))
	for _, ref := range refs {
		refSpecs = append(refSpecs, RefSpec(ref, remoteName, fastForwardOnly))
	}

	return r.FetchRefSpec(remoteName, refSpecs)
}

// FastForwardPossible returns true if refName can be moved to theirs without
// rewriting history, i.e. the current tip is an ancestor of theirs.
func (r *Repository) FastForwardPossible(refName string, theirs Hash) (bool, error) {
	current, err := r.GetReference(refName)
	if err != nil {
		if errors.Is(err, ErrReferenceNotFound) {
			return true, nil
		}
		return false, err
	}

	if current.Equal(theirs) {
		return true, nil
	}

	return r.KnowsCommit(theirs, current)
}

// FastForward moves refName to theirs after checking the update is a
// fast-forward. If the ref is currently checked out, the worktree is updated
// to match.
func (r *Repository) FastForward(refName string, theirs Hash) error {
	possible, err := r.FastForwardPossible(refName, theirs)
	if err != nil {
		return err
	}
	if !possible {
		return errors.Join(ErrNonFastForward, fmt.Errorf("'%s' cannot be fast-forwarded to '%s'", refName, theirs.String()))
	}

	headTarget, err := r.GetSymbolicReferenceTarget("HEAD")
	if err == nil && headTarget == refName && !r.IsBare() {
		_, err := r.executor("reset", "--hard", theirs.String()).withWorkTree().executeString()
		if err != nil {
			return fmt.Errorf("unable to fast-forward checked out ref '%s': %w", refName, err)
		}
		return nil
	}

	return r.SetReference(refName, theirs)
}

func isNonFastForward(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "non-fast-forward") || strings.Contains(msg, "fetch first") || strings.Contains(msg, "stale info")
}
