// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"errors"
	"fmt"
	"strings"
)

var ErrBareRepositoryHasNoWorktree = errors.New("bare repository does not have a worktree")

// CheckoutBranch forces checkout of the specified branch, replacing any
// conflicting worktree contents. It checks out the RSL branch and, afterwards,
// the user's starting branch; the caller is responsible for saving the user's
// workspace beforehand.
func (r *Repository) CheckoutBranch(refName string) error {
	if r.IsBare() {
		return ErrBareRepositoryHasNoWorktree
	}

	branchName := strings.TrimPrefix(refName, BranchRefPrefix)
	_, err := r.executor("checkout", "-f", branchName).withWorkTree().executeString()
	if err != nil {
		return fmt.Errorf("unable to checkout '%s': %w", branchName, err)
	}

	return nil
}

// StashPush stashes tracked and untracked changes in the worktree. It returns
// true if a stash entry was created, false if the worktree was already clean.
func (r *Repository) StashPush(message string) (bool, error) {
	stdOut, err := r.executor("stash", "push", "--include-untracked", "-m", message).withWorkTree().executeString()
	if err != nil {
		return false, fmt.Errorf("unable to stash local changes: %w", err)
	}

	return !strings.Contains(stdOut, "No local changes to save"), nil
}

// StashPop restores the most recent stash entry into the worktree.
func (r *Repository) StashPop() error {
	_, err := r.executor("stash", "pop").withWorkTree().executeString()
	if err != nil {
		return fmt.Errorf("unable to restore stashed changes: %w", err)
	}

	return nil
}
