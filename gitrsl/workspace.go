// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitrsl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/polysync/git-rsl/internal/gitinterface"
)

const stashMessage = "git-rsl: saved workspace"

// workspaceState remembers the user's position before a secure operation
// checked out the RSL branch: the branch that was checked out and whether
// uncommitted changes were stashed.
type workspaceState struct {
	branch  string
	stashed bool
}

// saveWorkspace records the current branch and stashes uncommitted changes so
// the RSL branch can be checked out safely.
func (r *Repository) saveWorkspace() (*workspaceState, error) {
	if r.r.IsBare() {
		return nil, ErrBareRepository
	}

	branch, err := r.r.GetSymbolicReferenceTarget("HEAD")
	if err != nil {
		return nil, errors.Join(ErrNotOnNamedBranch, err)
	}
	if !strings.HasPrefix(branch, gitinterface.BranchRefPrefix) {
		return nil, ErrNotOnNamedBranch
	}

	state := &workspaceState{branch: branch}

	// An unborn branch has nothing to stash.
	if _, err := r.r.GetReference(branch); err != nil {
		if errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return state, nil
		}
		return nil, err
	}

	stashed, err := r.r.StashPush(stashMessage)
	if err != nil {
		return nil, err
	}
	state.stashed = stashed

	return state, nil
}

// restoreWorkspace returns to the branch the user started on and restores
// stashed changes. Restoration is best-effort on error paths, so failures are
// reported but do not mask the operation's own error.
func (r *Repository) restoreWorkspace(state *workspaceState) {
	slog.Debug(fmt.Sprintf("Returning to '%s'...", state.branch))

	if _, err := r.r.GetReference(state.branch); err == nil {
		if err := r.r.CheckoutBranch(state.branch); err != nil {
			slog.Warn(fmt.Sprintf("Unable to return to '%s': %v", state.branch, err))
			return
		}
	} else {
		// The starting branch was unborn; point HEAD back at it.
		if err := r.r.SetSymbolicReference("HEAD", state.branch); err != nil {
			slog.Warn(fmt.Sprintf("Unable to return to '%s': %v", state.branch, err))
			return
		}
	}

	if state.stashed {
		if err := r.r.StashPop(); err != nil {
			slog.Warn(fmt.Sprintf("Unable to restore stashed changes, they remain in the stash: %v", err))
		}
	}
}
