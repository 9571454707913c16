// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitrsl

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidRSL indicates the remote RSL failed validation. The remote
	// tracking RSL is reset to the last known-good local tip before this is
	// returned.
	ErrInvalidRSL = errors.New("remote RSL failed validation")

	// ErrOutsideRSL indicates a branch tip advertised by the remote has no
	// corresponding push entry.
	ErrOutsideRSL = errors.New("no push entry matches the branch state on the remote; it is likely someone pushed without git-rsl. Have that developer secure-push the branch and try again")

	// ErrRSLConfiguration indicates the RSL branch exists locally but not on
	// the remote.
	ErrRSLConfiguration = errors.New("RSL branch exists locally but not on the remote")

	// ErrExhaustedRetries indicates the operation did not succeed within the
	// configured retry bound. The last underlying error is chained.
	ErrExhaustedRetries = errors.New("operation did not succeed within the retry bound")

	// ErrPushingBranch indicates the final branch push failed after the RSL
	// was already updated on the remote.
	ErrPushingBranch = errors.New("unable to push branch to remote")

	// ErrNotOnNamedBranch indicates the workspace guard could not record a
	// branch to restore afterwards.
	ErrNotOnNamedBranch = errors.New("not on a named branch, checkout one before running secure operations")

	// ErrBareRepository indicates the repository has no worktree to host the
	// RSL branch checkout.
	ErrBareRepository = errors.New("secure operations require a worktree, bare repositories are not supported")
)

func isMissingRemoteRef(err error) bool {
	return strings.Contains(err.Error(), "couldn't find remote ref")
}
