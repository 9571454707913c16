// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"fmt"
	"strings"
)

// GetCommitsBetween returns the commits on the first-parent chain of
// commitNewID that are not reachable from commitOldID, in forward
// chronological order (oldest first). If the old commit ID is set to zero, the
// whole first-parent chain of the new commit is returned.
func (r *Repository) GetCommitsBetween(commitNewID, commitOldID Hash) ([]Hash, error) {
	args := []string{"rev-list", "--reverse", "--first-parent", commitNewID.String()}
	if !commitOldID.IsZero() {
		args = append(args, fmt.Sprintf("^%s", commitOldID.String()))
	}

	stdOut, err := r.executor(args...).executeString()
	if err != nil {
		return nil, fmt.Errorf("unable to enumerate commits: %w", err)
	}

	if stdOut == "" {
		return nil, nil
	}

	commitIDs := []Hash{}
	for _, commitID := range strings.Split(stdOut, "\n") {
		if commitID == "" {
			continue
		}

		hash, err := NewHash(commitID)
		if err != nil {
			return nil, fmt.Errorf("invalid commit ID '%s': %w", commitID, err)
		}

		commitIDs = append(commitIDs, hash)
	}

	return commitIDs, nil
}
