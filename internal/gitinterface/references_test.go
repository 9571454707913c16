// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetReference(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	_, err := repo.GetReference("refs/heads/feature")
	assert.ErrorIs(t, err, ErrReferenceNotFound)

	commitID := repo.CommitTestFile(t, "README.md", "hello", "Initial commit")

	refTip, err := repo.GetReference("refs/heads/main")
	require.NoError(t, err)
	assert.True(t, commitID.Equal(refTip))

	require.NoError(t, repo.SetReference("refs/heads/feature", commitID))
	featureTip, err := repo.GetReference("refs/heads/feature")
	require.NoError(t, err)
	assert.True(t, commitID.Equal(featureTip))

	require.NoError(t, repo.DeleteReference("refs/heads/feature"))
	_, err = repo.GetReference("refs/heads/feature")
	assert.ErrorIs(t, err, ErrReferenceNotFound)
}

func TestRefSpec(t *testing.T) {
	assert.Equal(t, "refs/heads/RSL:refs/heads/RSL", RefSpec("refs/heads/RSL", "", true))
	assert.Equal(t, "+refs/heads/RSL:refs/heads/RSL", RefSpec("refs/heads/RSL", "", false))
	assert.Equal(t, "refs/heads/RSL:refs/remotes/origin/RSL", RefSpec("refs/heads/RSL", "origin", true))
	assert.Equal(t, "+refs/heads/main:refs/remotes/origin/main", RefSpec("refs/heads/main", "origin", false))
}

func TestRemoteRef(t *testing.T) {
	assert.Equal(t, "refs/remotes/origin/main", RemoteRef("refs/heads/main", "origin"))
	assert.Equal(t, "refs/tags/v1.0.0", RemoteRef("refs/tags/v1.0.0", "origin"))
}

func TestBranchReferenceName(t *testing.T) {
	assert.Equal(t, "refs/heads/main", BranchReferenceName("main"))
	assert.Equal(t, "refs/heads/main", BranchReferenceName("refs/heads/main"))
}
