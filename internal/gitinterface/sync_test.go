// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushAndFetch(t *testing.T) {
	remoteDir := t.TempDir()
	remoteRepo := CreateTestGitRepository(t, remoteDir, true)

	localDir := t.TempDir()
	localRepo := CreateTestGitRepository(t, localDir, false)
	require.NoError(t, localRepo.AddRemote(DefaultRemoteName, remoteDir))

	commitID := localRepo.CommitTestFile(t, "README.md", "hello", "Initial commit")

	require.NoError(t, localRepo.Push(DefaultRemoteName, []string{"refs/heads/main"}))

	remoteTip, err := remoteRepo.GetReference("refs/heads/main")
	require.NoError(t, err)
	assert.True(t, commitID.Equal(remoteTip))

	// A second client fetches the branch into its remote tracking namespace.
	otherDir := t.TempDir()
	otherRepo := CreateTestGitRepository(t, otherDir, false)
	require.NoError(t, otherRepo.AddRemote(DefaultRemoteName, remoteDir))

	require.NoError(t, otherRepo.Fetch(DefaultRemoteName, []string{"refs/heads/main"}, true))

	trackingTip, err := otherRepo.GetReference("refs/remotes/origin/main")
	require.NoError(t, err)
	assert.True(t, commitID.Equal(trackingTip))
}

func TestPushNonFastForward(t *testing.T) {
	remoteDir := t.TempDir()
	CreateTestGitRepository(t, remoteDir, true)

	localDir := t.TempDir()
	localRepo := CreateTestGitRepository(t, localDir, false)
	require.NoError(t, localRepo.AddRemote(DefaultRemoteName, remoteDir))

	localRepo.CommitTestFile(t, "README.md", "hello", "Initial commit")
	require.NoError(t, localRepo.Push(DefaultRemoteName, []string{"refs/heads/main"}))

	// Rewrite local history: a parentless commit that does not descend from
	// what the remote has.
	emptyTreeID, err := localRepo.EmptyTree()
	require.NoError(t, err)
	divergentID, err := localRepo.Commit(emptyTreeID, "refs/heads/divergent", "Divergent commit")
	require.NoError(t, err)
	require.NoError(t, localRepo.SetReference("refs/heads/main", divergentID))

	err = localRepo.Push(DefaultRemoteName, []string{"refs/heads/main"})
	assert.ErrorIs(t, err, ErrNonFastForward)
}

func TestFastForward(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)

	firstID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "First commit")
	require.NoError(t, err)
	secondID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Second commit")
	require.NoError(t, err)

	// Rewind and fast-forward again.
	require.NoError(t, repo.SetReference("refs/heads/audit", firstID))

	possible, err := repo.FastForwardPossible("refs/heads/audit", secondID)
	require.NoError(t, err)
	assert.True(t, possible)

	require.NoError(t, repo.FastForward("refs/heads/audit", secondID))
	refTip, err := repo.GetReference("refs/heads/audit")
	require.NoError(t, err)
	assert.True(t, secondID.Equal(refTip))

	// A divergent target must be refused.
	divergentID, err := repo.Commit(emptyTreeID, "refs/heads/other", "Other commit")
	require.NoError(t, err)

	err = repo.FastForward("refs/heads/audit", divergentID)
	assert.ErrorIs(t, err, ErrNonFastForward)
}
