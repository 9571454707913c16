// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"testing"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteTrackerRef(t *testing.T) {
	assert.Equal(t, "refs/remotes/origin/RSL", RemoteTrackerRef("origin"))
	assert.Equal(t, "refs/remotes/upstream/RSL", RemoteTrackerRef("upstream"))
}

func TestCreateGenesis(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	genesisID, err := CreateGenesis(repo)
	require.NoError(t, err)

	tip, err := repo.GetReference(Ref)
	require.NoError(t, err)
	assert.True(t, genesisID.Equal(tip))

	// The genesis is a parentless commit with an empty tree.
	parentIDs, err := repo.GetCommitParentIDs(genesisID)
	require.NoError(t, err)
	assert.Nil(t, parentIDs)

	treeID, err := repo.GetCommitTreeID(genesisID)
	require.NoError(t, err)
	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)
	assert.True(t, treeID.Equal(emptyTreeID))

	// A second genesis must be rejected.
	_, err = CreateGenesis(repo)
	assert.Error(t, err)
}

func TestCommitNonceBagAndReadBack(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	_, err := CreateGenesis(repo)
	require.NoError(t, err)

	bag := NewNonceBag()
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	bag.Insert(nonce)

	commitID, err := CommitNonceBag(repo, bag)
	require.NoError(t, err)

	tip, err := repo.GetReference(Ref)
	require.NoError(t, err)
	assert.True(t, commitID.Equal(tip))

	readBack, err := ReadNonceBagAt(repo, tip)
	require.NoError(t, err)
	assert.True(t, readBack.Contains(nonce))

	// The bookkeeping commit is not a push entry.
	message, err := repo.GetCommitMessage(tip)
	require.NoError(t, err)
	_, ok := ParsePushEntryFromCommitMessage(message)
	assert.False(t, ok)
}

func TestReadNonceBagAtGenesis(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	genesisID, err := CreateGenesis(repo)
	require.NoError(t, err)

	_, err = ReadNonceBagAt(repo, genesisID)
	assert.ErrorIs(t, err, ErrNoNonceBagInTree)
}

func TestCommitPushEntryAndViews(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)
	signer, verifier := createTestSigningKey(t)

	_, err := CreateGenesis(repo)
	require.NoError(t, err)

	bag := NewNonceBag()
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	bag.Insert(nonce)

	_, err = CommitNonceBag(repo, bag)
	require.NoError(t, err)

	targetID, err := gitinterface.NewHash(testTargetID)
	require.NoError(t, err)

	entry := NewPushEntry("refs/heads/master", targetID, "", bag)
	commitID, err := CommitPushEntry(repo, entry, signer)
	require.NoError(t, err)

	// The entry round-trips through the commit message.
	message, err := repo.GetCommitMessage(commitID)
	require.NoError(t, err)
	parsed, ok := ParsePushEntryFromCommitMessage(message)
	require.True(t, ok)
	assert.Equal(t, "refs/heads/master", parsed.RefName)
	assert.True(t, targetID.Equal(parsed.TargetID))

	// The commit is signed by the entry signer.
	assert.NoError(t, repo.VerifyCommitSignature(commitID, verifier))

	// The entry commit keeps the nonce bag file in its tree.
	readBack, err := ReadNonceBagAt(repo, commitID)
	require.NoError(t, err)
	assert.True(t, readBack.Contains(nonce))

	// The local view reports the entry as the latest.
	view, err := ReadLocalView(repo)
	require.NoError(t, err)
	assert.Equal(t, Local, view.Kind)
	assert.True(t, view.Head.Equal(commitID))
	require.NotNil(t, view.LastPushEntry)
	assert.Equal(t, "refs/heads/master", view.LastPushEntry.RefName)
}

func TestFindLastPushEntryForRef(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)
	signer, _ := createTestSigningKey(t)

	_, err := CreateGenesis(repo)
	require.NoError(t, err)

	bag := NewNonceBag()
	_, err = CommitNonceBag(repo, bag)
	require.NoError(t, err)

	masterTip, err := gitinterface.NewHash(testTargetID)
	require.NoError(t, err)
	developTip, err := gitinterface.NewHash("a8554a24e2d31ea1a1a67b7ca43fcc3c2926fc22")
	require.NoError(t, err)

	masterEntry := NewPushEntry("refs/heads/master", masterTip, "", bag)
	_, err = CommitPushEntry(repo, masterEntry, signer)
	require.NoError(t, err)

	masterHash, err := masterEntry.Hash()
	require.NoError(t, err)

	developEntry := NewPushEntry("refs/heads/develop", developTip, masterHash, bag)
	_, err = CommitPushEntry(repo, developEntry, signer)
	require.NoError(t, err)

	tip, err := repo.GetReference(Ref)
	require.NoError(t, err)

	found, err := FindLastPushEntryForRef(repo, tip, "refs/heads/master")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, masterTip.Equal(found.TargetID))

	found, err = FindLastPushEntryForRef(repo, tip, "refs/heads/develop")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.True(t, developTip.Equal(found.TargetID))

	found, err = FindLastPushEntryForRef(repo, tip, "refs/heads/unknown")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestReadViewMissingBranch(t *testing.T) {
	tempDir := t.TempDir()
	repo := gitinterface.CreateTestGitRepository(t, tempDir, false)

	_, err := ReadLocalView(repo)
	assert.ErrorIs(t, err, ErrRSLBranchNotFound)

	_, err = ReadRemoteView(repo, "origin")
	assert.ErrorIs(t, err, ErrRSLBranchNotFound)
}
