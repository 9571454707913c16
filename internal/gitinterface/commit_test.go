// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/polysync/git-rsl/internal/signerverifier/gpg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestEntity(t *testing.T) *openpgp.Entity {
	t.Helper()

	entity, err := openpgp.NewEntity("Jane Doe", "", "jane.doe@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatal(err)
	}

	return entity
}

func TestCommit(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)

	firstID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "First commit")
	require.NoError(t, err)

	parentIDs, err := repo.GetCommitParentIDs(firstID)
	require.NoError(t, err)
	assert.Nil(t, parentIDs)

	message, err := repo.GetCommitMessage(firstID)
	require.NoError(t, err)
	assert.Equal(t, "First commit", message)

	secondID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Second commit")
	require.NoError(t, err)

	parentIDs, err = repo.GetCommitParentIDs(secondID)
	require.NoError(t, err)
	require.Len(t, parentIDs, 1)
	assert.True(t, firstID.Equal(parentIDs[0]))

	refTip, err := repo.GetReference("refs/heads/audit")
	require.NoError(t, err)
	assert.True(t, secondID.Equal(refTip))
}

func TestCommitSignedAndVerify(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	entity := createTestEntity(t)
	signer := gpg.NewSignerFromEntity(entity)
	verifier := gpg.NewVerifierFromEntities(entity)

	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)

	commitID, err := repo.CommitSigned(emptyTreeID, "refs/heads/audit", "Signed commit", signer)
	require.NoError(t, err)

	refTip, err := repo.GetReference("refs/heads/audit")
	require.NoError(t, err)
	assert.True(t, commitID.Equal(refTip))

	assert.NoError(t, repo.VerifyCommitSignature(commitID, verifier))

	// A different key must not verify.
	otherVerifier := gpg.NewVerifierFromEntities(createTestEntity(t))
	assert.Error(t, repo.VerifyCommitSignature(commitID, otherVerifier))

	// An unsigned commit cannot be verified.
	unsignedID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Unsigned commit")
	require.NoError(t, err)
	assert.ErrorIs(t, repo.VerifyCommitSignature(unsignedID, verifier), ErrCommitNotSigned)
}

func TestKnowsCommit(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)

	firstID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "First commit")
	require.NoError(t, err)
	secondID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Second commit")
	require.NoError(t, err)

	knows, err := repo.KnowsCommit(secondID, firstID)
	require.NoError(t, err)
	assert.True(t, knows)

	knows, err = repo.KnowsCommit(firstID, secondID)
	require.NoError(t, err)
	assert.False(t, knows)
}

func TestGetCommitsBetween(t *testing.T) {
	tempDir := t.TempDir()
	repo := CreateTestGitRepository(t, tempDir, false)

	emptyTreeID, err := repo.EmptyTree()
	require.NoError(t, err)

	firstID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "First commit")
	require.NoError(t, err)
	secondID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Second commit")
	require.NoError(t, err)
	thirdID, err := repo.Commit(emptyTreeID, "refs/heads/audit", "Third commit")
	require.NoError(t, err)

	// Forward chronological order, excluding the old tip.
	commitIDs, err := repo.GetCommitsBetween(thirdID, firstID)
	require.NoError(t, err)
	require.Len(t, commitIDs, 2)
	assert.True(t, secondID.Equal(commitIDs[0]))
	assert.True(t, thirdID.Equal(commitIDs[1]))

	// Zero old tip walks all the way back.
	commitIDs, err = repo.GetCommitsBetween(thirdID, ZeroHash)
	require.NoError(t, err)
	require.Len(t, commitIDs, 3)
	assert.True(t, firstID.Equal(commitIDs[0]))

	// Equal tips yield nothing.
	commitIDs, err = repo.GetCommitsBetween(thirdID, thirdID)
	require.NoError(t, err)
	assert.Empty(t, commitIDs)
}
