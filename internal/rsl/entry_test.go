// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"strings"
	"testing"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTargetID = "decbf2be529ab6557d5429922251e5ee36519817"

func TestPushEntrySerialize(t *testing.T) {
	targetID, err := gitinterface.NewHash(testTargetID)
	require.NoError(t, err)

	entry := NewPushEntry("refs/heads/branch_name", targetID, "fwjjk42ofw093j", NewNonceBag())

	serialized, err := entry.Serialize()
	require.NoError(t, err)

	expected := strings.Join([]string{
		`{`,
		`  "ref_name": "refs/heads/branch_name",`,
		`  "oid": {`,
		`    "raw": "decbf2be529ab6557d5429922251e5ee36519817"`,
		`  },`,
		`  "prev_hash": "fwjjk42ofw093j",`,
		`  "nonce_bag": {`,
		`    "bag": []`,
		`  }`,
		`}`,
	}, "\n")
	assert.Equal(t, expected, serialized)
}

func TestPushEntryRoundTrip(t *testing.T) {
	targetID, err := gitinterface.NewHash(testTargetID)
	require.NoError(t, err)

	bag := NewNonceBag()
	nonce, err := GenerateNonce()
	require.NoError(t, err)
	bag.Insert(nonce)

	entry := NewPushEntry("refs/heads/master", targetID, "", bag)

	serialized, err := entry.Serialize()
	require.NoError(t, err)

	parsed, ok := ParsePushEntryFromCommitMessage(serialized)
	require.True(t, ok)

	assert.Equal(t, entry.RefName, parsed.RefName)
	assert.True(t, entry.TargetID.Equal(parsed.TargetID))
	assert.Equal(t, entry.PrevHash, parsed.PrevHash)
	assert.True(t, parsed.NonceBag.Contains(nonce))

	// The parsed entry must hash identically to the original, or chains
	// would break across clients.
	originalHash, err := entry.Hash()
	require.NoError(t, err)
	parsedHash, err := parsed.Hash()
	require.NoError(t, err)
	assert.Equal(t, originalHash, parsedHash)
}

func TestPushEntryHashStability(t *testing.T) {
	targetID, err := gitinterface.NewHash(testTargetID)
	require.NoError(t, err)

	entry := NewPushEntry("refs/heads/branch_name", targetID, "fwjjk42ofw093j", NewNonceBag())

	hash, err := entry.Hash()
	require.NoError(t, err)

	// SHA3-512 as lowercase hex
	assert.Len(t, hash, 128)
	assert.Equal(t, strings.ToLower(hash), hash)

	again, err := entry.Hash()
	require.NoError(t, err)
	assert.Equal(t, hash, again)

	// Any field change must change the hash.
	other := NewPushEntry("refs/heads/branch_name", targetID, "different", NewNonceBag())
	otherHash, err := other.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, hash, otherHash)
}

func TestParsePushEntryFromCommitMessageRejectsOthers(t *testing.T) {
	for _, message := range []string{
		"Initialize RSL",
		"Update nonce bag",
		"",
		`{"unrelated": true}`,
		`{"ref_name": ""}`,
	} {
		entry, ok := ParsePushEntryFromCommitMessage(message)
		assert.False(t, ok, "message %q should not parse as a push entry", message)
		assert.Nil(t, entry)
	}
}
