// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"golang.org/x/crypto/sha3"
)

// PushEntry is the RSL's log record: it binds a reference name to the tip it
// was pushed at, links to the previous entry by hash, and encloses the nonce
// bag snapshot observed at push time. The canonical serialization of the entry
// is the commit message on the RSL branch and the preimage of the entry's
// hash.
type PushEntry struct {
	// RefName contains the qualified Git reference the entry is for.
	RefName string

	// TargetID contains the Git hash for the object expected at RefName.
	TargetID gitinterface.Hash

	// PrevHash contains the hash of the nearest ancestor push entry, or the
	// empty string for the first entry in the log.
	PrevHash string

	// NonceBag contains the snapshot of the nonce bag enclosed in the entry.
	NonceBag *NonceBag
}

// NewPushEntry returns a PushEntry binding refName to targetID, chained onto
// prevHash, carrying a snapshot of the supplied bag.
func NewPushEntry(refName string, targetID gitinterface.Hash, prevHash string, bag *NonceBag) *PushEntry {
	return &PushEntry{RefName: refName, TargetID: targetID, PrevHash: prevHash, NonceBag: bag.Clone()}
}

// The wire field order is fixed: ref_name, oid, prev_hash, nonce_bag. The
// two-space indent and \n newlines are part of the canonical form because the
// entry hash is taken over the textual message.
type pushEntryJSON struct {
	RefName  string       `json:"ref_name"`
	OID      objectIDJSON `json:"oid"`
	PrevHash string       `json:"prev_hash"`
	NonceBag *NonceBag    `json:"nonce_bag"`
}

type objectIDJSON struct {
	Raw string `json:"raw"`
}

// Serialize returns the entry's canonical textual form.
func (e *PushEntry) Serialize() (string, error) {
	encoded, err := json.MarshalIndent(pushEntryJSON{
		RefName:  e.RefName,
		OID:      objectIDJSON{Raw: e.TargetID.String()},
		PrevHash: e.PrevHash,
		NonceBag: e.NonceBag,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("unable to serialize push entry: %w", err)
	}

	return string(encoded), nil
}

// Hash returns the lowercase hex SHA3-512 digest of the entry's canonical
// serialization. It is what the next entry's prev_hash must match.
func (e *PushEntry) Hash() (string, error) {
	serialized, err := e.Serialize()
	if err != nil {
		return "", err
	}

	digest := sha3.Sum512([]byte(serialized))
	return hex.EncodeToString(digest[:]), nil
}

// ParsePushEntryFromCommitMessage attempts to decode a push entry from a
// commit message. Messages that are not push entries, such as the RSL genesis
// or nonce bag bookkeeping commits, return false rather than an error.
func ParsePushEntryFromCommitMessage(message string) (*PushEntry, bool) {
	var decoded pushEntryJSON
	if err := json.Unmarshal([]byte(message), &decoded); err != nil {
		return nil, false
	}

	if decoded.RefName == "" || decoded.NonceBag == nil {
		return nil, false
	}

	targetID, err := gitinterface.NewHash(decoded.OID.Raw)
	if err != nil {
		return nil, false
	}

	return &PushEntry{
		RefName:  decoded.RefName,
		TargetID: targetID,
		PrevHash: decoded.PrevHash,
		NonceBag: decoded.NonceBag,
	}, true
}
