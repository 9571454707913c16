// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// NonceBagFileName is the name of the nonce bag file on the RSL branch
// worktree.
const NonceBagFileName = "NONCE_BAG"

// NonceBag is the set of currently active developer nonces. It is embedded
// into each push entry and maintained as a file on the RSL branch.
type NonceBag struct {
	nonces map[Nonce]struct{}
}

// NewNonceBag returns an empty nonce bag.
func NewNonceBag() *NonceBag {
	return &NonceBag{nonces: map[Nonce]struct{}{}}
}

// Insert adds the nonce to the bag. It returns true if the nonce was not
// already present.
func (b *NonceBag) Insert(nonce Nonce) bool {
	if _, has := b.nonces[nonce]; has {
		return false
	}

	b.nonces[nonce] = struct{}{}
	return true
}

// Remove drops the nonce from the bag. It returns true if the nonce was
// present.
func (b *NonceBag) Remove(nonce Nonce) bool {
	if _, has := b.nonces[nonce]; !has {
		return false
	}

	delete(b.nonces, nonce)
	return true
}

// Contains returns true if the nonce is in the bag.
func (b *NonceBag) Contains(nonce Nonce) bool {
	_, has := b.nonces[nonce]
	return has
}

// Len returns the number of nonces in the bag.
func (b *NonceBag) Len() int {
	return len(b.nonces)
}

// sorted returns the bag's nonces in lexicographic byte order. The canonical
// serialization sorts so that hash chains are reproducible across
// implementations.
func (b *NonceBag) sorted() []Nonce {
	nonces := make([]Nonce, 0, len(b.nonces))
	for nonce := range b.nonces {
		nonces = append(nonces, nonce)
	}

	sort.Slice(nonces, func(i, j int) bool {
		return bytes.Compare(nonces[i].Bytes[:], nonces[j].Bytes[:]) < 0
	})

	return nonces
}

type nonceBagJSON struct {
	Bag []Nonce `json:"bag"`
}

func (b *NonceBag) MarshalJSON() ([]byte, error) {
	return json.Marshal(nonceBagJSON{Bag: b.sorted()})
}

func (b *NonceBag) UnmarshalJSON(data []byte) error {
	var decoded nonceBagJSON
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	b.nonces = make(map[Nonce]struct{}, len(decoded.Bag))
	for _, nonce := range decoded.Bag {
		b.nonces[nonce] = struct{}{}
	}

	return nil
}

// Serialize returns the bag's canonical form, used both for the NONCE_BAG file
// and inside push entries.
func (b *NonceBag) Serialize() ([]byte, error) {
	return json.Marshal(b)
}

// ParseNonceBag decodes a bag from its canonical form.
func ParseNonceBag(data []byte) (*NonceBag, error) {
	bag := NewNonceBag()
	if err := json.Unmarshal(data, bag); err != nil {
		return nil, fmt.Errorf("unable to parse nonce bag: %w", err)
	}

	return bag, nil
}

// Clone returns an independent copy of the bag.
func (b *NonceBag) Clone() *NonceBag {
	clone := NewNonceBag()
	for nonce := range b.nonces {
		clone.nonces[nonce] = struct{}{}
	}

	return clone
}
