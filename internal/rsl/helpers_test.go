// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package rsl

import (
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/polysync/git-rsl/internal/signerverifier/gpg"
)

// createTestSigningKey generates an in-memory OpenPGP entity and returns a
// signer and verifier pair over it.
func createTestSigningKey(t *testing.T) (*gpg.Signer, *gpg.Verifier) {
	t.Helper()

	entity, err := openpgp.NewEntity("Jane Doe", "", "jane.doe@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatal(err)
	}

	return gpg.NewSignerFromEntity(entity), gpg.NewVerifierFromEntities(entity)
}
