// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitrsl

import (
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/signerverifier/gpg"
)

// testKeys carries the signing entities for the test developers and a
// verifier trusting them both.
type testKeys struct {
	signerA   *gpg.Signer
	signerB   *gpg.Signer
	untrusted *gpg.Signer
	verifier  *gpg.Verifier
}

func createTestKeys(t *testing.T) *testKeys {
	t.Helper()

	entityA := createTestEntity(t, "Developer A", "a@example.com")
	entityB := createTestEntity(t, "Developer B", "b@example.com")
	entityEvil := createTestEntity(t, "Attacker", "evil@example.com")

	return &testKeys{
		signerA:   gpg.NewSignerFromEntity(entityA),
		signerB:   gpg.NewSignerFromEntity(entityB),
		untrusted: gpg.NewSignerFromEntity(entityEvil),
		verifier:  gpg.NewVerifierFromEntities(entityA, entityB),
	}
}

func createTestEntity(t *testing.T, name, email string) *openpgp.Entity {
	t.Helper()

	entity, err := openpgp.NewEntity(name, "", email, &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatal(err)
	}

	return entity
}

// createTestClient creates a working repository wired to the remote with the
// supplied signing capability.
func createTestClient(t *testing.T, remoteDir string, signer *gpg.Signer, verifier *gpg.Verifier) *Repository {
	t.Helper()

	dir := t.TempDir()
	gitRepo := gitinterface.CreateTestGitRepository(t, dir, false)
	if err := gitRepo.AddRemote(gitinterface.DefaultRemoteName, remoteDir); err != nil {
		t.Fatal(err)
	}

	return &Repository{
		r:          gitRepo,
		signer:     signer,
		verifier:   verifier,
		retryLimit: DefaultRetryLimit,
	}
}

// createTestRemote creates the shared bare repository the clients push to.
func createTestRemote(t *testing.T) (*gitinterface.Repository, string) {
	t.Helper()

	dir := t.TempDir()
	return gitinterface.CreateTestGitRepository(t, dir, true), dir
}
