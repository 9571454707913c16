// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

package gitinterface

import (
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

const (
	testName  = "Jane Doe"
	testEmail = "jane.doe@example.com"
)

var testClock = clockwork.NewFakeClockAt(time.Date(1995, time.October, 26, 9, 0, 0, 0, time.UTC))

// CreateTestGitRepository creates a Git repository in the specified directory.
// This is meant to be used by tests across git-rsl packages. Commit signing in
// tests goes through in-memory signers, so no key material is configured here.
func CreateTestGitRepository(t *testing.T, dir string, bare bool) *Repository {
	t.Helper()

	repo := setupRepository(t, dir, bare)

	// Set up author / committer identity
	if err := repo.SetGitConfig("user.name", testName); err != nil {
		t.Fatal(err)
	}
	if err := repo.SetGitConfig("user.email", testEmail); err != nil {
		t.Fatal(err)
	}

	return repo
}

func setupRepository(t *testing.T, dir string, bare bool) *Repository {
	t.Helper()

	var gitDirPath string
	args := []string{"init"}
	if bare {
		args = append(args, "--bare")
		gitDirPath = dir
	} else {
		gitDirPath = filepath.Join(dir, ".git")
	}
	args = append(args, "-b", "main")
	args = append(args, dir)

	cmd := exec.Command(binary, args...)
	if err := cmd.Run(); err != nil {
		t.Fatal(err)
	}

	return &Repository{gitDirPath: gitDirPath, clock: testClock, credentials: NewSystemCredentialProvider()}
}

// CommitTestFile writes contents to a file in the worktree, stages it, and
// commits it to the checked out branch. It returns the new commit's ID.
func (r *Repository) CommitTestFile(t *testing.T, name, contents, message string) Hash {
	t.Helper()

	blobID, err := r.WriteBlob([]byte(contents))
	if err != nil {
		t.Fatal(err)
	}

	treeID, err := r.TreeWithSingleBlob(name, blobID)
	if err != nil {
		t.Fatal(err)
	}

	headTarget, err := r.GetSymbolicReferenceTarget("HEAD")
	if err != nil {
		t.Fatal(err)
	}

	commitID, err := r.Commit(treeID, headTarget, message)
	if err != nil {
		t.Fatal(err)
	}

	if !r.IsBare() {
		if _, err := r.executor("reset", "--hard", commitID.String()).withWorkTree().executeString(); err != nil {
			t.Fatal(err)
		}
	}

	return commitID
}
