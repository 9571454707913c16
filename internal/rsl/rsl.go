// Copyright The git-rsl Authors
// SPDX-License-Identifier: Apache-2.0

// Package rsl implements the Reference State Log: a signed, append-only audit
// branch recording every authorized push as a push entry, together with the
// nonce scheme that proves each participant observed the log's latest state.
package rsl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/polysync/git-rsl/internal/gitinterface"
	"github.com/polysync/git-rsl/internal/signerverifier"
)

const (
	// BranchName is the short name of the audit branch.
	BranchName = "RSL"

	// Ref is the audit branch's qualified name. It is reserved, as is the
	// corresponding remote tracking ref for every remote.
	Ref = "refs/heads/RSL"

	remoteTrackerRef = "refs/remotes/%s/RSL"

	genesisCommitMessage  = "Initialize RSL"
	nonceBagCommitMessage = "Update nonce bag"
)

var (
	ErrRSLBranchNotFound = errors.New("unable to find RSL branch")
	ErrNoNonceBagInTree  = errors.New("RSL tip does not carry a nonce bag")
)

// RemoteTrackerRef returns the remote tracking ref for the specified remote
// name. For example, for 'origin', the remote tracker ref is
// 'refs/remotes/origin/RSL'.
func RemoteTrackerRef(remote string) string {
	return fmt.Sprintf(remoteTrackerRef, remote)
}

// ViewKind distinguishes the local RSL branch from the remote tracking copy.
type ViewKind int

const (
	Local ViewKind = iota
	Remote
)

// View is an in-memory snapshot of an RSL branch: its tip and the most recent
// push entry reachable from it. Views are constructed on validator entry and
// discarded after; they are never persisted.
type View struct {
	Kind          ViewKind
	Head          gitinterface.Hash
	LastPushEntry *PushEntry
}

// ReadLocalView snapshots the local RSL branch.
func ReadLocalView(repo *gitinterface.Repository) (*View, error) {
	return readView(repo, Local, Ref)
}

// ReadRemoteView snapshots the remote tracking RSL branch for the specified
// remote.
func ReadRemoteView(repo *gitinterface.Repository, remoteName string) (*View, error) {
	return readView(repo, Remote, RemoteTrackerRef(remoteName))
}

func readView(repo *gitinterface.Repository, kind ViewKind, refName string) (*View, error) {
	head, err := repo.GetReference(refName)
	if err != nil {
		if errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return nil, ErrRSLBranchNotFound
		}
		return nil, err
	}

	lastPushEntry, err := FindLastPushEntry(repo, head)
	if err != nil {
		return nil, err
	}

	return &View{Kind: kind, Head: head, LastPushEntry: lastPushEntry}, nil
}

// FindLastPushEntry returns the most recent push entry reachable from the
// specified tip, walking first-parent ancestry. It returns nil without error
// when no commit in the ancestry is a push entry.
func FindLastPushEntry(repo *gitinterface.Repository, tip gitinterface.Hash) (*PushEntry, error) {
	current := tip
	for {
		message, err := repo.GetCommitMessage(current)
		if err != nil {
			return nil, err
		}

		if entry, ok := ParsePushEntryFromCommitMessage(message); ok {
			return entry, nil
		}

		parentIDs, err := repo.GetCommitParentIDs(current)
		if err != nil {
			return nil, err
		}
		if parentIDs == nil {
			return nil, nil
		}

		current = parentIDs[0]
	}
}

// FindLastPushEntryForRef returns the most recent push entry for the specified
// reference reachable from the tip, or nil if the log has no record of the
// reference.
func FindLastPushEntryForRef(repo *gitinterface.Repository, tip gitinterface.Hash, refName string) (*PushEntry, error) {
	current := tip
	for {
		message, err := repo.GetCommitMessage(current)
		if err != nil {
			return nil, err
		}

		if entry, ok := ParsePushEntryFromCommitMessage(message); ok && entry.RefName == refName {
			return entry, nil
		}

		parentIDs, err := repo.GetCommitParentIDs(current)
		if err != nil {
			return nil, err
		}
		if parentIDs == nil {
			return nil, nil
		}

		current = parentIDs[0]
	}
}

// CreateGenesis creates the RSL branch's origin: a parentless commit with an
// empty tree. The branch must not exist yet.
func CreateGenesis(repo *gitinterface.Repository) (gitinterface.Hash, error) {
	if _, err := repo.GetReference(Ref); err == nil {
		return gitinterface.ZeroHash, fmt.Errorf("RSL branch already exists")
	} else if !errors.Is(err, gitinterface.ErrReferenceNotFound) {
		return gitinterface.ZeroHash, err
	}

	emptyTreeID, err := repo.EmptyTree()
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	slog.Debug("Creating RSL genesis commit...")
	return repo.Commit(emptyTreeID, Ref, genesisCommitMessage)
}

// CommitPushEntry appends the entry to the local RSL branch as a signed
// commit. The commit reuses the branch tip's tree so the nonce bag file rides
// along unchanged.
func CommitPushEntry(repo *gitinterface.Repository, entry *PushEntry, signer signerverifier.Signer) (gitinterface.Hash, error) {
	tip, err := repo.GetReference(Ref)
	if err != nil {
		if errors.Is(err, gitinterface.ErrReferenceNotFound) {
			return gitinterface.ZeroHash, ErrRSLBranchNotFound
		}
		return gitinterface.ZeroHash, err
	}

	treeID, err := repo.GetCommitTreeID(tip)
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	message, err := entry.Serialize()
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	slog.Debug(fmt.Sprintf("Committing push entry for '%s' at '%s'...", entry.RefName, entry.TargetID.String()))
	return repo.CommitSigned(treeID, Ref, message, signer)
}

// CommitNonceBag appends a bookkeeping commit to the local RSL branch whose
// tree carries the bag's canonical form as the NONCE_BAG file.
func CommitNonceBag(repo *gitinterface.Repository, bag *NonceBag) (gitinterface.Hash, error) {
	contents, err := bag.Serialize()
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	blobID, err := repo.WriteBlob(contents)
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	treeID, err := repo.TreeWithSingleBlob(NonceBagFileName, blobID)
	if err != nil {
		return gitinterface.ZeroHash, err
	}

	slog.Debug("Committing nonce bag to RSL branch...")
	return repo.Commit(treeID, Ref, nonceBagCommitMessage)
}

// ReadNonceBagAt returns the nonce bag stored in the tree of the specified RSL
// commit.
func ReadNonceBagAt(repo *gitinterface.Repository, commitID gitinterface.Hash) (*NonceBag, error) {
	treeID, err := repo.GetCommitTreeID(commitID)
	if err != nil {
		return nil, err
	}

	blobID, err := repo.GetPathIDInTree(NonceBagFileName, treeID)
	if err != nil {
		if errors.Is(err, gitinterface.ErrTreeDoesNotHavePath) {
			return nil, ErrNoNonceBagInTree
		}
		return nil, err
	}

	contents, err := repo.ReadBlob(blobID)
	if err != nil {
		return nil, err
	}

	return ParseNonceBag(contents)
}

// WriteNonceBagFile updates the live NONCE_BAG file in the worktree. The RSL
// branch must be checked out.
func WriteNonceBagFile(repo *gitinterface.Repository, bag *NonceBag) error {
	contents, err := bag.Serialize()
	if err != nil {
		return err
	}

	if err := os.WriteFile(nonceBagFilePath(repo), contents, 0o644); err != nil {
		return fmt.Errorf("unable to write nonce bag: %w", err)
	}

	return nil
}

func nonceBagFilePath(repo *gitinterface.Repository) string {
	return filepath.Join(filepath.Dir(repo.GetGitDir()), NonceBagFileName)
}
