// Package gitrepo keeps a working copy of the card content repository and
// copies the cards of a branch into the store.
package gitrepo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"dgcreview/api/internal/store"

	"github.com/go-git/go-billy/v5/util"
	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

const remoteName = "origin"

var (
	ErrBranchNotFound = errors.New("branch not found")
	ErrNoRemote       = errors.New("no remote configured")
)

type Service struct {
	dir    string
	remote string
	mu     sync.Mutex
}

func New(dir, remote string) *Service {
	return &Service{dir: dir, remote: remote}
}

func (s *Service) Dir() string {
	return s.dir
}

// EnsureClone clones the remote into the working directory unless a
// repository is already there.
func (s *Service) EnsureClone(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, ".git")); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}
	if s.remote == "" {
		return fmt.Errorf("clone into %s: %w", s.dir, ErrNoRemote)
	}

	if err := os.MkdirAll(filepath.Dir(s.dir), 0o755); err != nil {
		return fmt.Errorf("create repo parent dir: %w", err)
	}
	if _, err := git.PlainCloneContext(ctx, s.dir, false, &git.CloneOptions{
		URL:        s.remote,
		RemoteName: remoteName,
	}); err != nil {
		return fmt.Errorf("clone %s: %w", s.remote, err)
	}
	return nil
}

// Fetch updates the remote-tracking branches. Repositories without a remote
// are left alone.
func (s *Service) Fetch(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return err
	}
	if _, err := repo.Remote(remoteName); errors.Is(err, git.ErrRemoteNotFound) {
		return nil
	}
	err = repo.FetchContext(ctx, &git.FetchOptions{RemoteName: remoteName})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("fetch %s: %w", remoteName, err)
	}
	return nil
}

// Reset discards local modifications, hard resetting the worktree to HEAD and
// removing untracked files and directories.
func (s *Service) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	if err := worktree.Reset(&git.ResetOptions{Mode: git.HardReset}); err != nil {
		return fmt.Errorf("reset worktree: %w", err)
	}
	if err := worktree.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("clean worktree: %w", err)
	}
	return nil
}

// Checkout switches the worktree to branch. A branch that only exists on the
// remote is created locally from it; an existing local branch is moved to the
// remote's commit when the remote has one.
func (s *Service) Checkout(branch string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}

	local := plumbing.NewBranchReferenceName(branch)
	tracking, trackErr := repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if trackErr != nil && !errors.Is(trackErr, plumbing.ErrReferenceNotFound) {
		return fmt.Errorf("resolve remote branch %s: %w", branch, trackErr)
	}

	if _, err := repo.Reference(local, true); err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("resolve branch %s: %w", branch, err)
		}
		if trackErr != nil {
			return fmt.Errorf("checkout %s: %w", branch, ErrBranchNotFound)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Branch: local, Hash: tracking.Hash(), Create: true, Force: true}); err != nil {
			return fmt.Errorf("create branch checkout %s: %w", branch, err)
		}
		return nil
	}

	if err := worktree.Checkout(&git.CheckoutOptions{Branch: local, Force: true}); err != nil {
		return fmt.Errorf("checkout branch %s: %w", branch, err)
	}
	if trackErr == nil {
		if err := worktree.Reset(&git.ResetOptions{Commit: tracking.Hash(), Mode: git.HardReset}); err != nil {
			return fmt.Errorf("move %s to %s: %w", branch, tracking.Hash(), err)
		}
	}
	return nil
}

// Head returns the checked-out branch name and commit hash.
func (s *Service) Head() (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return "", "", err
	}
	ref, err := repo.Head()
	if err != nil {
		return "", "", fmt.Errorf("resolve HEAD: %w", err)
	}
	return ref.Name().Short(), ref.Hash().String(), nil
}

// ReadFile reads path, relative to the repository root, from the worktree.
func (s *Service) ReadFile(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := s.open()
	if err != nil {
		return nil, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	data, err := util.ReadFile(worktree.Filesystem, path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

func (s *Service) open() (*git.Repository, error) {
	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open repo %s: %w", s.dir, err)
	}
	return repo, nil
}

type CardSaver interface {
	SaveCards(context.Context, []store.Card) error
}

type SyncResult struct {
	Branch string `json:"branch"`
	Commit string `json:"commit"`
	Cards  int    `json:"cards"`
}

// SyncCards brings the working copy to the head of branch and replaces the
// stored cards with the ones found at path. Nothing is saved when the file
// does not decode as a card list.
func (s *Service) SyncCards(ctx context.Context, dst CardSaver, branch, path string) (SyncResult, error) {
	if err := s.EnsureClone(ctx); err != nil {
		return SyncResult{}, err
	}
	if err := s.Fetch(ctx); err != nil {
		return SyncResult{}, err
	}
	if err := s.Reset(); err != nil {
		return SyncResult{}, err
	}
	if err := s.Checkout(branch); err != nil {
		return SyncResult{}, err
	}

	data, err := s.ReadFile(path)
	if err != nil {
		return SyncResult{}, err
	}
	var cards []store.Card
	if err := json.Unmarshal(data, &cards); err != nil {
		return SyncResult{}, fmt.Errorf("decode %s: %w: %v", path, store.ErrContentMalformed, err)
	}
	if cards == nil {
		return SyncResult{}, fmt.Errorf("decode %s: %w: not a card list", path, store.ErrContentMalformed)
	}
	if err := dst.SaveCards(ctx, cards); err != nil {
		return SyncResult{}, err
	}

	_, commit, err := s.Head()
	if err != nil {
		return SyncResult{}, err
	}
	return SyncResult{Branch: branch, Commit: commit, Cards: len(cards)}, nil
}
