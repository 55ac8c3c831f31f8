package driver

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// FetchGitDependency materializes a DependencySpec with a Git remote into
// cacheDir, cloning on first use and fetching on subsequent ones, then
// returns the local path to add to the module search roots.
//
// Grounded on able/cmd/able/main_test.go's go-git usage pattern
// (git.PlainInit/worktree.Commit building a fixture repo for tests);
// generalized here into a real clone/update path since pscript's
// ImportResolver needs actual git dependencies to resolve, not just a test
// fixture.
func FetchGitDependency(cacheDir, name string, spec DependencySpec) (string, error) {
	if spec.Git == "" {
		return "", fmt.Errorf("dependency %q has no git remote", name)
	}
	dest := filepath.Join(cacheDir, name)

	repo, err := git.PlainOpen(dest)
	if err != nil {
		cloneOpts := &git.CloneOptions{URL: spec.Git}
		if spec.Branch != "" {
			cloneOpts.ReferenceName = plumbing.NewBranchReferenceName(spec.Branch)
		}
		repo, err = git.PlainClone(dest, false, cloneOpts)
		if err != nil {
			return "", fmt.Errorf("clone %q: %w", spec.Git, err)
		}
	} else {
		wt, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("open worktree for %q: %w", name, err)
		}
		if err := wt.Pull(&git.PullOptions{RemoteName: "origin"}); err != nil && err != git.NoErrAlreadyUpToDate {
			return "", fmt.Errorf("pull %q: %w", name, err)
		}
	}

	if spec.Rev != "" || spec.Tag != "" {
		wt, err := repo.Worktree()
		if err != nil {
			return "", fmt.Errorf("open worktree for %q: %w", name, err)
		}
		target := spec.Rev
		if target == "" {
			target = spec.Tag
		}
		hash, err := repo.ResolveRevision(plumbing.Revision(target))
		if err != nil {
			return "", fmt.Errorf("resolve %q in %q: %w", target, name, err)
		}
		if err := wt.Checkout(&git.CheckoutOptions{Hash: *hash}); err != nil {
			return "", fmt.Errorf("checkout %q in %q: %w", target, name, err)
		}
	}

	if _, err := os.Stat(dest); err != nil {
		return "", fmt.Errorf("dependency %q not materialized at %s: %w", name, dest, err)
	}
	return dest, nil
}
