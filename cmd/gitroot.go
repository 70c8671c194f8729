package cmd

import (
	git "github.com/go-git/go-git/v5"
)

// gitWorktreeRoot finds the root of the enclosing git worktree, or "" when
// the working directory is not inside one.
func gitWorktreeRoot() string {
	r, err := git.PlainOpenWithOptions(".", &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return ""
	}
	wt, err := r.Worktree()
	if err != nil {
		return ""
	}
	return wt.Filesystem.Root()
}
