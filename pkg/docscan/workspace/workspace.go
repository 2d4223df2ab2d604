// Package workspace locates the folders a workspace scan covers and, through
// go-git, the files that changed in them.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/stackvity/doc-scanner/pkg/docscan"
)

// ErrGitOperation indicates a failure while inspecting a git repository:
// the path is not inside one, a reference does not resolve, or go-git failed.
var ErrGitOperation = errors.New("git operation failed")

// Errorf returns a formatted error that wraps ErrGitOperation.
func Errorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrGitOperation}, args...)...)
}

// patchTimeout bounds diff generation for ChangedSince.
const patchTimeout = 60 * time.Second

// Resolve returns the absolute roots of the workspace. Configured roots win;
// each must be an existing directory. Without them the top level of the git
// repository enclosing cwd is used. When neither exists the result wraps
// docscan.ErrNoWorkspaceRoot.
func Resolve(cfgRoots []string, cwd string, logger *slog.Logger) ([]string, error) {
	if len(cfgRoots) > 0 {
		roots := make([]string, 0, len(cfgRoots))
		seen := make(map[string]struct{}, len(cfgRoots))
		for _, r := range cfgRoots {
			abs, err := filepath.Abs(r)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid root %q: %w", docscan.ErrNoWorkspaceRoot, r, err)
			}
			info, err := os.Stat(abs)
			if err != nil || !info.IsDir() {
				return nil, fmt.Errorf("%w: %s is not a directory", docscan.ErrNoWorkspaceRoot, abs)
			}
			if _, dup := seen[abs]; dup {
				continue
			}
			seen[abs] = struct{}{}
			roots = append(roots, abs)
		}
		return roots, nil
	}

	repo, err := Open(cwd, logger)
	if err != nil {
		logger.Debug("No git repository around working directory", slog.String("cwd", cwd), slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %s is not inside a configured root or git repository", docscan.ErrNoWorkspaceRoot, cwd)
	}
	return []string{repo.Root()}, nil
}

// Repo is an opened git working tree.
type Repo struct {
	repo   *git.Repository
	root   string
	logger *slog.Logger
}

// Open finds the repository containing path, searching parent directories.
func Open(path string, logger *slog.Logger) (*Repo, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	logger = logger.With(slog.String("component", "workspace"), slog.String("backend", "go-git"))

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, Errorf("failed to get absolute path for '%s': %w", path, err)
	}
	repo, err := git.PlainOpenWithOptions(absPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, Errorf("repository not found at or above path '%s': %w", absPath, err)
		}
		return nil, Errorf("failed to open repository at '%s': %w", absPath, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, Errorf("failed to get worktree for repository at '%s': %w", absPath, err)
	}
	return &Repo{repo: repo, root: worktree.Filesystem.Root(), logger: logger}, nil
}

// Root returns the absolute top-level directory of the working tree.
func (r *Repo) Root() string {
	return r.root
}

// ChangedFiles returns the staged and unstaged modifications of the working
// tree as absolute, slash-separated paths. Untracked files are not included.
func (r *Repo) ChangedFiles() (map[string]struct{}, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, Errorf("failed to get worktree for repository '%s': %w", r.root, err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, Errorf("failed to get git status for repository '%s': %w", r.root, err)
	}

	changed := make(map[string]struct{})
	for filePath, fileStatus := range status {
		isUntracked := fileStatus.Staging == git.Untracked && fileStatus.Worktree == git.Untracked
		if isUntracked || (fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified) {
			continue
		}
		changed[r.absolute(filePath)] = struct{}{}
		r.logger.Debug("Found changed file", slog.String("path", filePath),
			slog.String("status", fmt.Sprintf("Staging: %c, Worktree: %c", fileStatus.Staging, fileStatus.Worktree)))
	}
	r.logger.Debug("Changed files collected", slog.String("repo", r.root), slog.Int("count", len(changed)))
	return changed, nil
}

// ChangedSince returns the files that differ between ref and HEAD, as
// absolute, slash-separated paths. Deleted files are included; the walker
// never finds them.
func (r *Repo) ChangedSince(ctx context.Context, ref string) (map[string]struct{}, error) {
	if ref == "" {
		return nil, Errorf("a non-empty reference is required")
	}
	headRef, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			r.logger.Warn("HEAD reference not found, repository might be empty", slog.String("repo", r.root))
			return map[string]struct{}{}, nil
		}
		return nil, Errorf("failed to get HEAD reference for repository '%s': %w", r.root, err)
	}
	headCommit, err := r.repo.CommitObject(headRef.Hash())
	if err != nil {
		return nil, Errorf("failed to get HEAD commit for repository '%s': %w", r.root, err)
	}
	sinceHash, err := r.repo.ResolveRevision(plumbing.Revision(ref))
	if err != nil {
		return nil, Errorf("could not resolve git reference '%s': %w", ref, err)
	}
	sinceCommit, err := r.repo.CommitObject(*sinceHash)
	if err != nil {
		return nil, Errorf("failed to get commit for reference '%s': %w", ref, err)
	}

	patchCtx, cancel := context.WithTimeout(ctx, patchTimeout)
	defer cancel()
	patch, err := sinceCommit.PatchContext(patchCtx, headCommit)
	if err != nil {
		return nil, Errorf("failed to diff '%s' against HEAD in '%s': %w", ref, r.root, err)
	}

	changed := make(map[string]struct{})
	for _, filePatch := range patch.FilePatches() {
		from, to := filePatch.Files()
		switch {
		case to != nil:
			changed[r.absolute(to.Path())] = struct{}{}
		case from != nil:
			changed[r.absolute(from.Path())] = struct{}{}
		}
	}
	r.logger.Debug("Files changed since reference", slog.String("ref", ref), slog.Int("count", len(changed)))
	return changed, nil
}

func (r *Repo) absolute(repoRelative string) string {
	return filepath.ToSlash(filepath.Join(r.root, filepath.FromSlash(repoRelative)))
}
