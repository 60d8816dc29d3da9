package engine

import (
	"context"
	"errors"
	"path"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/syncerr"
	"github.com/minios-linux/docsync/vcs"
)

// VCS is the version-control collaborator of a run.
type VCS interface {
	ListAllFiles(ctx context.Context) ([]string, error)
	ListPendingChanges(ctx context.Context) ([]string, error)
	ReadPendingFileContent(ctx context.Context, path string) (string, error)
	LastChangeTimestamp(ctx context.Context, path string) (int64, error)
	Stage(ctx context.Context, paths []string) error
	// Commit returns vcs.ErrNothingToCommit when the index matches HEAD.
	Commit(ctx context.Context, message string) error
	Push(ctx context.Context) error
}

var _ VCS = (*vcs.Git)(nil)

// CompleteOptions controls what happens to a successful batch.
type CompleteOptions struct {
	// Sources are the due source documents, named in the commit message.
	Sources []string
	Commit  bool
	Push    bool
	// CommitPrefix starts the commit message (default config.DefaultCommitPrefix).
	CommitPrefix string
	OnLog        func(format string, args ...any)
}

// Completion reports what Complete did.
type Completion struct {
	Staged    []string
	Committed bool
	Pushed    bool
	Message   string
}

// Complete stages the changed paths of a fully successful batch, then
// optionally commits and pushes. When nothing changed it does nothing. A
// commit with nothing to record counts as success and skips the push.
func Complete(ctx context.Context, v VCS, changed []string, opts CompleteOptions) (Completion, error) {
	var c Completion
	logf := func(format string, args ...any) {
		if opts.OnLog != nil {
			opts.OnLog(format, args...)
		}
	}

	paths := lo.Uniq(changed)
	if len(paths) == 0 {
		return c, nil
	}
	sort.Strings(paths)

	if err := v.Stage(ctx, paths); err != nil {
		return c, syncerr.VCS(err)
	}
	c.Staged = paths
	logf("Staged %d files", len(paths))

	if !opts.Commit {
		return c, nil
	}

	c.Message = CommitMessage(opts.CommitPrefix, opts.Sources)
	if err := v.Commit(ctx, c.Message); err != nil {
		if errors.Is(err, vcs.ErrNothingToCommit) {
			logf("Nothing to commit")
			return c, nil
		}
		return c, syncerr.VCS(err)
	}
	c.Committed = true
	logf("Committed: %s", c.Message)

	if !opts.Push {
		return c, nil
	}
	if err := v.Push(ctx); err != nil {
		return c, syncerr.VCS(err)
	}
	c.Pushed = true
	logf("Pushed")
	return c, nil
}

// CommitMessage is prefix followed by the base names of sources.
func CommitMessage(prefix string, sources []string) string {
	if strings.TrimSpace(prefix) == "" {
		prefix = config.DefaultCommitPrefix
	}
	names := lo.Uniq(lo.Map(sources, func(p string, _ int) string { return path.Base(p) }))
	if len(names) == 0 {
		return prefix
	}
	return prefix + " " + strings.Join(names, " ")
}
