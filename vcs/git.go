// Package vcs runs the git operations a synchronization needs.
//
// Every call shells out to the git binary in the repository root; there is
// no in-process git implementation. Errors carry git's stderr.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNothingToCommit is returned by Commit when the index matches HEAD.
var ErrNothingToCommit = errors.New("nothing to commit")

// utf8BOM is stripped from staged blobs.
const utf8BOM = "\ufeff"

// Git is a repository handled through the git command line.
type Git struct {
	// Root is the repository work tree.
	Root string
	// Binary overrides the git executable (default "git").
	Binary string
}

// Discover returns the Git repository containing dir.
func Discover(ctx context.Context, dir string) (*Git, error) {
	g := &Git{Root: dir}
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%s is not inside a git work tree: %w", dir, err)
	}
	g.Root = strings.TrimSpace(string(out))
	return g, nil
}

// ListAllFiles returns every tracked path.
func (g *Git) ListAllFiles(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "ls-files", "-z")
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

// ListPendingChanges returns the paths added, copied, modified or renamed in
// the index.
func (g *Git) ListPendingChanges(ctx context.Context) ([]string, error) {
	out, err := g.run(ctx, "diff", "--cached", "--name-only", "-z", "--diff-filter=ACMR")
	if err != nil {
		return nil, err
	}
	return splitNUL(out), nil
}

// ReadPendingFileContent returns the staged content of path, without a
// leading UTF-8 byte order mark.
func (g *Git) ReadPendingFileContent(ctx context.Context, path string) (string, error) {
	out, err := g.run(ctx, "show", ":"+path)
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(out), utf8BOM), nil
}

// LastChangeTimestamp returns the committer time (unix seconds) of the last
// commit touching path, or 0 when path has no history.
func (g *Git) LastChangeTimestamp(ctx context.Context, path string) (int64, error) {
	out, err := g.run(ctx, "log", "-1", "--format=%ct", "--", path)
	if err != nil {
		return 0, err
	}
	s := strings.TrimSpace(string(out))
	if s == "" {
		return 0, nil
	}
	ts, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected git log output for %s: %q", path, s)
	}
	return ts, nil
}

// Stage adds paths to the index.
func (g *Git) Stage(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := g.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

// Commit records the index with message. It returns ErrNothingToCommit when
// there is nothing staged.
func (g *Git) Commit(ctx context.Context, message string) error {
	_, err := g.run(ctx, "commit", "-m", message)
	if err != nil && isNothingToCommit(err.Error()) {
		return ErrNothingToCommit
	}
	return err
}

// isNothingToCommit matches git's message in English and in the zh_CN
// translation git ships.
func isNothingToCommit(msg string) bool {
	return strings.Contains(strings.ToLower(msg), "nothing to commit") ||
		strings.Contains(msg, "没有要提交的内容")
}

// Push pushes the current branch to its upstream.
func (g *Git) Push(ctx context.Context) error {
	_, err := g.run(ctx, "push")
	return err
}

// run executes git in Root and returns stdout. On failure the error holds
// the subcommand, stderr and stdout.
func (g *Git) run(ctx context.Context, args ...string) ([]byte, error) {
	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = g.Root

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if out := strings.TrimSpace(stdout.String()); out != "" {
			// git commit reports "nothing to commit" on stdout.
			if detail != "" {
				detail += "\n"
			}
			detail += out
		}
		if detail == "" {
			return nil, fmt.Errorf("git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, detail)
	}
	return stdout.Bytes(), nil
}

func splitNUL(b []byte) []string {
	var out []string
	for _, p := range strings.Split(string(b), "\x00") {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
