package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newRepo initializes a throwaway repository with a fixed identity.
func newRepo(t *testing.T) *Git {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	t.Setenv("GIT_CONFIG_GLOBAL", filepath.Join(dir, ".gitconfig-none"))
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("GIT_AUTHOR_NAME", "docsync")
	t.Setenv("GIT_AUTHOR_EMAIL", "docsync@example.org")
	t.Setenv("GIT_COMMITTER_NAME", "docsync")
	t.Setenv("GIT_COMMITTER_EMAIL", "docsync@example.org")

	g := &Git{Root: dir}
	if _, err := g.run(context.Background(), "init", "-q"); err != nil {
		t.Fatalf("git init: %v", err)
	}
	return g
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestGitLifecycle(t *testing.T) {
	g := newRepo(t)
	ctx := context.Background()

	writeFile(t, g.Root, "content/a.md", "\ufeff# A\n")
	writeFile(t, g.Root, "content/en/a.md", "# A (en)\n")

	ts, err := g.LastChangeTimestamp(ctx, "content/a.md")
	if err != nil || ts != 0 {
		t.Fatalf("LastChangeTimestamp before commit = %d, %v", ts, err)
	}

	if err := g.Stage(ctx, []string{"content/a.md", "content/en/a.md"}); err != nil {
		t.Fatalf("Stage: %v", err)
	}

	pending, err := g.ListPendingChanges(ctx)
	if err != nil {
		t.Fatalf("ListPendingChanges: %v", err)
	}
	if diff := cmp.Diff([]string{"content/a.md", "content/en/a.md"}, pending); diff != "" {
		t.Fatalf("pending mismatch (-want +got):\n%s", diff)
	}

	// The index content wins over later working-tree edits.
	writeFile(t, g.Root, "content/a.md", "# edited\n")
	staged, err := g.ReadPendingFileContent(ctx, "content/a.md")
	if err != nil {
		t.Fatalf("ReadPendingFileContent: %v", err)
	}
	if staged != "# A\n" {
		t.Fatalf("staged content = %q, want BOM-stripped index blob", staged)
	}

	if err := g.Commit(ctx, "initial"); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	files, err := g.ListAllFiles(ctx)
	if err != nil {
		t.Fatalf("ListAllFiles: %v", err)
	}
	if diff := cmp.Diff([]string{"content/a.md", "content/en/a.md"}, files); diff != "" {
		t.Fatalf("files mismatch (-want +got):\n%s", diff)
	}

	ts, err = g.LastChangeTimestamp(ctx, "content/a.md")
	if err != nil || ts <= 0 {
		t.Fatalf("LastChangeTimestamp after commit = %d, %v", ts, err)
	}

	if err := g.Commit(ctx, "again"); !errors.Is(err, ErrNothingToCommit) {
		t.Fatalf("second Commit error = %v, want ErrNothingToCommit", err)
	}
}

func TestDiscover(t *testing.T) {
	g := newRepo(t)
	sub := filepath.Join(g.Root, "content", "deep")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}

	found, err := Discover(context.Background(), sub)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	want, _ := filepath.EvalSymlinks(g.Root)
	got, _ := filepath.EvalSymlinks(found.Root)
	if got != want {
		t.Fatalf("Discover root = %q, want %q", got, want)
	}

	if _, err := Discover(context.Background(), t.TempDir()); err == nil {
		t.Fatal("Discover outside a repository expected error")
	}
}

func TestSplitNUL(t *testing.T) {
	got := splitNUL([]byte("a.md\x00dir/b c.md\x00\x00"))
	if diff := cmp.Diff([]string{"a.md", "dir/b c.md"}, got); diff != "" {
		t.Fatalf("splitNUL mismatch (-want +got):\n%s", diff)
	}
}

func TestIsNothingToCommit(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{msg: "On branch main\nnothing to commit, working tree clean", want: true},
		{msg: "Nothing To Commit", want: true},
		{msg: "位于分支 main\n没有要提交的内容", want: true},
		{msg: "fatal: unable to auto-detect email address", want: false},
	}
	for _, tc := range cases {
		if got := isNothingToCommit(tc.msg); got != tc.want {
			t.Errorf("isNothingToCommit(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}
