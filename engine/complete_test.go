package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/docsync/syncerr"
	"github.com/minios-linux/docsync/vcs"
)

func TestCompleteStagesCommitsAndPushes(t *testing.T) {
	v := &fakeVCS{}
	changed := []string{"content/ja/b.md", "content/en/a.md", "content/ja/b.md"}

	c, err := Complete(context.Background(), v, changed, CompleteOptions{
		Sources: []string{"content/a.md", "content/guide/b.md"},
		Commit:  true,
		Push:    true,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if diff := cmp.Diff([]string{"content/en/a.md", "content/ja/b.md"}, v.staged); diff != "" {
		t.Fatalf("staged mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Auto-translate a.md b.md"}, v.commits); diff != "" {
		t.Fatalf("commit mismatch (-want +got):\n%s", diff)
	}
	if !c.Committed || !c.Pushed || v.pushes != 1 {
		t.Fatalf("completion = %#v, pushes = %d", c, v.pushes)
	}
}

func TestCompleteNothingChanged(t *testing.T) {
	v := &fakeVCS{}
	c, err := Complete(context.Background(), v, nil, CompleteOptions{Commit: true, Push: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(v.staged) != 0 || len(v.commits) != 0 || v.pushes != 0 || c.Committed {
		t.Fatalf("no-op completion touched the repository: %#v", v)
	}
}

func TestCompleteStageOnly(t *testing.T) {
	v := &fakeVCS{}
	c, err := Complete(context.Background(), v, []string{"content/en/a.md"}, CompleteOptions{Push: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(v.staged) != 1 || len(v.commits) != 0 || v.pushes != 0 || c.Committed {
		t.Fatalf("stage-only completion = %#v, vcs = %#v", c, v)
	}
}

func TestCompleteNothingToCommitSkipsPush(t *testing.T) {
	v := &fakeVCS{commitErr: vcs.ErrNothingToCommit}
	c, err := Complete(context.Background(), v, []string{"content/en/a.md"}, CompleteOptions{Commit: true, Push: true})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if c.Committed || v.pushes != 0 {
		t.Fatalf("push ran after nothing-to-commit: %#v", c)
	}
}

func TestCompletePushFailure(t *testing.T) {
	v := &fakeVCS{pushErr: errors.New("rejected")}
	_, err := Complete(context.Background(), v, []string{"content/en/a.md"}, CompleteOptions{Commit: true, Push: true})
	if !syncerr.Is(err, syncerr.KindVCS) {
		t.Fatalf("Complete error = %v, want vcs error", err)
	}
}

func TestCommitMessage(t *testing.T) {
	if got := CommitMessage("", []string{"content/a.md", "content/x/a.md", "content/b.md"}); got != "Auto-translate a.md b.md" {
		t.Fatalf("CommitMessage = %q", got)
	}
	if got := CommitMessage("自动翻译", []string{"content/a.md"}); got != "自动翻译 a.md" {
		t.Fatalf("CommitMessage = %q", got)
	}
}
