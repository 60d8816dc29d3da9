package stale

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/lockfile"
	"github.com/minios-linux/docsync/syncerr"
)

type fakeLog map[string]int64

func (f fakeLog) LastChangeTimestamp(_ context.Context, path string) (int64, error) {
	if path == "content/broken.md" {
		return 0, errors.New("git log failed")
	}
	return f[path], nil
}

type fakePending []string

func (f fakePending) ListPendingChanges(context.Context) ([]string, error) { return f, nil }

var en = config.Target{Key: "en", ContentDir: "content/en", Name: "English"}

func TestHistoryDue(t *testing.T) {
	docs := []classify.Document{
		{Path: "content/a.md", Key: "a.md"},
		{Path: "content/b.md", Key: "b.md"},
		{Path: "content/c.md", Key: "c.md"},
		{Path: "content/new.md", Key: "new.md"},
		{Path: "content/uncommitted.md", Key: "uncommitted.md"},
	}
	log := fakeLog{
		"content/a.md":    200,
		"content/en/a.md": 100, // source newer
		"content/b.md":    100,
		"content/en/b.md": 200, // translation newer
		"content/c.md":    150,
		"content/en/c.md": 150, // equal
		"content/new.md":  50,  // no translation yet
	}

	got, err := History{Log: log, Reference: en}.Due(context.Background(), docs)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	want := []classify.Document{docs[0], docs[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("due mismatch (-want +got):\n%s", diff)
	}
}

func TestHistoryError(t *testing.T) {
	docs := []classify.Document{{Path: "content/broken.md", Key: "broken.md"}}
	_, err := History{Log: fakeLog{}, Reference: en}.Due(context.Background(), docs)
	if !syncerr.Is(err, syncerr.KindHistory) {
		t.Fatalf("error = %v, want history error", err)
	}
}

func TestStagedDue(t *testing.T) {
	docs := []classify.Document{
		{Path: "content/a.md", Key: "a.md"},
		{Path: "content/b.md", Key: "b.md"},
	}
	got, err := Staged{Pending: fakePending{"content/b.md", "content/en/a.md", "README.md"}}.Due(context.Background(), docs)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if diff := cmp.Diff(docs[1:], got); diff != "" {
		t.Fatalf("due mismatch (-want +got):\n%s", diff)
	}
}

func TestChecksumDue(t *testing.T) {
	lf, err := lockfile.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	lf.UpdateBatch(map[string]string{"content/a.md": "same", "content/b.md": "old"})

	texts := map[string]string{
		"content/a.md": "same",
		"content/b.md": "new",
		"content/c.md": "unrecorded",
	}
	docs := []classify.Document{
		{Path: "content/a.md", Key: "a.md"},
		{Path: "content/b.md", Key: "b.md"},
		{Path: "content/c.md", Key: "c.md"},
	}
	oracle := Checksum{Lock: lf, Read: func(p string) (string, error) { return texts[p], nil }}

	got, err := oracle.Due(context.Background(), docs)
	if err != nil {
		t.Fatalf("Due: %v", err)
	}
	if diff := cmp.Diff(docs[1:], got); diff != "" {
		t.Fatalf("due mismatch (-want +got):\n%s", diff)
	}
	if oracle.Name() != "checksum" {
		t.Fatalf("Name = %q", oracle.Name())
	}
}
