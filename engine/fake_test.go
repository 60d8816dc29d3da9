package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/translate"
)

// fakeVCS is an in-memory repository.
type fakeVCS struct {
	mu         sync.Mutex
	files      []string
	pending    []string
	index      map[string]string
	timestamps map[string]int64
	staged     []string
	commits    []string
	pushes     int
	commitErr  error
	pushErr    error
}

func (f *fakeVCS) ListAllFiles(context.Context) ([]string, error) { return f.files, nil }

func (f *fakeVCS) ListPendingChanges(context.Context) ([]string, error) { return f.pending, nil }

func (f *fakeVCS) ReadPendingFileContent(_ context.Context, path string) (string, error) {
	text, ok := f.index[path]
	if !ok {
		return "", fmt.Errorf("%s not in index", path)
	}
	return text, nil
}

func (f *fakeVCS) LastChangeTimestamp(_ context.Context, path string) (int64, error) {
	return f.timestamps[path], nil
}

func (f *fakeVCS) Stage(_ context.Context, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.staged = append(f.staged, paths...)
	return nil
}

func (f *fakeVCS) Commit(_ context.Context, message string) error {
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, message)
	return nil
}

func (f *fakeVCS) Push(context.Context) error {
	if f.pushErr != nil {
		return f.pushErr
	}
	f.pushes++
	return nil
}

var _ VCS = (*fakeVCS)(nil)

// fakeTranslator tags the text with the target key and records calls.
type fakeTranslator struct {
	calls    atomic.Int32
	inflight atomic.Int32
	peak     atomic.Int32
	// fail makes requests for these "path-lang" pairs fail.
	fail map[string]bool
	// reply overrides the translation.
	reply func(req translate.Request) string
	// gate, when set, blocks every call until closed.
	gate chan struct{}
}

func (f *fakeTranslator) Translate(ctx context.Context, req translate.Request) (string, error) {
	f.calls.Add(1)
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.fail[firstLine(req.Text)+"-"+req.TargetLang] {
		return "", errors.New("API returned status 500")
	}
	if f.reply != nil {
		return f.reply(req), nil
	}
	return "[" + req.TargetLang + "] " + strings.TrimRight(req.Text, "\n"), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

func testRegistry() *config.Registry {
	return &config.Registry{
		SourceLang: "zh-cn",
		SourceDir:  "content",
		Targets: []config.Target{
			{Key: "en", ContentDir: "content/en", Name: "English"},
			{Key: "ja", ContentDir: "content/ja", Name: "Japanese"},
		},
	}
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

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("ReadFile(%s): %v", rel, err)
	}
	return string(data)
}
