package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/syncerr"
)

func manyTasks(n int) []Task {
	var docs []classify.Document
	texts := make(map[string]string)
	for i := 0; i < n; i++ {
		p := fmt.Sprintf("content/doc%02d.md", i)
		docs = append(docs, classify.Document{Path: p, Key: fmt.Sprintf("doc%02d.md", i)})
		texts[p] = fmt.Sprintf("doc%02d\n", i)
	}
	tasks, err := Schedule(docs, texts, testRegistry())
	if err != nil {
		panic(err)
	}
	return tasks
}

func TestExecuteBoundsConcurrency(t *testing.T) {
	root := t.TempDir()
	prov := &fakeTranslator{}
	tasks := manyTasks(10)

	outcomes, err := Execute(context.Background(), tasks, prov, Options{Root: root, Workers: "3"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(outcomes) != len(tasks) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(tasks))
	}
	if peak := prov.peak.Load(); peak > 3 {
		t.Fatalf("peak concurrency = %d, want <= 3", peak)
	}
	for i, o := range outcomes {
		if o.Path != tasks[i].OutputPath() {
			t.Fatalf("outcome %d path = %s, want task order", i, o.Path)
		}
	}
	if got := len(ChangedPaths(outcomes)); got != len(tasks) {
		t.Fatalf("ChangedPaths = %d, want %d", got, len(tasks))
	}
}

func TestExecuteFailFast(t *testing.T) {
	root := t.TempDir()
	prov := &fakeTranslator{fail: map[string]bool{"doc00-en": true}}
	tasks := manyTasks(20)

	outcomes, err := Execute(context.Background(), tasks, prov, Options{Root: root, Workers: "1"})
	if !syncerr.Is(err, syncerr.KindProvider) {
		t.Fatalf("Execute error = %v, want provider error", err)
	}
	if calls := prov.calls.Load(); calls != 1 {
		t.Fatalf("provider calls = %d, want 1 (no task after the failure)", calls)
	}
	if len(outcomes) != 1 || outcomes[0].Err == nil {
		t.Fatalf("outcomes = %#v", outcomes)
	}
}

func TestExecuteKeepGoingAggregates(t *testing.T) {
	root := t.TempDir()
	prov := &fakeTranslator{fail: map[string]bool{"doc01-en": true, "doc03-ja": true}}
	tasks := manyTasks(5)

	outcomes, err := Execute(context.Background(), tasks, prov, Options{Root: root, Workers: "2", KeepGoing: true})
	if err == nil {
		t.Fatal("expected aggregated error")
	}
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("error %T is not a multierror", err)
	}
	var failed []string
	for _, e := range merr.Errors {
		var se *syncerr.Error
		if !errors.As(e, &se) || se.Kind != syncerr.KindProvider {
			t.Fatalf("member %v is not a provider error", e)
		}
		failed = append(failed, se.Path+"->"+se.Lang)
	}
	if len(failed) != 2 {
		t.Fatalf("failed = %v, want 2 failures", failed)
	}
	if len(outcomes) != len(tasks) {
		t.Fatalf("got %d outcomes, want all %d tasks to run", len(outcomes), len(tasks))
	}
	if diff := cmp.Diff(8, len(ChangedPaths(outcomes))); diff != "" {
		t.Fatalf("changed count mismatch (-want +got):\n%s", diff)
	}
}

func TestExecuteInvalidWorkers(t *testing.T) {
	prov := &fakeTranslator{}
	_, err := Execute(context.Background(), manyTasks(1), prov, Options{Root: t.TempDir(), Workers: "0"})
	if !syncerr.Is(err, syncerr.KindConfig) {
		t.Fatalf("Execute error = %v, want config error", err)
	}
	if prov.calls.Load() != 0 {
		t.Fatal("provider called despite invalid worker count")
	}
}
