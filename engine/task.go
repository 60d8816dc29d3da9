// Package engine turns a set of due source documents into written
// translations and hands the result to version control.
//
// The pipeline is Schedule (fan out documents over targets), Execute (run
// tasks on a bounded pool, each through Apply) and Complete (stage, commit,
// push). Run wires these to the registry, classifier and staleness oracle.
package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/syncerr"
)

// DefaultWorkers is the pool size when none is configured.
const DefaultWorkers = 8

// Task is one document to translate into one target.
type Task struct {
	Doc    classify.Document
	Target config.Target
	// Text is the source snapshot taken before any task runs.
	Text       string
	SourceLang string
}

// OutputPath is the repository-relative path Task writes.
func (t Task) OutputPath() string {
	return t.Doc.TargetPath(t.Target)
}

// Outcome is the result of running a Task.
type Outcome struct {
	// Path is the repository-relative target path.
	Path string
	// Source is the source document path.
	Source string
	Lang   string
	// Changed is false when the target already held the same bytes.
	Changed bool
	Bytes   int
	Err     error
}

// Schedule builds the cross product of docs and the registry targets, in
// document then target order. texts maps each document path to its source
// snapshot. Two tasks writing the same path are rejected.
func Schedule(docs []classify.Document, texts map[string]string, reg *config.Registry) ([]Task, error) {
	tasks := make([]Task, 0, len(docs)*len(reg.Targets))
	owner := make(map[string]string, cap(tasks))
	for _, d := range docs {
		text, ok := texts[d.Path]
		if !ok {
			return nil, syncerr.New(syncerr.KindWrite, d.Path, "", fmt.Errorf("no source snapshot"))
		}
		for _, t := range reg.Targets {
			task := Task{Doc: d, Target: t, Text: text, SourceLang: reg.SourceLang}
			out := task.OutputPath()
			if prev, dup := owner[out]; dup {
				return nil, syncerr.Configf("output path %s is produced by both %s and %s -> %s",
					out, prev, d.Path, t.Key)
			}
			owner[out] = d.Path + " -> " + t.Key
			tasks = append(tasks, task)
		}
	}
	return tasks, nil
}

// Workers returns the pool size for n tasks. raw is the configured value as
// given by the operator; empty means DefaultWorkers. The result never exceeds
// n and is at least 1.
func Workers(raw string, n int) (int, error) {
	if n <= 0 {
		n = 1
	}
	w := DefaultWorkers
	if raw = strings.TrimSpace(raw); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			return 0, syncerr.Configf("worker count must be a positive integer such as 4 or 8, got %q", raw)
		}
		if v <= 0 {
			return 0, syncerr.Configf("worker count must be greater than 0, got %d", v)
		}
		w = v
	}
	return min(w, n), nil
}

// ValidateWorkers checks a configured worker count without a task count.
func ValidateWorkers(raw string) error {
	_, err := Workers(raw, 1)
	return err
}
