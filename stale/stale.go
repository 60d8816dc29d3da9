// Package stale decides which source documents need their translations
// regenerated.
package stale

import (
	"context"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/lockfile"
	"github.com/minios-linux/docsync/repopath"
	"github.com/minios-linux/docsync/syncerr"
)

// Oracle selects the due subset of a document set. Due keeps the input order.
type Oracle interface {
	Name() string
	Due(ctx context.Context, docs []classify.Document) ([]classify.Document, error)
}

// ---------------------------------------------------------------------------
// History policy
// ---------------------------------------------------------------------------

// HistoryLog reports the commit time of the last change to a path, or 0
// when the path has no history.
type HistoryLog interface {
	LastChangeTimestamp(ctx context.Context, path string) (int64, error)
}

// History marks a document due when its source was committed strictly after
// its translation in the reference target. A missing reference translation
// has timestamp 0, so any committed source is due.
type History struct {
	Log HistoryLog
	// Reference is the target whose translation is compared.
	Reference config.Target
}

func (History) Name() string { return "history" }

func (h History) Due(ctx context.Context, docs []classify.Document) ([]classify.Document, error) {
	var due []classify.Document
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		src, err := h.Log.LastChangeTimestamp(ctx, d.Path)
		if err != nil {
			return nil, syncerr.History(d.Path, err)
		}
		refPath := d.TargetPath(h.Reference)
		ref, err := h.Log.LastChangeTimestamp(ctx, refPath)
		if err != nil {
			return nil, syncerr.History(refPath, err)
		}
		if src > ref {
			due = append(due, d)
		}
	}
	return due, nil
}

// ---------------------------------------------------------------------------
// Staged policy
// ---------------------------------------------------------------------------

// PendingLister lists the paths added, copied, modified or renamed in the
// index.
type PendingLister interface {
	ListPendingChanges(ctx context.Context) ([]string, error)
}

// Staged marks a document due when it is pending in the index, regardless of
// history. It is meant for pre-commit hooks.
type Staged struct {
	Pending PendingLister
}

func (Staged) Name() string { return "staged" }

func (s Staged) Due(ctx context.Context, docs []classify.Document) ([]classify.Document, error) {
	pending, err := s.Pending.ListPendingChanges(ctx)
	if err != nil {
		return nil, syncerr.VCS(err)
	}
	set := make(map[string]bool, len(pending))
	for _, p := range pending {
		set[repopath.Normalize(p)] = true
	}

	var due []classify.Document
	for _, d := range docs {
		if set[d.Path] {
			due = append(due, d)
		}
	}
	return due, nil
}

// ---------------------------------------------------------------------------
// Checksum policy
// ---------------------------------------------------------------------------

// Checksum marks a document due when its current content differs from the
// checksum recorded in the lock file.
type Checksum struct {
	Lock *lockfile.LockFile
	// Read returns the current source text of a path.
	Read func(path string) (string, error)
}

func (Checksum) Name() string { return "checksum" }

func (c Checksum) Due(ctx context.Context, docs []classify.Document) ([]classify.Document, error) {
	var due []classify.Document
	for _, d := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := c.Read(d.Path)
		if err != nil {
			return nil, syncerr.New(syncerr.KindWrite, d.Path, "", err)
		}
		if c.Lock.IsChanged(d.Path, text) {
			due = append(due, d)
		}
	}
	return due, nil
}
