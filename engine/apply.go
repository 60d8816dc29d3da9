package engine

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/minios-linux/docsync/syncerr"
	"github.com/minios-linux/docsync/translate"
)

// Translator is the provider a task is sent to.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (string, error)
}

// Apply translates one task and writes the result under root. The target is
// written only when its bytes would change, so re-running with an unchanged
// translation touches nothing.
func Apply(ctx context.Context, task Task, prov Translator, root string) Outcome {
	out := Outcome{Path: task.OutputPath(), Source: task.Doc.Path, Lang: task.Target.Key}

	text, err := prov.Translate(ctx, translate.Request{
		Text:       task.Text,
		SourceLang: task.SourceLang,
		TargetLang: task.Target.Key,
		TargetName: task.Target.Name,
	})
	if err != nil {
		out.Err = syncerr.Provider(task.Doc.Path, task.Target.Key, err)
		return out
	}
	text = translate.MatchTrailingNewline(task.Text, translate.UnwrapCodeFence(text))

	abs := filepath.Join(root, filepath.FromSlash(out.Path))
	existing, err := os.ReadFile(abs)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		out.Err = syncerr.Write(out.Path, task.Target.Key, err)
		return out
	}
	// A missing target reads as empty.
	if string(existing) == text {
		return out
	}

	if err := os.MkdirAll(filepath.Dir(abs), 0755); err != nil {
		out.Err = syncerr.Write(out.Path, task.Target.Key, err)
		return out
	}
	if err := os.WriteFile(abs, []byte(text), 0644); err != nil {
		out.Err = syncerr.Write(out.Path, task.Target.Key, err)
		return out
	}
	out.Changed = true
	out.Bytes = len(text)
	return out
}
