package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/minios-linux/docsync/classify"
	"github.com/minios-linux/docsync/config"
	"github.com/minios-linux/docsync/lockfile"
	"github.com/minios-linux/docsync/stale"
	"github.com/minios-linux/docsync/syncerr"
)

// Mode selects which documents are considered and where their text is read.
type Mode string

const (
	// ModeSync scans every source document of the working tree.
	ModeSync Mode = "sync"
	// ModeStaged considers only documents pending in the index and reads
	// their staged content.
	ModeStaged Mode = "staged"
)

// Policy is the staleness rule of ModeSync.
type Policy string

const (
	// PolicyHistory compares commit times of source and reference target.
	PolicyHistory Policy = "history"
	// PolicyChecksum compares source content with docsync.lock.
	PolicyChecksum Policy = "checksum"
)

// ParsePolicy validates a policy name. Empty means PolicyHistory.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case "", PolicyHistory:
		return PolicyHistory, nil
	case PolicyChecksum:
		return PolicyChecksum, nil
	}
	return "", syncerr.Configf("unknown policy %q (valid: history, checksum)", s)
}

// Config describes one run.
type Config struct {
	// Root is the repository work tree.
	Root     string
	Registry *config.Registry
	VCS      VCS
	Mode     Mode
	Policy   Policy
	// Reference is the history-policy reference language (default "en").
	Reference string
	// Targets pins the run's target set (the project file languages). Empty
	// means every registry target.
	Targets []string
	// Langs narrows Targets for one invocation. Classification still
	// excludes every target root.
	Langs    []string
	Classify classify.Options
	// Workers is the raw configured pool size.
	Workers   string
	KeepGoing bool
	// DryRun stops after scheduling; the provider is never resolved.
	DryRun       bool
	Commit       bool
	Push         bool
	CommitPrefix string
	// Provider is called once, only when there is work to do.
	Provider func() (Translator, error)
	// Lock is the checksum ledger; loaded from Root when nil.
	Lock *lockfile.LockFile

	OnLog   func(format string, args ...any)
	OnError func(format string, args ...any)
	OnStart func(t Task)
	OnDone  func(o Outcome)
}

// Report summarizes a run.
type Report struct {
	Oracle     string
	Sources    []classify.Document
	Due        []classify.Document
	Tasks      []Task
	Outcomes   []Outcome
	Changed    []string
	Completion Completion
}

func (c *Config) log(format string, args ...any) {
	if c.OnLog != nil {
		c.OnLog(format, args...)
	}
}

// Run executes the whole pipeline: classify the tracked files, select the
// due documents, snapshot their text, translate every (document, target)
// pair and complete the batch. A run with nothing due succeeds without
// resolving the provider.
func Run(ctx context.Context, cfg Config) (*Report, error) {
	if err := ValidateWorkers(cfg.Workers); err != nil {
		return nil, err
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeSync
	}
	policy, err := ParsePolicy(string(cfg.Policy))
	if err != nil {
		return nil, err
	}
	cfg.Policy = policy

	rep := &Report{}
	reg := cfg.Registry
	if len(reg.Targets) == 0 {
		cfg.log("No target languages configured, nothing to do")
		return rep, nil
	}
	scope, err := reg.Restrict(cfg.Targets)
	if err != nil {
		return nil, err
	}
	targets, err := scope.Restrict(cfg.Langs)
	if err != nil {
		return nil, err
	}
	partial := len(targets.Targets) < len(scope.Targets)

	files, err := cfg.VCS.ListAllFiles(ctx)
	if err != nil {
		return nil, syncerr.VCS(err)
	}
	rep.Sources, err = classify.Sources(files, reg, cfg.Classify)
	if err != nil {
		return nil, err
	}
	if len(rep.Sources) == 0 {
		cfg.log("No source documents under %s", reg.SourceDir)
		return rep, nil
	}

	read := cfg.readWorkingTree
	if cfg.Mode == ModeStaged {
		read = func(p string) (string, error) { return cfg.VCS.ReadPendingFileContent(ctx, p) }
	}

	oracle, err := cfg.oracle(reg, read)
	if err != nil {
		return nil, err
	}
	rep.Oracle = oracle.Name()
	rep.Due, err = oracle.Due(ctx, rep.Sources)
	if err != nil {
		return nil, err
	}
	cfg.log("%d of %d source documents due (%s)", len(rep.Due), len(rep.Sources), rep.Oracle)
	if len(rep.Due) == 0 {
		return rep, nil
	}

	texts := make(map[string]string, len(rep.Due))
	for _, d := range rep.Due {
		text, err := read(d.Path)
		if err != nil {
			return nil, syncerr.New(syncerr.KindWrite, d.Path, "", fmt.Errorf("reading source: %w", err))
		}
		texts[d.Path] = text
	}

	rep.Tasks, err = Schedule(rep.Due, texts, targets)
	if err != nil {
		return nil, err
	}
	if cfg.DryRun || len(rep.Tasks) == 0 {
		return rep, nil
	}

	if cfg.Provider == nil {
		return nil, syncerr.Configf("no translation provider configured")
	}
	prov, err := cfg.Provider()
	if err != nil {
		return nil, err
	}

	rep.Outcomes, err = Execute(ctx, rep.Tasks, prov, Options{
		Root:      cfg.Root,
		Workers:   cfg.Workers,
		KeepGoing: cfg.KeepGoing,
		OnStart:   cfg.OnStart,
		OnDone:    cfg.OnDone,
		OnLog:     cfg.OnLog,
		OnError:   cfg.OnError,
	})
	if err != nil {
		return rep, err
	}
	rep.Changed = ChangedPaths(rep.Outcomes)

	// A run narrowed below the pinned targets translated only some of them,
	// so the ledger would claim more than was done.
	if cfg.Policy == PolicyChecksum && cfg.Mode == ModeSync && !partial {
		lockPath, err := cfg.recordChecksums(rep, texts)
		if err != nil {
			return rep, err
		}
		rep.Changed = append(rep.Changed, lockPath)
	}

	sources := make([]string, len(rep.Due))
	for i, d := range rep.Due {
		sources[i] = d.Path
	}
	rep.Completion, err = Complete(ctx, cfg.VCS, rep.Changed, CompleteOptions{
		Sources:      sources,
		Commit:       cfg.Commit,
		Push:         cfg.Push,
		CommitPrefix: cfg.CommitPrefix,
		OnLog:        cfg.OnLog,
	})
	return rep, err
}

func (c *Config) oracle(reg *config.Registry, read func(string) (string, error)) (stale.Oracle, error) {
	if c.Mode == ModeStaged {
		return stale.Staged{Pending: c.VCS}, nil
	}
	switch c.Policy {
	case PolicyChecksum:
		if c.Lock == nil {
			lf, err := lockfile.Load(c.Root)
			if err != nil {
				return nil, syncerr.New(syncerr.KindConfig, lockfile.LockFileName, "", err)
			}
			c.Lock = lf
		}
		return stale.Checksum{Lock: c.Lock, Read: read}, nil
	default:
		ref, err := reg.Reference(c.Reference)
		if err != nil {
			return nil, err
		}
		return stale.History{Log: c.VCS, Reference: ref}, nil
	}
}

// recordChecksums stores the snapshots that were just translated and drops
// entries for documents that are no longer sources. It returns the
// repository-relative lock path.
func (c *Config) recordChecksums(rep *Report, texts map[string]string) (string, error) {
	c.Lock.UpdateBatch(texts)
	paths := make([]string, len(rep.Sources))
	for i, d := range rep.Sources {
		paths[i] = d.Path
	}
	c.Lock.Clean(paths)
	if err := c.Lock.Save(); err != nil {
		return "", syncerr.New(syncerr.KindWrite, lockfile.LockFileName, "", err)
	}
	rel, err := filepath.Rel(c.Root, c.Lock.Path())
	if err != nil {
		rel = lockfile.LockFileName
	}
	return filepath.ToSlash(rel), nil
}

func (c *Config) readWorkingTree(p string) (string, error) {
	data, err := os.ReadFile(filepath.Join(c.Root, filepath.FromSlash(p)))
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("%s is tracked but missing from the working tree", p)
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}
