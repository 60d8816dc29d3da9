package engine

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// Options controls task execution.
type Options struct {
	// Root is the repository work tree targets are written under.
	Root string
	// Workers is the configured pool size as given by the operator
	// (empty means DefaultWorkers).
	Workers string
	// KeepGoing runs every task even after a failure and reports all
	// errors together. Without it the first failure stops scheduling.
	KeepGoing bool
	// OnStart is called before a task is sent to the provider.
	OnStart func(t Task)
	// OnDone is called with every outcome, successful or not.
	OnDone func(o Outcome)
	// OnLog emits log messages.
	OnLog func(format string, args ...any)
	// OnError emits error messages.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

// Execute runs tasks on a bounded pool and returns the outcomes of the tasks
// that ran, in task order.
//
// In the default fail-fast mode the first failure stops further tasks from
// starting; tasks already in flight finish on ctx and their writes stay on
// disk. With KeepGoing every task runs and the returned error aggregates all
// failures. Either way a non-nil error means the batch must not be staged.
func Execute(ctx context.Context, tasks []Task, prov Translator, opts Options) ([]Outcome, error) {
	if len(tasks) == 0 {
		return nil, nil
	}
	workers, err := Workers(opts.Workers, len(tasks))
	if err != nil {
		return nil, err
	}
	opts.log("Running %d tasks with %d workers", len(tasks), workers)

	outcomes := make([]Outcome, len(tasks))
	ran := make([]bool, len(tasks))

	var (
		g      errgroup.Group
		failed atomic.Bool
		mu     sync.Mutex
		merr   *multierror.Error
	)
	g.SetLimit(workers)

	for i, task := range tasks {
		if !opts.KeepGoing && failed.Load() {
			break
		}
		if ctx.Err() != nil {
			break
		}
		// Go blocks until a worker is free, so re-check after it returns.
		g.Go(func() error {
			if !opts.KeepGoing && failed.Load() {
				return nil
			}
			if opts.OnStart != nil {
				opts.OnStart(task)
			}
			o := Apply(ctx, task, prov, opts.Root)

			mu.Lock()
			outcomes[i] = o
			ran[i] = true
			if o.Err != nil {
				merr = multierror.Append(merr, o.Err)
			}
			mu.Unlock()

			if opts.OnDone != nil {
				opts.OnDone(o)
			}
			if o.Err != nil {
				failed.Store(true)
				opts.logError("%v", o.Err)
				return o.Err
			}
			return nil
		})
	}
	firstErr := g.Wait()

	done := make([]Outcome, 0, len(tasks))
	for i := range tasks {
		if ran[i] {
			done = append(done, outcomes[i])
		}
	}

	if firstErr == nil && ctx.Err() != nil {
		return done, ctx.Err()
	}
	if firstErr == nil {
		return done, nil
	}
	if opts.KeepGoing {
		return done, merr.ErrorOrNil()
	}
	return done, firstErr
}

// ChangedPaths returns the paths of outcomes that wrote a file.
func ChangedPaths(outcomes []Outcome) []string {
	var paths []string
	for _, o := range outcomes {
		if o.Err == nil && o.Changed {
			paths = append(paths, o.Path)
		}
	}
	return paths
}
