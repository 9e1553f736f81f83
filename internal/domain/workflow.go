package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"pyrefac.dev/pkg/pyrefac/internal/adapter"
	"pyrefac.dev/pkg/pyrefac/internal/controller"
	m "pyrefac.dev/pkg/pyrefac/internal/model"
	"pyrefac.dev/pkg/pyrefac/pkg"
)

// RunArgs configures a batch refactoring run.
type RunArgs struct {
	Paths   []string
	Recipe  string
	Reports string
	Threads int
	DryRun  bool
	Exclude []string
}

// ViewArgs configures report viewing.
type ViewArgs struct {
	Reports string
}

// Workflow drives batch refactoring over many files.
type Workflow interface {
	// Run applies a recipe to every Python file under the given paths.
	// With DryRun set, nothing is written; diffs are only displayed.
	Run(ctx context.Context, args RunArgs) error

	// View displays previously saved change reports.
	View(ctx context.Context, args ViewArgs) error
}

type workflowPipeline struct {
	adapter.SourceFSAdapter
	adapter.ReportStore
	adapter.PythonParser
	controller.UI
}

// NewWorkflowPipeline creates a Workflow instance using a channel pipeline
// with the provided dependencies.
func NewWorkflowPipeline(
	fsAdapter adapter.SourceFSAdapter,
	reportStore adapter.ReportStore,
	parser adapter.PythonParser,
	ui controller.UI,
) Workflow {
	return &workflowPipeline{
		SourceFSAdapter: fsAdapter,
		ReportStore:     reportStore,
		PythonParser:    parser,
		UI:              ui,
	}
}

func (w *workflowPipeline) Run(ctx context.Context, args RunArgs) error {
	threads := args.Threads
	if threads < 1 {
		threads = 1
	}

	recipeData, err := w.ReadFile(m.Path(args.Recipe))
	if err != nil {
		slog.Error("Failed to read recipe", "path", args.Recipe, "error", err)
		return fmt.Errorf("read recipe: %w", err)
	}

	recipe, err := m.ParseRecipe(recipeData)
	if err != nil {
		slog.Error("Failed to parse recipe", "path", args.Recipe, "error", err)
		return err
	}

	mode := controller.WithApplyMode()
	if args.DryRun {
		mode = controller.WithPreviewMode()
	}

	if err := w.Start(ctx, mode); err != nil {
		slog.Error("Failed to start workflow UI", "error", err)
		return err
	}

	w.DisplayRunInfo(ctx, threads, len(recipe.Rules))

	changes, err := w.collectChanges(ctx, args, recipe, threads)
	if err != nil {
		w.Close(ctx)
		slog.Error("Failed to refactor sources", "error", err)

		return fmt.Errorf("refactor: %w", err)
	}

	if args.Reports != "" && !args.DryRun {
		if err := w.SaveChanges(m.Path(args.Reports), changes); err != nil {
			w.Close(ctx)
			slog.Error("Failed to save reports", "dir", args.Reports, "error", err)

			return fmt.Errorf("save reports: %w", err)
		}
	}

	if err := w.DisplaySummary(ctx, changes, nil); err != nil {
		w.Close(ctx)
		return err
	}

	if err := w.DisplayDiffs(ctx, changes); err != nil {
		w.Close(ctx)
		return err
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

func (w *workflowPipeline) View(ctx context.Context, args ViewArgs) error {
	changes, err := w.LoadChanges(m.Path(args.Reports))
	if err != nil {
		slog.Error("Failed to load reports", "dir", args.Reports, "error", err)
		return fmt.Errorf("load reports: %w", err)
	}

	if err := w.Start(ctx); err != nil {
		return err
	}

	if err := w.DisplaySummary(ctx, changes, nil); err != nil {
		w.Close(ctx)
		return err
	}

	if err := w.DisplayDiffs(ctx, changes); err != nil {
		w.Close(ctx)
		return err
	}

	w.Wait(ctx)
	w.Close(ctx)

	return nil
}

// collectChanges runs the pipeline: stream sources, refactor them in
// parallel, gather the results sorted by path. Results are spilled to disk
// so very large batches do not accumulate rewritten sources in memory.
func (w *workflowPipeline) collectChanges(ctx context.Context, args RunArgs, recipe m.Recipe, threads int) ([]m.FileChanges, error) {
	paths := make([]m.Path, 0, len(args.Paths))
	for _, p := range args.Paths {
		paths = append(paths, m.Path(p))
	}

	sourcesChannel, sourcesErrorChannel := w.Sources(ctx, paths, threads, args.Exclude...)
	changesChannel, changesErrorChannel := w.refactorChannel(ctx, sourcesChannel, recipe, args.DryRun, threads)

	errorChannel := mergeErrorChannels(sourcesErrorChannel, changesErrorChannel)

	spill, err := pkg.NewFileSpill[m.FileChanges]()
	if err != nil {
		return nil, err
	}

	defer func() {
		if err := spill.Close(); err != nil {
			slog.Warn("Failed to close spill", "path", spill.Path(), "error", err)
		}
	}()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		for {
			select {
			case <-groupCtx.Done():
				return groupCtx.Err()
			case change, ok := <-changesChannel:
				if !ok {
					return nil
				}

				if err := spill.Append(change); err != nil {
					return err
				}
			}
		}
	})

	group.Go(func() error {
		select {
		case <-groupCtx.Done():
			return groupCtx.Err()
		case err, ok := <-errorChannel:
			if !ok || err == nil {
				return nil
			}

			return err
		}
	})

	if err := group.Wait(); err != nil {
		return nil, err
	}

	allChanges := make([]m.FileChanges, 0, spill.Len())

	err = spill.Range(func(_ uint64, change m.FileChanges) error {
		allChanges = append(allChanges, change)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(allChanges, func(i, j int) bool {
		return allChanges[i].Source.ShortPath < allChanges[j].Source.ShortPath
	})

	return allChanges, nil
}

// refactorChannel fans sources out to a bounded worker pool, one refactoring
// session per file.
func (w *workflowPipeline) refactorChannel(ctx context.Context, sourcesChannel <-chan m.SourceFile, recipe m.Recipe, dryRun bool, threads int) (<-chan m.FileChanges, <-chan error) {
	changesChannel := make(chan m.FileChanges, threads)
	errorChannel := make(chan error, threads)

	var group errgroup.Group
	group.SetLimit(threads)

	go func() {
		for {
			select {
			case <-ctx.Done():
				// Context cancelled, drain remaining sources
				for range sourcesChannel {
				}

				return
			case source, ok := <-sourcesChannel:
				if !ok {
					// Channel closed, wait for all workers to finish
					err := group.Wait()

					close(changesChannel)

					if err != nil {
						errorChannel <- err
					}

					close(errorChannel)

					return
				}

				currentSource := source

				group.Go(func() error {
					change, err := w.refactorFile(ctx, currentSource, recipe, dryRun)
					if err != nil {
						return fmt.Errorf("refactor %s: %w", currentSource.FullPath, err)
					}

					select {
					case <-ctx.Done():
						return ctx.Err()
					case changesChannel <- change:
					}

					return nil
				})
			}
		}
	}()

	return changesChannel, errorChannel
}

// refactorFile applies every recipe rule to one file. Each rule is its own
// edit batch, so later rules see the generation produced by earlier ones.
func (w *workflowPipeline) refactorFile(ctx context.Context, source m.SourceFile, recipe m.Recipe, dryRun bool) (m.FileChanges, error) {
	original, err := w.ReadFile(source.FullPath)
	if err != nil {
		return m.FileChanges{}, err
	}

	tree, err := w.Parse(ctx, original)
	if err != nil {
		return m.FileChanges{}, err
	}

	session := NewRefactor(w.PythonParser, tree)

	for _, rule := range recipe.Rules {
		if err := ApplyRule(ctx, session, rule); err != nil {
			return m.FileChanges{}, err
		}
	}

	change := m.FileChanges{
		Source:  source,
		Records: session.Records(),
	}

	if !change.Changed() {
		return change, nil
	}

	output := session.Source()
	change.Output = string(output)

	change.Diff, err = controller.UnifiedDiff(string(source.ShortPath), original, output)
	if err != nil {
		return m.FileChanges{}, err
	}

	if dryRun {
		return change, nil
	}

	if err := w.WriteFile(source.FullPath, output, 0o600); err != nil {
		return m.FileChanges{}, err
	}

	change.Source.Hash, err = w.HashFile(source.FullPath)
	if err != nil {
		return m.FileChanges{}, err
	}

	slog.Debug("Rewrote file", "path", source.FullPath, "records", len(change.Records))

	return change, nil
}

func mergeErrorChannels(ch1, ch2 <-chan error) <-chan error {
	merged := make(chan error, 1)

	go func() {
		defer close(merged)

		for ch1 != nil || ch2 != nil {
			select {
			case err, ok := <-ch1:
				if !ok {
					ch1 = nil
				} else {
					merged <- err
					return // Send first error and close
				}
			case err, ok := <-ch2:
				if !ok {
					ch2 = nil
				} else {
					merged <- err
					return
				}
			}
		}
	}()

	return merged
}
